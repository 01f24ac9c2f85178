package catalog

import "strings"

// GenerateID derives the grouping identifier of a row from idColumns,
// joining non-null values with underscores. Files of one logical dataset
// (same simulation, different time chunks) share an identifier. A nil
// idColumns uses IDColumns.
func GenerateID(r *Row, idColumns []string) string {
	if idColumns == nil {
		idColumns = IDColumns
	}
	parts := make([]string, 0, len(idColumns))
	for _, col := range idColumns {
		if v, ok := r.Facet(col); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "_")
}
