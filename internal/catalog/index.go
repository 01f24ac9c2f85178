package catalog

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// FacetIndex is a column-major incidence index over catalog rows: for every
// (facet, value) pair, a bitmap of the rows carrying it. Variable tuples
// are indexed element-wise.
type FacetIndex struct {
	n       int
	columns map[string]map[string]*roaring.Bitmap
}

// indexedFacets are the discrete columns worth a bitmap; free-text and
// per-file columns (path, dates) are excluded.
var indexedFacets = []string{
	"id", "type", "processing_level", "mip_era", "activity",
	"driving_institution", "driving_model", "institution", "source",
	"bias_adjust_institution", "bias_adjust_project", "experiment",
	"member", "xrfreq", "frequency", "domain", "version", "format",
}

// NewIndex builds a FacetIndex over rows.
func NewIndex(rows []Row) *FacetIndex {
	ix := &FacetIndex{
		n:       len(rows),
		columns: make(map[string]map[string]*roaring.Bitmap),
	}
	for i := range rows {
		for _, facet := range indexedFacets {
			if v, ok := rows[i].Facet(facet); ok {
				ix.add(facet, v, uint32(i))
			}
		}
		for _, v := range rows[i].Variable {
			ix.add("variable", v, uint32(i))
		}
	}
	return ix
}

func (ix *FacetIndex) add(facet, value string, row uint32) {
	col, ok := ix.columns[facet]
	if !ok {
		col = make(map[string]*roaring.Bitmap)
		ix.columns[facet] = col
	}
	bm, ok := col[value]
	if !ok {
		bm = roaring.New()
		col[value] = bm
	}
	bm.Add(row)
}

// Filter returns the rows holding the given value for a facet. The result
// is a copy; callers may mutate it freely.
func (ix *FacetIndex) Filter(facet, value string) *roaring.Bitmap {
	if col, ok := ix.columns[facet]; ok {
		if bm, ok := col[value]; ok {
			return bm.Clone()
		}
	}
	return roaring.New()
}

// Select intersects facet criteria: within one facet the listed values are
// OR-ed, across facets AND-ed. It returns matching row positions in order.
func (ix *FacetIndex) Select(criteria map[string][]string) []uint32 {
	var result *roaring.Bitmap
	// deterministic facet order
	facets := make([]string, 0, len(criteria))
	for f := range criteria {
		facets = append(facets, f)
	}
	sort.Strings(facets)

	for _, facet := range facets {
		any := roaring.New()
		for _, v := range criteria[facet] {
			any.Or(ix.Filter(facet, v))
		}
		if result == nil {
			result = any
		} else {
			result.And(any)
		}
	}
	if result == nil {
		result = roaring.New()
		result.AddRange(0, uint64(ix.n))
	}
	return result.ToArray()
}

// Values lists the distinct values of a facet, sorted.
func (ix *FacetIndex) Values(facet string) []string {
	col := ix.columns[facet]
	vals := make([]string, 0, len(col))
	for v := range col {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}
