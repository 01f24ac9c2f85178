package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CVValue is one controlled-vocabulary replacement target. A null value in
// the YAML document marks the raw entry for removal (used to exclude
// variables from the catalog).
type CVValue struct {
	Name string
	Drop bool
}

// UnmarshalYAML decodes a scalar replacement, treating YAML null as Drop.
func (v *CVValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		v.Drop = true
		return nil
	}
	return node.Decode(&v.Name)
}

// CVTable maps raw facet values to canonical ones, per column. The reserved
// "attributes" key translates file attribute names to column names and is
// split out at load time. Substitution is idempotent: canonical values map
// to themselves by absence.
type CVTable struct {
	Columns map[string]map[string]CVValue
	// Attrs translates file attribute names to official column names.
	Attrs map[string]string
}

// LoadCVTable reads a controlled-vocabulary YAML document.
func LoadCVTable(data []byte) (*CVTable, error) {
	var raw map[string]map[string]CVValue
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse controlled vocabulary: %w", err)
	}

	t := &CVTable{Columns: raw, Attrs: make(map[string]string)}
	if attrs, ok := raw["attributes"]; ok {
		delete(raw, "attributes")
		for k, v := range attrs {
			if v.Drop {
				return nil, fmt.Errorf("controlled vocabulary: attribute %q maps to null", k)
			}
			t.Attrs[k] = v.Name
		}
	}
	return t, nil
}

// LoadCVTableFile reads a controlled-vocabulary YAML file.
func LoadCVTableFile(path string) (*CVTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read controlled vocabulary %s: %w", path, err)
	}
	return LoadCVTable(data)
}

// Apply canonicalizes a raw value for the given column. keep=false means
// the entry is mapped to null and must be removed. Values without a mapping
// pass through unchanged.
func (t *CVTable) Apply(column, raw string) (canonical string, keep bool) {
	if t == nil {
		return raw, true
	}
	col, ok := t.Columns[column]
	if !ok {
		return raw, true
	}
	v, ok := col[raw]
	if !ok {
		return raw, true
	}
	if v.Drop {
		return "", false
	}
	return v.Name, true
}

// ApplyVariables canonicalizes a variable tuple element-wise, filtering out
// removed entries and preserving order.
func (t *CVTable) ApplyVariables(vars []string) []string {
	if t == nil || len(vars) == 0 {
		return vars
	}
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if canonical, keep := t.Apply("variable", v); keep {
			out = append(out, canonical)
		}
	}
	return out
}
