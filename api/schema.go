// Package api defines the declarative documents users feed the engine: the
// path schema describing how catalog facets map onto a directory structure.
package api

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Schema is the root of a path-schema document. It maps category names to
// ordered structure lists; within a category, the first structure whose
// conditions all hold renders the path.
type Schema map[string][]Structure

// Structure is one way of laying out a dataset on disk.
type Structure struct {
	// With guards the structure: every condition must hold for it to apply.
	With []Condition `yaml:"with"`
	// Structure lists the folder levels, root first.
	Structure []Element `yaml:"structure"`
	// Filename lists the facets joined into the file name. Null facets are
	// skipped; the special name "DATES" renders the date range.
	Filename []string `yaml:"filename"`
}

// Condition is one predicate of a structure's guard. Without a value it
// requires the facet to be non-null; with one, the facet must equal it (or
// any member, when the value is a list).
type Condition struct {
	Facet  string
	Values []string // nil means "facet is non-null"
}

// UnmarshalYAML decodes a condition mapping, accepting both scalar and list
// values.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Facet string    `yaml:"facet"`
		Value yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Facet == "" {
		return fmt.Errorf("line %d: condition needs a facet", node.Line)
	}
	c.Facet = raw.Facet

	switch raw.Value.Kind {
	case 0:
		// absent: non-null check only
	case yaml.ScalarNode:
		var v string
		if err := raw.Value.Decode(&v); err != nil {
			return err
		}
		c.Values = []string{v}
	case yaml.SequenceNode:
		if err := raw.Value.Decode(&c.Values); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: condition value must be a scalar or list", raw.Value.Line)
	}
	return nil
}

// ElementKind discriminates the folder-level variants.
type ElementKind int

const (
	// FieldRef renders the named facet's value.
	FieldRef ElementKind = iota
	// Text renders a fixed string.
	Text
	// Join renders its child elements joined by "_", skipping null ones.
	Join
	// Optional renders fixed text depending on whether a facet is null.
	Optional
)

// Element is one folder level of a structure. Exactly one variant is set,
// according to Kind. Join children are elements themselves, so lists may
// nest literals, facet references or optional text.
type Element struct {
	Kind  ElementKind
	Field string    // FieldRef: the facet name
	Value string    // Text: the literal
	Parts []Element // Join: the child elements
	Opt   *OptText  // Optional
}

// OptText renders IfSet when the facet is non-null and Else otherwise. An
// empty branch yields no folder level.
type OptText struct {
	Facet string `yaml:"facet"`
	IfSet string `yaml:"is_true"`
	Else  string `yaml:"else"`
}

// UnmarshalYAML decodes a folder level. A plain scalar is a facet
// reference, a sequence a join, a mapping with "text" a literal and one
// with "facet" an optional-text switch.
func (e *Element) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		e.Kind = FieldRef
		return node.Decode(&e.Field)
	case yaml.SequenceNode:
		e.Kind = Join
		return node.Decode(&e.Parts)
	case yaml.MappingNode:
		var probe map[string]yaml.Node
		if err := node.Decode(&probe); err != nil {
			return err
		}
		if text, ok := probe["text"]; ok {
			e.Kind = Text
			return text.Decode(&e.Value)
		}
		if _, ok := probe["facet"]; ok {
			e.Kind = Optional
			e.Opt = &OptText{}
			return node.Decode(e.Opt)
		}
		return fmt.Errorf("line %d: mapping level needs \"text\" or \"facet\"", node.Line)
	default:
		return fmt.Errorf("line %d: invalid folder level", node.Line)
	}
}

// ParseSchema decodes a path-schema document.
func ParseSchema(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse path schema: %w", err)
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("parse path schema: no categories")
	}
	return s, nil
}
