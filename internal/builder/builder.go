// Package builder renders catalog rows back into standardized paths using a
// declarative path schema, the inverse of pattern extraction.
package builder

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bstdenis/xscen/api"
	"github.com/bstdenis/xscen/internal/catalog"
)

const day = 24 * time.Hour

// Builder renders paths for one schema. It is immutable after construction
// and safe for concurrent use.
type Builder struct {
	schema api.Schema
	log    *zap.Logger
}

// New wraps a parsed schema.
func New(schema api.Schema, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{schema: schema, log: log}
}

// Categories lists the schema's category names.
func (b *Builder) Categories() []string {
	out := make([]string, 0, len(b.schema))
	for name := range b.schema {
		out = append(out, name)
	}
	return out
}

// BuildPath renders the row's standardized path under the named category,
// without a leading separator or file extension. The first structure whose
// guard holds is used; a row matching no structure is an error, never a
// silent fallback.
func (b *Builder) BuildPath(r *catalog.Row, category string) (string, error) {
	structures, ok := b.schema[category]
	if !ok {
		return "", fmt.Errorf("path schema has no category %q", category)
	}

	for i := range structures {
		st := &structures[i]
		if !guardHolds(st.With, r) {
			continue
		}
		p, err := b.render(st, r)
		if err != nil {
			return "", fmt.Errorf("structure %d of %q: %w", i, category, err)
		}
		return p, nil
	}
	return "", fmt.Errorf("no structure in %q matches row {%s}", category, describe(r))
}

// guardHolds evaluates a structure's conditions against a row.
func guardHolds(conds []api.Condition, r *catalog.Row) bool {
	for _, c := range conds {
		v, set := r.Facet(c.Facet)
		if !set {
			return false
		}
		if c.Values == nil {
			continue
		}
		found := false
		for _, want := range c.Values {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (b *Builder) render(st *api.Structure, r *catalog.Row) (string, error) {
	var levels []string
	for _, el := range st.Structure {
		seg, ok, err := renderLevel(el, r)
		if err != nil {
			return "", err
		}
		if ok {
			levels = append(levels, seg)
		}
	}

	name, err := renderFilename(st.Filename, r)
	if err != nil {
		return "", err
	}
	levels = append(levels, name)
	return strings.Join(levels, "/"), nil
}

// renderLevel evaluates one folder level. ok=false means the level yields
// no path segment (null facet, empty optional branch, all-null join).
func renderLevel(el api.Element, r *catalog.Row) (string, bool, error) {
	switch el.Kind {
	case api.FieldRef:
		if el.Field == "DATES" {
			seg, err := renderDates(r)
			return seg, seg != "", err
		}
		v, set := r.Facet(el.Field)
		return v, set, nil
	case api.Text:
		return el.Value, el.Value != "", nil
	case api.Join:
		var parts []string
		for _, child := range el.Parts {
			v, set, err := renderLevel(child, r)
			if err != nil {
				return "", false, err
			}
			if set {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, "_"), len(parts) > 0, nil
	case api.Optional:
		_, set := r.Facet(el.Opt.Facet)
		seg := el.Opt.Else
		if set {
			seg = el.Opt.IfSet
		}
		return seg, seg != "", nil
	default:
		return "", false, fmt.Errorf("unknown folder level kind %d", el.Kind)
	}
}

func renderFilename(names []string, r *catalog.Row) (string, error) {
	var parts []string
	for _, n := range names {
		if n == "DATES" {
			seg, err := renderDates(r)
			if err != nil {
				return "", err
			}
			if seg != "" {
				parts = append(parts, seg)
			}
			continue
		}
		if v, set := r.Facet(n); set {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("filename is empty for row {%s}", describe(r))
	}
	return strings.Join(parts, "_"), nil
}

// renderDates formats the row's date range at the coarsest precision that
// loses nothing: whole years as "2001" or "2001-2010", whole months as
// "200101" forms, anything else at day precision. Static rows render "fx".
func renderDates(r *catalog.Row) (string, error) {
	if r.Static() {
		return "fx", nil
	}
	if r.DateStart == nil || r.DateEnd == nil {
		return "", fmt.Errorf("row {%s} has no dates and is not static", describe(r))
	}
	start, end := *r.DateStart, *r.DateEnd
	freq := catalog.XRFreqToTimedelta(r.XRFreq)

	wholeYears := start.Month() == 1 && start.Day() == 1 &&
		(freq >= 365*day || (end.Month() == 12 && end.Day() > 29))
	if wholeYears {
		if start.Year() == end.Year() {
			return start.Format("2006"), nil
		}
		return start.Format("2006") + "-" + end.Format("2006"), nil
	}

	wholeMonths := start.Day() == 1 && (freq >= 30*day || end.Day() > 27)
	if wholeMonths {
		if start.Year() == end.Year() && start.Month() == end.Month() {
			return start.Format("200601"), nil
		}
		return start.Format("200601") + "-" + end.Format("200601"), nil
	}

	if start.Equal(end) {
		return start.Format("20060102"), nil
	}
	return start.Format("20060102") + "-" + end.Format("20060102"), nil
}

// describe renders a row's non-null facets for error messages.
func describe(r *catalog.Row) string {
	var parts []string
	for _, c := range catalog.Columns {
		if c == "path" {
			continue
		}
		if v, set := r.Facet(c); set {
			parts = append(parts, c+"="+v)
		}
	}
	return strings.Join(parts, " ")
}
