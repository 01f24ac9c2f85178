package extract

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/bstdenis/xscen/internal/catalog"
)

// DatasetMeta is the light-weight view of a dataset the format layer
// exposes: top-level attributes, data-variable names (dimension coordinates
// already excluded) and the time coordinate when one exists. No array data
// is ever deserialized.
type DatasetMeta struct {
	Attrs     map[string]string
	Variables []string
	Time      []time.Time // nil when the dataset has no time axis
}

// Opener opens the metadata of one asset. Implementations are supplied by
// the data-format collaborator; the file handle must not outlive the call.
type Opener func(fsys billy.Filesystem, path string) (*DatasetMeta, error)

// timeFields are the requested names that force a full dataset open, since
// headers alone cannot provide a time coordinate.
var timeFields = map[string]struct{}{
	"frequency":  {},
	"xrfreq":     {},
	"date_start": {},
	"date_end":   {},
}

// FileFields holds metadata read from an asset's own contents.
type FileFields struct {
	Fields    map[string]string
	Variables []string
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// ParseFromFile reads the requested field names from the asset at p.
//
// "variable" resolves to the data-variable names; "xrfreq"/"frequency" to
// the spacing of the time coordinate (or "fx" when there is none);
// "date_start"/"date_end" to its first and last timestamps. Any other name
// is looked up in the global attributes, through the attribute-name
// translation table first. An irregular or too-short time axis leaves the
// frequency unset with a warning; it never fails the call.
func (e *Extractor) ParseFromFile(p string, names []string) (*FileFields, error) {
	needTime := false
	wantVars := false
	for _, n := range names {
		if _, ok := timeFields[n]; ok {
			needTime = true
		}
		if n == "variable" {
			wantVars = true
		}
	}

	format := strings.TrimPrefix(path.Ext(p), ".")
	meta, err := e.openMeta(p, format, needTime, wantVars)
	if err != nil {
		return nil, err
	}

	ff := &FileFields{Fields: make(map[string]string)}
	inferred := ""
	inferredDone := false
	for _, name := range names {
		switch {
		case name == "variable":
			vars := append([]string(nil), meta.Variables...)
			sort.Strings(vars)
			ff.Variables = vars
		case name == "frequency" || name == "xrfreq":
			if meta.Time == nil {
				ff.Fields[name] = "fx"
				continue
			}
			if !inferredDone {
				inferred = catalog.InferXRFreq(meta.Time)
				inferredDone = true
				if inferred == "" {
					e.log.Warn("could not infer frequency from time axis",
						zap.String("path", p), zap.Int("points", len(meta.Time)))
				}
			}
			if inferred == "" {
				continue
			}
			if name == "xrfreq" {
				ff.Fields["xrfreq"] = inferred
			} else if freq, ok := catalog.XRFreqToFrequency(inferred); ok {
				ff.Fields["frequency"] = freq
			}
		case name == "date_start":
			if len(meta.Time) > 0 {
				t := meta.Time[0]
				ff.TimeStart = &t
			}
		case name == "date_end":
			if len(meta.Time) > 0 {
				t := meta.Time[len(meta.Time)-1]
				ff.TimeEnd = &t
			}
		default:
			if attr, ok := e.revAttrs[name]; ok {
				if v, found := meta.Attrs[attr]; found {
					ff.Fields[name] = strings.TrimSpace(v)
					continue
				}
			}
			if v, found := meta.Attrs[name]; found {
				ff.Fields[name] = strings.TrimSpace(v)
			}
		}
	}
	return ff, nil
}

// openMeta picks the cheapest way to read the asset's metadata: the zarr
// header fast path when possible, a registered opener otherwise.
func (e *Extractor) openMeta(p, format string, needTime, wantVars bool) (*DatasetMeta, error) {
	if format == "zarr" && !needTime {
		attrs, vars, err := readZarrHeader(e.fs, p, wantVars)
		if err != nil {
			return nil, err
		}
		return &DatasetMeta{Attrs: attrs, Variables: vars}, nil
	}
	opener, ok := e.openers[format]
	if !ok {
		return nil, fmt.Errorf("no opener registered for format %q", format)
	}
	return opener(e.fs, p)
}
