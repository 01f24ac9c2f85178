// Package extract turns candidate paths into raw metadata field sets, either
// by parsing the path against the configured patterns or, on request, by
// opening the asset and reading its own metadata.
package extract

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/bstdenis/xscen/internal/pattern"
)

// ErrNoMatch marks a path that fits none of the patterns. Callers drop such
// paths; the error is never fatal per file.
var ErrNoMatch = errors.New("path matches no pattern")

// Result is the raw metadata extracted for one asset. Field values are
// untyped strings straight from the path or the file attributes; dates stay
// raw tokens until the assembler parses them. TimeStart/TimeEnd are set
// instead when the bounds come from the file's own time coordinate.
type Result struct {
	Fields    map[string]string
	Variables []string // nil unless read from the file
	DateStart string
	DateEnd   string
	// StaticDates marks a date-range field that matched the literal "fx":
	// the asset declares itself time-invariant through its name.
	StaticDates bool
	TimeStart *time.Time
	TimeEnd   *time.Time
	Path      string
	Format    string
}

// Config tunes an Extractor.
type Config struct {
	// Openers maps a format tag ("nc", "zarr") to the collaborator able to
	// open that format's metadata. Zarr assets have a built-in header fast
	// path used whenever no time-axis field is requested.
	Openers map[string]Opener
	// AttrsMap translates file attribute names to official column names.
	AttrsMap map[string]string
	Logger   *zap.Logger
}

// Extractor parses paths against an ordered pattern list, first match wins.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	fs       billy.Filesystem
	patterns []*pattern.Pattern
	openers  map[string]Opener
	revAttrs map[string]string // column name → file attribute name
	log      *zap.Logger
}

// New builds an Extractor over fsys.
func New(fsys billy.Filesystem, patterns []*pattern.Pattern, cfg Config) *Extractor {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rev := make(map[string]string, len(cfg.AttrsMap))
	for attr, col := range cfg.AttrsMap {
		rev[col] = attr
	}
	return &Extractor{
		fs:       fsys,
		patterns: patterns,
		openers:  cfg.Openers,
		revAttrs: rev,
		log:      log,
	}
}

// ParseName extracts metadata from the path alone. Patterns are tried in
// declared order against the root-relative path; the first match wins.
// Values are trimmed of surrounding whitespace, discarded fields dropped.
func (e *Extractor) ParseName(root, p string) (*Result, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return nil, ErrNoMatch
	}
	rel = filepath.ToSlash(rel)

	var m *pattern.Match
	for _, patt := range e.patterns {
		if got, ok := patt.Parse(rel); ok {
			m = got
			break
		}
	}
	if m == nil {
		return nil, ErrNoMatch
	}

	res := &Result{
		Fields: make(map[string]string, len(m.Fields)),
		Path:   p,
		Format: strings.TrimPrefix(path.Ext(rel), "."),
	}
	for k, v := range m.Fields {
		res.Fields[k] = strings.TrimSpace(v)
	}
	if m.Dates != nil {
		res.DateStart = m.Dates.Start
		res.DateEnd = m.Dates.End
		res.StaticDates = m.Dates.Start == "" && m.Dates.End == ""
	}
	return res, nil
}

// Extract parses the path and, when readFields is non-empty, augments the
// result with fields read from the file itself. File-derived values
// override path-derived ones. A failed file read is logged and otherwise
// ignored: the path-derived fields stand.
func (e *Extractor) Extract(root, p string, readFields []string) (*Result, error) {
	res, err := e.ParseName(root, p)
	if err != nil {
		return nil, err
	}
	if len(readFields) == 0 {
		return res, nil
	}

	ff, err := e.ParseFromFile(p, readFields)
	if err != nil {
		e.log.Debug("could not read fields from file",
			zap.String("path", p), zap.Error(err))
		return res, nil
	}
	for k, v := range ff.Fields {
		res.Fields[k] = v
	}
	if ff.Variables != nil {
		res.Variables = ff.Variables
	}
	if ff.TimeStart != nil {
		res.TimeStart = ff.TimeStart
	}
	if ff.TimeEnd != nil {
		res.TimeEnd = ff.TimeEnd
	}
	return res, nil
}
