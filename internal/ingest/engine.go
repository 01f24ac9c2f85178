// Package ingest drives catalog assembly: it walks the configured roots,
// extracts raw metadata per asset, enriches it from file contents and the
// controlled vocabulary, and materializes the validated catalog rows.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/bstdenis/xscen/internal/catalog"
	"github.com/bstdenis/xscen/internal/extract"
	"github.com/bstdenis/xscen/internal/pattern"
	"github.com/bstdenis/xscen/internal/walker"
)

// ErrEmptyResult is returned when a scan yields no catalog rows, either
// because nothing matched the patterns or because validation dropped every
// candidate.
var ErrEmptyResult = errors.New("no files found matching the patterns")

// GroupedRead requests that some fields be read from one representative
// file per group instead of from every file. Groups are keyed by the
// path-derived values of the GroupBy columns; the representative's values
// are broadcast to all members.
type GroupedRead struct {
	GroupBy []string
	Fields  []string
}

// Options configures an Engine.
type Options struct {
	// ReadFromFile lists columns to read from every asset's own metadata.
	ReadFromFile []string
	// Groups lists per-group representative reads, applied after the
	// per-file reads.
	Groups []GroupedRead
	// Homogenous holds facet values known to hold for the entire scan; they
	// override whatever the patterns or files produced for those columns.
	Homogenous map[string]string
	// CV canonicalizes raw facet values after extraction.
	CV *catalog.CVTable
	// DirGlob restricts assets to those whose parent directory matches.
	DirGlob string
	// CheckPerms drops assets the current user cannot open.
	CheckPerms bool
	// IDColumns overrides the default identifier column set.
	IDColumns []string
	// AllowExtraFields accepts pattern fields outside the official column
	// set; their values are parsed but not carried into rows.
	AllowExtraFields bool
	// Workers sets the extraction parallelism; values below 2 mean serial.
	Workers int
	// Openers supplies the per-format metadata readers.
	Openers map[string]extract.Opener
	// AttrsMap translates file attribute names to column names; merged with
	// the CV table's attribute section, with CV entries winning.
	AttrsMap map[string]string
	Logger   *zap.Logger
}

// Engine assembles a catalog from one or more directory trees.
type Engine struct {
	fs         billy.Filesystem
	roots      []string
	patterns   []*pattern.Pattern
	walker     *walker.Walker
	extractor  *extract.Extractor
	readFields []string
	opts       Options
	log        *zap.Logger
}

// New compiles the pattern templates and validates their field names
// against the official column set.
func New(fsys billy.Filesystem, roots, templates []string, opts Options) (*Engine, error) {
	if len(roots) == 0 {
		return nil, errors.New("no root directories given")
	}
	if len(templates) == 0 {
		return nil, errors.New("no patterns given")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	patterns := make([]*pattern.Pattern, 0, len(templates))
	for _, tmpl := range templates {
		p, err := pattern.Compile(tmpl)
		if err != nil {
			return nil, err
		}
		if !opts.AllowExtraFields {
			for _, f := range p.Fields() {
				if !catalog.IsColumn(f) {
					return nil, fmt.Errorf("pattern %q: field %q is not an official column", tmpl, f)
				}
			}
		}
		patterns = append(patterns, p)
	}

	attrs := make(map[string]string, len(opts.AttrsMap))
	for k, v := range opts.AttrsMap {
		attrs[k] = v
	}
	if opts.CV != nil {
		for k, v := range opts.CV.Attrs {
			attrs[k] = v
		}
	}

	w := walker.New(fsys, roots, patterns, walker.Options{
		DirGlob:    opts.DirGlob,
		CheckPerms: opts.CheckPerms,
	})
	x := extract.New(fsys, patterns, extract.Config{
		Openers:  opts.Openers,
		AttrsMap: attrs,
		Logger:   log,
	})

	// homogenous columns are constant by declaration, reading them from
	// every file would be wasted opens
	var readFields []string
	for _, f := range opts.ReadFromFile {
		if _, fixed := opts.Homogenous[f]; !fixed {
			readFields = append(readFields, f)
		}
	}

	return &Engine{
		fs:         fsys,
		roots:      roots,
		patterns:   patterns,
		walker:     w,
		extractor:  x,
		readFields: readFields,
		opts:       opts,
		log:        log,
	}, nil
}

// Run performs one full assembly pass and returns the catalog.
func (e *Engine) Run(ctx context.Context) (*catalog.Catalog, error) {
	results, err := e.scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrEmptyResult
	}
	e.log.Info("scan complete", zap.Int("assets", len(results)))

	// deterministic ordering before grouping and row building
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	for _, g := range e.opts.Groups {
		e.applyGroupedRead(g, results)
	}
	e.applyHomogenous(results)

	rows := e.buildRows(results)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d assets scanned, none survived validation",
			ErrEmptyResult, len(results))
	}

	idCols := e.opts.IDColumns
	for i := range rows {
		rows[i].ID = catalog.GenerateID(&rows[i], idCols)
	}
	return &catalog.Catalog{Rows: rows}, nil
}

// scan walks the roots and extracts raw metadata for every candidate,
// fanning out across workers when configured. Non-matching paths are
// dropped silently; they are expected in mixed trees.
func (e *Engine) scan(ctx context.Context) ([]*extract.Result, error) {
	if e.opts.Workers < 2 {
		var results []*extract.Result
		err := e.walker.Walk(func(root, path string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.extractor.Extract(root, path, e.readFields)
			if errors.Is(err, extract.ErrNoMatch) {
				return nil
			}
			if err != nil {
				return err
			}
			results = append(results, res)
			return nil
		})
		return results, err
	}

	type candidate struct{ root, path string }
	candidates := make(chan candidate, e.opts.Workers)

	var (
		mu      sync.Mutex
		results []*extract.Result
		firstEr error
	)
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range candidates {
				res, err := e.extractor.Extract(c.root, c.path, e.readFields)
				if errors.Is(err, extract.ErrNoMatch) {
					continue
				}
				mu.Lock()
				if err != nil {
					if firstEr == nil {
						firstEr = err
					}
				} else {
					results = append(results, res)
				}
				mu.Unlock()
			}
		}()
	}

	walkErr := e.walker.Walk(func(root, path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		candidates <- candidate{root, path}
		return nil
	})
	close(candidates)
	wg.Wait()

	if walkErr != nil {
		return nil, walkErr
	}
	if firstEr != nil {
		return nil, firstEr
	}
	return results, nil
}

// applyGroupedRead reads the group's fields once per group from its first
// member and broadcasts them. A failed representative read leaves the group
// untouched.
func (e *Engine) applyGroupedRead(g GroupedRead, results []*extract.Result) {
	groups := make(map[string][]*extract.Result)
	var order []string
	for _, res := range results {
		key := groupKey(g.GroupBy, res)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], res)
	}

	for _, key := range order {
		members := groups[key]
		rep := members[0]
		e.log.Debug("reading group representative",
			zap.String("group", key),
			zap.String("path", rep.Path),
			zap.Int("members", len(members)))

		ff, err := e.extractor.ParseFromFile(rep.Path, g.Fields)
		if err != nil {
			e.log.Warn("grouped read failed, group left as parsed",
				zap.String("path", rep.Path), zap.Error(err))
			continue
		}
		for _, res := range members {
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
		}
	}
}

func groupKey(columns []string, res *extract.Result) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = res.Fields[c]
	}
	return strings.Join(parts, "/")
}

// applyHomogenous assigns the scan-wide constants, overriding any parsed or
// file-derived value: the caller has declared these columns uniform across
// the whole scan.
func (e *Engine) applyHomogenous(results []*extract.Result) {
	if len(e.opts.Homogenous) == 0 {
		return
	}
	for _, res := range results {
		for col, val := range e.opts.Homogenous {
			if col == "variable" {
				res.Variables = nil
			}
			res.Fields[col] = val
		}
	}
}

// buildRows turns raw results into typed rows: controlled-vocabulary
// substitution, frequency reconciliation, date resolution and validation.
// Rows lacking dates without being static are dropped with a warning.
func (e *Engine) buildRows(results []*extract.Result) []catalog.Row {
	rows := make([]catalog.Row, 0, len(results))
	var dropped []string
	for _, res := range results {
		row, err := e.buildRow(res)
		if err != nil {
			e.log.Warn("discarding asset", zap.String("path", res.Path), zap.Error(err))
			continue
		}
		if row.DateStart == nil && row.DateEnd == nil && !row.Static() {
			dropped = append(dropped, res.Path)
			continue
		}
		rows = append(rows, *row)
	}
	if len(dropped) > 0 {
		e.log.Warn("dropped assets with no dates and no static frequency",
			zap.Int("count", len(dropped)), zap.Strings("paths", dropped))
	}
	return rows
}

func (e *Engine) buildRow(res *extract.Result) (*catalog.Row, error) {
	row := &catalog.Row{Path: res.Path, Format: res.Format}

	cv := e.opts.CV
	dateStart, dateEnd := res.DateStart, res.DateEnd
	for name, raw := range res.Fields {
		// explicit date fields in a pattern carry raw tokens too
		if name == "date_start" {
			dateStart = raw
			continue
		}
		if name == "date_end" {
			dateEnd = raw
			continue
		}
		val, keep := cv.Apply(name, raw)
		if !keep || val == "" {
			continue
		}
		if err := row.SetFacet(name, val); err != nil {
			if e.opts.AllowExtraFields {
				continue
			}
			return nil, err
		}
	}
	if res.Variables != nil {
		row.Variable = cv.ApplyVariables(res.Variables)
	} else {
		row.Variable = cv.ApplyVariables(row.Variable)
	}

	// a date range that matched the literal "fx" declares a static asset
	if res.StaticDates && row.XRFreq == "" && row.Frequency == "" {
		row.XRFreq = "fx"
	}

	// each frequency notation fills the other when only one was captured
	if row.XRFreq != "" && row.Frequency == "" {
		if freq, ok := catalog.XRFreqToFrequency(row.XRFreq); ok {
			row.Frequency = freq
		}
	}
	if row.Frequency != "" && row.XRFreq == "" {
		if code, ok := catalog.FrequencyToXRFreq(row.Frequency); ok {
			row.XRFreq = code
		}
	}

	// time coordinates read from the file win over path tokens
	switch {
	case res.TimeStart != nil:
		t := *res.TimeStart
		row.DateStart = &t
	case dateStart != "":
		t, err := catalog.ParseDate(dateStart, false)
		if err != nil {
			return nil, fmt.Errorf("date_start: %w", err)
		}
		row.DateStart = &t
	}
	switch {
	case res.TimeEnd != nil:
		t := *res.TimeEnd
		row.DateEnd = &t
	case dateEnd != "":
		t, err := catalog.ParseDate(dateEnd, true)
		if err != nil {
			return nil, fmt.Errorf("date_end: %w", err)
		}
		row.DateEnd = &t
	}
	if row.DateStart != nil && row.DateEnd != nil && row.DateEnd.Before(*row.DateStart) {
		return nil, fmt.Errorf("date_end %s precedes date_start %s",
			row.DateEnd.Format("20060102"), row.DateStart.Format("20060102"))
	}
	return row, nil
}
