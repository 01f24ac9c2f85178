// Package catalog defines the tabular catalog model: the fixed column set,
// typed rows, controlled-vocabulary substitution, date and frequency
// handling, grouping identifiers, a bitmap facet index and SQLite
// persistence.
package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Columns is the official ordered column set of a catalog. Patterns may only
// capture these names unless the check is explicitly disabled.
var Columns = []string{
	"id",
	"type",
	"processing_level",
	"mip_era",
	"activity",
	"driving_institution",
	"driving_model",
	"institution",
	"source",
	"bias_adjust_institution",
	"bias_adjust_project",
	"experiment",
	"member",
	"xrfreq",
	"frequency",
	"variable",
	"domain",
	"date_start",
	"date_end",
	"version",
	"path",
	"format",
}

// IDColumns is the default set of columns a row's grouping identifier is
// derived from. Null columns are skipped.
var IDColumns = []string{
	"bias_adjust_project",
	"mip_era",
	"activity",
	"driving_model",
	"institution",
	"source",
	"experiment",
	"member",
	"domain",
}

// IsColumn reports whether name is an official catalog column.
func IsColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Row is one catalog entry describing a single dataset file (or packed
// store). String facets are null when empty; DateStart and DateEnd are both
// nil exactly for static ("fx") datasets.
type Row struct {
	ID                    string
	Type                  string
	ProcessingLevel       string
	MipEra                string
	Activity              string
	DrivingInstitution    string
	DrivingModel          string
	Institution           string
	Source                string
	BiasAdjustInstitution string
	BiasAdjustProject     string
	Experiment            string
	Member                string
	XRFreq                string
	Frequency             string
	Variable              []string // ordered variable names
	Domain                string
	DateStart             *time.Time
	DateEnd               *time.Time
	Version               string
	Path                  string
	Format                string
}

// Facet returns the string value of a named column, with ok=false when the
// column is null for this row. The variable tuple renders joined by "-",
// dates in compact YYYYMMDD form.
func (r *Row) Facet(name string) (string, bool) {
	var v string
	switch name {
	case "id":
		v = r.ID
	case "type":
		v = r.Type
	case "processing_level":
		v = r.ProcessingLevel
	case "mip_era":
		v = r.MipEra
	case "activity":
		v = r.Activity
	case "driving_institution":
		v = r.DrivingInstitution
	case "driving_model":
		v = r.DrivingModel
	case "institution":
		v = r.Institution
	case "source":
		v = r.Source
	case "bias_adjust_institution":
		v = r.BiasAdjustInstitution
	case "bias_adjust_project":
		v = r.BiasAdjustProject
	case "experiment":
		v = r.Experiment
	case "member":
		v = r.Member
	case "xrfreq":
		v = r.XRFreq
	case "frequency":
		v = r.Frequency
	case "variable":
		v = strings.Join(r.Variable, "-")
	case "domain":
		v = r.Domain
	case "date_start":
		if r.DateStart != nil {
			v = r.DateStart.Format("20060102")
		}
	case "date_end":
		if r.DateEnd != nil {
			v = r.DateEnd.Format("20060102")
		}
	case "version":
		v = r.Version
	case "path":
		v = r.Path
	case "format":
		v = r.Format
	}
	return v, v != ""
}

// SetFacet assigns a string value to a named column. Setting "variable"
// replaces the tuple with a single element. Date columns are not settable
// through this accessor; they carry typed values.
func (r *Row) SetFacet(name, value string) error {
	switch name {
	case "id":
		r.ID = value
	case "type":
		r.Type = value
	case "processing_level":
		r.ProcessingLevel = value
	case "mip_era":
		r.MipEra = value
	case "activity":
		r.Activity = value
	case "driving_institution":
		r.DrivingInstitution = value
	case "driving_model":
		r.DrivingModel = value
	case "institution":
		r.Institution = value
	case "source":
		r.Source = value
	case "bias_adjust_institution":
		r.BiasAdjustInstitution = value
	case "bias_adjust_project":
		r.BiasAdjustProject = value
	case "experiment":
		r.Experiment = value
	case "member":
		r.Member = value
	case "xrfreq":
		r.XRFreq = value
	case "frequency":
		r.Frequency = value
	case "variable":
		r.Variable = []string{value}
	case "domain":
		r.Domain = value
	case "version":
		r.Version = value
	case "path":
		r.Path = value
	case "format":
		r.Format = value
	default:
		return fmt.Errorf("unknown catalog column %q", name)
	}
	return nil
}

// Static reports whether the row describes a dataset without a time axis.
func (r *Row) Static() bool {
	return r.XRFreq == "fx" || r.Frequency == "fx"
}

// Catalog is an assembled set of rows.
type Catalog struct {
	Rows []Row
}

// Index builds a facet index over the catalog for discovery filtering.
func (c *Catalog) Index() *FacetIndex {
	return NewIndex(c.Rows)
}
