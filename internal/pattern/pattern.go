// Package pattern compiles path templates with named fields into reusable
// matchers. A template looks like "{source}/{?ignored}_{DATES}.nc": braces
// mark fields, everything else is literal text. Matching a path against a
// compiled pattern recovers the field values, the inverse of formatting.
package pattern

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Grammar selects the character class a field matches.
type Grammar int

const (
	// Word matches a maximal run excluding path separators and underscores.
	Word Grammar = iota
	// Loose matches a maximal run excluding path separators only.
	Loose
	// DateRange matches a single 4-8 digit date, two dates separated by a
	// hyphen, or the literal token "fx" (no time axis).
	DateRange
)

// grammar regexes, one capture group each
const (
	reWord      = `([^_/\\]*)`
	reLoose     = `([^/\\]*)`
	reDateRange = `((?:[0-9]{4,8}(?:-[0-9]{4,8})?)|fx)`
)

// field is one captured segment of the compiled template.
type field struct {
	name    string
	grammar Grammar
	discard bool // "?"-prefixed: must match structurally but produces no key
}

// Pattern is a compiled path template. Compile once, match many times;
// a Pattern carries no mutable state and is safe for concurrent use.
type Pattern struct {
	src    string
	re     *regexp.Regexp
	fields []field // group i+1 of re corresponds to fields[i]
	depth  int
	ext    string
}

// DateBounds is the parsed value of a date-range field. Start and End hold
// raw date tokens; both empty means the literal "fx" (static dataset).
type DateBounds struct {
	Start string
	End   string
}

// Match holds the named captures of one successful parse. Discarded and
// wildcard fields never appear in Fields.
type Match struct {
	Fields map[string]string
	Dates  *DateBounds // nil when the pattern has no date-range field
}

// CompileError reports a malformed template. Compilation never degrades to
// a more permissive match.
type CompileError struct {
	Template string
	Reason   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Template, e.Reason)
}

// Compile parses a template into a Pattern.
//
// A field is "{name}" or "{name:spec}". The empty spec matches the Word
// grammar, the "_" spec the Loose grammar. A field named "DATES" always uses
// the DateRange grammar. Names prefixed with "?" are matched but dropped
// from the output; they may contain spaces for readability. Literal braces
// are written doubled ("{{", "}}").
func Compile(template string) (*Pattern, error) {
	p := &Pattern{
		src:   template,
		depth: strings.Count(template, "/"),
		ext:   path.Ext(template),
	}

	var re strings.Builder
	re.WriteString("^")

	s := template
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, "{{"):
			re.WriteString(regexp.QuoteMeta("{"))
			s = s[2:]
		case strings.HasPrefix(s, "}}"):
			re.WriteString(regexp.QuoteMeta("}"))
			s = s[2:]
		case s[0] == '}':
			return nil, &CompileError{template, "unbalanced '}'"}
		case s[0] == '{':
			end := strings.IndexByte(s, '}')
			if end < 0 || strings.IndexByte(s[1:end], '{') >= 0 {
				return nil, &CompileError{template, "unbalanced '{'"}
			}
			f, err := parseField(s[1:end], template)
			if err != nil {
				return nil, err
			}
			p.fields = append(p.fields, f)
			switch f.grammar {
			case Loose:
				re.WriteString(reLoose)
			case DateRange:
				re.WriteString(reDateRange)
			default:
				re.WriteString(reWord)
			}
			s = s[end+1:]
		default:
			next := strings.IndexAny(s, "{}")
			if next < 0 {
				next = len(s)
			}
			re.WriteString(regexp.QuoteMeta(s[:next]))
			s = s[next:]
		}
	}
	re.WriteString("$")

	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, &CompileError{template, err.Error()}
	}
	p.re = compiled
	return p, nil
}

// MustCompile is Compile that panics on error, for fixed patterns in tests.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

func parseField(spec, template string) (field, error) {
	name := spec
	tag := ""
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		name, tag = spec[:i], spec[i+1:]
	}

	f := field{name: name}
	if strings.HasPrefix(name, "?") {
		f.discard = true
		f.name = strings.TrimPrefix(name, "?")
	} else if name == "" {
		return f, &CompileError{template, "empty field name (use '?' for a wildcard)"}
	}

	switch tag {
	case "":
		f.grammar = Word
	case "_":
		f.grammar = Loose
	case "datebounds":
		f.grammar = DateRange
	default:
		return f, &CompileError{template, fmt.Sprintf("unknown grammar tag %q", tag)}
	}
	if f.name == "DATES" {
		f.grammar = DateRange
	}
	return f, nil
}

// Parse matches a root-relative path (slash-separated) against the pattern.
// It returns the named captures of the match, or ok=false if the path does
// not fit. Patterns are tried against whole paths, never substrings.
func (p *Pattern) Parse(relpath string) (*Match, bool) {
	groups := p.re.FindStringSubmatch(relpath)
	if groups == nil {
		return nil, false
	}

	m := &Match{Fields: make(map[string]string)}
	for i, f := range p.fields {
		raw := groups[i+1]
		if f.grammar == DateRange {
			m.Dates = parseDateBounds(raw)
			continue
		}
		if f.discard {
			continue
		}
		m.Fields[f.name] = raw
	}
	return m, true
}

func parseDateBounds(tok string) *DateBounds {
	if tok == "fx" {
		return &DateBounds{}
	}
	if start, end, ok := strings.Cut(tok, "-"); ok {
		return &DateBounds{Start: start, End: end}
	}
	// single date: echoed as both bounds
	return &DateBounds{Start: tok, End: tok}
}

// Fields returns the named, non-discarded field names of the pattern,
// excluding the DATES pseudo-field.
func (p *Pattern) Fields() []string {
	var names []string
	for _, f := range p.fields {
		if f.discard || f.grammar == DateRange {
			continue
		}
		names = append(names, f.name)
	}
	return names
}

// Depth is the number of path separators in the template. Candidate paths
// at a different depth under their root can never match.
func (p *Pattern) Depth() int { return p.depth }

// Ext is the trailing suffix of the template (".nc", ".zarr", ...).
func (p *Pattern) Ext() string { return p.ext }

// String returns the source template.
func (p *Pattern) String() string { return p.src }
