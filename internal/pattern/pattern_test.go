package pattern

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndParse(t *testing.T) {
	p, err := Compile("{source}/{experiment}_{member}.nc")
	require.NoError(t, err)

	m, ok := p.Parse("CanESM5/ssp585_r1i1p1f1.nc")
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"source":     "CanESM5",
		"experiment": "ssp585",
		"member":     "r1i1p1f1",
	}, m.Fields)
	assert.Nil(t, m.Dates)
}

func TestRoundTrip(t *testing.T) {
	// Rendering a template with concrete values then parsing it back must
	// recover exactly those values.
	cases := []struct {
		template string
		values   map[string]string
	}{
		{"{source}/{variable}.nc", map[string]string{"source": "CRCM5", "variable": "tasmax"}},
		{"{activity}/{source}_{domain}.zarr", map[string]string{"activity": "CMIP", "source": "MIROC6", "domain": "NAM"}},
		{"{institution}/{source}/{variable}_{domain}.nc", map[string]string{"institution": "CCCma", "source": "CanESM5", "variable": "pr", "domain": "QC"}},
	}
	for _, tc := range cases {
		p, err := Compile(tc.template)
		require.NoError(t, err)

		rendered := tc.template
		for k, v := range tc.values {
			rendered = strings.ReplaceAll(rendered, "{"+k+"}", v)
		}
		m, ok := p.Parse(rendered)
		require.True(t, ok, "template %s against %s", tc.template, rendered)
		assert.Equal(t, tc.values, m.Fields)
	}
}

func TestWordGrammarExcludesUnderscore(t *testing.T) {
	p := MustCompile("{source}_{experiment}.nc")

	m, ok := p.Parse("CanESM5_ssp585.nc")
	require.True(t, ok)
	assert.Equal(t, "CanESM5", m.Fields["source"])

	// the default grammar cannot swallow the underscore, so the split is
	// unambiguous when the segments themselves have none
	m, ok = p.Parse("a_b.nc")
	require.True(t, ok)
	assert.Equal(t, "a", m.Fields["source"])
	assert.Equal(t, "b", m.Fields["experiment"])
}

func TestLooseGrammarAllowsUnderscore(t *testing.T) {
	p := MustCompile("{name:_}.nc")
	m, ok := p.Parse("some_long_name.nc")
	require.True(t, ok)
	assert.Equal(t, "some_long_name", m.Fields["name"])

	// Loose still never crosses a path separator.
	_, ok = p.Parse("dir/some_name.nc")
	assert.False(t, ok)
}

func TestDateBounds(t *testing.T) {
	p := MustCompile("{variable}_{DATES}.nc")

	// single token: echoed as both start and end
	m, ok := p.Parse("tas_20010101.nc")
	require.True(t, ok)
	require.NotNil(t, m.Dates)
	assert.Equal(t, "20010101", m.Dates.Start)
	assert.Equal(t, "20010101", m.Dates.End)

	// two tokens
	m, ok = p.Parse("tas_2001-2030.nc")
	require.True(t, ok)
	assert.Equal(t, "2001", m.Dates.Start)
	assert.Equal(t, "2030", m.Dates.End)

	// fx: static dataset, no bounds
	m, ok = p.Parse("orog_fx.nc")
	require.True(t, ok)
	require.NotNil(t, m.Dates)
	assert.Empty(t, m.Dates.Start)
	assert.Empty(t, m.Dates.End)

	// DATES never appears as a plain field
	assert.NotContains(t, m.Fields, "DATES")

	// non-dates are rejected
	_, ok = p.Parse("tas_notadate.nc")
	assert.False(t, ok)
	_, ok = p.Parse("tas_123.nc") // too short
	assert.False(t, ok)
}

func TestDiscardFields(t *testing.T) {
	p := MustCompile("{source}/{?ignored project name}_{DATES}.nc")

	m, ok := p.Parse("CanESM5/raw_20010101-20301231.nc")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"source": "CanESM5"}, m.Fields)
	assert.Equal(t, "20010101", m.Dates.Start)
	assert.Equal(t, "20301231", m.Dates.End)

	// a discarded segment still must match structurally
	_, ok = p.Parse("CanESM5/raw_extra_20010101.nc")
	assert.False(t, ok)
}

func TestWildcardLooseField(t *testing.T) {
	// "{?:_}" swallows an arbitrary underscored middle without emitting keys.
	p := MustCompile("{source}/{?:_}_{DATES}.nc")
	m, ok := p.Parse("CanESM5/day_tas_r1i1p1f1_20010101-20101231.nc")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"source": "CanESM5"}, m.Fields)
	assert.Equal(t, "20010101", m.Dates.Start)
}

func TestCompileErrors(t *testing.T) {
	for _, tmpl := range []string{
		"{source",         // unbalanced {
		"{source}}x",      // stray }
		"}backwards{",     // stray }
		"{a{b}",           // nested { inside a field
		"{source:bogus}",  // unknown grammar tag
		"{}",              // empty non-wildcard name
	} {
		_, err := Compile(tmpl)
		require.Error(t, err, "template %q", tmpl)
		var ce *CompileError
		assert.ErrorAs(t, err, &ce)
	}
}

func TestEscapedBraces(t *testing.T) {
	p, err := Compile("{{literal}}_{source}.nc")
	require.NoError(t, err)
	m, ok := p.Parse("{literal}_CanESM5.nc")
	require.True(t, ok)
	assert.Equal(t, "CanESM5", m.Fields["source"])
}

func TestDepthAndExt(t *testing.T) {
	p := MustCompile("{activity}/{source}/{variable}_{DATES}.nc")
	assert.Equal(t, 2, p.Depth())
	assert.Equal(t, ".nc", p.Ext())

	z := MustCompile("{source}/{variable}.zarr")
	assert.Equal(t, 1, z.Depth())
	assert.Equal(t, ".zarr", z.Ext())
}

func TestFields(t *testing.T) {
	p := MustCompile("{source}/{?skip}_{variable}_{DATES}.nc")
	assert.ElementsMatch(t, []string{"source", "variable"}, p.Fields())
}

func TestConcurrentParse(t *testing.T) {
	p := MustCompile("{source}/{variable}_{DATES}.nc")
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				rel := fmt.Sprintf("model%d/tas_%04d0101.nc", i, 2000+j%50)
				m, ok := p.Parse(rel)
				if !ok || m.Fields["source"] != fmt.Sprintf("model%d", i) {
					t.Errorf("concurrent parse failed for %s", rel)
					return
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
