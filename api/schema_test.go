package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema([]byte(`
raw:
  - with:
      - facet: type
        value: simulation
      - facet: mip_era
        value: [CMIP5, CMIP6]
      - facet: source
    structure:
      - text: raw
      - [mip_era, activity]
      - source
      - facet: bias_adjust_project
        is_true: biasadjusted
        else: regridded
    filename:
      - variable
      - DATES
`))
	require.NoError(t, err)
	require.Len(t, s["raw"], 1)
	st := s["raw"][0]

	require.Len(t, st.With, 3)
	assert.Equal(t, Condition{Facet: "type", Values: []string{"simulation"}}, st.With[0])
	assert.Equal(t, Condition{Facet: "mip_era", Values: []string{"CMIP5", "CMIP6"}}, st.With[1])
	assert.Equal(t, Condition{Facet: "source"}, st.With[2], "bare facet means non-null check")

	require.Len(t, st.Structure, 4)
	assert.Equal(t, Text, st.Structure[0].Kind)
	assert.Equal(t, "raw", st.Structure[0].Value)
	assert.Equal(t, Join, st.Structure[1].Kind)
	assert.Equal(t, []Element{
		{Kind: FieldRef, Field: "mip_era"},
		{Kind: FieldRef, Field: "activity"},
	}, st.Structure[1].Parts)
	assert.Equal(t, FieldRef, st.Structure[2].Kind)
	assert.Equal(t, "source", st.Structure[2].Field)
	assert.Equal(t, Optional, st.Structure[3].Kind)
	assert.Equal(t, &OptText{Facet: "bias_adjust_project", IfSet: "biasadjusted", Else: "regridded"}, st.Structure[3].Opt)

	assert.Equal(t, []string{"variable", "DATES"}, st.Filename)
}

func TestParseSchemaErrors(t *testing.T) {
	cases := map[string]string{
		"empty document":       ``,
		"condition sans facet": "raw:\n  - with:\n      - value: x\n",
		"bad folder level":     "raw:\n  - structure:\n      - nope: 1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchema([]byte(doc))
			assert.Error(t, err)
		})
	}
}
