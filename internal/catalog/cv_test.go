package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cvDoc = `
source:
  CanESM5-1: CanESM5
frequency:
  monthly: mon
variable:
  t2m: tas
  height: null
attributes:
  experiment_id: experiment
  driving_model_id: driving_model
`

func TestLoadCVTable(t *testing.T) {
	cv, err := LoadCVTable([]byte(cvDoc))
	require.NoError(t, err)

	// attributes sub-table is split out
	assert.NotContains(t, cv.Columns, "attributes")
	assert.Equal(t, map[string]string{
		"experiment_id":    "experiment",
		"driving_model_id": "driving_model",
	}, cv.Attrs)

	got, keep := cv.Apply("source", "CanESM5-1")
	assert.True(t, keep)
	assert.Equal(t, "CanESM5", got)
}

func TestApplyIsIdempotent(t *testing.T) {
	cv, err := LoadCVTable([]byte(cvDoc))
	require.NoError(t, err)

	// an already-canonical value passes through unchanged
	got, keep := cv.Apply("source", "CanESM5")
	assert.True(t, keep)
	assert.Equal(t, "CanESM5", got)

	// unknown columns too
	got, keep = cv.Apply("domain", "NAM")
	assert.True(t, keep)
	assert.Equal(t, "NAM", got)
}

func TestApplyVariables(t *testing.T) {
	cv, err := LoadCVTable([]byte(cvDoc))
	require.NoError(t, err)

	// element-wise substitution; null-mapped entries are removed
	assert.Equal(t, []string{"tas", "pr"}, cv.ApplyVariables([]string{"t2m", "height", "pr"}))
}

func TestNilTablePassesThrough(t *testing.T) {
	var cv *CVTable
	got, keep := cv.Apply("source", "CanESM5")
	assert.True(t, keep)
	assert.Equal(t, "CanESM5", got)
	assert.Equal(t, []string{"tas"}, cv.ApplyVariables([]string{"tas"}))
}

func TestLoadCVTableMalformed(t *testing.T) {
	_, err := LoadCVTable([]byte("source: [not, a, mapping]"))
	assert.Error(t, err)

	// a null attribute translation makes no sense
	_, err = LoadCVTable([]byte("attributes:\n  experiment_id: null\n"))
	assert.Error(t, err)
}
