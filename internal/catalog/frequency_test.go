package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestXRFreqToFrequency(t *testing.T) {
	cases := map[string]string{
		"H":      "1hr",
		"3H":     "3hr",
		"6H":     "6hr",
		"D":      "day",
		"W":      "sem",
		"MS":     "mon",
		"M":      "mon",
		"QS-DEC": "qtr",
		"YS":     "yr",
		"AS-JUL": "yr",
		"fx":     "fx",
	}
	for code, want := range cases {
		got, ok := XRFreqToFrequency(code)
		assert.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}
	_, ok := XRFreqToFrequency("bogus")
	assert.False(t, ok)
}

func TestFrequencyToXRFreq(t *testing.T) {
	cases := map[string]string{
		"1hr": "H",
		"3hr": "3H",
		"day": "D",
		"mon": "MS",
		"qtr": "QS-DEC",
		"yr":  "YS",
		"fx":  "fx",
	}
	for freq, want := range cases {
		got, ok := FrequencyToXRFreq(freq)
		assert.True(t, ok, freq)
		assert.Equal(t, want, got, freq)
	}

	// round trip through both tables is stable
	for freq := range cases {
		code, _ := FrequencyToXRFreq(freq)
		back, ok := XRFreqToFrequency(code)
		assert.True(t, ok)
		assert.Equal(t, freq, back)
	}
}

func TestXRFreqToTimedelta(t *testing.T) {
	assert.Equal(t, time.Hour, XRFreqToTimedelta("H"))
	assert.Equal(t, 3*time.Hour, XRFreqToTimedelta("3H"))
	assert.Equal(t, 24*time.Hour, XRFreqToTimedelta("D"))
	assert.Equal(t, 30*24*time.Hour, XRFreqToTimedelta("MS"))
	assert.Equal(t, 90*24*time.Hour, XRFreqToTimedelta("QS-DEC"))
	assert.Equal(t, 365*24*time.Hour, XRFreqToTimedelta("YS"))
	assert.Equal(t, time.Duration(0), XRFreqToTimedelta("fx"))
}

func seq(start time.Time, step time.Duration, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * step)
	}
	return out
}

func TestInferXRFreq(t *testing.T) {
	start := date(2001, 1, 1)

	assert.Equal(t, "D", InferXRFreq(seq(start, 24*time.Hour, 10)))
	assert.Equal(t, "H", InferXRFreq(seq(start, time.Hour, 10)))
	assert.Equal(t, "6H", InferXRFreq(seq(start, 6*time.Hour, 10)))
	assert.Equal(t, "W", InferXRFreq(seq(start, 7*24*time.Hour, 10)))

	// month starts: deltas vary between 28 and 31 days
	months := make([]time.Time, 12)
	for i := range months {
		months[i] = date(2001, time.Month(i+1), 1)
	}
	assert.Equal(t, "MS", InferXRFreq(months))

	// year starts
	years := make([]time.Time, 6)
	for i := range years {
		years[i] = date(2001+i, 1, 1)
	}
	assert.Equal(t, "YS", InferXRFreq(years))

	// 360-day calendar annual spacing still reads as annual
	assert.Equal(t, "YS", InferXRFreq(seq(start, 360*24*time.Hour, 5)))
	// and 30-day uniform spacing as monthly
	assert.Equal(t, "MS", InferXRFreq(seq(start, 30*24*time.Hour, 5)))
}

func TestInferXRFreqRoundsToMinute(t *testing.T) {
	// 0.4s of floating-point jitter must not break daily detection
	times := seq(date(2001, 1, 1), 24*time.Hour, 8)
	for i := range times {
		if i%2 == 1 {
			times[i] = times[i].Add(400 * time.Millisecond)
		}
	}
	assert.Equal(t, "D", InferXRFreq(times))
}

func TestInferXRFreqIrregularOrShort(t *testing.T) {
	start := date(2001, 1, 1)

	// too short
	assert.Empty(t, InferXRFreq(seq(start, 24*time.Hour, 3)))
	assert.Empty(t, InferXRFreq(nil))

	// irregular
	times := []time.Time{
		start,
		start.Add(24 * time.Hour),
		start.Add(72 * time.Hour),
		start.Add(80 * time.Hour),
		start.Add(200 * time.Hour),
	}
	assert.Empty(t, InferXRFreq(times))
}
