package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Machine frequency codes ("xrfreq") follow the offset-alias convention:
// an optional multiplier, a base unit letter, an optional anchor suffix
// ("QS-DEC", "YS"). The human frequency names form a closed vocabulary.

const day = 24 * time.Hour

// baseFrequency maps an xrfreq base unit to its human frequency name.
var baseFrequency = map[string]string{
	"T":   "subhr",
	"min": "subhr",
	"H":   "1hr",
	"D":   "day",
	"W":   "sem",
	"M":   "mon",
	"MS":  "mon",
	"Q":   "qtr",
	"QS":  "qtr",
	"A":   "yr",
	"AS":  "yr",
	"Y":   "yr",
	"YS":  "yr",
	"fx":  "fx",
}

// frequencyXRFreq maps a human frequency name to its canonical xrfreq code.
var frequencyXRFreq = map[string]string{
	"subhr": "T",
	"1hr":   "H",
	"3hr":   "3H",
	"6hr":   "6H",
	"day":   "D",
	"sem":   "W",
	"mon":   "MS",
	"qtr":   "QS-DEC",
	"yr":    "YS",
	"fx":    "fx",
}

// basePeriod is the nominal length of one period of an xrfreq base unit.
var basePeriod = map[string]time.Duration{
	"T":   time.Minute,
	"min": time.Minute,
	"H":   time.Hour,
	"D":   day,
	"W":   7 * day,
	"M":   30 * day,
	"MS":  30 * day,
	"Q":   90 * day,
	"QS":  90 * day,
	"A":   365 * day,
	"AS":  365 * day,
	"Y":   365 * day,
	"YS":  365 * day,
}

// splitXRFreq splits "3H" into (3, "H") and "QS-DEC" into (1, "QS").
func splitXRFreq(code string) (int, string) {
	i := 0
	for i < len(code) && code[i] >= '0' && code[i] <= '9' {
		i++
	}
	mult := 1
	if i > 0 {
		mult, _ = strconv.Atoi(code[:i])
	}
	base, _, _ := strings.Cut(code[i:], "-")
	return mult, base
}

// XRFreqToFrequency translates a machine frequency code to its human name.
// Hourly multipliers keep their count ("3H" becomes "3hr").
func XRFreqToFrequency(code string) (string, bool) {
	mult, base := splitXRFreq(code)
	name, ok := baseFrequency[base]
	if !ok {
		return "", false
	}
	if base == "H" && mult > 1 {
		return fmt.Sprintf("%dhr", mult), true
	}
	return name, true
}

// FrequencyToXRFreq translates a human frequency name to the canonical
// machine code.
func FrequencyToXRFreq(freq string) (string, bool) {
	code, ok := frequencyXRFreq[freq]
	if !ok {
		// "12hr" style names carry their multiplier
		if n, found := strings.CutSuffix(freq, "hr"); found {
			if mult, err := strconv.Atoi(n); err == nil && mult > 0 {
				return fmt.Sprintf("%dH", mult), true
			}
		}
		return "", false
	}
	return code, true
}

// XRFreqToTimedelta returns the nominal period length of a machine
// frequency code, or 0 for "fx" and unknown codes.
func XRFreqToTimedelta(code string) time.Duration {
	mult, base := splitXRFreq(code)
	return time.Duration(mult) * basePeriod[base]
}

// InferXRFreq detects the machine frequency code of a time coordinate.
// Timestamps are rounded to the minute to absorb floating-point jitter.
// It returns "" when the axis is too short (fewer than four points) or its
// spacing is irregular.
func InferXRFreq(times []time.Time) string {
	if len(times) < 4 {
		return ""
	}
	min, max := time.Duration(1<<62), time.Duration(0)
	for i := 1; i < len(times); i++ {
		d := times[i].Round(time.Minute).Sub(times[i-1].Round(time.Minute))
		if d <= 0 {
			return ""
		}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	// calendar-length periods vary between steps (and a 360-day model
	// calendar makes them uniform), so range checks come first
	switch {
	case min >= 28*day && max <= 31*day:
		return "MS"
	case min >= 89*day && max <= 92*day:
		return "QS-DEC"
	case min >= 360*day && max <= 366*day:
		return "YS"
	}

	if min != max {
		return ""
	}
	d := min
	switch {
	case d == 7*day:
		return "W"
	case d == day:
		return "D"
	case d == time.Hour:
		return "H"
	case d == time.Minute:
		return "T"
	case d%day == 0:
		return fmt.Sprintf("%dD", d/day)
	case d%time.Hour == 0:
		return fmt.Sprintf("%dH", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dT", d/time.Minute)
	}
	return ""
}
