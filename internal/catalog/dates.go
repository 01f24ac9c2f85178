package catalog

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDate parses a raw date token into a timestamp. Accepted forms are
// the compact YYYY, YYYYMM and YYYYMMDD tokens found in filenames, plus ISO
// "2006-01" and "2006-01-02".
//
// With endOfPeriod, the timestamp is rounded up to the end of the implied
// period: a bare year to Dec 31, a year-month to the last day of that
// month. Day-precision tokens are never rounded.
func ParseDate(tok string, endOfPeriod bool) (time.Time, error) {
	year, month, day, prec, err := splitDate(tok)
	if err != nil {
		return time.Time{}, err
	}

	if endOfPeriod {
		switch prec {
		case precYear:
			month, day = 12, 31
		case precMonth:
			// day 0 of the next month is the last day of this one
			return time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC), nil
		}
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject impossible dates like 20010231, which time.Date normalizes
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %q", tok)
	}
	return t, nil
}

type datePrecision int

const (
	precYear datePrecision = iota
	precMonth
	precDay
)

func splitDate(tok string) (year, month, day int, prec datePrecision, err error) {
	month, day = 1, 1
	digits := tok
	switch len(tok) {
	case 7: // 2006-01
		if tok[4] != '-' {
			return 0, 0, 0, 0, fmt.Errorf("invalid date %q", tok)
		}
		digits = tok[:4] + tok[5:]
	case 10: // 2006-01-02
		if tok[4] != '-' || tok[7] != '-' {
			return 0, 0, 0, 0, fmt.Errorf("invalid date %q", tok)
		}
		digits = tok[:4] + tok[5:7] + tok[8:]
	}

	switch len(digits) {
	case 4:
		prec = precYear
	case 6:
		prec = precMonth
	case 8:
		prec = precDay
	default:
		return 0, 0, 0, 0, fmt.Errorf("invalid date %q", tok)
	}

	if year, err = strconv.Atoi(digits[:4]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid date %q", tok)
	}
	if prec >= precMonth {
		if month, err = strconv.Atoi(digits[4:6]); err != nil || month < 1 || month > 12 {
			return 0, 0, 0, 0, fmt.Errorf("invalid date %q", tok)
		}
	}
	if prec == precDay {
		if day, err = strconv.Atoi(digits[6:8]); err != nil || day < 1 || day > 31 {
			return 0, 0, 0, 0, fmt.Errorf("invalid date %q", tok)
		}
	}
	return year, month, day, prec, nil
}
