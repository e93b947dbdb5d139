package tabular

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// values.go holds tolerant single-cell parsers shared by type inference and
// statistics. Spreadsheet exports carry currency symbols, thousands
// separators, accounting-style negatives and a zoo of date layouts; these
// parsers absorb that noise so the profiler sees clean values.

// TwoDigitYearPivot controls how 2-digit years are read. A parsed year more
// than this many years in the future is pushed back a century, so with
// pivot 20 in 2025, "46" means 1946 while "24" means 2024.
var TwoDigitYearPivot = 20

// currentYear supplies the reference year for the pivot. Tests override it
// so two-digit-year behavior does not drift with the wall clock.
var currentYear = func() int { return time.Now().Year() }

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
		"2006-01-02T15:04:05", "2006-01-02 15:04:05",
	}
)

// ParseNumber parses s as a finite number, tolerating surrounding
// whitespace, currency symbols, thousands separators and the accounting
// negative form "(123.45)". The second result is false when s is not a
// finite number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if negative {
		s = "-" + s
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// IsBoolToken reports whether s is exactly the literal "true" or "false"
// after trimming and lowercasing. Type inference is strict here on purpose:
// "0"/"1" columns must classify as numeric, and "yes"/"no" as categorical.
func IsBoolToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false":
		return true
	}
	return false
}

// ParseDate parses s against the supported calendar-date layouts. Four-digit
// year layouts are tried first because they are unambiguous; two-digit years
// get the pivot adjustment.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivot := currentYear() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > pivot {
			t = t.AddDate(-100, 0, 0)
		}
		return t, true
	}

	return time.Time{}, false
}
