// Package coerce turns messy spreadsheet cell text into typed values.
//
// The policy throughout is lenient fallback: a value that does not parse
// becomes a defined default (zero for amounts, the zero time for dates),
// never an error and never NaN. Spreadsheet content is adversarial by
// messiness, not by intent, so the pipeline always renders something.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Currency parses a currency-like string ("$1,234.56", "1234.56") into a
// float. Every character that is not a digit, '.', or '-' is stripped before
// parsing. Empty or unparsable input yields 0; NaN and infinities never
// escape.
func Currency(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// dateLayouts is ordered by preference. The dashboards this feed serves are
// US-market sheets, so month-first forms rank ahead of ISO and day-first.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"02.01.2006",
	"1/2/2006 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Date parses a date-like string against a fixed layout list.
//
// On failure it returns the zero time and false, never a default "now",
// which would silently corrupt date-range filtering downstream. Callers
// treat the zero value as "dateless".
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
