package statement

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var currencyMarker = regexp.MustCompile(`(?i)€|eur`)

// quoteArtifacts are the straight and typographic quotes that bank exports
// leave inside fields.
const quoteArtifacts = "\"“”"

// ParseAmount converts a locale-formatted amount string to a decimal.
// Currency markers and whitespace (including non-breaking spaces) are
// stripped. When a comma is present it is the decimal separator and any
// periods are thousands separators: "1.234,56" parses as 1234.56. Returns
// nil for empty or non-numeric input; the caller decides whether that is a
// row error.
func ParseAmount(s string) *decimal.Decimal {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(quoteArtifacts, r) {
			return -1
		}
		return r
	}, s)
	s = currencyMarker.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}

	// Remove thousands periods before swapping the decimal comma; the
	// other order corrupts "1.234,56".
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

var (
	dayMonthYear4 = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	dayMonthYear2 = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2})$`)
	isoDate       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
)

// fallbackLayouts are tried when no explicit pattern matches, before the
// date is declared invalid.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate parses day-first and ISO date strings into a date-only
// time.Time. Day/month/year with '/' or '-' separators takes priority over
// ISO. Two-digit years map to the 1900s when >= 50, else the 2000s.
func ParseDate(s string) (time.Time, bool) {
	s = strings.Trim(strings.TrimSpace(s), quoteArtifacts)
	if s == "" {
		return time.Time{}, false
	}

	if m := dayMonthYear4.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dayMonthYear2.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if year >= 50 {
			year += 1900
		} else {
			year += 2000
		}
		return makeDate(year, atoi(m[2]), atoi(m[1]))
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// makeDate builds a UTC date and rejects out-of-range components, which
// time.Date would otherwise silently normalize (32/01 -> 01/02).
func makeDate(year, month, day int) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// CleanLabel strips stray quote characters, collapses whitespace runs to a
// single space and trims the ends.
func CleanLabel(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteArtifacts, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
