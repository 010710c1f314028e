// Package numparse normalizes numeric tokens as they appear in CDS tables:
// thousands separators, currency symbols, trailing percent signs and the
// various ways a blank cell is written.
package numparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Status classifies a token.
type Status int

const (
	// OK means a value was parsed.
	OK Status = iota
	// Blank means the cell is intentionally empty ("", "n/a", "—"); the
	// field is absent, not zero.
	Blank
	// Invalid means the cell holds text that is not a number.
	Invalid
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Blank:
		return "blank"
	default:
		return "invalid"
	}
}

var blanks = map[string]struct{}{
	"":               {},
	"-":              {},
	"--":             {},
	"—":              {},
	"–":              {},
	"n/a":            {},
	"na":             {},
	"n.a.":           {},
	"none":           {},
	"not applicable": {},
	"not reported":   {},
	"*":              {},
}

// tokenRe matches a single numeric token. The leading group keeps item codes
// such as "C1" or "H2a" from being read as numbers.
var tokenRe = regexp.MustCompile(`(?:^|[^A-Za-z0-9.])(\$?\s?\d{1,3}(?:,\s?\d{3})+(?:\.\d+)?%?|\$?\s?\d+(?:\.\d+)?%?)`)

// Tokens returns the numeric tokens of s in reading order.
func Tokens(s string) []string {
	ms := tokenRe.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// IsBlank reports whether s denotes an empty cell.
func IsBlank(s string) bool {
	_, ok := blanks[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// Count parses a non-negative whole number such as "12,345".
func Count(s string) (int64, Status) {
	if IsBlank(s) {
		return 0, Blank
	}
	c := clean(s)
	if strings.HasSuffix(c, "%") {
		return 0, Invalid
	}
	n, err := strconv.ParseInt(c, 10, 64)
	if err != nil || n < 0 {
		return 0, Invalid
	}
	return n, OK
}

// Money parses a dollar amount such as "$61,282" or "1,280.50", rounding
// to whole dollars.
func Money(s string) (int64, Status) {
	if IsBlank(s) {
		return 0, Blank
	}
	c := clean(s)
	if strings.HasSuffix(c, "%") {
		return 0, Invalid
	}
	f, err := strconv.ParseFloat(c, 64)
	if err != nil || f < 0 {
		return 0, Invalid
	}
	return int64(math.Round(f)), OK
}

// Percent parses a percentage into [0,1]. "52%" and "52" both become 0.52,
// and a bare whole number is always a percent, so "1" is 0.01. Only a bare
// decimal at or below 1, such as "0.43", is taken as already a fraction.
func Percent(s string) (float64, Status) {
	if IsBlank(s) {
		return 0, Blank
	}
	c := clean(s)
	hasPct := strings.HasSuffix(c, "%")
	c = strings.TrimSuffix(c, "%")
	f, err := strconv.ParseFloat(c, 64)
	if err != nil || f < 0 {
		return 0, Invalid
	}
	if hasPct || f > 1 || !strings.Contains(c, ".") {
		f = f / 100
	}
	return math.Round(f*1e4) / 1e4, OK
}
