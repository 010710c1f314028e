package cds

import (
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	yearRe      = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	fullSpanRe  = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})\s*[-_–]\s*((?:19|20)\d{2})(?:\D|$)`)
	shortSpanRe = regexp.MustCompile(`(?:^|\D)(\d{2})\s*[-_–]\s*(\d{2})(?:\D|$)`)
	singleRe    = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
)

// ValidYear reports whether s is a "YYYY-YYYY" span of consecutive years.
func ValidYear(s string) bool {
	m := yearRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	return b == a+1
}

// SpanFrom returns the academic year starting in the fall of start.
func SpanFrom(start int) string {
	return strconv.Itoa(start) + "-" + strconv.Itoa(start+1)
}

// InferYear derives the academic year from a CDS file name. Recognized forms:
// "CDS_2024_2025.pdf", "Brown CDS_2016-2017_Final.pdf", "23-24.pdf" and a
// lone "2024" (taken as the fall term).
func InferYear(name string) (string, bool) {
	base := filepath.Base(name)
	if m := fullSpanRe.FindStringSubmatch(base); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if b == a+1 {
			return SpanFrom(a), true
		}
	}
	if m := shortSpanRe.FindStringSubmatch(base); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if b == (a+1)%100 {
			return SpanFrom(2000 + a), true
		}
	}
	if m := singleRe.FindStringSubmatch(base); m != nil {
		a, _ := strconv.Atoi(m[1])
		return SpanFrom(a), true
	}
	return "", false
}

// InferYearFromText finds a "2023-2024" style span in free text, such as
// a CDS cover page.
func InferYearFromText(s string) (string, bool) {
	for _, m := range fullSpanRe.FindAllStringSubmatch(s, -1) {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if b == a+1 {
			return SpanFrom(a), true
		}
	}
	return "", false
}
