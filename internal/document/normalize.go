package document

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	cidRe        = regexp.MustCompile(`\(cid:\d+\)`)
	splitDigitRe = regexp.MustCompile(`(\d)\s+,`)
	dashReplacer = strings.NewReplacer(
		"\u00a0", " ",
		"–", "-",
		"—", "-",
		"−", "-",
		"‘", "'",
		"’", "'",
		"“", `"`,
		"”", `"`,
	)
)

// Normalize cleans one piece of extracted text: NFKC folds ligatures and
// full-width digits, "(cid:NNN)" glyph placeholders are dropped, digits
// separated from their comma are rejoined, and whitespace is collapsed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cidRe.ReplaceAllString(s, "")
	s = dashReplacer.Replace(s)
	s = splitDigitRe.ReplaceAllString(s, "$1,")
	return collapseSpaces(strings.TrimSpace(s))
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

// Key reduces a label to a comparison key: lower case, punctuation turned
// into spaces, whitespace collapsed. Two labels that differ only in
// formatting drift share a key.
func Key(s string) string {
	s = strings.ToLower(Normalize(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '%' || r == '$':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return collapseSpaces(strings.TrimSpace(b.String()))
}
