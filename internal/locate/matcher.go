package locate

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/cdsextract/internal/document"
	"github.com/hyperifyio/cdsextract/internal/numparse"
)

// Pick selects one of the accepted numeric tokens on a matched line.
type Pick int

const (
	PickFirst Pick = iota
	PickLast
	PickMax
)

// Query describes how to find one field inside a section.
type Query struct {
	Field string
	// Labels are exact label texts in priority order.
	Labels []string
	// Keywords are fuzzy alternatives: a line matches a group when it
	// contains every word of the group.
	Keywords [][]string
	// Exclude disqualifies lines containing any of these words.
	Exclude []string
	// Item is the CDS item code (e.g. "C1") used by the positional fallback,
	// which takes the Position-th accepted number of the item block.
	Item     string
	Position int
	Pick     Pick
	// Accept filters candidate tokens, typically by plausible range.
	Accept func(raw string) bool
}

// Layout says where the value sat relative to its label.
type Layout string

const (
	SameLine Layout = "same-line"
	NextRow  Layout = "next-row"
	Block    Layout = "item-block"
)

// Status of a hit.
type Status int

const (
	// Found means an accepted numeric token was read.
	Found Status = iota
	// Blank means the label was found with an explicitly empty value.
	Blank
	// Unparseable means the label was found but no acceptable number
	// followed it.
	Unparseable
)

// Hit is a located field value with enough context for the report.
type Hit struct {
	Field    string
	Raw      string
	Tokens   []string
	Status   Status
	Strategy string
	Layout   Layout
	Page     int
	Line     int
	Text     string
}

// Strategy is one way of finding a labelled value in a section.
type Strategy interface {
	Name() string
	Find(sec Section, q Query) (Hit, bool)
}

// Locator runs strategies in priority order.
type Locator struct {
	Strategies []Strategy
}

// NewLocator returns the default chain: exact label, fuzzy label, positional.
func NewLocator() *Locator {
	return &Locator{Strategies: []Strategy{ExactLabel{}, FuzzyLabel{}, Positional{}}}
}

// Find returns the first Found or Blank hit of any strategy. An Unparseable
// hit is returned only when no strategy did better, so the caller can report
// where the label was seen.
func (l *Locator) Find(sec Section, q Query) (Hit, bool) {
	var fallback *Hit
	for _, s := range l.Strategies {
		h, ok := s.Find(sec, q)
		if !ok {
			continue
		}
		h.Field = q.Field
		if h.Status != Unparseable {
			return h, true
		}
		if fallback == nil {
			hc := h
			fallback = &hc
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Hit{Field: q.Field}, false
}

// ExactLabel matches lines containing one of the query labels verbatim,
// modulo case, punctuation and spacing.
type ExactLabel struct{}

func (ExactLabel) Name() string { return "exact-label" }

func (ExactLabel) Find(sec Section, q Query) (Hit, bool) {
	var unparsed *Hit
	for _, label := range q.Labels {
		lk := document.Key(label)
		if lk == "" {
			continue
		}
		for i, r := range sec.Lines {
			if excluded(r.Line.Text, q.Exclude) {
				continue
			}
			cell, ok := labelCell(r.Line, func(k string) bool { return containsPhrase(k, lk) })
			if !ok {
				continue
			}
			h := readValue(sec, i, cell, label, q)
			h.Strategy = "exact-label"
			if h.Status != Unparseable {
				return h, true
			}
			if unparsed == nil {
				unparsed = &h
			}
		}
	}
	if unparsed != nil {
		return *unparsed, true
	}
	return Hit{}, false
}

// FuzzyLabel matches lines containing every keyword of a group.
type FuzzyLabel struct{}

func (FuzzyLabel) Name() string { return "fuzzy-label" }

func (FuzzyLabel) Find(sec Section, q Query) (Hit, bool) {
	var unparsed *Hit
	for _, group := range q.Keywords {
		keys := make([]string, 0, len(group))
		for _, w := range group {
			keys = append(keys, document.Key(w))
		}
		match := func(k string) bool {
			for _, w := range keys {
				if !containsPhrase(k, w) {
					return false
				}
			}
			return true
		}
		for i, r := range sec.Lines {
			if excluded(r.Line.Text, q.Exclude) {
				continue
			}
			// Keywords may be spread over several cells of a row.
			if !match(document.Key(r.Line.Text)) {
				continue
			}
			cell, ok := labelCell(r.Line, match)
			if !ok {
				cell = 0
			}
			h := readValue(sec, i, cell, group[len(group)-1], q)
			h.Strategy = "fuzzy-label"
			if h.Status != Unparseable {
				return h, true
			}
			if unparsed == nil {
				unparsed = &h
			}
		}
	}
	if unparsed != nil {
		return *unparsed, true
	}
	return Hit{}, false
}

// Positional reads the Position-th accepted number of a CDS item block, for
// documents whose labels match nothing but whose item numbering is intact.
type Positional struct{}

func (Positional) Name() string { return "positional" }

var itemCodeRe = regexp.MustCompile(`^([a-j])(\d{1,2})([a-z]?)\b`)

func (Positional) Find(sec Section, q Query) (Hit, bool) {
	if q.Item == "" {
		return Hit{}, false
	}
	code := document.Key(q.Item)
	start := -1
	for i, r := range sec.Lines {
		k := document.Key(r.Line.Text)
		if k == code || strings.HasPrefix(k, code+" ") {
			start = i
			break
		}
	}
	if start < 0 {
		return Hit{}, false
	}
	var accepted []string
	first := sec.Lines[start]
	for i := start; i < len(sec.Lines); i++ {
		k := document.Key(sec.Lines[i].Line.Text)
		if i > start {
			if m := itemCodeRe.FindString(k); m != "" && m != code {
				break
			}
		}
		for _, tok := range numparse.Tokens(sec.Lines[i].Line.Text) {
			if q.Accept == nil || q.Accept(tok) {
				accepted = append(accepted, tok)
			}
		}
	}
	h := Hit{Strategy: "positional", Layout: Block, Page: first.Page, Line: first.Index, Text: first.Line.Text}
	if q.Position < 0 || q.Position >= len(accepted) {
		h.Status = Unparseable
		return h, true
	}
	h.Raw = accepted[q.Position]
	h.Tokens = []string{h.Raw}
	h.Status = Found
	return h, true
}

// labelCell returns the index of the first cell whose key satisfies match.
func labelCell(l document.Line, match func(string) bool) (int, bool) {
	if len(l.Cells) == 0 {
		return 0, match(document.Key(l.Text))
	}
	for i, c := range l.Cells {
		if match(document.Key(c)) {
			return i, true
		}
	}
	return 0, false
}

// readValue reads the value that belongs to the label found in cell of line
// i. On grid pages the value is in a later cell of the same row or, for
// column headers, in the same cell of the next row. Elsewhere it is the text
// after the label on the same line.
func readValue(sec Section, i, cell int, label string, q Query) Hit {
	r := sec.Lines[i]
	h := Hit{Page: r.Page, Line: r.Index, Text: r.Line.Text, Layout: SameLine}
	if r.Grid && len(r.Line.Cells) > 1 {
		if toks, blank := cellTokens(r.Line.Cells[cell+1:], q.Accept); len(toks) > 0 {
			return found(h, toks, q.Pick)
		} else if blank {
			h.Status, h.Raw = Blank, "n/a"
			return h
		}
		if i+1 < len(sec.Lines) {
			next := sec.Lines[i+1]
			if cell < len(next.Line.Cells) {
				toks, blank := cellTokens(next.Line.Cells[cell:cell+1], q.Accept)
				h.Layout = NextRow
				h.Page, h.Line, h.Text = next.Page, next.Index, next.Line.Text
				if len(toks) > 0 {
					return found(h, toks, q.Pick)
				}
				if blank {
					h.Status, h.Raw = Blank, "n/a"
					return h
				}
			}
		}
		h.Status = Unparseable
		return h
	}
	tail := afterLabel(r.Line.Text, label)
	var toks []string
	for _, t := range numparse.Tokens(tail) {
		if q.Accept == nil || q.Accept(t) {
			toks = append(toks, t)
		}
	}
	if len(toks) > 0 {
		return found(h, toks, q.Pick)
	}
	if t := strings.TrimSpace(strings.Trim(tail, ":")); numparse.IsBlank(t) || startsBlank(t) {
		h.Status, h.Raw = Blank, "n/a"
		return h
	}
	h.Status = Unparseable
	h.Raw = strings.TrimSpace(tail)
	return h
}

func found(h Hit, toks []string, pick Pick) Hit {
	h.Status = Found
	h.Tokens = toks
	switch pick {
	case PickLast:
		h.Raw = toks[len(toks)-1]
	case PickMax:
		h.Raw = toks[0]
		best, _ := numparse.Money(toks[0])
		for _, t := range toks[1:] {
			if v, st := numparse.Money(t); st == numparse.OK && v > best {
				best, h.Raw = v, t
			}
		}
	default:
		h.Raw = toks[0]
	}
	return h
}

// cellTokens collects accepted numeric tokens from cells and reports whether
// any cell was an explicit blank.
func cellTokens(cells []string, accept func(string) bool) ([]string, bool) {
	var toks []string
	blank := false
	for _, c := range cells {
		if numparse.IsBlank(c) {
			blank = true
			continue
		}
		for _, t := range numparse.Tokens(c) {
			if accept == nil || accept(t) {
				toks = append(toks, t)
			}
		}
	}
	return toks, blank
}

// afterLabel returns the text following the first occurrence of label's
// words in line. When the label cannot be aligned the whole line is
// returned.
func afterLabel(line, label string) string {
	words := strings.Fields(document.Key(label))
	if len(words) == 0 {
		return line
	}
	last := words[len(words)-1]
	lower := strings.ToLower(line)
	// Anchor on the first word, then advance to the last label word.
	pos := strings.Index(lower, words[0])
	if pos < 0 {
		return line
	}
	if j := strings.Index(lower[pos:], last); j >= 0 {
		return line[pos+j+len(last):]
	}
	return line[pos+len(words[0]):]
}

func startsBlank(s string) bool {
	f := strings.Fields(strings.ToLower(s))
	return len(f) > 0 && numparse.IsBlank(f[0])
}

func excluded(text string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	k := document.Key(text)
	for _, w := range words {
		if containsPhrase(k, document.Key(w)) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether key contains phrase on word boundaries.
func containsPhrase(key, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+key+" ", " "+phrase+" ")
}
