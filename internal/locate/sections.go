// Package locate finds CDS section boundaries and field values in a
// document. Field lookup runs a prioritized list of matcher strategies so
// that a new institution's quirks can be handled by adding labels or a
// strategy rather than by changing the extraction loop.
package locate

import (
	"sort"
	"strings"

	"github.com/hyperifyio/cdsextract/internal/document"
)

// Ref is one line of the document with its position.
type Ref struct {
	Page  int
	Index int // 1-based line number within the page
	Line  document.Line
	Grid  bool
}

// Section is a contiguous run of lines under one CDS section header.
type Section struct {
	ID    string
	Title string
	Lines []Ref
}

// SectionSpec names a section and the header strings that open it.
type SectionSpec struct {
	ID      string
	Headers []string
	// Boundary sections are located only to end their neighbours; nothing
	// is extracted from them.
	Boundary bool
}

// DefaultSections follows the standard CDS lettering.
var DefaultSections = []SectionSpec{
	{ID: "A", Boundary: true, Headers: []string{"A. General Information", "General Information"}},
	{ID: "B", Headers: []string{"B. Enrollment and Persistence", "Enrollment and Persistence", "B1 Institutional Enrollment"}},
	{ID: "C", Headers: []string{"C. First-time, first-year admission", "C. First-time, first-year (freshman) admission", "First-time, first-year admission", "First-time, first-year (freshman) admission", "Freshman admission", "Applicants Section"}},
	{ID: "D", Boundary: true, Headers: []string{"D. Transfer Admission", "Transfer Admission"}},
	{ID: "E", Boundary: true, Headers: []string{"E. Academic Offerings and Policies", "Academic Offerings and Policies"}},
	{ID: "F", Boundary: true, Headers: []string{"F. Student Life", "Student Life"}},
	{ID: "G", Headers: []string{"G. Annual Expenses", "Annual Expenses"}},
	{ID: "H", Headers: []string{"H. Financial Aid", "Institutional Financial Aid", "Financial Aid"}},
	{ID: "I", Boundary: true, Headers: []string{"I. Instructional Faculty and Class Size", "Instructional Faculty and Class Size"}},
	{ID: "J", Boundary: true, Headers: []string{"J. Disciplinary Areas of Degrees Conferred", "Disciplinary Areas of Degrees Conferred"}},
}

// headerSlack is how much longer than the header text a header line may be;
// running text that merely starts with the same words is longer.
const headerSlack = 24

// Flatten lists every line of the document in reading order.
func Flatten(doc document.Document) []Ref {
	var out []Ref
	for _, p := range doc.Pages {
		for i, l := range p.Lines {
			out = append(out, Ref{Page: p.Number, Index: i + 1, Line: l, Grid: p.Grid})
		}
	}
	return out
}

// isHeader reports whether line opens spec's section and returns the rank of
// the matching header; lower ranks are more specific.
func isHeader(line string, spec SectionSpec) (string, int, bool) {
	lk := document.Key(line)
	for rank, h := range spec.Headers {
		hk := document.Key(h)
		if hk == "" {
			continue
		}
		if strings.HasPrefix(lk, hk) && len(lk) <= len(hk)+headerSlack {
			return h, rank, true
		}
	}
	return "", 0, false
}

type candidate struct {
	at    int
	rank  int
	id    string
	title string
}

// Sections locates each spec's section. When a header occurs more than once
// (a table of contents, a running page header, a sentence that starts with
// the section name) the most specific header wins, and among equally
// specific ones the occurrence with the longest body. A header repeated with
// no other section's header in between is one occurrence that starts at the
// first copy. Sections that are not found are absent from the map.
func Sections(doc document.Document, specs []SectionSpec) map[string]Section {
	refs := Flatten(doc)
	var cands []candidate
	for i, r := range refs {
		for _, s := range specs {
			if title, rank, ok := isHeader(r.Line.Text, s); ok {
				cands = append(cands, candidate{at: i, rank: rank, id: s.ID, title: title})
				break
			}
		}
	}

	// Fold running headers into their first copy and measure each
	// occurrence up to the next header of a different section.
	type occurrence struct {
		candidate
		span int
	}
	var occs []occurrence
	for ci := 0; ci < len(cands); {
		c := cands[ci]
		next := ci + 1
		for next < len(cands) && cands[next].id == c.id && cands[next].rank == c.rank {
			next++
		}
		end := len(refs)
		if next < len(cands) {
			end = cands[next].at
		}
		occs = append(occs, occurrence{candidate: c, span: end - c.at})
		ci = next
	}

	best := map[string]occurrence{}
	for _, o := range occs {
		prev, ok := best[o.id]
		switch {
		case !ok:
			best[o.id] = o
		case o.rank < prev.rank:
			best[o.id] = o
		case o.rank == prev.rank && o.span > prev.span:
			best[o.id] = o
		}
	}

	chosen := make([]candidate, 0, len(best))
	for _, o := range best {
		chosen = append(chosen, o.candidate)
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].at < chosen[j].at })

	boundary := map[string]bool{}
	for _, s := range specs {
		boundary[s.ID] = s.Boundary
	}
	out := map[string]Section{}
	for i, c := range chosen {
		if boundary[c.id] {
			continue
		}
		end := len(refs)
		if i+1 < len(chosen) {
			end = chosen[i+1].at
		}
		out[c.id] = Section{ID: c.id, Title: c.title, Lines: refs[c.at+1 : end]}
	}
	return out
}
