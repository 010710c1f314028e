package locate

import (
	"testing"

	"github.com/hyperifyio/cdsextract/internal/document"
)

func textLines(ss ...string) []document.Line {
	out := make([]document.Line, 0, len(ss))
	for _, s := range ss {
		out = append(out, document.NewLine(s))
	}
	return out
}

func section(grid bool, lines ...document.Line) Section {
	refs := make([]Ref, 0, len(lines))
	for i, l := range lines {
		refs = append(refs, Ref{Page: 1, Index: i + 1, Line: l, Grid: grid})
	}
	return Section{ID: "T", Lines: refs}
}

func TestSections_SkipsTableOfContents(t *testing.T) {
	doc := document.Document{Pages: []document.Page{
		{Number: 1, Lines: textLines(
			"Table of Contents",
			"C. First-time, first-year admission 3",
			"G. Annual Expenses 10",
			"H. Financial Aid 12",
		)},
		{Number: 3, Lines: textLines(
			"C. First-time, first-year admission",
			"C1 Applications",
			"Total first-time, first-year applicants 25,000",
			"G. Annual Expenses",
			"Tuition $61,282",
			"H. Financial Aid",
			"Average financial aid package $55,000",
		)},
	}}
	secs := Sections(doc, DefaultSections)
	c, ok := secs["C"]
	if !ok {
		t.Fatal("section C not found")
	}
	if c.Lines[0].Page != 3 || len(c.Lines) != 2 {
		t.Fatalf("C should be the body on page 3 with 2 lines, got page %d with %d lines", c.Lines[0].Page, len(c.Lines))
	}
	if g := secs["G"]; len(g.Lines) != 1 || g.Lines[0].Line.Text != "Tuition $61,282" {
		t.Fatalf("G = %+v", g.Lines)
	}
	if h := secs["H"]; len(h.Lines) != 1 {
		t.Fatalf("H = %+v", h.Lines)
	}
	if _, ok := secs["B"]; ok {
		t.Fatal("B must be absent when no header is printed")
	}
}

func TestSections_SpecificHeaderBeatsSentence(t *testing.T) {
	doc := document.Document{Pages: []document.Page{{Number: 1, Lines: textLines(
		"G. Annual Expenses",
		"Tuition $40,000",
		"Financial aid office hours",
		"Fees $1,000",
		"H. Financial Aid",
		"Percent receiving aid 52%",
	)}}}
	secs := Sections(doc, DefaultSections)
	if g := secs["G"]; len(g.Lines) != 3 {
		t.Fatalf("G should run to the H header, got %d lines", len(g.Lines))
	}
	if h := secs["H"]; len(h.Lines) != 1 || h.Lines[0].Line.Text != "Percent receiving aid 52%" {
		t.Fatalf("H = %+v", h.Lines)
	}
}

func TestSections_RunningHeaderKeepsFirstPage(t *testing.T) {
	doc := document.Document{Pages: []document.Page{
		{Number: 1, Lines: textLines(
			"C. First-time, first-year admission",
			"C1 Applications",
			"Total first-time, first-year who applied 5,000",
		)},
		{Number: 2, Lines: textLines(
			"C. First-time, first-year admission",
			"C9 SAT and ACT scores",
			"Percent submitting SAT scores 60%",
			"SAT Math 700 750 790",
		)},
		{Number: 3, Lines: textLines(
			"D. Transfer Admission",
			"Total transfer applicants 900",
		)},
	}}
	secs := Sections(doc, DefaultSections)
	c, ok := secs["C"]
	if !ok {
		t.Fatal("section C not found")
	}
	if c.Lines[0].Page != 1 || c.Lines[len(c.Lines)-1].Page != 2 {
		t.Fatalf("C should span pages 1-2, got %+v", c.Lines)
	}
	h, ok := NewLocator().Find(c, Query{Field: "applied", Labels: []string{"Total first-time, first-year who applied"}})
	if !ok || h.Status != Found || h.Raw != "5,000" || h.Page != 1 {
		t.Fatalf("applied = %+v ok=%v", h, ok)
	}
}

func TestExactLabel_SameLine(t *testing.T) {
	sec := section(false, textLines(
		"C1 Applications",
		"Total first-time, first-year applicants 25,000",
	)...)
	h, ok := NewLocator().Find(sec, Query{Field: "applied", Labels: []string{"Total first-time, first-year applicants"}})
	if !ok || h.Status != Found || h.Raw != "25,000" {
		t.Fatalf("hit = %+v ok=%v", h, ok)
	}
	if h.Strategy != "exact-label" || h.Layout != SameLine || h.Line != 2 {
		t.Fatalf("unexpected context %+v", h)
	}
}

func TestExactLabel_ExcludeSkipsLines(t *testing.T) {
	sec := section(false, textLines(
		"Total applicants early decision 500",
		"Total applicants 25,000",
	)...)
	h, ok := NewLocator().Find(sec, Query{Labels: []string{"total applicants"}, Exclude: []string{"early"}})
	if !ok || h.Raw != "25,000" {
		t.Fatalf("hit = %+v", h)
	}
}

func TestExactLabel_BlankIsNotZero(t *testing.T) {
	sec := section(false, textLines("Number of early decision applicants n/a")...)
	h, ok := NewLocator().Find(sec, Query{Labels: []string{"early decision applicants"}})
	if !ok || h.Status != Blank {
		t.Fatalf("want blank hit, got %+v", h)
	}
}

func TestGrid_NextRowSameColumn(t *testing.T) {
	sec := section(true,
		document.NewLine("Item", "Applied", "Admitted"),
		document.NewLine("Total", "25,000", "3,000"),
		document.NewLine("Men", "12,000", "1,400"),
	)
	h, ok := NewLocator().Find(sec, Query{Labels: []string{"admitted"}})
	if !ok || h.Raw != "3,000" || h.Layout != NextRow {
		t.Fatalf("hit = %+v", h)
	}
}

func TestGrid_SameRowPickLast(t *testing.T) {
	sec := section(true,
		document.NewLine("", "Men", "Women", "Total"),
		document.NewLine("Applied", "12,000", "13,000", "25,000"),
		document.NewLine("Admitted", "1,400", "1,600", "3,000"),
	)
	h, ok := NewLocator().Find(sec, Query{Labels: []string{"applied"}, Pick: PickLast})
	if !ok || h.Raw != "25,000" || h.Layout != SameLine {
		t.Fatalf("hit = %+v", h)
	}
}

func TestFuzzyLabel_KeywordsAcrossCells(t *testing.T) {
	sec := section(false, textLines("Percent of students who received any financial aid: 61%")...)
	q := Query{Labels: []string{"percent receiving aid"}, Keywords: [][]string{{"percent", "financial aid"}}}
	h, ok := NewLocator().Find(sec, q)
	if !ok || h.Strategy != "fuzzy-label" || h.Raw != "61%" {
		t.Fatalf("hit = %+v", h)
	}
}

func TestPositional_ItemBlock(t *testing.T) {
	sec := section(false, textLines(
		"C1 Applications",
		"12,000 13,000 25,000",
		"C2 Wait list 900",
	)...)
	q := Query{Labels: []string{"no such label"}, Item: "C1", Position: 2}
	h, ok := NewLocator().Find(sec, q)
	if !ok || h.Strategy != "positional" || h.Raw != "25,000" {
		t.Fatalf("hit = %+v", h)
	}
	q.Position = 3
	if h, _ := NewLocator().Find(sec, q); h.Status != Unparseable {
		t.Fatalf("position past the block must be unparseable, got %+v", h)
	}
}

func TestAcceptFiltersTokens(t *testing.T) {
	sec := section(false, textLines("SAT Math 2023 score range 720 790")...)
	accept := func(raw string) bool { return raw >= "200" && raw <= "800" && len(raw) == 3 }
	h, ok := NewLocator().Find(sec, Query{Labels: []string{"sat math"}, Accept: accept})
	if !ok || h.Raw != "720" || len(h.Tokens) != 2 {
		t.Fatalf("hit = %+v", h)
	}
}

func TestPickMax(t *testing.T) {
	sec := section(false, textLines("Tuition $45,000 $61,282")...)
	h, _ := NewLocator().Find(sec, Query{Labels: []string{"tuition"}, Pick: PickMax})
	if h.Raw != "$61,282" {
		t.Fatalf("raw = %q", h.Raw)
	}
}
