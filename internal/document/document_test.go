package document

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Total  ﬁrst-time,\tﬁrst-year":     "Total first-time, first-year",
		"Admi(cid:425)ed 1 ,234":           "Admied 1,234",
		"Tuition  $61,282":       "Tuition $61,282",
		"SAT Math 740–790":                 "SAT Math 740-790",
		"  Ｆｕｌｌ-width ２０２４  ":             "Full-width 2024",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("C. First-Time, First-Year Admission"); got != "c first time first year admission" {
		t.Fatalf("Key = %q", got)
	}
	if Key("Room & Board:") != Key("room   board") {
		t.Fatal("expected punctuation-insensitive keys to match")
	}
}

func TestDetectGrid(t *testing.T) {
	row := NewLine("Men", "12,000", "1,000")
	if DetectGrid([]Line{row, row}) {
		t.Fatal("two rows are not a grid")
	}
	if !DetectGrid([]Line{row, row, row}) {
		t.Fatal("three multi-column rows are a grid")
	}
	if DetectGrid([]Line{NewLine("free text"), NewLine("more"), NewLine("text")}) {
		t.Fatal("single-cell rows are not a grid")
	}
}

func TestLineFromTexts_SplitsCellsOnWideGaps(t *testing.T) {
	texts := []pdf.Text{
		{S: "Total", X: 50, FontSize: 10},
		{S: "applicants", X: 78, FontSize: 10},
		{S: "25,000", X: 300, FontSize: 10},
		{S: "3,000", X: 400, FontSize: 10},
	}
	l := lineFromTexts(texts)
	want := []string{"Total applicants", "25,000", "3,000"}
	if !reflect.DeepEqual(l.Cells, want) {
		t.Fatalf("cells = %q; want %q", l.Cells, want)
	}
	if l.Text != "Total applicants 25,000 3,000" {
		t.Fatalf("text = %q", l.Text)
	}
}

func TestLoadHTML_TablesBecomeCells(t *testing.T) {
	page := `<!doctype html><html><body>
	<h2>C. First-Time, First-Year Admission</h2>
	<p>C1 Applications</p>
	<table>
	  <tr><th>Item</th><th>Men</th><th>Women</th><th>Total</th></tr>
	  <tr><td>Applied</td><td>20,000</td><td>25,000</td><td>45,000</td></tr>
	  <tr><td>Admitted</td><td>1,500</td><td>1,700</td><td>3,200</td></tr>
	</table>
	<script>ignored()</script>
	</body></html>`
	doc, err := LoadHTML([]byte(page), "cds.html")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Pages) != 1 || !doc.Pages[0].Grid {
		t.Fatalf("expected one grid page, got %+v", doc.Pages)
	}
	lines := doc.Pages[0].Lines
	if lines[0].Text != "C. First-Time, First-Year Admission" {
		t.Fatalf("first line = %q", lines[0].Text)
	}
	var applied *Line
	for i := range lines {
		if len(lines[i].Cells) > 0 && lines[i].Cells[0] == "Applied" {
			applied = &lines[i]
		}
	}
	if applied == nil || !reflect.DeepEqual(applied.Cells, []string{"Applied", "20,000", "25,000", "45,000"}) {
		t.Fatalf("applied row = %+v", applied)
	}
	for _, l := range lines {
		if l.Text == "ignored()" {
			t.Fatal("script text must be skipped")
		}
	}
}

func TestParse_UnreadableInputs(t *testing.T) {
	if _, err := Parse("broken.pdf", []byte("%PDF-1.4 garbage")); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("corrupt pdf: want ErrUnreadable, got %v", err)
	}
	if _, err := Parse("notes.txt", []byte("hello")); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("unknown type: want ErrUnreadable, got %v", err)
	}
	if _, err := Parse("empty.html", []byte("<html><body></body></html>")); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("empty html: want ErrUnreadable, got %v", err)
	}
}

func TestList_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"CDS_2023-2024.pdf", "notes.txt", "CDS_2021-2022.html", "CDS_2022-2023.PDF"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "CDS_2021-2022.html"),
		filepath.Join(dir, "CDS_2022-2023.PDF"),
		filepath.Join(dir, "CDS_2023-2024.pdf"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v; want %v", got, want)
	}
}
