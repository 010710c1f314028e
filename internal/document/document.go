// Package document turns a CDS file into pages of normalized text lines.
// Each line keeps its column cells so the extractor can read tables, and each
// page records whether a table grid was detected on it.
package document

import (
	"errors"
	"strings"
)

// ErrUnreadable is returned when a document cannot be opened or yields no
// text at all: corrupt, encrypted, or image-only files.
var ErrUnreadable = errors.New("document unreadable")

// Document is the extracted text layout of one CDS file.
type Document struct {
	Source string `json:"source"`
	Pages  []Page `json:"pages"`
}

// Page is one page of text lines in reading order.
type Page struct {
	Number int    `json:"number"`
	Lines  []Line `json:"lines"`
	// Grid is true when the page lays its content out as a table: several
	// rows split into aligned columns.
	Grid bool `json:"grid"`
}

// Line is one visual row of text. Cells holds the row split into columns;
// a free-text line has a single cell equal to Text.
type Line struct {
	Text  string   `json:"text"`
	Cells []string `json:"cells,omitempty"`
}

// NewLine builds a line from its cells, normalizing each one.
func NewLine(cells ...string) Line {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		c = Normalize(c)
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return Line{Text: strings.Join(out, " "), Cells: out}
}

// Text returns the whole document as newline-separated text.
func (d Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Empty reports whether the document carries no text.
func (d Document) Empty() bool {
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			if strings.TrimSpace(l.Text) != "" {
				return false
			}
		}
	}
	return true
}

// minGridRows is how many multi-column rows a page needs before it is
// treated as a table.
const minGridRows = 3

// DetectGrid marks a page as a grid when enough of its rows split into at
// least three cells.
func DetectGrid(lines []Line) bool {
	rows := 0
	for _, l := range lines {
		if len(l.Cells) >= 3 {
			rows++
		}
	}
	return rows >= minGridRows
}
