package document

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// defaultFontSize is assumed when the content stream does not expose one.
	defaultFontSize = 10.0
	// cellGapEms is the horizontal gap, in font sizes, that separates two
	// table cells rather than two words.
	cellGapEms = 1.5
	// wordGapEms separates words inside a cell.
	wordGapEms = 0.15
)

// LoadPDF extracts positioned text from a PDF and rebuilds its rows and
// column cells. Encrypted, corrupt and image-only files return ErrUnreadable.
func LoadPDF(data []byte, source string) (doc Document, err error) {
	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = fmt.Errorf("%w: %s: %v", ErrUnreadable, source, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, source, err)
	}
	doc = Document{Source: source}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s: page %d: %v", ErrUnreadable, source, i, err)
		}
		lines := make([]Line, 0, len(rows))
		for _, row := range rows {
			l := lineFromTexts(row.Content)
			if l.Text == "" {
				continue
			}
			lines = append(lines, l)
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Lines: lines, Grid: DetectGrid(lines)})
	}
	if doc.Empty() {
		return Document{}, fmt.Errorf("%w: %s: no extractable text", ErrUnreadable, source)
	}
	return doc, nil
}

// lineFromTexts joins the text runs of one row, starting a new cell whenever
// the horizontal gap between runs is wide enough to be a column break.
func lineFromTexts(texts []pdf.Text) Line {
	var (
		cells   []string
		cur     strings.Builder
		prevEnd float64
		started bool
	)
	flush := func() {
		if s := cur.String(); strings.TrimSpace(s) != "" {
			cells = append(cells, s)
		}
		cur.Reset()
	}
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		if started {
			gap := t.X - prevEnd
			switch {
			case gap > cellGapEms*size:
				flush()
			case gap > wordGapEms*size:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		width := t.W
		if width <= 0 {
			width = float64(utf8.RuneCountInString(t.S)) * size * 0.5
		}
		prevEnd = t.X + width
		started = true
	}
	flush()
	return NewLine(cells...)
}
