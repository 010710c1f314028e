package extract

import (
	"fmt"
	"testing"

	"github.com/hyperifyio/cdsextract/internal/document"
)

// BenchmarkExtract measures extraction on documents padded with filler
// lines, as real CDS files carry many pages of unrelated items.
func BenchmarkExtract(b *testing.B) {
	for _, filler := range []int{0, 500, 5000} {
		doc := padded(filler)
		e := New()
		b.Run(fmt.Sprintf("filler=%d", filler), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, _, err := e.Extract(doc, ""); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func padded(n int) document.Document {
	doc := fullDoc()
	p := &doc.Pages[0]
	for i := 0; i < n; i++ {
		p.Lines = append(p.Lines, document.NewLine(fmt.Sprintf("J%d Degrees conferred in field %d 12.5%%", i%40, i)))
	}
	return doc
}
