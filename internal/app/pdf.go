package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteReportPDF renders the run report as a printable operator summary:
// one table of documents per school followed by their issues.
func WriteReportPDF(r *RunReport, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("CDS extraction report", true)
	pdf.SetCreator("cdsextract "+BuildVersion, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "CDS extraction report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	meta := fmt.Sprintf("Run %s, version %s (%s), started %s", r.RunID, r.Version, r.Commit, r.StartedAt.UTC().Format(time.RFC3339))
	if r.DryRun {
		meta += ", dry run"
	}
	pdf.MultiCell(0, 4, tr(meta), "", "L", false)
	pdf.Ln(3)

	widths := []float64{70, 25, 20, 15, 60}
	header := []string{"File", "Year", "Outcome", "Issues", "Missing"}
	for _, s := range r.Schools {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s (%s)", s.Name, s.Slug)), "", 1, "L", false, 0, "")
		if s.Error != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, tr("Error: "+s.Error), "", "L", false)
		}
		if len(s.Documents) == 0 {
			pdf.Ln(2)
			continue
		}

		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range header {
			pdf.CellFormat(widths[i], 6, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		for _, d := range s.Documents {
			missing := fmt.Sprint(len(d.Missing))
			if len(d.Missing) > 0 && len(d.Missing) <= 2 {
				missing = fmt.Sprint(d.Missing)
			}
			row := []string{d.File, d.Year, string(d.Outcome), fmt.Sprint(len(d.Issues)), missing}
			for i, c := range row {
				pdf.CellFormat(widths[i], 5, tr(c), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.Ln(1)
		for _, d := range s.Documents {
			if d.Error == "" && len(d.Issues) == 0 {
				continue
			}
			pdf.SetFont("Helvetica", "B", 8)
			pdf.CellFormat(0, 5, tr(d.File), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 8)
			if d.Error != "" {
				pdf.MultiCell(0, 4, tr("error: "+d.Error), "", "L", false)
			}
			for _, is := range d.Issues {
				pdf.MultiCell(0, 4, tr("- "+is.String()), "", "L", false)
			}
		}
		pdf.Ln(3)
	}
	return pdf.OutputFileAndClose(outPath)
}
