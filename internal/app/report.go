package app

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/extract"
	"github.com/hyperifyio/cdsextract/internal/store"
)

// Outcome is the result of processing one document.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// DocumentResult records everything the run learned about one file.
type DocumentResult struct {
	File       string                    `json:"file"`
	SHA256     string                    `json:"sha256,omitempty"`
	Year       string                    `json:"year,omitempty"`
	Outcome    Outcome                   `json:"outcome"`
	Error      string                    `json:"error,omitempty"`
	Sections   []string                  `json:"sections,omitempty"`
	Missing    []string                  `json:"missing,omitempty"`
	Issues     []extract.Issue           `json:"issues,omitempty"`
	Provenance map[string]cds.Provenance `json:"provenance,omitempty"`
}

// SchoolResult groups the documents of one school and the dataset write.
type SchoolResult struct {
	Slug      string           `json:"slug"`
	Name      string           `json:"name"`
	Dataset   string           `json:"dataset,omitempty"`
	Years     []string         `json:"years,omitempty"`
	Error     string           `json:"error,omitempty"`
	Documents []DocumentResult `json:"documents"`

	records []cds.YearRecord
}

// RunReport is the machine-readable record of one invocation.
type RunReport struct {
	RunID      string         `json:"runId"`
	Version    string         `json:"version"`
	Commit     string         `json:"commit"`
	BuildDate  string         `json:"buildDate"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	DryRun     bool           `json:"dryRun"`
	Index      string         `json:"index,omitempty"`
	Schools    []SchoolResult `json:"schools"`
}

// Records counts the year records that reached a dataset.
func (r *RunReport) Records() int {
	n := 0
	for _, s := range r.Schools {
		n += len(s.records)
	}
	return n
}

// Partial reports whether anything was missing, dropped or failed.
func (r *RunReport) Partial() bool {
	for _, s := range r.Schools {
		if s.Error != "" {
			return true
		}
		for _, d := range s.Documents {
			if d.Outcome != OutcomeOK {
				return true
			}
		}
	}
	return false
}

// WriteJSON writes the report to path.
func (r *RunReport) WriteJSON(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, append(b, '\n'))
}

// Summary prints one line per extracted year: the admissions funnel, the SAT
// composite band and the total cost of attendance.
func (r *RunReport) Summary(w io.Writer) {
	p := message.NewPrinter(language.English)
	for _, s := range r.Schools {
		outcomes := map[Outcome]int{}
		for _, d := range s.Documents {
			outcomes[d.Outcome]++
		}
		p.Fprintf(w, "%s (%s): %d documents, %d ok, %d partial, %d failed\n",
			s.Name, s.Slug, len(s.Documents), outcomes[OutcomeOK], outcomes[OutcomePartial], outcomes[OutcomeFailed])
		if s.Error != "" {
			p.Fprintf(w, "  error: %s\n", s.Error)
		}
		recs := append([]cds.YearRecord(nil), s.records...)
		sort.Slice(recs, func(i, j int) bool { return recs[i].Year < recs[j].Year })
		for _, rec := range recs {
			p.Fprintf(w, "  %s  applied %s  admitted %s  rate %s  SAT %s  COA %s\n",
				rec.Year, admissionsCount(p, rec, true), admissionsCount(p, rec, false),
				rate(p, rec), satBand(rec), coa(p, rec))
		}
	}
}

func admissionsCount(p *message.Printer, rec cds.YearRecord, applied bool) string {
	if rec.Admissions == nil {
		return "-"
	}
	v := rec.Admissions.Admitted
	if applied {
		v = rec.Admissions.Applied
	}
	return intText(p, v, "")
}

func rate(p *message.Printer, rec cds.YearRecord) string {
	if rec.Admissions == nil || !rec.Admissions.AcceptanceRate.Present() {
		return "-"
	}
	return p.Sprintf("%.1f%%", rec.Admissions.AcceptanceRate.Value*100)
}

func satBand(rec cds.YearRecord) string {
	if rec.TestScores == nil || rec.TestScores.SAT == nil {
		return "-"
	}
	c := rec.TestScores.SAT.Composite
	if !c.P25.Present() || !c.P75.Present() {
		return "-"
	}
	return fmt.Sprintf("%d-%d", c.P25.Value, c.P75.Value)
}

func coa(p *message.Printer, rec cds.YearRecord) string {
	if rec.Costs == nil {
		return "-"
	}
	return intText(p, rec.Costs.TotalCOA, "$")
}

func intText(p *message.Printer, v cds.Int, prefix string) string {
	if !v.Present() {
		return "-"
	}
	return prefix + p.Sprintf("%d", v.Value)
}
