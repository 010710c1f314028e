package extract

import (
	"fmt"

	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/numparse"
)

// scores reads the C9 percentile rows. A row prints either three
// percentiles or a 25th-75th range such as "740-780".
func (x *run) scores() *cds.TestScores {
	if !x.has("C") {
		return nil
	}
	return &cds.TestScores{
		SAT: &cds.SAT{
			ReadingWriting: x.band("testScores.sat.readingWriting"),
			Math:           x.band("testScores.sat.math"),
			Composite:      x.band("testScores.sat.composite"),
			SubmissionRate: x.percent("C", "testScores.sat.submissionRate"),
		},
		ACT: &cds.ACT{
			Composite:      x.band("testScores.act.composite"),
			SubmissionRate: x.percent("C", "testScores.act.submissionRate"),
		},
	}
}

func (x *run) band(path string) cds.Band {
	q := x.query(path)
	h, issue, ok := x.find("C", q)
	if !ok {
		x.record(issue)
		return cds.Band{}
	}
	vals := make([]int64, 0, 3)
	for _, t := range h.Tokens {
		v, st := numparse.Count(t)
		if st != numparse.OK {
			continue
		}
		vals = append(vals, v)
		if len(vals) == 3 {
			break
		}
	}
	switch len(vals) {
	case 3:
		return cds.Band{P25: cds.PrintedInt(vals[0]), P50: cds.PrintedInt(vals[1]), P75: cds.PrintedInt(vals[2])}
	case 2:
		return cds.Band{P25: cds.PrintedInt(vals[0]), P75: cds.PrintedInt(vals[1])}
	default:
		x.record(&Issue{
			Kind: FieldUnparseable, Field: path, Section: "C", Page: h.Page, Line: h.Line,
			Detail: fmt.Sprintf("expected a percentile range, got %q", h.Text),
		})
		return cds.Band{}
	}
}
