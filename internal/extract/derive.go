package extract

import (
	"fmt"
	"math"

	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/validate"
)

const (
	// rateExact is the gap under which a printed rate agrees with its
	// counts.
	rateExact = 1e-3
	// rateRounding is half a percentage point: a printed whole-percent rate
	// within it of the counts was rounded, and the exact ratio replaces it.
	rateRounding = 0.005
)

// derive fills computed fields from printed primitives. It never computes a
// count from a rate. A printed value that disagrees with its derivation is
// kept and reported as a conflict.
func (x *run) derive(rec *cds.YearRecord) {
	if a := rec.Admissions; a != nil {
		a.AcceptanceRate = x.ratio("admissions.acceptanceRate", a.AcceptanceRate, a.Admitted, a.Applied)
		a.Yield = x.ratio("admissions.yield", a.Yield, a.Enrolled, a.Admitted)
	}
	if t := rec.TestScores; t != nil {
		if s := t.SAT; s != nil {
			s.ReadingWriting = midpoint(s.ReadingWriting)
			s.Math = midpoint(s.Math)
			// A band validation will reject must not leak into the sum.
			if s.Composite.IsZero() && sound(s.ReadingWriting) && sound(s.Math) {
				s.Composite = sumBands(s.ReadingWriting, s.Math)
			}
			s.Composite = midpoint(s.Composite)
		}
		if a := t.ACT; a != nil {
			a.Composite = midpoint(a.Composite)
		}
	}
	if c := rec.Costs; c != nil && c.Tuition.Present() && c.Fees.Present() && c.RoomAndBoard.Present() {
		sum := c.Tuition.Value + c.Fees.Value + c.RoomAndBoard.Value
		switch {
		case !c.TotalCOA.Present():
			c.TotalCOA = cds.DerivedInt(sum)
		case abs(c.TotalCOA.Value-sum) > 1:
			x.conflict("costs.totalCOA", "G", fmt.Sprintf("printed %d, tuition+fees+roomAndBoard %d", c.TotalCOA.Value, sum))
		}
	}
	if d := rec.Demographics; d != nil {
		e := &d.Enrollment
		if e.Undergraduate.Present() && e.Graduate.Present() {
			sum := e.Undergraduate.Value + e.Graduate.Value
			switch {
			case !e.Total.Present():
				e.Total = cds.DerivedInt(sum)
			case e.Total.Value != sum:
				x.conflict("demographics.enrollment.total", "B", fmt.Sprintf("printed %d, undergraduate+graduate %d", e.Total.Value, sum))
			}
		}
	}
}

func (x *run) ratio(field string, printed cds.Float, num, den cds.Int) cds.Float {
	if !num.Present() || !den.Present() || den.Value == 0 {
		return printed
	}
	derived := cds.DerivedFloat(float64(num.Value) / float64(den.Value))
	if !printed.Present() {
		return derived
	}
	d := math.Abs(printed.Value - derived.Value)
	switch {
	case d <= rateExact:
		return printed
	case d <= rateRounding:
		return derived
	default:
		x.conflict(field, "C", fmt.Sprintf("printed %v, computed %v", printed.Value, derived.Value))
		return printed
	}
}

func (x *run) conflict(field, section, detail string) {
	x.rep.add(Issue{Kind: ValueConflict, Field: field, Section: section, Detail: detail})
}

// midpoint fills a missing 50th percentile from the 25th and 75th.
func midpoint(b cds.Band) cds.Band {
	if !b.P50.Present() && b.P25.Present() && b.P75.Present() {
		b.P50 = cds.DerivedInt(int64(math.Round(float64(b.P25.Value+b.P75.Value) / 2)))
	}
	return b
}

// sumBands adds two section bands percentile by percentile into a composite.
func sumBands(a, b cds.Band) cds.Band {
	add := func(p, q cds.Int) cds.Int {
		if p.Present() && q.Present() {
			return cds.DerivedInt(p.Value + q.Value)
		}
		return cds.Int{}
	}
	return cds.Band{P25: add(a.P25, b.P25), P50: add(a.P50, b.P50), P75: add(a.P75, b.P75)}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// sound reports whether b passes the band checks in validate.Record.
func sound(b cds.Band) bool {
	for _, v := range []cds.Int{b.P25, b.P50, b.P75} {
		if v.Present() && v.Value < 0 {
			return false
		}
	}
	return validate.Ordered(b)
}
