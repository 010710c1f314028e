package extract

import (
	"github.com/hyperifyio/cdsextract/internal/cds"
)

// admissions reads C1 totals and the C21/C22 early plans.
func (x *run) admissions() *cds.Admissions {
	if !x.has("C") {
		return nil
	}
	a := &cds.Admissions{
		Applied:        x.total("applied", "admissions.applied"),
		Admitted:       x.total("admitted", "admissions.admitted"),
		Enrolled:       x.total("enrolled", "admissions.enrolled"),
		AcceptanceRate: x.percent("C", "admissions.acceptanceRate"),
		Yield:          x.percent("C", "admissions.yield"),
	}
	ed := &cds.EarlyPlan{
		Applied:  x.count("C", "admissions.earlyDecision.applied"),
		Admitted: x.count("C", "admissions.earlyDecision.admitted"),
	}
	if ed.Applied.Present() || ed.Admitted.Present() {
		a.EarlyDecision = ed
	}
	ea := &cds.EarlyPlan{
		Applied:  x.count("C", "admissions.earlyAction.applied"),
		Admitted: x.count("C", "admissions.earlyAction.admitted"),
	}
	if ea.Applied.Present() || ea.Admitted.Present() {
		a.EarlyAction = ea
	}
	return a
}

// total reads a C1 total row. Many CDS files print only the rows per
// gender, in which case those are summed.
func (x *run) total(outcome, path string) cds.Int {
	v, issue := x.countQ("C", x.query(path))
	if v.Present() {
		return v
	}
	var sum int64
	n := 0
	for _, g := range genders {
		q := genderQuery(g, outcome)
		q.Field = path + "#" + g
		gv, _ := x.countQ("C", q)
		if gv.Present() {
			sum += gv.Value
			n++
		}
	}
	if n == 0 {
		x.record(issue)
		return cds.Int{}
	}
	return cds.DerivedInt(sum)
}
