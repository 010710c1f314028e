// Package validate holds the field-level sanity checks applied to every
// extracted year and the JSON schema that dataset files must satisfy.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperifyio/cdsextract/internal/cds"
)

// DefaultTolerance is the allowed relative gap between a breakdown sum
// (race, residency) and undergraduate enrollment. Unknown and nonresident
// rows are reported inconsistently across schools.
const DefaultTolerance = 0.05

// Violation names a field that failed a check and was removed.
type Violation struct {
	Field  string
	Detail string
}

func (v Violation) String() string { return v.Field + ": " + v.Detail }

// Record checks rec in place. Fields that fail are reset to absent, never
// clamped, and returned as violations in a stable order. Blocks left with no
// fields are dropped.
func Record(rec *cds.YearRecord, tolerance float64) []Violation {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	var out []Violation
	add := func(field, format string, args ...any) {
		out = append(out, Violation{Field: field, Detail: fmt.Sprintf(format, args...)})
	}
	count := func(path string, v *cds.Int) {
		if v.Present() && v.Value < 0 {
			add(path, "negative count %d", v.Value)
			*v = cds.Int{}
		}
	}
	rate := func(path string, v *cds.Float) {
		if v.Present() && (v.Value < 0 || v.Value > 1 || math.IsNaN(v.Value)) {
			add(path, "rate %v outside [0,1]", v.Value)
			*v = cds.Float{}
		}
	}
	band := func(path string, b *cds.Band) {
		count(path+".p25", &b.P25)
		count(path+".p50", &b.P50)
		count(path+".p75", &b.P75)
		if !Ordered(*b) {
			add(path, "percentiles out of order (%d, %d, %d)", b.P25.Value, b.P50.Value, b.P75.Value)
			*b = cds.Band{}
		}
	}

	if a := rec.Admissions; a != nil {
		count("admissions.applied", &a.Applied)
		count("admissions.admitted", &a.Admitted)
		count("admissions.enrolled", &a.Enrolled)
		rate("admissions.acceptanceRate", &a.AcceptanceRate)
		rate("admissions.yield", &a.Yield)
		if p := a.EarlyDecision; p != nil {
			count("admissions.earlyDecision.applied", &p.Applied)
			count("admissions.earlyDecision.admitted", &p.Admitted)
		}
		if p := a.EarlyAction; p != nil {
			count("admissions.earlyAction.applied", &p.Applied)
			count("admissions.earlyAction.admitted", &p.Admitted)
		}
	}
	if t := rec.TestScores; t != nil {
		if s := t.SAT; s != nil {
			band("testScores.sat.readingWriting", &s.ReadingWriting)
			band("testScores.sat.math", &s.Math)
			band("testScores.sat.composite", &s.Composite)
			rate("testScores.sat.submissionRate", &s.SubmissionRate)
		}
		if a := t.ACT; a != nil {
			band("testScores.act.composite", &a.Composite)
			rate("testScores.act.submissionRate", &a.SubmissionRate)
		}
	}
	if c := rec.Costs; c != nil {
		count("costs.tuition", &c.Tuition)
		count("costs.fees", &c.Fees)
		count("costs.roomAndBoard", &c.RoomAndBoard)
		count("costs.totalCOA", &c.TotalCOA)
		count("costs.inStateTuition", &c.InStateTuition)
		if c.TotalCOA.Present() && c.Tuition.Present() && c.Fees.Present() && c.RoomAndBoard.Present() {
			sum := c.Tuition.Value + c.Fees.Value + c.RoomAndBoard.Value
			if d := c.TotalCOA.Value - sum; d > 1 || d < -1 {
				add("costs.totalCOA", "total %d differs from tuition+fees+roomAndBoard %d", c.TotalCOA.Value, sum)
				c.TotalCOA = cds.Int{}
			}
		}
	}
	if f := rec.FinancialAid; f != nil {
		rate("financialAid.percentReceivingAid", &f.PercentReceivingAid)
		rate("financialAid.percentNeedFullyMet", &f.PercentNeedFullyMet)
		count("financialAid.averageAidPackage", &f.AverageAidPackage)
		count("financialAid.averageNeedBasedGrant", &f.AverageNeedBasedGrant)
		count("financialAid.averageNetPrice", &f.AverageNetPrice)
	}
	if d := rec.Demographics; d != nil {
		e := &d.Enrollment
		count("demographics.enrollment.undergraduate", &e.Undergraduate)
		count("demographics.enrollment.graduate", &e.Graduate)
		count("demographics.enrollment.total", &e.Total)
		if e.Total.Present() && e.Undergraduate.Present() && e.Total.Value < e.Undergraduate.Value {
			add("demographics.enrollment.total", "total %d below undergraduate %d", e.Total.Value, e.Undergraduate.Value)
			e.Total = cds.Int{}
		}
		keys := make([]string, 0, len(d.ByRace))
		for k := range d.ByRace {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := d.ByRace[k]
			count("demographics.byRace."+k, &v)
			if v.Present() {
				d.ByRace[k] = v
			} else {
				delete(d.ByRace, k)
			}
		}
		r := &d.ByResidency
		count("demographics.byResidency.inState", &r.InState)
		count("demographics.byResidency.outOfState", &r.OutOfState)
		count("demographics.byResidency.international", &r.International)

		if ug := e.Undergraduate; ug.Present() && ug.Value > 0 {
			if len(d.ByRace) > 0 {
				var sum int64
				for _, v := range d.ByRace {
					sum += v.Value
				}
				if !within(sum, ug.Value, tolerance) {
					add("demographics.byRace", "sum %d not within %.0f%% of undergraduate %d", sum, tolerance*100, ug.Value)
					d.ByRace = nil
				}
			}
			if !r.IsZero() {
				sum := r.InState.Value + r.OutOfState.Value + r.International.Value
				if !within(sum, ug.Value, tolerance) {
					add("demographics.byResidency", "sum %d not within %.0f%% of undergraduate %d", sum, tolerance*100, ug.Value)
					*r = cds.Residency{}
				}
			}
		}
	}
	Prune(rec)
	return out
}

// Ordered reports whether the present percentiles of b are non-decreasing.
func Ordered(b cds.Band) bool {
	vals := make([]int64, 0, 3)
	for _, v := range []cds.Int{b.P25, b.P50, b.P75} {
		if v.Present() {
			vals = append(vals, v.Value)
		}
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] < vals[i-1] {
			return false
		}
	}
	return true
}

func within(sum, want int64, tol float64) bool {
	return math.Abs(float64(sum-want)) <= tol*float64(want)
}

// Prune drops blocks of rec that hold no present field.
func Prune(rec *cds.YearRecord) {
	if a := rec.Admissions; a != nil {
		if a.EarlyDecision != nil && !a.EarlyDecision.Applied.Present() && !a.EarlyDecision.Admitted.Present() {
			a.EarlyDecision = nil
		}
		if a.EarlyAction != nil && !a.EarlyAction.Applied.Present() && !a.EarlyAction.Admitted.Present() {
			a.EarlyAction = nil
		}
		if !a.Applied.Present() && !a.Admitted.Present() && !a.Enrolled.Present() &&
			!a.AcceptanceRate.Present() && !a.Yield.Present() && a.EarlyDecision == nil && a.EarlyAction == nil {
			rec.Admissions = nil
		}
	}
	if t := rec.TestScores; t != nil {
		if s := t.SAT; s != nil && s.ReadingWriting.IsZero() && s.Math.IsZero() && s.Composite.IsZero() && !s.SubmissionRate.Present() {
			t.SAT = nil
		}
		if a := t.ACT; a != nil && a.Composite.IsZero() && !a.SubmissionRate.Present() {
			t.ACT = nil
		}
		if t.SAT == nil && t.ACT == nil {
			rec.TestScores = nil
		}
	}
	if c := rec.Costs; c != nil && *c == (cds.Costs{}) {
		rec.Costs = nil
	}
	if f := rec.FinancialAid; f != nil && *f == (cds.FinancialAid{}) {
		rec.FinancialAid = nil
	}
	if d := rec.Demographics; d != nil {
		if len(d.ByRace) == 0 {
			d.ByRace = nil
		}
		if d.Enrollment == (cds.Enrollment{}) && d.ByRace == nil && d.ByResidency.IsZero() {
			rec.Demographics = nil
		}
	}
}
