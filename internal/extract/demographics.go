package extract

import (
	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/locate"
)

// demographics reads B1 enrollment totals, the B2 race/ethnicity rows and
// residency counts where a school prints them.
func (x *run) demographics() *cds.Demographics {
	if !x.has("B") {
		return nil
	}
	d := &cds.Demographics{
		Enrollment: cds.Enrollment{
			Undergraduate: x.count("B", "demographics.enrollment.undergraduate"),
			Graduate:      x.count("B", "demographics.enrollment.graduate"),
			Total:         x.count("B", "demographics.enrollment.total"),
		},
		ByResidency: cds.Residency{
			InState:       x.count("B", "demographics.byResidency.inState"),
			OutOfState:    x.count("B", "demographics.byResidency.outOfState"),
			International: x.count("B", "demographics.byResidency.international"),
		},
	}
	for _, cat := range cds.RaceCategories {
		q := raceLabels[cat]
		q.Field = "demographics.byRace." + cat
		// The last column of B2 is all undergraduates, degree-seeking or not.
		q.Pick = locate.PickLast
		q.Accept = acceptCount
		v, issue := x.countQ("B", x.withLabels(q))
		x.record(issue)
		if v.Present() {
			if d.ByRace == nil {
				d.ByRace = map[string]cds.Int{}
			}
			d.ByRace[cat] = v
		}
	}
	return d
}
