package extract

import "github.com/hyperifyio/cdsextract/internal/cds"

// costs reads G1. Public institutions print in-state and out-of-state
// tuition; the record's tuition is the out-of-state figure so schools
// compare on the same basis, and the in-state figure is kept alongside.
func (x *run) costs() *cds.Costs {
	if !x.has("G") {
		return nil
	}
	c := &cds.Costs{
		InStateTuition: x.money("G", "costs.inStateTuition"),
		Fees:           x.money("G", "costs.fees"),
		RoomAndBoard:   x.money("G", "costs.roomAndBoard"),
		TotalCOA:       x.money("G", "costs.totalCOA"),
	}
	if out := x.money("G", "costs.tuition#outOfState"); out.Present() {
		c.Tuition = out
	} else if t := x.money("G", "costs.tuition"); t.Present() {
		c.Tuition = t
	} else {
		c.Tuition = c.InStateTuition
	}
	return c
}

// aid reads H. A document without section H yields no block at all.
func (x *run) aid() *cds.FinancialAid {
	if !x.has("H") {
		return nil
	}
	return &cds.FinancialAid{
		PercentReceivingAid:   x.percent("H", "financialAid.percentReceivingAid"),
		PercentNeedFullyMet:   x.percent("H", "financialAid.percentNeedFullyMet"),
		AverageAidPackage:     x.money("H", "financialAid.averageAidPackage"),
		AverageNeedBasedGrant: x.money("H", "financialAid.averageNeedBasedGrant"),
		AverageNetPrice:       x.money("H", "financialAid.averageNetPrice"),
	}
}
