package extract

import (
	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/locate"
	"github.com/hyperifyio/cdsextract/internal/numparse"
)

func acceptCount(raw string) bool {
	_, st := numparse.Count(raw)
	return st == numparse.OK
}

func acceptMoney(raw string) bool {
	v, st := numparse.Money(raw)
	return st == numparse.OK && v >= 100
}

func acceptPercent(raw string) bool {
	v, st := numparse.Percent(raw)
	return st == numparse.OK && v <= 1
}

func acceptScore(lo, hi int64) func(string) bool {
	return func(raw string) bool {
		v, st := numparse.Count(raw)
		return st == numparse.OK && v >= lo && v <= hi
	}
}

// rowExclude keeps total queries off the gendered, early-plan, transfer and
// wait-list rows of C1 and C2.
var rowExclude = []string{"men", "women", "gender", "early", "transfer", "wait", "part time", "full time", "out of state", "in state"}

// genders are the C1 row qualifiers summed when no total row is printed.
var genders = []string{"men", "women", "another gender", "unknown gender"}

// queries maps a field path to its lookup. Paths with a "#" suffix are
// helper rows that are combined into a field rather than stored.
var queries = map[string]locate.Query{
	"admissions.applied": {
		Labels:   []string{"Total first-time, first-year who applied", "Total first-time, first-year applicants", "Total applicants", "Number of applicants", "Applied"},
		Keywords: [][]string{{"total", "applied"}, {"total", "applicants"}},
		Exclude:  rowExclude, Pick: locate.PickLast, Accept: acceptCount,
	},
	"admissions.admitted": {
		Labels:   []string{"Total first-time, first-year who were admitted", "Total first-time, first-year admits", "Total admitted", "Number of admits", "Admitted"},
		Keywords: [][]string{{"total", "admitted"}},
		Exclude:  rowExclude, Pick: locate.PickLast, Accept: acceptCount,
	},
	"admissions.enrolled": {
		Labels:   []string{"Total first-time, first-year who enrolled", "Total first-time, first-year enrolled", "Total enrolled", "Number enrolled", "Enrolled"},
		Keywords: [][]string{{"total", "enrolled"}},
		Exclude:  rowExclude, Pick: locate.PickLast, Accept: acceptCount,
	},
	"admissions.acceptanceRate": {
		Labels:  []string{"Acceptance rate", "Admit rate", "Admission rate", "Percent admitted"},
		Exclude: []string{"early"}, Accept: acceptPercent,
	},
	"admissions.yield": {
		Labels:  []string{"Yield rate", "Yield"},
		Exclude: []string{"early"}, Accept: acceptPercent,
	},
	"admissions.earlyDecision.applied": {
		Labels:   []string{"Number of early decision applications received by your institution", "Early decision applications received"},
		Keywords: [][]string{{"early decision", "applications"}, {"early decision", "applicants"}},
		Exclude:  []string{"admitted"}, Accept: acceptCount,
	},
	"admissions.earlyDecision.admitted": {
		Labels:   []string{"Number of applicants admitted under early decision plan", "Early decision applicants admitted"},
		Keywords: [][]string{{"early decision", "admitted"}},
		Accept:   acceptCount,
	},
	"admissions.earlyAction.applied": {
		Labels:   []string{"Number of early action applications received by your institution", "Early action applications received"},
		Keywords: [][]string{{"early action", "applications"}, {"early action", "applicants"}},
		Exclude:  []string{"admitted", "restrictive"}, Accept: acceptCount,
	},
	"admissions.earlyAction.admitted": {
		Labels:   []string{"Number of applicants admitted under early action plan", "Early action applicants admitted"},
		Keywords: [][]string{{"early action", "admitted"}},
		Exclude:  []string{"restrictive"}, Accept: acceptCount,
	},

	"testScores.sat.readingWriting": {
		Labels:  []string{"SAT Evidence-Based Reading and Writing", "SAT Reading and Writing", "SAT EBRW", "SAT Critical Reading"},
		Exclude: []string{"percent", "number", "submitting"}, Accept: acceptScore(200, 800),
	},
	"testScores.sat.math": {
		Labels:  []string{"SAT Math"},
		Exclude: []string{"percent", "number", "submitting"}, Accept: acceptScore(200, 800),
	},
	"testScores.sat.composite": {
		Labels:  []string{"SAT Composite", "SAT Total"},
		Exclude: []string{"percent", "number", "submitting"}, Accept: acceptScore(400, 1600),
	},
	"testScores.sat.submissionRate": {
		Labels:   []string{"Percent submitting SAT scores", "Percent submitting SAT"},
		Keywords: [][]string{{"percent", "sat"}},
		Accept:   acceptPercent,
	},
	"testScores.act.composite": {
		Labels:  []string{"ACT Composite"},
		Exclude: []string{"percent", "number", "submitting"}, Accept: acceptScore(1, 36),
	},
	"testScores.act.submissionRate": {
		Labels:   []string{"Percent submitting ACT scores", "Percent submitting ACT"},
		Keywords: [][]string{{"percent", "act"}},
		Accept:   acceptPercent,
	},

	"costs.tuition#outOfState": {
		Labels:   []string{"Tuition: Out-of-state", "Out-of-state tuition", "Nonresident tuition"},
		Keywords: [][]string{{"out of state", "tuition"}, {"nonresident", "tuition"}},
		Accept:   acceptMoney,
	},
	"costs.inStateTuition": {
		Labels:   []string{"Tuition: In-state", "In-state tuition", "Resident tuition"},
		Keywords: [][]string{{"in state", "tuition"}},
		Exclude:  []string{"out of state", "nonresident", "in district"}, Accept: acceptMoney,
	},
	"costs.tuition": {
		Labels:  []string{"Private institutions tuition", "Tuition"},
		Exclude: []string{"in state", "out of state", "in district", "nonresident", "per credit", "credit hour", "graduate", "guarantee"},
		Accept:  acceptMoney,
	},
	"costs.fees": {
		Labels:  []string{"Required fees", "Fees"},
		Exclude: []string{"per credit", "application", "graduate"}, Accept: acceptMoney,
	},
	"costs.roomAndBoard": {
		Labels:   []string{"Food and housing (on-campus)", "Room and board (on-campus)", "Food and housing", "Room and board"},
		Keywords: [][]string{{"room", "board"}, {"food", "housing"}},
		Exclude:  []string{"off campus", "commuter", "room only", "board only", "housing only", "food only"},
		Accept:   acceptMoney,
	},
	"costs.totalCOA": {
		Labels: []string{"Total cost of attendance", "Cost of attendance"},
		Accept: acceptMoney,
	},

	"financialAid.percentReceivingAid": {
		Labels:   []string{"Percent receiving aid", "Percent of students receiving financial aid", "Percent who received any financial aid"},
		Keywords: [][]string{{"percent", "financial aid"}, {"percent", "receiving aid"}},
		Exclude:  []string{"need fully met", "need met", "number"}, Accept: acceptPercent,
	},
	"financialAid.percentNeedFullyMet": {
		Labels:   []string{"Percent of need fully met", "Percentage of need met", "Need fully met"},
		Keywords: [][]string{{"percent", "need", "met"}, {"percentage", "need", "met"}},
		Exclude:  []string{"number"}, Accept: acceptPercent,
	},
	"financialAid.averageAidPackage": {
		Labels:   []string{"Average financial aid package", "Average aid package"},
		Keywords: [][]string{{"average", "aid package"}},
		Exclude:  []string{"percent"}, Accept: acceptMoney,
	},
	"financialAid.averageNeedBasedGrant": {
		Labels:   []string{"Average need-based scholarship or grant award", "Average need-based grant"},
		Keywords: [][]string{{"average", "need based", "grant"}, {"average", "need based", "scholarship"}},
		Exclude:  []string{"self help", "loan", "percent"}, Accept: acceptMoney,
	},
	"financialAid.averageNetPrice": {
		Labels: []string{"Average net price"},
		Accept: acceptMoney,
	},

	"demographics.enrollment.undergraduate": {
		Labels: []string{"Total all undergraduates", "Total undergraduates", "Total undergraduate students", "Undergraduate enrollment"},
		Pick:   locate.PickLast, Accept: acceptCount,
	},
	"demographics.enrollment.graduate": {
		Labels: []string{"Total all graduate and professional students", "Total graduate and professional students", "Total graduate students", "Graduate enrollment"},
		Pick:   locate.PickLast, Accept: acceptCount,
	},
	"demographics.enrollment.total": {
		Labels: []string{"Grand total all students", "Total all students", "Total enrollment"},
		Pick:   locate.PickLast, Accept: acceptCount,
	},
	"demographics.byResidency.inState": {
		Labels:  []string{"In-state students", "In-state"},
		Exclude: []string{"tuition", "percent"}, Pick: locate.PickLast, Accept: acceptCount,
	},
	"demographics.byResidency.outOfState": {
		Labels:  []string{"Out-of-state students", "Out-of-state"},
		Exclude: []string{"tuition", "percent"}, Pick: locate.PickLast, Accept: acceptCount,
	},
	"demographics.byResidency.international": {
		Labels:  []string{"International students"},
		Exclude: []string{"tuition", "percent"}, Pick: locate.PickLast, Accept: acceptCount,
	},
}

// raceLabels maps B2 row labels to race categories.
var raceLabels = map[string]locate.Query{
	cds.RaceInternational:   {Labels: []string{"Nonresidents", "Nonresident aliens", "Nonresident alien", "U.S. Nonresident"}},
	cds.RaceHispanicLatino:  {Labels: []string{"Hispanic/Latino", "Hispanic or Latino"}},
	cds.RaceBlack:           {Labels: []string{"Black or African American"}},
	cds.RaceWhite:           {Labels: []string{"White"}},
	cds.RaceAsian:           {Labels: []string{"Asian"}},
	cds.RaceAmericanIndian:  {Labels: []string{"American Indian or Alaska Native"}},
	cds.RacePacificIslander: {Labels: []string{"Native Hawaiian or other Pacific Islander"}},
	cds.RaceTwoOrMore:       {Labels: []string{"Two or more races"}},
	cds.RaceUnknown:         {Labels: []string{"Race and/or ethnicity unknown", "Race/ethnicity unknown"}},
}

// genderQuery builds the C1 row query for one gender and outcome, e.g.
// "women who applied".
func genderQuery(gender, outcome string) locate.Query {
	phrase := outcome
	if outcome == "admitted" {
		phrase = "were admitted"
	}
	return locate.Query{
		Labels:   []string{"first-year " + gender + " who " + phrase, gender + " who " + phrase},
		Keywords: [][]string{{gender, outcome}},
		Exclude:  []string{"early", "transfer", "wait", "part time", "full time"},
		Pick:     locate.PickLast,
		Accept:   acceptCount,
	}
}
