// Package cds defines the normalized Common Data Set schema shared by the
// extractor and the dashboard: one YearRecord per school and academic year,
// collected into a SchoolDataset.
package cds

// Race categories reported in CDS item B2. The set is fixed; documents that
// use other wording are mapped onto it by the extractor.
const (
	RaceInternational   = "international"
	RaceHispanicLatino  = "hispanicLatino"
	RaceBlack           = "blackAfricanAmerican"
	RaceWhite           = "white"
	RaceAsian           = "asian"
	RaceAmericanIndian  = "americanIndianAlaskaNative"
	RacePacificIslander = "nativeHawaiianPacificIslander"
	RaceTwoOrMore       = "twoOrMoreRaces"
	RaceUnknown         = "unknown"
)

// RaceCategories lists the race categories in their canonical order.
var RaceCategories = []string{
	RaceInternational,
	RaceHispanicLatino,
	RaceBlack,
	RaceWhite,
	RaceAsian,
	RaceAmericanIndian,
	RacePacificIslander,
	RaceTwoOrMore,
	RaceUnknown,
}

// YearRecord is one school's metrics for one academic year. Metric blocks
// are nil when the corresponding CDS section was not found.
type YearRecord struct {
	Year         string        `json:"year"`
	Admissions   *Admissions   `json:"admissions,omitempty"`
	TestScores   *TestScores   `json:"testScores,omitempty"`
	Costs        *Costs        `json:"costs,omitempty"`
	FinancialAid *FinancialAid `json:"financialAid,omitempty"`
	Demographics *Demographics `json:"demographics,omitempty"`
}

// Empty reports whether no metric block was extracted.
func (r YearRecord) Empty() bool {
	return r.Admissions == nil && r.TestScores == nil && r.Costs == nil &&
		r.FinancialAid == nil && r.Demographics == nil
}

type Admissions struct {
	Applied        Int        `json:"applied,omitzero"`
	Admitted       Int        `json:"admitted,omitzero"`
	Enrolled       Int        `json:"enrolled,omitzero"`
	AcceptanceRate Float      `json:"acceptanceRate,omitzero"`
	Yield          Float      `json:"yield,omitzero"`
	EarlyDecision  *EarlyPlan `json:"earlyDecision,omitempty"`
	EarlyAction    *EarlyPlan `json:"earlyAction,omitempty"`
}

// EarlyPlan is the applied/admitted pair of an early admission track.
type EarlyPlan struct {
	Applied  Int `json:"applied,omitzero"`
	Admitted Int `json:"admitted,omitzero"`
}

// Band holds the 25th, 50th and 75th percentile of a score.
type Band struct {
	P25 Int `json:"p25,omitzero"`
	P50 Int `json:"p50,omitzero"`
	P75 Int `json:"p75,omitzero"`
}

func (b Band) IsZero() bool { return !b.P25.Present() && !b.P50.Present() && !b.P75.Present() }

type TestScores struct {
	SAT *SAT `json:"sat,omitempty"`
	ACT *ACT `json:"act,omitempty"`
}

type SAT struct {
	ReadingWriting Band  `json:"readingWriting,omitzero"`
	Math           Band  `json:"math,omitzero"`
	Composite      Band  `json:"composite,omitzero"`
	SubmissionRate Float `json:"submissionRate,omitzero"`
}

type ACT struct {
	Composite      Band  `json:"composite,omitzero"`
	SubmissionRate Float `json:"submissionRate,omitzero"`
}

// Costs are annual full-time undergraduate charges in whole dollars.
type Costs struct {
	Tuition      Int `json:"tuition,omitzero"`
	Fees         Int `json:"fees,omitzero"`
	RoomAndBoard Int `json:"roomAndBoard,omitzero"`
	TotalCOA     Int `json:"totalCOA,omitzero"`
	// InStateTuition is kept for public institutions; Tuition then holds the
	// out-of-state figure so private and public schools compare fairly.
	InStateTuition Int `json:"inStateTuition,omitzero"`
}

type FinancialAid struct {
	PercentReceivingAid   Float `json:"percentReceivingAid,omitzero"`
	PercentNeedFullyMet   Float `json:"percentNeedFullyMet,omitzero"`
	AverageAidPackage     Int   `json:"averageAidPackage,omitzero"`
	AverageNeedBasedGrant Int   `json:"averageNeedBasedGrant,omitzero"`
	AverageNetPrice       Int   `json:"averageNetPrice,omitzero"`
}

type Enrollment struct {
	Undergraduate Int `json:"undergraduate,omitzero"`
	Graduate      Int `json:"graduate,omitzero"`
	Total         Int `json:"total,omitzero"`
}

type Residency struct {
	InState       Int `json:"inState,omitzero"`
	OutOfState    Int `json:"outOfState,omitzero"`
	International Int `json:"international,omitzero"`
}

func (r Residency) IsZero() bool {
	return !r.InState.Present() && !r.OutOfState.Present() && !r.International.Present()
}

type Demographics struct {
	Enrollment  Enrollment     `json:"enrollment"`
	ByRace      map[string]Int `json:"byRace,omitempty"`
	ByResidency Residency      `json:"byResidency,omitzero"`
}

// Provenance flattens the record into dotted field paths, skipping absent
// values. It is used for the operator report.
func (r YearRecord) Provenance() map[string]Provenance {
	out := map[string]Provenance{}
	addI := func(path string, v Int) {
		if v.Present() {
			out[path] = v.Source
		}
	}
	addF := func(path string, v Float) {
		if v.Present() {
			out[path] = v.Source
		}
	}
	addBand := func(path string, b Band) {
		addI(path+".p25", b.P25)
		addI(path+".p50", b.P50)
		addI(path+".p75", b.P75)
	}
	if a := r.Admissions; a != nil {
		addI("admissions.applied", a.Applied)
		addI("admissions.admitted", a.Admitted)
		addI("admissions.enrolled", a.Enrolled)
		addF("admissions.acceptanceRate", a.AcceptanceRate)
		addF("admissions.yield", a.Yield)
		if a.EarlyDecision != nil {
			addI("admissions.earlyDecision.applied", a.EarlyDecision.Applied)
			addI("admissions.earlyDecision.admitted", a.EarlyDecision.Admitted)
		}
		if a.EarlyAction != nil {
			addI("admissions.earlyAction.applied", a.EarlyAction.Applied)
			addI("admissions.earlyAction.admitted", a.EarlyAction.Admitted)
		}
	}
	if t := r.TestScores; t != nil {
		if s := t.SAT; s != nil {
			addBand("testScores.sat.readingWriting", s.ReadingWriting)
			addBand("testScores.sat.math", s.Math)
			addBand("testScores.sat.composite", s.Composite)
			addF("testScores.sat.submissionRate", s.SubmissionRate)
		}
		if a := t.ACT; a != nil {
			addBand("testScores.act.composite", a.Composite)
			addF("testScores.act.submissionRate", a.SubmissionRate)
		}
	}
	if c := r.Costs; c != nil {
		addI("costs.tuition", c.Tuition)
		addI("costs.fees", c.Fees)
		addI("costs.roomAndBoard", c.RoomAndBoard)
		addI("costs.totalCOA", c.TotalCOA)
		addI("costs.inStateTuition", c.InStateTuition)
	}
	if f := r.FinancialAid; f != nil {
		addF("financialAid.percentReceivingAid", f.PercentReceivingAid)
		addF("financialAid.percentNeedFullyMet", f.PercentNeedFullyMet)
		addI("financialAid.averageAidPackage", f.AverageAidPackage)
		addI("financialAid.averageNeedBasedGrant", f.AverageNeedBasedGrant)
		addI("financialAid.averageNetPrice", f.AverageNetPrice)
	}
	if d := r.Demographics; d != nil {
		addI("demographics.enrollment.undergraduate", d.Enrollment.Undergraduate)
		addI("demographics.enrollment.graduate", d.Enrollment.Graduate)
		addI("demographics.enrollment.total", d.Enrollment.Total)
		for k, v := range d.ByRace {
			addI("demographics.byRace."+k, v)
		}
		addI("demographics.byResidency.inState", d.ByResidency.InState)
		addI("demographics.byResidency.outOfState", d.ByResidency.OutOfState)
		addI("demographics.byResidency.international", d.ByResidency.International)
	}
	return out
}
