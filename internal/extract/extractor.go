// Package extract turns a parsed CDS document into one YearRecord and a
// report of everything that could not be read cleanly.
package extract

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/document"
	"github.com/hyperifyio/cdsextract/internal/locate"
	"github.com/hyperifyio/cdsextract/internal/numparse"
	"github.com/hyperifyio/cdsextract/internal/validate"
)

// ErrNoYear is returned when neither the caller, the file name nor the
// document text names the academic year.
var ErrNoYear = errors.New("academic year not determined")

// Required lists the fields whose absence makes a record partial.
var Required = []string{
	"admissions.applied",
	"admissions.admitted",
	"admissions.enrolled",
	"costs.tuition",
	"demographics.enrollment.undergraduate",
}

// Extractor converts documents into year records. The zero value is not
// usable; call New.
type Extractor struct {
	Sections []locate.SectionSpec
	Locator  *locate.Locator
	// Labels holds extra labels per field path, tried before the built-in
	// ones. They let a school's wording be handled from configuration.
	Labels    map[string][]string
	Tolerance float64
}

// New returns an Extractor with the standard CDS sections and matchers.
func New() *Extractor {
	return &Extractor{
		Sections:  locate.DefaultSections,
		Locator:   locate.NewLocator(),
		Tolerance: validate.DefaultTolerance,
	}
}

// WithLabels returns a copy of e that also tries extra labels per field.
func (e *Extractor) WithLabels(extra map[string][]string) *Extractor {
	c := *e
	c.Labels = extra
	return &c
}

// Extract reads one document. year overrides the academic year; when empty
// it is inferred from the document's file name, then from its text.
//
// The returned report is never nil. The error is ErrUnreadable for a
// document without text, ErrNoYear, or a *Failure when no field at all was
// extracted. Missing sections and fields only make the record partial.
func (e *Extractor) Extract(doc document.Document, year string) (cds.YearRecord, *Report, error) {
	rep := &Report{Source: doc.Source}
	if doc.Empty() {
		rep.add(Issue{Kind: DocumentUnreadable, Detail: "no extractable text"})
		return cds.YearRecord{}, rep, fmt.Errorf("%w: %s", document.ErrUnreadable, doc.Source)
	}
	y, err := resolveYear(doc, year)
	if err != nil {
		return cds.YearRecord{}, rep, err
	}
	rep.Year = y

	x := &run{e: e, secs: locate.Sections(doc, e.Sections), rep: rep}
	for _, s := range e.Sections {
		if s.Boundary {
			continue
		}
		if _, ok := x.secs[s.ID]; ok {
			rep.Sections = append(rep.Sections, s.ID)
		} else {
			rep.add(Issue{Kind: SectionNotFound, Section: s.ID, Detail: "no header matched " + s.Headers[0]})
		}
	}

	rec := cds.YearRecord{
		Year:         y,
		Admissions:   x.admissions(),
		TestScores:   x.scores(),
		Costs:        x.costs(),
		FinancialAid: x.aid(),
		Demographics: x.demographics(),
	}
	x.derive(&rec)
	for _, v := range validate.Record(&rec, e.Tolerance) {
		rep.add(Issue{Kind: InvariantViolation, Field: v.Field, Detail: v.Detail})
	}
	rep.Missing = missing(rec)
	rep.Provenance = rec.Provenance()
	if rec.Empty() {
		return rec, rep, &Failure{Source: doc.Source, Missing: rep.Missing}
	}
	return rec, rep, nil
}

func resolveYear(doc document.Document, override string) (string, error) {
	if override != "" {
		if !cds.ValidYear(override) {
			return "", fmt.Errorf("invalid year %q: want YYYY-YYYY", override)
		}
		return override, nil
	}
	if y, ok := cds.InferYear(doc.Source); ok {
		return y, nil
	}
	if y, ok := cds.InferYearFromText(doc.Text()); ok {
		return y, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoYear, doc.Source)
}

func missing(rec cds.YearRecord) []string {
	have := rec.Provenance()
	var out []string
	for _, f := range Required {
		if _, ok := have[f]; !ok {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// run carries the state of one Extract call.
type run struct {
	e    *Extractor
	secs map[string]locate.Section
	rep  *Report
}

func (x *run) has(section string) bool {
	_, ok := x.secs[section]
	return ok
}

func (x *run) query(path string) locate.Query {
	q := queries[path]
	q.Field = path
	return x.withLabels(q)
}

func (x *run) withLabels(q locate.Query) locate.Query {
	if extra := x.e.Labels[q.Field]; len(extra) > 0 {
		q.Labels = append(append([]string{}, extra...), q.Labels...)
	}
	return q
}

// find locates q in section. A blank or missing value yields ok=false and
// no issue; a label without a usable value yields ok=false and an issue the
// caller may record or discard.
func (x *run) find(section string, q locate.Query) (locate.Hit, *Issue, bool) {
	sec, ok := x.secs[section]
	if !ok {
		return locate.Hit{}, nil, false
	}
	h, ok := x.e.Locator.Find(sec, q)
	if !ok || h.Status == locate.Blank {
		return h, nil, false
	}
	if h.Status == locate.Unparseable {
		return h, &Issue{
			Kind: FieldUnparseable, Field: q.Field, Section: section,
			Page: h.Page, Line: h.Line, Detail: fmt.Sprintf("no value next to label in %q", h.Text),
		}, false
	}
	log.Debug().Str("file", x.rep.Source).Str("field", q.Field).Str("strategy", h.Strategy).
		Str("layout", string(h.Layout)).Int("page", h.Page).Int("line", h.Line).Str("raw", h.Raw).Msg("field located")
	return h, nil, true
}

func (x *run) record(i *Issue) {
	if i != nil {
		x.rep.add(*i)
	}
}

func (x *run) badToken(section string, q locate.Query, h locate.Hit, st numparse.Status) *Issue {
	return &Issue{
		Kind: FieldUnparseable, Field: q.Field, Section: section, Page: h.Page, Line: h.Line,
		Detail: fmt.Sprintf("token %q is %s", h.Raw, st),
	}
}

func (x *run) countQ(section string, q locate.Query) (cds.Int, *Issue) {
	h, issue, ok := x.find(section, q)
	if !ok {
		return cds.Int{}, issue
	}
	v, st := numparse.Count(h.Raw)
	if st != numparse.OK {
		return cds.Int{}, x.badToken(section, q, h, st)
	}
	return cds.PrintedInt(v), nil
}

func (x *run) count(section, path string) cds.Int {
	v, issue := x.countQ(section, x.query(path))
	x.record(issue)
	return v
}

func (x *run) money(section, path string) cds.Int {
	q := x.query(path)
	h, issue, ok := x.find(section, q)
	if !ok {
		x.record(issue)
		return cds.Int{}
	}
	v, st := numparse.Money(h.Raw)
	if st != numparse.OK {
		x.record(x.badToken(section, q, h, st))
		return cds.Int{}
	}
	return cds.PrintedInt(v)
}

func (x *run) percent(section, path string) cds.Float {
	q := x.query(path)
	h, issue, ok := x.find(section, q)
	if !ok {
		x.record(issue)
		return cds.Float{}
	}
	v, st := numparse.Percent(h.Raw)
	if st != numparse.OK {
		x.record(x.badToken(section, q, h, st))
		return cds.Float{}
	}
	return cds.PrintedFloat(v)
}
