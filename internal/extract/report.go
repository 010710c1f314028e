package extract

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/cdsextract/internal/cds"
)

// Kind classifies a per-document issue.
type Kind string

const (
	// DocumentUnreadable is fatal for the document only.
	DocumentUnreadable Kind = "DocumentUnreadable"
	// SectionNotFound omits the section's block from the record.
	SectionNotFound Kind = "SectionNotFound"
	// FieldUnparseable means a label was found without a usable value.
	FieldUnparseable Kind = "FieldUnparseable"
	// InvariantViolation means a field failed a sanity check and was dropped.
	InvariantViolation Kind = "InvariantViolation"
	// ValueConflict means a printed value disagrees with one derived from
	// other fields; the printed value is kept.
	ValueConflict Kind = "ValueConflict"
)

// Issue is one non-fatal problem found while extracting a document.
type Issue struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field,omitempty"`
	Section string `json:"section,omitempty"`
	Page    int    `json:"page,omitempty"`
	Line    int    `json:"line,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	if i.Field != "" {
		b.WriteString(" " + i.Field)
	}
	if i.Section != "" {
		b.WriteString(" [" + i.Section + "]")
	}
	if i.Page > 0 {
		fmt.Fprintf(&b, " p%d", i.Page)
		if i.Line > 0 {
			fmt.Fprintf(&b, ":%d", i.Line)
		}
	}
	if i.Detail != "" {
		b.WriteString(": " + i.Detail)
	}
	return b.String()
}

// Report accumulates everything learned about one document.
type Report struct {
	Source     string                    `json:"source"`
	Year       string                    `json:"year,omitempty"`
	Sections   []string                  `json:"sections,omitempty"`
	Missing    []string                  `json:"missing,omitempty"`
	Issues     []Issue                   `json:"issues,omitempty"`
	Provenance map[string]cds.Provenance `json:"provenance,omitempty"`
}

func (r *Report) add(i Issue) { r.Issues = append(r.Issues, i) }

// Count returns how many issues of kind k were recorded.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == k {
			n++
		}
	}
	return n
}

// Partial reports whether the record is incomplete: a section or required
// field is missing, or a value was dropped. Conflicts alone are not partial
// since a value was still written.
func (r *Report) Partial() bool {
	if len(r.Missing) > 0 {
		return true
	}
	for _, i := range r.Issues {
		switch i.Kind {
		case SectionNotFound, FieldUnparseable, InvariantViolation:
			return true
		}
	}
	return false
}

// Failure is returned when a document yields no record at all.
type Failure struct {
	Source  string
	Missing []string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: no record extracted; required fields not located: %s", f.Source, strings.Join(f.Missing, ", "))
}
