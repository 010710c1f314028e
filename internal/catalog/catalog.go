// Package catalog holds school metadata and builds the presentation files
// derived from all datasets: the search index and the brand colour map.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/store"
)

// School is one row of the school table.
type School struct {
	Name  string `yaml:"name" json:"name"`
	Slug  string `yaml:"slug" json:"slug"`
	Color string `yaml:"color" json:"color,omitempty"`
	// Dir is the folder under the source directory holding the school's CDS
	// files. Defaults to the slug.
	Dir string `yaml:"dir" json:"dir,omitempty"`
	// Labels adds field labels for this school's documents, keyed by field
	// path such as "admissions.applied".
	Labels map[string][]string `yaml:"labels" json:"labels,omitempty"`
}

// Table is the set of known schools.
type Table struct {
	Schools []School `yaml:"schools" json:"schools"`
}

// Default is the built-in school table.
var Default = Table{Schools: []School{
	{Name: "Brown University", Slug: "brown", Color: "#4E3629", Dir: "Brown"},
	{Name: "Columbia University", Slug: "columbia", Color: "#B9D9EB", Dir: "Columbia"},
	{Name: "Cornell University", Slug: "cornell", Color: "#B31B1B", Dir: "Cornell"},
	{Name: "Dartmouth College", Slug: "dartmouth", Color: "#00693E", Dir: "Dartmouth"},
	{Name: "Duke University", Slug: "duke", Color: "#003087", Dir: "Duke"},
	{Name: "Harvard University", Slug: "harvard", Color: "#A51C30", Dir: "Harvard"},
	{Name: "Massachusetts Institute of Technology", Slug: "mit", Color: "#A31F34", Dir: "MIT"},
	{Name: "Princeton University", Slug: "princeton", Color: "#E77500", Dir: "Princeton"},
	{Name: "Stanford University", Slug: "stanford", Color: "#8C1515", Dir: "Stanford"},
	{Name: "University of Chicago", Slug: "uchicago", Color: "#800000", Dir: "UChicago"},
	{Name: "University of Pennsylvania", Slug: "upenn", Color: "#011F5B", Dir: "UPenn"},
	{Name: "Yale University", Slug: "yale", Color: "#00356B", Dir: "Yale"},
}}

// LoadTable reads a school table from a YAML or JSON file.
func LoadTable(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, &t)
	default:
		err = yaml.Unmarshal(b, &t)
	}
	if err != nil {
		return Table{}, fmt.Errorf("parse school table %s: %w", path, err)
	}
	return t, nil
}

// Merge overlays other onto t by slug. Non-empty fields of other win.
func (t Table) Merge(other Table) Table {
	out := Table{Schools: append([]School(nil), t.Schools...)}
	idx := map[string]int{}
	for i, s := range out.Schools {
		idx[s.Slug] = i
	}
	for _, o := range other.Schools {
		i, ok := idx[o.Slug]
		if !ok {
			idx[o.Slug] = len(out.Schools)
			out.Schools = append(out.Schools, o)
			continue
		}
		cur := &out.Schools[i]
		if o.Name != "" {
			cur.Name = o.Name
		}
		if o.Color != "" {
			cur.Color = o.Color
		}
		if o.Dir != "" {
			cur.Dir = o.Dir
		}
		if len(o.Labels) > 0 {
			cur.Labels = o.Labels
		}
	}
	return out
}

// Lookup returns the school with slug. Unknown slugs get a title-cased name
// and no colour.
func (t Table) Lookup(slug string) (School, bool) {
	for _, s := range t.Schools {
		if s.Slug == slug {
			if s.Dir == "" {
				s.Dir = slug
			}
			return s, true
		}
	}
	name := cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
	return School{Name: name, Slug: slug, Dir: slug}, false
}

// Entry is one row of the search index.
type Entry struct {
	Name                 string   `json:"name"`
	Slug                 string   `json:"slug"`
	LatestAcceptanceRate *float64 `json:"latestAcceptanceRate,omitempty"`
}

// BuildIndex lists every dataset with the acceptance rate of its most recent
// year that has one, sorted by name.
func BuildIndex(datasets []cds.Dataset) ([]Entry, error) {
	out := make([]Entry, 0, len(datasets))
	for _, d := range datasets {
		e := Entry{Name: d.Name, Slug: d.Slug}
		keys := d.YearKeys()
		for i := len(keys) - 1; i >= 0; i-- {
			rec, _, err := d.Record(keys[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", d.Slug, err)
			}
			if a := rec.Admissions; a != nil && a.AcceptanceRate.Present() {
				v := a.AcceptanceRate.Value
				e.LatestAcceptanceRate = &v
				break
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

// ColorMap maps slug to brand colour for datasets that have one.
func ColorMap(datasets []cds.Dataset) map[string]string {
	out := map[string]string{}
	for _, d := range datasets {
		if d.Color != "" {
			out[d.Slug] = d.Color
		}
	}
	return out
}

// WriteIndex writes index.json into dir.
func WriteIndex(dir string, entries []Entry) error {
	return writeJSON(filepath.Join(dir, "index.json"), entries)
}

// WriteColors writes colors.json into dir.
func WriteColors(dir string, colors map[string]string) error {
	return writeJSON(filepath.Join(dir, "colors.json"), colors)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, append(b, '\n'))
}
