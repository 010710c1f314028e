package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/cdsextract/internal/catalog"
	"github.com/hyperifyio/cdsextract/internal/cds"
)

var cdsLines = []string{
	"B. Enrollment and Persistence",
	"Total all undergraduates 7,000",
	"Total all graduate and professional students 3,000",
	"Nonresidents 700",
	"Hispanic/Latino 900",
	"Black or African American, non-Hispanic 500",
	"White, non-Hispanic 2,400",
	"American Indian or Alaska Native, non-Hispanic 30",
	"Asian, non-Hispanic 1,800",
	"Native Hawaiian or other Pacific Islander, non-Hispanic 10",
	"Two or more races, non-Hispanic 460",
	"Race and/or ethnicity unknown 200",
	"C. First-time, first-year admission",
	"C1 Applications",
	"Total first-time, first-year men who applied 24,000",
	"Total first-time, first-year women who applied 26,000",
	"Total first-time, first-year men who were admitted 1,300",
	"Total first-time, first-year women who were admitted 1,300",
	"Total first-time, first-year men who enrolled 850",
	"Total first-time, first-year women who enrolled 850",
	"C9 SAT and ACT scores",
	"Percent submitting SAT scores 60%",
	"Percent submitting ACT scores 20%",
	"SAT Evidence-Based Reading and Writing 730 760 780",
	"SAT Math 750 - 790",
	"ACT Composite 33 34 35",
	"C21 Early decision",
	"Number of early decision applications received by your institution 4,000",
	"Number of applicants admitted under early decision plan 800",
	"G. Annual Expenses",
	"Tuition: $60,000",
	"Required fees: $1,500",
	"Food and housing (on-campus): $18,500",
	"H. Financial Aid",
	"Percent of students receiving financial aid 55%",
	"Percent of need fully met 100%",
	"Average financial aid package $60,500",
	"Average need-based scholarship or grant award $58,000",
}

// cdsPage renders a CDS as the plain paragraphs some schools publish.
func cdsPage(year string) string {
	var b strings.Builder
	b.WriteString("<html><body>\n<h1>Common Data Set " + year + "</h1>\n")
	for _, l := range cdsLines {
		b.WriteString("<p>" + l + "</p>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

type fixture struct {
	root string
	cfg  Config
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	cfg := Defaults()
	cfg.SourceDir = filepath.Join(root, "pdfs")
	cfg.DataDir = filepath.Join(root, "src", "data", "schools")
	cfg.CacheDir = filepath.Join(root, "cache")
	cfg.Slugs = []string{"brown"}
	return fixture{root: root, cfg: cfg}
}

func (f fixture) write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(f.cfg.SourceDir, dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, cfg Config) (*RunReport, error) {
	t.Helper()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	return a.Run(context.Background())
}

func TestRun_WritesDatasetIndexAndReports(t *testing.T) {
	f := newFixture(t)
	f.write(t, "Brown", "cds_2022-2023.html", cdsPage("2022-2023"))
	f.write(t, "Brown", "cds_2023-2024.html", cdsPage("2023-2024"))
	f.cfg.Index = true
	f.cfg.ReportJSON = filepath.Join(f.root, "out", "run.json")
	f.cfg.ReportPDF = filepath.Join(f.root, "out", "run.pdf")

	rep, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code := ExitCode(rep, err); code != ExitOK {
		t.Fatalf("exit code = %d, report: %+v", code, rep.Schools)
	}

	b, err := os.ReadFile(filepath.Join(f.cfg.DataDir, "brown.json"))
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	d, err := cds.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Brown University" || d.Color != "#4E3629" || fmt.Sprint(d.YearKeys()) != "[2022-2023 2023-2024]" {
		t.Fatalf("dataset = %s %s %v", d.Name, d.Color, d.YearKeys())
	}

	indexDir := filepath.Join(f.root, "src", "data")
	var idx []catalog.Entry
	ib, err := os.ReadFile(filepath.Join(indexDir, "index.json"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := json.Unmarshal(ib, &idx); err != nil {
		t.Fatal(err)
	}
	if len(idx) != 1 || idx[0].Slug != "brown" || idx[0].LatestAcceptanceRate == nil || *idx[0].LatestAcceptanceRate != 0.052 {
		t.Fatalf("index = %s", ib)
	}
	if _, err := os.Stat(filepath.Join(indexDir, "colors.json")); err != nil {
		t.Fatalf("colors: %v", err)
	}

	var saved RunReport
	rb, err := os.ReadFile(f.cfg.ReportJSON)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := json.Unmarshal(rb, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.RunID == "" || len(saved.Schools) != 1 || len(saved.Schools[0].Documents) != 2 {
		t.Fatalf("report = %s", rb)
	}
	doc := saved.Schools[0].Documents[0]
	if doc.Outcome != OutcomeOK || len(doc.SHA256) != 64 || doc.Provenance["admissions.applied"] != cds.Derived {
		t.Fatalf("document = %+v", doc)
	}
	pb, err := os.ReadFile(f.cfg.ReportPDF)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(pb, []byte("%PDF-")) {
		t.Fatalf("report pdf has no PDF signature")
	}

	var out bytes.Buffer
	rep.Summary(&out)
	for _, want := range []string{"Brown University (brown): 2 documents, 2 ok", "2023-2024  applied 50,000  admitted 2,600  rate 5.2%", "COA $80,000"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_RerunIsByteIdentical(t *testing.T) {
	f := newFixture(t)
	f.write(t, "Brown", "cds_2023-2024.html", cdsPage("2023-2024"))
	if _, err := run(t, f.cfg); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(filepath.Join(f.cfg.DataDir, "brown.json"))
	// The second run is served from the document cache.
	if _, err := run(t, f.cfg); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(filepath.Join(f.cfg.DataDir, "brown.json"))
	if !bytes.Equal(first, second) {
		t.Fatalf("re-extraction changed the dataset:\n%s\n%s", first, second)
	}
}

func TestRun_UnreadableDocumentIsPartial(t *testing.T) {
	f := newFixture(t)
	f.write(t, "Brown", "cds_2023-2024.html", cdsPage("2023-2024"))
	f.write(t, "Brown", "cds_2024-2025.pdf", "not a pdf at all")

	rep, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code := ExitCode(rep, err); code != ExitPartial {
		t.Fatalf("exit code = %d", code)
	}
	docs := rep.Schools[0].Documents
	if len(docs) != 2 || docs[1].Outcome != OutcomeFailed || docs[1].Issues[0].Kind != "DocumentUnreadable" {
		t.Fatalf("documents = %+v", docs)
	}
	if fmt.Sprint(rep.Schools[0].Years) != "[2023-2024]" {
		t.Fatalf("years = %v", rep.Schools[0].Years)
	}
}

func TestRun_NoRecordsFails(t *testing.T) {
	f := newFixture(t)
	f.write(t, "Brown", "cds_2023-2024.pdf", "garbage")

	rep, err := run(t, f.cfg)
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("err = %v, want ErrNoRecords", err)
	}
	if code := ExitCode(rep, err); code != ExitFailure {
		t.Fatalf("exit code = %d", code)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.DataDir, "brown.json")); !os.IsNotExist(err) {
		t.Fatalf("no dataset should be written, stat err = %v", err)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.write(t, "Brown", "cds_2023-2024.html", cdsPage("2023-2024"))
	f.cfg.DryRun = true
	f.cfg.Index = true

	rep, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Records() != 1 || rep.Schools[0].Dataset != "" {
		t.Fatalf("report = %+v", rep.Schools[0])
	}
	if _, err := os.Stat(filepath.Join(f.root, "src")); !os.IsNotExist(err) {
		t.Fatalf("dry run created output, stat err = %v", err)
	}
}

func TestRun_SingleFileYearOverride(t *testing.T) {
	f := newFixture(t)
	f.cfg.PDFFile = f.write(t, "elsewhere", "brown-latest.html", cdsPage("2023-2024"))
	f.cfg.Year = "2021-2022"

	rep, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fmt.Sprint(rep.Schools[0].Years) != "[2021-2022]" {
		t.Fatalf("years = %v", rep.Schools[0].Years)
	}
}

func TestRun_ParallelSchoolsAndUnknownSlug(t *testing.T) {
	f := newFixture(t)
	f.write(t, "Brown", "cds_2023-2024.html", cdsPage("2023-2024"))
	f.write(t, "Yale", "cds_2023-2024.html", cdsPage("2023-2024"))
	f.write(t, "rice", "cds_2023-2024.html", cdsPage("2023-2024"))
	f.cfg.Slugs = []string{"brown", "yale", "rice"}
	f.cfg.Parallel = 3

	rep, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, slug := range f.cfg.Slugs {
		if rep.Schools[i].Slug != slug || len(rep.Schools[i].Years) != 1 {
			t.Fatalf("school %d = %+v", i, rep.Schools[i])
		}
	}
	if rep.Schools[2].Name != "Rice" {
		t.Fatalf("unknown slug name = %q", rep.Schools[2].Name)
	}
}

func TestExitCode(t *testing.T) {
	ok := &RunReport{Schools: []SchoolResult{{Documents: []DocumentResult{{Outcome: OutcomeOK}}}}}
	partial := &RunReport{Schools: []SchoolResult{{Documents: []DocumentResult{{Outcome: OutcomeOK}, {Outcome: OutcomePartial}}}}}
	if ExitCode(ok, nil) != ExitOK || ExitCode(partial, nil) != ExitPartial || ExitCode(ok, ErrNoRecords) != ExitFailure {
		t.Fatal("exit code mapping")
	}
}
