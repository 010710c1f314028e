package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/validate"
)

func yearRec(start int, applied int64) cds.YearRecord {
	return cds.YearRecord{
		Year: cds.SpanFrom(start),
		Admissions: &cds.Admissions{
			Applied:        cds.PrintedInt(applied),
			Admitted:       cds.PrintedInt(applied / 20),
			AcceptanceRate: cds.DerivedFloat(0.05),
		},
	}
}

func TestMerge_OtherYearsByteIdentical(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	meta := Meta{Name: "Brown University", Color: "#4E3629"}
	if _, err := s.Merge("brown", meta, yearRec(2022, 46000), yearRec(2023, 50000), yearRec(2024, 51000)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	before, _, err := s.Load("brown")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Merge("brown", meta, yearRec(2025, 52000)); err != nil {
		t.Fatalf("merge 2025: %v", err)
	}
	after, _, err := s.Load("brown")
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range []string{"2022-2023", "2023-2024", "2024-2025"} {
		if !bytes.Equal(before.Years[y], after.Years[y]) {
			t.Fatalf("%s changed:\n%s\n%s", y, before.Years[y], after.Years[y])
		}
	}
	if got := after.YearKeys(); !reflect.DeepEqual(got, []string{"2022-2023", "2023-2024", "2024-2025", "2025-2026"}) {
		t.Fatalf("years = %v", got)
	}
	if after.Name != "Brown University" || after.Color != "#4E3629" {
		t.Fatalf("meta = %q %q", after.Name, after.Color)
	}
}

func TestMerge_RerunIsIdempotent(t *testing.T) {
	s, _ := New(t.TempDir())
	rec := yearRec(2023, 50000)
	if _, err := s.Merge("brown", Meta{Name: "Brown"}, rec); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(s.Path("brown"))
	if _, err := s.Merge("brown", Meta{Name: "Brown"}, rec); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(s.Path("brown"))
	if !bytes.Equal(first, second) {
		t.Fatalf("re-merge changed the file:\n%s\n%s", first, second)
	}
}

func TestMerge_ConcurrentWritersKeepAllYears(t *testing.T) {
	s, _ := New(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Merge("yale", Meta{Name: "Yale"}, yearRec(2010+i, int64(1000+i))); err != nil {
				t.Errorf("merge %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	d, ok, err := s.Load("yale")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(d.Years) != 8 {
		t.Fatalf("want 8 years, got %v", d.YearKeys())
	}
}

func TestMerge_ValidatorBlocksWrite(t *testing.T) {
	s, _ := New(t.TempDir())
	if _, err := s.Merge("mit", Meta{Name: "MIT"}, yearRec(2023, 30000)); err != nil {
		t.Fatal(err)
	}
	orig, _ := os.ReadFile(s.Path("mit"))
	boom := errors.New("rejected")
	s.Validate = func([]byte) error { return boom }
	if _, err := s.Merge("mit", Meta{}, yearRec(2024, 31000)); !errors.Is(err, boom) {
		t.Fatalf("want validator error, got %v", err)
	}
	now, _ := os.ReadFile(s.Path("mit"))
	if !bytes.Equal(orig, now) {
		t.Fatal("file must be untouched when validation fails")
	}
}

func TestMerge_CorruptFileNotOverwritten(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := os.WriteFile(s.Path("duke"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Merge("duke", Meta{Name: "Duke"}, yearRec(2023, 1)); err == nil {
		t.Fatal("expected decode error")
	}
	b, _ := os.ReadFile(s.Path("duke"))
	if string(b) != "{not json" {
		t.Fatalf("file overwritten: %s", b)
	}
}

func TestMerge_KeepsUnknownTopLevelKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	s.Validate = validate.Dataset
	prior := `{"name": "Duke University", "slug": "duke", "years": {}, "ipedsId": 198419}`
	if err := os.WriteFile(s.Path("duke"), []byte(prior), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Merge("duke", Meta{Name: "Duke University"}, yearRec(2023, 50000)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	d, ok, err := s.Load("duke")
	if err != nil || !ok {
		t.Fatalf("load: %v ok=%v", err, ok)
	}
	if string(d.Extra["ipedsId"]) != "198419" || len(d.Years) != 1 {
		t.Fatalf("dataset = %+v", d)
	}
}

func TestList(t *testing.T) {
	s, _ := New(t.TempDir())
	for _, slug := range []string{"yale", "brown", "mit"} {
		if _, err := s.Merge(slug, Meta{Name: slug}, yearRec(2023, 10)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(s.Root+"/notes.txt", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(got) != "[brown mit yale]" {
		t.Fatalf("List = %v", got)
	}
}
