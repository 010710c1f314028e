package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/cdsextract/internal/cache"
	"github.com/hyperifyio/cdsextract/internal/catalog"
	"github.com/hyperifyio/cdsextract/internal/cds"
	"github.com/hyperifyio/cdsextract/internal/document"
	"github.com/hyperifyio/cdsextract/internal/extract"
	"github.com/hyperifyio/cdsextract/internal/store"
	"github.com/hyperifyio/cdsextract/internal/validate"
)

// ErrNoRecords is returned when schools were requested but no document
// produced a record.
var ErrNoRecords = errors.New("no document produced a record")

// Exit codes of the command.
const (
	ExitOK      = 0
	ExitInvalid = 1
	ExitFailure = 2
	ExitPartial = 3
)

// ExitCode maps the outcome of Run to the process exit status.
func ExitCode(rep *RunReport, err error) int {
	switch {
	case err != nil:
		return ExitFailure
	case rep != nil && rep.Partial():
		return ExitPartial
	default:
		return ExitOK
	}
}

type App struct {
	cfg       Config
	extractor *extract.Extractor
	cache     *cache.DocCache
	store     *store.FS
}

// New prepares the cache and the dataset store. In dry-run mode no store is
// opened and nothing under the data directory is touched.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	if cfg.Schools.Schools == nil {
		cfg.Schools = catalog.Default
	}
	a := &App{cfg: cfg, extractor: extract.New()}
	if cfg.Tolerance > 0 {
		a.extractor.Tolerance = cfg.Tolerance
	}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.cache = &cache.DocCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	if !cfg.DryRun {
		st, err := store.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		st.Validate = validate.Dataset
		a.store = st
	}
	return a, nil
}

// Close trims the document cache to its configured size.
func (a *App) Close() {
	if a.cache == nil || a.cfg.CacheMaxEntries <= 0 {
		return
	}
	if n, err := cache.EnforceLimit(a.cfg.CacheDir, a.cfg.CacheMaxEntries); err != nil {
		log.Warn().Err(err).Msg("cache limit enforcement failed")
	} else if n > 0 {
		log.Debug().Int("removed", n).Msg("evicted cache entries")
	}
}

// Run extracts every requested school, merges the records into the dataset
// files, optionally rebuilds the index, and writes the operator reports.
// The report is returned even when err is non-nil.
func (a *App) Run(ctx context.Context) (*RunReport, error) {
	rep := &RunReport{
		RunID:     uuid.NewString(),
		Version:   BuildVersion,
		Commit:    BuildCommit,
		BuildDate: BuildDate,
		StartedAt: time.Now().UTC(),
		DryRun:    a.cfg.DryRun,
		Schools:   make([]SchoolResult, len(a.cfg.Slugs)),
	}
	log.Info().Str("run", rep.RunID).Strs("schools", a.cfg.Slugs).Bool("dryRun", a.cfg.DryRun).Msg("run started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Parallel)
	for i, slug := range a.cfg.Slugs {
		g.Go(func() error {
			rep.Schools[i] = a.runSchool(gctx, slug)
			return gctx.Err()
		})
	}
	runErr := g.Wait()

	if runErr == nil && a.cfg.Index {
		if err := a.rebuildIndex(rep); err != nil {
			runErr = fmt.Errorf("rebuild index: %w", err)
		}
	}
	if runErr == nil && len(a.cfg.Slugs) > 0 && rep.Records() == 0 {
		runErr = ErrNoRecords
	}
	rep.FinishedAt = time.Now().UTC()

	if err := a.writeReports(rep); err != nil && runErr == nil {
		runErr = err
	}
	return rep, runErr
}

func (a *App) writeReports(rep *RunReport) error {
	if a.cfg.ReportJSON != "" {
		if err := rep.WriteJSON(a.cfg.ReportJSON); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info().Str("path", a.cfg.ReportJSON).Msg("wrote run report")
	}
	if a.cfg.ReportPDF != "" {
		if err := WriteReportPDF(rep, a.cfg.ReportPDF); err != nil {
			return fmt.Errorf("write report pdf: %w", err)
		}
		log.Info().Str("path", a.cfg.ReportPDF).Msg("wrote report pdf")
	}
	return nil
}

// documents lists the CDS files for a school.
func (a *App) documents(school catalog.School) ([]string, error) {
	switch {
	case a.cfg.PDFFile != "":
		return []string{a.cfg.PDFFile}, nil
	case a.cfg.PDFDir != "":
		return document.List(a.cfg.PDFDir)
	default:
		return document.List(filepath.Join(a.cfg.SourceDir, school.Dir))
	}
}

// runSchool extracts a school's documents one at a time and merges every
// record in a single write. When two files carry the same year the later
// file in name order wins.
func (a *App) runSchool(ctx context.Context, slug string) SchoolResult {
	school, known := a.cfg.Schools.Lookup(slug)
	logger := log.With().Str("school", slug).Logger()
	if !known {
		logger.Warn().Str("name", school.Name).Msg("school not in table; using derived name")
	}
	res := SchoolResult{Slug: slug, Name: school.Name}

	files, err := a.documents(school)
	if err != nil {
		res.Error = err.Error()
		logger.Error().Err(err).Msg("list documents failed")
		return res
	}
	if len(files) == 0 {
		res.Error = "no CDS documents found"
		logger.Error().Msg(res.Error)
		return res
	}

	ex := a.extractor
	if len(school.Labels) > 0 {
		ex = ex.WithLabels(school.Labels)
	}
	var recs []cds.YearRecord
	byYear := map[string]int{}
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		dr, rec := a.runDocument(ctx, ex, logger, f)
		res.Documents = append(res.Documents, dr)
		if rec == nil {
			continue
		}
		if j, dup := byYear[rec.Year]; dup {
			logger.Warn().Str("year", rec.Year).Str("file", dr.File).Msg("year extracted twice; later file wins")
			recs[j] = *rec
			continue
		}
		byYear[rec.Year] = len(recs)
		recs = append(recs, *rec)
	}
	if len(recs) == 0 {
		return res
	}

	meta := store.Meta{Name: school.Name, Color: school.Color}
	if a.store == nil {
		if err := checkDataset(slug, meta, recs); err != nil {
			res.Error = err.Error()
			logger.Error().Err(err).Msg("dataset rejected")
			return res
		}
	} else {
		if _, err := a.store.Merge(slug, meta, recs...); err != nil {
			res.Error = err.Error()
			logger.Error().Err(err).Msg("dataset write failed")
			return res
		}
		res.Dataset = a.store.Path(slug)
	}
	for _, r := range recs {
		res.Years = append(res.Years, r.Year)
	}
	sort.Strings(res.Years)
	res.records = recs
	logger.Info().Strs("years", res.Years).Str("dataset", res.Dataset).Msg("school done")
	return res
}

// checkDataset validates what a write would produce without writing it.
func checkDataset(slug string, meta store.Meta, recs []cds.YearRecord) error {
	d := cds.NewDataset(meta.Name, slug, meta.Color)
	for _, r := range recs {
		if err := d.Put(r); err != nil {
			return err
		}
	}
	b, err := cds.Encode(d)
	if err != nil {
		return err
	}
	return validate.Dataset(b)
}

func (a *App) runDocument(ctx context.Context, ex *extract.Extractor, logger zerolog.Logger, path string) (DocumentResult, *cds.YearRecord) {
	dr := DocumentResult{File: filepath.Base(path)}
	logger = logger.With().Str("file", dr.File).Logger()

	doc, digest, err := a.cache.Load(ctx, path)
	dr.SHA256 = digest
	if err != nil {
		dr.Outcome = OutcomeFailed
		dr.Error = err.Error()
		dr.Issues = []extract.Issue{{Kind: extract.DocumentUnreadable, Detail: err.Error()}}
		logger.Error().Err(err).Msg("document unreadable")
		return dr, nil
	}

	year := ""
	if a.cfg.PDFFile != "" {
		year = a.cfg.Year
	}
	rec, xr, err := ex.Extract(doc, year)
	dr.Year = xr.Year
	dr.Sections = xr.Sections
	dr.Missing = xr.Missing
	dr.Issues = xr.Issues
	dr.Provenance = xr.Provenance
	for _, is := range xr.Issues {
		logIssue(logger, xr.Year, is)
	}
	if err != nil {
		dr.Outcome = OutcomeFailed
		dr.Error = err.Error()
		logger.Error().Err(err).Msg("extraction failed")
		return dr, nil
	}

	dr.Outcome = OutcomeOK
	if xr.Partial() {
		dr.Outcome = OutcomePartial
	}
	logger.Info().Str("year", xr.Year).Str("outcome", string(dr.Outcome)).Int("issues", len(xr.Issues)).Msg("document extracted")
	return dr, &rec
}

func logIssue(logger zerolog.Logger, year string, is extract.Issue) {
	ev := logger.Warn()
	if is.Kind == extract.ValueConflict {
		ev = logger.Info()
	}
	ev = ev.Str("kind", string(is.Kind)).Str("year", year)
	if is.Field != "" {
		ev = ev.Str("field", is.Field)
	}
	if is.Section != "" {
		ev = ev.Str("section", is.Section)
	}
	if is.Page > 0 {
		ev = ev.Int("page", is.Page).Int("line", is.Line)
	}
	ev.Msg(is.Detail)
}

// indexDir is where index.json and colors.json go: the configured directory,
// else the parent of the dataset directory.
func (a *App) indexDir() string {
	if a.cfg.IndexDir != "" {
		return a.cfg.IndexDir
	}
	return filepath.Dir(filepath.Clean(a.cfg.DataDir))
}

// rebuildIndex regenerates index.json and colors.json from every dataset on
// disk, not only the ones touched by this run.
func (a *App) rebuildIndex(rep *RunReport) error {
	if a.store == nil {
		log.Info().Msg("dry run: index not rebuilt")
		return nil
	}
	slugs, err := a.store.List()
	if err != nil {
		return err
	}
	var ds []cds.Dataset
	for _, slug := range slugs {
		if slug == "index" || slug == "colors" {
			continue
		}
		d, ok, err := a.store.Load(slug)
		if err != nil {
			return err
		}
		if ok {
			ds = append(ds, d)
		}
	}
	entries, err := catalog.BuildIndex(ds)
	if err != nil {
		return err
	}
	dir := a.indexDir()
	if err := catalog.WriteIndex(dir, entries); err != nil {
		return err
	}
	if err := catalog.WriteColors(dir, catalog.ColorMap(ds)); err != nil {
		return err
	}
	rep.Index = filepath.Join(dir, "index.json")
	log.Info().Int("schools", len(entries)).Str("dir", dir).Msg("index rebuilt")
	return nil
}
