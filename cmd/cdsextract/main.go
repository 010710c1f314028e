package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/cdsextract/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flagValues mirrors the command-line flags before they are layered over the
// config file and environment.
type flagValues struct {
	sourceDir   string
	pdfDir      string
	pdfFile     string
	year        string
	dataDir     string
	indexDir    string
	configPath  string
	envFiles    string
	index       bool
	reportJSON  string
	reportPDF   string
	dryRun      bool
	verbose     bool
	parallel    int
	tolerance   float64
	cacheDir    string
	cacheMaxAge time.Duration
	cacheClear  bool
	cacheStrict bool
	version     bool
}

func runMain(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cdsextract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: cdsextract [flags] <slug> [<slug>...]")
		fs.PrintDefaults()
	}

	var v flagValues
	fs.StringVar(&v.sourceDir, "data.source", app.DefaultSourceDir, "Directory holding one folder of CDS files per school")
	fs.StringVar(&v.pdfDir, "pdf-dir", "", "Folder of CDS files for a single school")
	fs.StringVar(&v.pdfFile, "pdf", "", "Single CDS file for a single school")
	fs.StringVar(&v.year, "year", "", "Academic year YYYY-YYYY for -pdf, overriding the file name")
	fs.StringVar(&v.dataDir, "data.dir", app.DefaultDataDir, "Output directory for <slug>.json datasets")
	fs.StringVar(&v.indexDir, "index.dir", "", "Directory for index.json and colors.json (default: parent of -data.dir)")
	fs.StringVar(&v.configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&v.envFiles, "env", ".env", "Comma-separated dotenv files; later files win")
	fs.BoolVar(&v.index, "index", false, "Rebuild index.json and colors.json from all datasets")
	fs.StringVar(&v.reportJSON, "report.json", "", "Write the run report as JSON")
	fs.StringVar(&v.reportPDF, "report.pdf", "", "Render the run report as PDF")
	fs.BoolVar(&v.dryRun, "dry-run", false, "Extract and report without writing datasets")
	fs.BoolVar(&v.verbose, "v", false, "Verbose logging")
	fs.IntVar(&v.parallel, "parallel", app.DefaultParallel, "Schools processed concurrently")
	fs.Float64Var(&v.tolerance, "tolerance", 0, "Relative tolerance for race and residency sums (default 0.05)")
	fs.StringVar(&v.cacheDir, "cache.dir", app.DefaultCacheDir, "Parsed document cache directory; empty disables")
	fs.DurationVar(&v.cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 720h); 0 disables")
	fs.BoolVar(&v.cacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&v.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&v.version, "version", false, "Print version and exit")
	slugs, err := parseInterleaved(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return app.ExitOK
		}
		return app.ExitInvalid
	}
	if v.version {
		fmt.Fprintf(stdout, "cdsextract %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return app.ExitOK
	}

	if err := app.LoadEnvFiles(strings.Split(v.envFiles, ",")...); err != nil {
		log.Error().Err(err).Msg("load env files")
		return app.ExitInvalid
	}
	cfg := app.Defaults()
	if v.configPath != "" {
		fc, err := app.LoadConfigFile(v.configPath)
		if err != nil {
			log.Error().Err(err).Str("path", v.configPath).Msg("load config")
			return app.ExitInvalid
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	applyFlags(&cfg, fs, v)
	cfg.Slugs = slugs

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		fs.Usage()
		return app.ExitInvalid
	}

	rep, err := run(ctx, cfg)
	if rep != nil && len(rep.Schools) > 0 {
		rep.Summary(stdout)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	return app.ExitCode(rep, err)
}

// parseInterleaved parses flags that may follow the slugs, as in
// "cdsextract brown -pdf-dir pdfs/Brown". flag stops at the first
// positional argument, so parsing resumes after each one. Everything after
// "--" is positional.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var slugs []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return slugs, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(slugs, rest...), nil
		}
		slugs = append(slugs, rest[0])
		args = rest[1:]
	}
}

// applyFlags copies only the flags given on the command line, so flags beat
// the environment and the config file without their defaults masking them.
func applyFlags(cfg *app.Config, fs *flag.FlagSet, v flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data.source":
			cfg.SourceDir = v.sourceDir
		case "pdf-dir":
			cfg.PDFDir = v.pdfDir
		case "pdf":
			cfg.PDFFile = v.pdfFile
		case "year":
			cfg.Year = v.year
		case "data.dir":
			cfg.DataDir = v.dataDir
		case "index.dir":
			cfg.IndexDir = v.indexDir
		case "index":
			cfg.Index = v.index
		case "report.json":
			cfg.ReportJSON = v.reportJSON
		case "report.pdf":
			cfg.ReportPDF = v.reportPDF
		case "dry-run":
			cfg.DryRun = v.dryRun
		case "v":
			cfg.Verbose = v.verbose
		case "parallel":
			cfg.Parallel = v.parallel
		case "tolerance":
			cfg.Tolerance = v.tolerance
		case "cache.dir":
			cfg.CacheDir = v.cacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = v.cacheMaxAge
		case "cache.clear":
			cfg.CacheClear = v.cacheClear
		case "cache.strictPerms":
			cfg.CacheStrictPerms = v.cacheStrict
		}
	})
}

func run(ctx context.Context, cfg app.Config) (*app.RunReport, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return a.Run(ctx)
}
