package app

import (
	"time"

	"github.com/hyperifyio/cdsextract/internal/catalog"
)

// Defaults applied before the config file, environment and flags.
const (
	DefaultSourceDir = "pdfs"
	DefaultDataDir   = "src/data/schools"
	DefaultCacheDir  = ".cdsextract-cache"
	DefaultParallel  = 4
)

// Config holds runtime configuration for the application.
type Config struct {
	// Slugs are the schools to process, in command-line order.
	Slugs []string

	// Inputs
	SourceDir string // parent of the per-school folders
	PDFDir    string // explicit folder for a single school
	PDFFile   string // single document
	Year      string // academic year override for PDFFile

	// Outputs
	DataDir    string
	IndexDir   string // index.json and colors.json; defaults to DataDir's parent
	Index      bool
	ReportJSON string
	ReportPDF  string

	// Extraction
	Tolerance float64
	Schools   catalog.Table

	// Behavior
	DryRun   bool
	Verbose  bool
	Parallel int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxEntries  int
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		SourceDir: DefaultSourceDir,
		DataDir:   DefaultDataDir,
		Parallel:  DefaultParallel,
		CacheDir:  DefaultCacheDir,
		Schools:   catalog.Default,
	}
}
