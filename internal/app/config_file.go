package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/cdsextract/internal/catalog"
	"github.com/hyperifyio/cdsextract/internal/cds"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Source string `yaml:"source" json:"source"`

	Data struct {
		Dir      string `yaml:"dir" json:"dir"`
		IndexDir string `yaml:"indexDir" json:"indexDir"`
	} `yaml:"data" json:"data"`

	Report struct {
		JSON string `yaml:"json" json:"json"`
		PDF  string `yaml:"pdf" json:"pdf"`
	} `yaml:"report" json:"report"`

	Parallel  int     `yaml:"parallel" json:"parallel"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	DryRun    bool    `yaml:"dryRun" json:"dryRun"`
	Verbose   bool    `yaml:"verbose" json:"verbose"`
	Index     bool    `yaml:"index" json:"index"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries  int      `yaml:"maxEntries" json:"maxEntries"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	// Schools extends or overrides the built-in school table.
	Schools []catalog.School `yaml:"schools" json:"schools"`
}

// Duration accepts Go duration strings ("36h") in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.parse(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc onto cfg where cfg still holds
// its default. Environment and flags are applied afterwards and win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.SourceDir == "" || cfg.SourceDir == DefaultSourceDir) && fc.Source != "" {
		cfg.SourceDir = fc.Source
	}
	if (cfg.DataDir == "" || cfg.DataDir == DefaultDataDir) && fc.Data.Dir != "" {
		cfg.DataDir = fc.Data.Dir
	}
	if cfg.IndexDir == "" && fc.Data.IndexDir != "" {
		cfg.IndexDir = fc.Data.IndexDir
	}
	if cfg.ReportJSON == "" && fc.Report.JSON != "" {
		cfg.ReportJSON = fc.Report.JSON
	}
	if cfg.ReportPDF == "" && fc.Report.PDF != "" {
		cfg.ReportPDF = fc.Report.PDF
	}
	if (cfg.Parallel == 0 || cfg.Parallel == DefaultParallel) && fc.Parallel > 0 {
		cfg.Parallel = fc.Parallel
	}
	if cfg.Tolerance == 0 && fc.Tolerance > 0 {
		cfg.Tolerance = fc.Tolerance
	}
	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.Index && fc.Index {
		cfg.Index = true
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if len(fc.Schools) > 0 {
		cfg.Schools = cfg.Schools.Merge(catalog.Table{Schools: fc.Schools})
	}
}

// ValidateConfig checks that the settings describe a runnable invocation.
func ValidateConfig(cfg Config) error {
	if len(cfg.Slugs) == 0 && !cfg.Index {
		return errors.New("config: at least one school slug is required (or -index)")
	}
	for _, s := range cfg.Slugs {
		if !validSlug(s) {
			return fmt.Errorf("config: invalid school slug %q", s)
		}
	}
	if (cfg.PDFFile != "" || cfg.PDFDir != "") && len(cfg.Slugs) != 1 {
		return errors.New("config: -pdf and -pdf-dir take exactly one school slug")
	}
	if cfg.PDFFile != "" && cfg.PDFDir != "" {
		return errors.New("config: -pdf and -pdf-dir are mutually exclusive")
	}
	if cfg.Year != "" {
		if cfg.PDFFile == "" {
			return errors.New("config: -year requires -pdf")
		}
		if !cds.ValidYear(cfg.Year) {
			return fmt.Errorf("config: invalid year %q: want YYYY-YYYY", cfg.Year)
		}
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("config: data.dir is required")
	}
	if cfg.Parallel < 0 || cfg.CacheMaxEntries < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.Tolerance < 0 || cfg.Tolerance >= 1 {
		return fmt.Errorf("config: tolerance %v must be in [0,1)", cfg.Tolerance)
	}
	return nil
}

// validSlug accepts lower-case letters, digits and inner hyphens, so a slug
// is always a safe file name.
func validSlug(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
