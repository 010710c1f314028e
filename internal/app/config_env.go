package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after ApplyFileConfig so the environment beats the config
// file, and before flags are applied so flags stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("CDS_SOURCE_DIR"); v != "" {
		cfg.SourceDir = v
	}
	if v := os.Getenv("CDS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CDS_INDEX_DIR"); v != "" {
		cfg.IndexDir = v
	}
	if v := os.Getenv("CDS_REPORT_JSON"); v != "" {
		cfg.ReportJSON = v
	}
	if v := os.Getenv("CDS_REPORT_PDF"); v != "" {
		cfg.ReportPDF = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	setInt := func(dst *int, envKey string) {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(envKey))); err == nil && n > 0 {
			*dst = n
		}
	}
	setInt(&cfg.Parallel, "CDS_PARALLEL")
	setInt(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES")

	if s := strings.TrimSpace(os.Getenv("CDS_TOLERANCE")); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			cfg.Tolerance = f
		}
	}
	if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.Index, "CDS_INDEX")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
