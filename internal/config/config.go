// Package config centralizes run configuration. Every tunable is a
// command-line flag whose default is seeded from an RXETL_* environment
// variable, so `-help` lists all knobs and containers can configure the run
// purely through the environment.
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg, err := config.LoadFromArgs(fs, getenv, []string{"-workers=2"})
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Result formats.
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
	FormatSQL     = "sql"
)

// Metrics backends.
const (
	MetricsNone        = "none"
	MetricsPushgateway = "pushgateway"
	MetricsDatadog     = "datadog"
)

// Config holds all process configuration derived from flags and environment
// variables. It is a plain value after construction.
type Config struct {
	// Directory roles. Empty per-role directories resolve under BaseDir.
	BaseDir       string
	PharmacyDir   string
	ClaimsDir     string
	RevertsDir    string
	QuarantineDir string
	ResultsDir    string
	LogDir        string

	LogMode  string // "dev" | "prod"
	LogLevel string

	Job             string // metrics job label
	Workers         int    // concurrent file reads per directory
	DedupeReversals bool

	ResultFormats []string // subset of json, parquet, sql

	StorageKind  string // sqlite | postgres | mssql
	StorageDSN   string
	StorageTable string

	MetricsBackend string // none | pushgateway | datadog
	PushgatewayURL string
	DatadogAddr    string

	// DatasetsFile optionally points at a YAML or JSON file of dataset
	// overrides; Datasets holds its decoded content.
	DatasetsFile string
	Datasets     map[string]DatasetOverride
}

// LoadFromArgs defines flags on fs, seeds each default from getenv, parses
// args, resolves directory roles, and loads the dataset override file when
// one is configured.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Config, error) {
	cfg := &Config{}

	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}

	// Directories
	fs.StringVar(&cfg.BaseDir, "base_dir", envOrDefaultFn("RXETL_BASE_DIR", "./data"), "Root directory holding the dataset folders")
	fs.StringVar(&cfg.PharmacyDir, "pharmacy_dir", getenv("RXETL_PHARMACY_DIR"), "Pharmacy CSV directory (default <base>/pharmacies)")
	fs.StringVar(&cfg.ClaimsDir, "claims_dir", getenv("RXETL_CLAIMS_DIR"), "Claims JSON directory (default <base>/claims)")
	fs.StringVar(&cfg.RevertsDir, "reverts_dir", getenv("RXETL_REVERTS_DIR"), "Reversals JSON directory (default <base>/reverts)")
	fs.StringVar(&cfg.QuarantineDir, "quarantine_dir", getenv("RXETL_QUARANTINE_DIR"), "Quarantine directory (default <base>/invalid_records)")
	fs.StringVar(&cfg.ResultsDir, "results_dir", getenv("RXETL_RESULTS_DIR"), "Results directory (default <base>/results)")
	fs.StringVar(&cfg.LogDir, "log_dir", getenv("RXETL_LOG_DIR"), "Log file directory (default <base>/logs; \"-\" disables the file)")

	// Logging & run
	fs.StringVar(&cfg.LogMode, "log_mode", envOrDefaultFn("RXETL_LOG_MODE", "prod"), "Log encoding: 'dev' (console) or 'prod' (JSON)")
	fs.StringVar(&cfg.LogLevel, "log_level", envOrDefaultFn("RXETL_LOG_LEVEL", "info"), "Minimum log level")
	fs.StringVar(&cfg.Job, "job", envOrDefaultFn("RXETL_JOB", "rxetl"), "Job name used to label metrics")
	fs.IntVar(&cfg.Workers, "workers", intEnvOrDefaultFn("RXETL_WORKERS", 4), "Concurrent file reads per dataset directory")
	fs.BoolVar(&cfg.DedupeReversals, "dedupe_reversals", boolEnvOrDefaultFn("RXETL_DEDUPE_REVERSALS", true), "Collapse reversals sharing a claim_id before aggregating")

	// Outputs
	formats := fs.String("result_formats", envOrDefaultFn("RXETL_RESULT_FORMATS", FormatJSON), "Comma-separated result formats: json,parquet,sql")
	fs.StringVar(&cfg.StorageKind, "storage_kind", envOrDefaultFn("RXETL_STORAGE_KIND", "sqlite"), "SQL backend for the sql format: sqlite, postgres or mssql")
	fs.StringVar(&cfg.StorageDSN, "storage_dsn", getenv("RXETL_STORAGE_DSN"), "DSN for the SQL backend")
	fs.StringVar(&cfg.StorageTable, "storage_table", envOrDefaultFn("RXETL_STORAGE_TABLE", "claim_aggregates"), "Destination table for aggregate rows")

	// Metrics
	fs.StringVar(&cfg.MetricsBackend, "metrics_backend", envOrDefaultFn("RXETL_METRICS_BACKEND", MetricsNone), "Metrics backend: none, pushgateway or datadog")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", getenv("RXETL_PUSHGATEWAY_URL"), "Prometheus Pushgateway URL")
	fs.StringVar(&cfg.DatadogAddr, "datadog_addr", envOrDefaultFn("RXETL_DATADOG_ADDR", "127.0.0.1:8125"), "DogStatsD address")

	fs.StringVar(&cfg.DatasetsFile, "datasets", getenv("RXETL_DATASETS"), "Optional YAML/JSON file overriding dataset settings")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.ResultFormats = splitList(*formats)
	cfg.resolveDirs()
	if cfg.DatasetsFile != "" {
		ds, err := LoadDatasets(cfg.DatasetsFile)
		if err != nil {
			return nil, err
		}
		cfg.Datasets = ds
	}
	return cfg, nil
}

// Load is the production entry point: flag.CommandLine, os.Getenv and
// os.Args[1:].
func Load() (*Config, error) {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

func (c *Config) resolveDirs() {
	def := func(p *string, name string) {
		if strings.TrimSpace(*p) == "" {
			*p = filepath.Join(c.BaseDir, name)
		}
	}
	def(&c.PharmacyDir, "pharmacies")
	def(&c.ClaimsDir, "claims")
	def(&c.RevertsDir, "reverts")
	def(&c.QuarantineDir, "invalid_records")
	def(&c.ResultsDir, "results")
	switch c.LogDir {
	case "-":
		c.LogDir = ""
	default:
		def(&c.LogDir, "logs")
	}
}

// HasFormat reports whether f is among the configured result formats.
func (c *Config) HasFormat(f string) bool {
	for _, x := range c.ResultFormats {
		if x == f {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// String renders the effective configuration without secrets.
func (c *Config) String() string {
	dsn := ""
	if c.StorageDSN != "" {
		dsn = "<set>"
	}
	return fmt.Sprintf("base=%s pharmacies=%s claims=%s reverts=%s quarantine=%s results=%s logs=%s formats=%s storage=%s/%s dsn=%s metrics=%s workers=%d dedupe_reversals=%t",
		c.BaseDir, c.PharmacyDir, c.ClaimsDir, c.RevertsDir, c.QuarantineDir, c.ResultsDir, c.LogDir,
		strings.Join(c.ResultFormats, ","), c.StorageKind, c.StorageTable, dsn, c.MetricsBackend, c.Workers, c.DedupeReversals)
}
