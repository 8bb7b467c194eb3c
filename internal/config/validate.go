package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"rxetl/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path names the flag or dataset key,
// e.g. "storage_dsn" or "datasets.claims.fields[2].type".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate lints cfg without mutating it.
func Validate(cfg *Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.BaseDir) == "" {
		add(SeverityError, "base_dir", "base_dir must not be empty")
	}
	if cfg.Workers < 1 {
		add(SeverityError, "workers", "workers must be >= 1, got %d", cfg.Workers)
	}
	switch strings.ToLower(cfg.LogMode) {
	case "dev", "prod", "production":
	default:
		add(SeverityWarning, "log_mode", "unknown log_mode %q; falling back to dev", cfg.LogMode)
	}
	if strings.TrimSpace(cfg.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics")
	}

	if len(cfg.ResultFormats) == 0 {
		add(SeverityWarning, "result_formats", "no result formats configured; analyses will not be persisted")
	}
	for _, f := range cfg.ResultFormats {
		switch f {
		case FormatJSON, FormatParquet, FormatSQL:
		default:
			add(SeverityError, "result_formats", "unknown result format %q (want json, parquet or sql)", f)
		}
	}
	if cfg.HasFormat(FormatSQL) {
		switch cfg.StorageKind {
		case "sqlite", "postgres", "mssql":
		default:
			add(SeverityError, "storage_kind", "unknown storage_kind %q (want sqlite, postgres or mssql)", cfg.StorageKind)
		}
		if strings.TrimSpace(cfg.StorageDSN) == "" {
			add(SeverityError, "storage_dsn", "storage_dsn is required when result_formats includes sql")
		}
		if strings.TrimSpace(cfg.StorageTable) == "" {
			add(SeverityError, "storage_table", "storage_table must not be empty")
		}
	} else if cfg.StorageDSN != "" {
		add(SeverityWarning, "storage_dsn", "storage_dsn is set but result_formats does not include sql")
	}

	switch cfg.MetricsBackend {
	case "", MetricsNone:
	case MetricsPushgateway:
		if u, err := url.Parse(cfg.PushgatewayURL); cfg.PushgatewayURL == "" || err != nil || u.Host == "" {
			add(SeverityError, "pushgateway_url", "pushgateway backend needs an absolute pushgateway_url, got %q", cfg.PushgatewayURL)
		}
	case MetricsDatadog:
		if strings.TrimSpace(cfg.DatadogAddr) == "" {
			add(SeverityError, "datadog_addr", "datadog backend needs datadog_addr")
		}
	default:
		add(SeverityError, "metrics_backend", "unknown metrics_backend %q (want none, pushgateway or datadog)", cfg.MetricsBackend)
	}

	issues = append(issues, validateDatasets(cfg.Datasets)...)
	return issues
}

func validateDatasets(ds map[string]DatasetOverride) []Issue {
	var issues []Issue
	names := make([]string, 0, len(ds))
	for n := range ds {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		o := ds[name]
		base := "datasets." + name
		switch name {
		case schema.Pharmacies, schema.Claims, schema.Reverts:
		default:
			issues = append(issues, Issue{SeverityError, base, "unknown dataset; want pharmacies, claims or reverts"})
			continue
		}
		if o.Format != "" && o.Format != "csv" && o.Format != "json" {
			issues = append(issues, Issue{SeverityError, base + ".format", fmt.Sprintf("unsupported format %q", o.Format)})
		}
		if o.Quarantine != "" && !strings.HasSuffix(o.Quarantine, ".csv") && !strings.HasSuffix(o.Quarantine, ".json") {
			issues = append(issues, Issue{SeverityError, base + ".quarantine", "quarantine name must end in .csv or .json"})
		}
		seen := map[string]bool{}
		for i, f := range o.Fields {
			p := fmt.Sprintf("%s.fields[%d]", base, i)
			if strings.TrimSpace(f.Name) == "" {
				issues = append(issues, Issue{SeverityError, p + ".name", "field name must not be empty"})
				continue
			}
			if seen[f.Name] {
				issues = append(issues, Issue{SeverityWarning, p + ".name", fmt.Sprintf("duplicate field %q", f.Name)})
			}
			seen[f.Name] = true
			switch strings.ToLower(f.Type) {
			case "", schema.KindString, schema.KindNumber:
			default:
				issues = append(issues, Issue{SeverityError, p + ".type", fmt.Sprintf("unsupported type %q (want string or number)", f.Type)})
			}
			if f.NonNegative && strings.ToLower(f.Type) != schema.KindNumber {
				issues = append(issues, Issue{SeverityWarning, p + ".non_negative", "non_negative only applies to number fields"})
			}
		}
	}
	return issues
}
