package config

import (
	"testing"

	"rxetl/internal/schema"
)

func valid() *Config {
	return &Config{
		BaseDir: "./data", Workers: 4, LogMode: "prod", Job: "rxetl",
		ResultFormats: []string{FormatJSON}, StorageKind: "sqlite", StorageTable: "t",
		MetricsBackend: MetricsNone,
	}
}

func hasIssue(issues []Issue, sev IssueSeverity, path string) bool {
	for _, i := range issues {
		if i.Severity == sev && i.Path == path {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
	}{
		{"workers", func(c *Config) { c.Workers = 0 }, SeverityError, "workers"},
		{"log mode", func(c *Config) { c.LogMode = "loud" }, SeverityWarning, "log_mode"},
		{"unknown format", func(c *Config) { c.ResultFormats = []string{"xml"} }, SeverityError, "result_formats"},
		{"sql needs dsn", func(c *Config) { c.ResultFormats = []string{FormatSQL} }, SeverityError, "storage_dsn"},
		{"sql kind", func(c *Config) {
			c.ResultFormats = []string{FormatSQL}
			c.StorageDSN = "x"
			c.StorageKind = "oracle"
		}, SeverityError, "storage_kind"},
		{"unused dsn", func(c *Config) { c.StorageDSN = "x" }, SeverityWarning, "storage_dsn"},
		{"pushgateway url", func(c *Config) {
			c.MetricsBackend = MetricsPushgateway
			c.PushgatewayURL = "not a url"
		}, SeverityError, "pushgateway_url"},
		{"metrics backend", func(c *Config) { c.MetricsBackend = "statsd" }, SeverityError, "metrics_backend"},
		{"dataset name", func(c *Config) { c.Datasets = map[string]DatasetOverride{"drugs": {}} }, SeverityError, "datasets.drugs"},
		{"dataset format", func(c *Config) {
			c.Datasets = map[string]DatasetOverride{schema.Claims: {Format: "xml"}}
		}, SeverityError, "datasets.claims.format"},
		{"field type", func(c *Config) {
			c.Datasets = map[string]DatasetOverride{schema.Claims: {Fields: []schema.Field{{Name: "id", Type: "date"}}}}
		}, SeverityError, "datasets.claims.fields[0].type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			issues := Validate(c)
			if !hasIssue(issues, tc.sev, tc.path) {
				t.Fatalf("want %s at %s, got %v", tc.sev, tc.path, issues)
			}
		})
	}
}

func TestValidate_CleanAndHasErrors(t *testing.T) {
	t.Parallel()

	c := valid()
	c.ResultFormats = []string{FormatSQL, FormatParquet}
	c.StorageDSN = "file:rx.db"
	c.MetricsBackend = MetricsPushgateway
	c.PushgatewayURL = "http://localhost:9091"
	if issues := Validate(c); len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("warnings alone are not errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatalf("expected HasErrors")
	}
}
