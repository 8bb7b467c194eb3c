package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"rxetl/internal/schema"
)

func load(t *testing.T, env map[string]string, args ...string) *Config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := LoadFromArgs(fs, func(k string) string { return env[k] }, args)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	return cfg
}

func TestLoadFromArgs_Defaults(t *testing.T) {
	t.Parallel()

	cfg := load(t, nil)
	if cfg.BaseDir != "./data" || cfg.Workers != 4 || !cfg.DedupeReversals {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.ClaimsDir != filepath.Join("./data", "claims") || cfg.QuarantineDir != filepath.Join("./data", "invalid_records") {
		t.Fatalf("dirs = %s, %s", cfg.ClaimsDir, cfg.QuarantineDir)
	}
	if cfg.LogDir != filepath.Join("./data", "logs") {
		t.Fatalf("log dir = %s", cfg.LogDir)
	}
	if !reflect.DeepEqual(cfg.ResultFormats, []string{"json"}) || cfg.MetricsBackend != MetricsNone {
		t.Fatalf("formats=%v metrics=%s", cfg.ResultFormats, cfg.MetricsBackend)
	}
	if issues := Validate(cfg); len(issues) != 0 {
		t.Fatalf("defaults should lint clean, got %v", issues)
	}
}

func TestLoadFromArgs_EnvAndFlagPrecedence(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"RXETL_BASE_DIR":         "/srv/rx",
		"RXETL_WORKERS":          "9",
		"RXETL_DEDUPE_REVERSALS": "off",
		"RXETL_RESULT_FORMATS":   "json, Parquet,json",
		"RXETL_CLAIMS_DIR":       "/mnt/claims",
	}
	cfg := load(t, env, "-workers=2", "-log_dir=-")
	if cfg.Workers != 2 {
		t.Fatalf("flag should override env: workers=%d", cfg.Workers)
	}
	if cfg.DedupeReversals {
		t.Fatalf("env off should disable dedupe")
	}
	if cfg.ClaimsDir != "/mnt/claims" || cfg.PharmacyDir != filepath.Join("/srv/rx", "pharmacies") {
		t.Fatalf("dirs = %s, %s", cfg.ClaimsDir, cfg.PharmacyDir)
	}
	if cfg.LogDir != "" {
		t.Fatalf("log_dir=- should disable the file, got %q", cfg.LogDir)
	}
	if !reflect.DeepEqual(cfg.ResultFormats, []string{"json", "parquet"}) || !cfg.HasFormat(FormatParquet) {
		t.Fatalf("formats = %v", cfg.ResultFormats)
	}
}

func TestLoadFromArgs_BadFlag(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := LoadFromArgs(fs, func(string) string { return "" }, []string{"-nope"}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestLoadDatasets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yml := filepath.Join(dir, "datasets.yaml")
	if err := os.WriteFile(yml, []byte(`
datasets:
  claims:
    dir: /mnt/claims
    fields:
      - name: id
      - name: quantity
        type: number
        non_negative: true
`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDatasets(yml)
	if err != nil {
		t.Fatalf("LoadDatasets yaml: %v", err)
	}
	want := DatasetOverride{Dir: "/mnt/claims", Fields: []schema.Field{
		{Name: "id"}, {Name: "quantity", Type: "number", NonNegative: true},
	}}
	if !reflect.DeepEqual(got["claims"], want) {
		t.Fatalf("claims = %+v, want %+v", got["claims"], want)
	}

	js := filepath.Join(dir, "datasets.json")
	if err := os.WriteFile(js, []byte(`{"datasets":{"reverts":{"format":"json","quarantine":"bad_reverts.json"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadDatasets(js)
	if err != nil || got["reverts"].Quarantine != "bad_reverts.json" {
		t.Fatalf("LoadDatasets json = %+v, %v", got, err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("datasets:\n  claims:\n    folder: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDatasets(bad); err == nil {
		t.Fatalf("expected error for unknown yaml key")
	}
	if _, err := LoadDatasets(filepath.Join(dir, "x.toml")); err == nil {
		t.Fatalf("expected error for missing/unsupported file")
	}
}

func TestLoadFromArgs_DatasetsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ds.json")
	if err := os.WriteFile(path, []byte(`{"datasets":{"pharmacies":{"dir":"/p"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := load(t, map[string]string{"RXETL_DATASETS": path})
	if cfg.Datasets["pharmacies"].Dir != "/p" {
		t.Fatalf("datasets = %+v", cfg.Datasets)
	}
}
