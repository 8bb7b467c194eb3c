// Package loader reads every file of one dataset directory, validates the
// rows against the dataset contract, and quarantines what does not comply.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rxetl/internal/datasource/file"
	"rxetl/internal/logger"
	"rxetl/internal/metrics"
	pcsv "rxetl/internal/parser/csv"
	pjson "rxetl/internal/parser/json"
	"rxetl/internal/quarantine"
	"rxetl/internal/schema"
	"rxetl/internal/transformer"
	"rxetl/internal/transformer/builtin"
	"rxetl/internal/validate"
	"rxetl/pkg/records"
)

// Supported source formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// DefaultWorkers bounds concurrent file reads when Loader.Workers is zero.
const DefaultWorkers = 4

// ErrNoDirectory is returned when a dataset directory does not exist.
var ErrNoDirectory = errors.New("loader: dataset directory does not exist")

// Dataset describes one source directory.
type Dataset struct {
	Dir      string
	Format   string // FormatCSV | FormatJSON
	Contract schema.Contract
	// Quarantine is the artifact name invalid rows are written to, e.g.
	// "invalid_claims.json".
	Quarantine string
}

// Name returns the contract name, used in logs and metrics.
func (d Dataset) Name() string { return d.Contract.Name }

// Stats summarizes one LoadDirectory call.
type Stats struct {
	Files       int `json:"files"`
	Skipped     int `json:"skipped"`
	ParseErrors int `json:"parse_errors"`
	Valid       int `json:"valid"`
	Invalid     int `json:"invalid"`
}

// Loader loads dataset directories. The zero value is not usable; Sink is
// required.
type Loader struct {
	Log     *logger.Logger
	Sink    quarantine.Sink
	Workers int
	// Job labels emitted metrics. Defaults to "rxetl".
	Job string
}

type fileResult struct {
	valid   *records.Table
	invalid *records.Table
	failed  bool
}

// LoadDirectory returns the concatenated valid rows of every matching file in
// ds.Dir. Files are processed in name order; per-file failures are logged and
// never abort the directory. All invalid rows are written once to the
// quarantine sink, even when there are none.
func (l *Loader) LoadDirectory(ctx context.Context, ds Dataset) (*records.Table, Stats, error) {
	start := time.Now()
	tbl, st, err := l.loadDirectory(ctx, ds)
	metrics.RecordStep(l.job(), "load_"+ds.Name(), err, time.Since(start))
	job := l.job()
	metrics.RecordRow(job, ds.Name(), "valid", int64(st.Valid))
	metrics.RecordRow(job, ds.Name(), "invalid", int64(st.Invalid))
	metrics.RecordRow(job, ds.Name(), "parse_errors", int64(st.ParseErrors))
	metrics.RecordRow(job, ds.Name(), "skipped_files", int64(st.Skipped))
	return tbl, st, err
}

func (l *Loader) loadDirectory(ctx context.Context, ds Dataset) (*records.Table, Stats, error) {
	var st Stats
	log := l.log().With("dataset", ds.Name(), "dir", ds.Dir)

	if ds.Format != FormatCSV && ds.Format != FormatJSON {
		return nil, st, fmt.Errorf("loader: unsupported format %q for %s", ds.Format, ds.Name())
	}
	entries, err := file.ListFiles(ds.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, st, fmt.Errorf("%w: %s", ErrNoDirectory, ds.Dir)
		}
		return nil, st, fmt.Errorf("loader: %w", err)
	}

	var matched []file.Entry
	for _, e := range entries {
		if e.Ext != ds.Format {
			log.Info("Skipping unsupported file", "path", e.Path)
			st.Skipped++
			continue
		}
		matched = append(matched, e)
	}
	st.Files = len(matched)

	results := make([]fileResult, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers())
	for i, e := range matched {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.loadFile(gctx, log, ds, e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, st, err
	}

	valid := make([]*records.Table, 0, len(results))
	invalid := make([]*records.Table, 0, len(results))
	for _, r := range results {
		if r.failed {
			st.ParseErrors++
			continue
		}
		valid = append(valid, r.valid)
		invalid = append(invalid, r.invalid)
	}
	out := records.Concat(valid...)
	rejected := records.Concat(invalid...)
	st.Valid, st.Invalid = out.Len(), rejected.Len()

	if err := l.Sink.Write(ctx, ds.Quarantine, rejected); err != nil {
		return nil, st, fmt.Errorf("loader: quarantine %s: %w", ds.Quarantine, err)
	}
	log.Info("Loaded dataset",
		"files", st.Files, "skipped", st.Skipped, "parse_errors", st.ParseErrors,
		"valid", st.Valid, "invalid", st.Invalid, "quarantine", ds.Quarantine)
	return out, st, nil
}

func (l *Loader) loadFile(ctx context.Context, log *logger.Logger, ds Dataset, e file.Entry) fileResult {
	tbl, err := parseFile(ctx, ds.Format, e.Path)
	if err != nil {
		log.Error("Error processing file", "path", e.Path, "error", err)
		return fileResult{failed: true}
	}

	// Validation sees the rows as parsed so quarantined rows keep their
	// source content; only rows that pass are normalized.
	out, err := validate.Validate(tbl, ds.Contract.Required())
	var se *validate.SchemaError
	if errors.As(err, &se) {
		se.Source = e.Path
		log.Warn("Schema mismatch, quarantining file", "path", e.Path, "missing", strings.Join(se.Missing, ","), "rows", tbl.Len())
		return fileResult{valid: out.Valid, invalid: out.Invalid}
	}

	var rejected []records.Record
	check := builtin.Validate{
		Contract: ds.Contract,
		Reject: func(r builtin.RejectedRow) {
			rejected = append(rejected, r.Raw)
			log.Debug("Rejected row", "path", e.Path, "reason", r.Reason)
		},
	}
	chain := transformer.Chain{check, builtin.Normalize{}}
	kept := chain.Apply(out.Valid.Rows)
	if n := len(rejected); n > 0 {
		log.Warn("Rows failed type checks", "path", e.Path, "rows", n)
	}
	return fileResult{
		valid:   out.Valid.WithRows(kept),
		invalid: out.Invalid.WithRows(append(out.Invalid.Rows, rejected...)),
	}
}

func parseFile(ctx context.Context, format, path string) (*records.Table, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, &validate.ParseError{Path: path, Err: err}
	}
	defer rc.Close()

	switch format {
	case FormatCSV:
		tbl, err := pcsv.NewParser(pcsv.Options{}).Parse(rc)
		if err != nil {
			return nil, &validate.ParseError{Path: path, Err: err}
		}
		return tbl, nil
	default:
		rows, err := pjson.DecodeAll(rc, pjson.Options{AllowArrays: true})
		if err != nil {
			return nil, &validate.ParseError{Path: path, Err: err}
		}
		return records.NewTable(nil, rows), nil
	}
}

func (l *Loader) log() *logger.Logger {
	if l.Log == nil {
		return logger.NewNop()
	}
	return l.Log
}

func (l *Loader) workers() int {
	if l.Workers <= 0 {
		return DefaultWorkers
	}
	return l.Workers
}

func (l *Loader) job() string {
	if l.Job == "" {
		return "rxetl"
	}
	return l.Job
}
