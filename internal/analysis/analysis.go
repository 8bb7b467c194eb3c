// Package analysis computes the claim analytics over validated, filtered
// tables: per (npi, ndc) aggregates, the most prescribed quantities per npi,
// and the two most expensive chains per drug.
//
// Every output is deterministic: groups are emitted in ascending key order
// and ties inside a group are broken explicitly.
package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rxetl/internal/logger"
	"rxetl/internal/metrics"
	"rxetl/internal/transformer/builtin"
	"rxetl/pkg/records"
)

// ErrMissingInput marks an analysis skipped because an input table was nil.
var ErrMissingInput = errors.New("analysis: input data is missing")

// SchemaError reports a column an analysis needs that the table lacks.
type SchemaError struct {
	Analysis  string
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: column %q not found; available columns: [%s]",
		e.Analysis, e.Column, strings.Join(e.Available, ", "))
}

// Engine runs the analyses.
type Engine struct {
	Log *logger.Logger

	// DedupeReversals collapses reversals sharing a claim_id (first wins)
	// before the join. When false, duplicate reversals fan out and each match
	// counts toward fills and total_price.
	DedupeReversals bool

	// Job labels emitted metrics. Defaults to "rxetl".
	Job string
}

// NewEngine returns an Engine with reversal de-duplication enabled.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{Log: log, DedupeReversals: true}
}

func (e *Engine) log() *logger.Logger {
	if e.Log == nil {
		return logger.NewNop()
	}
	return e.Log
}

func (e *Engine) record(step string, err error, start time.Time) {
	job := e.Job
	if job == "" {
		job = "rxetl"
	}
	metrics.RecordStep(job, step, err, time.Since(start))
}

// requireColumns returns a *SchemaError for the first column of cols that t
// lacks. Empty tables skip the check; they produce empty results.
func requireColumns(analysis string, t *records.Table, cols ...string) error {
	if t.Len() == 0 {
		return nil
	}
	if missing := t.Missing(cols); len(missing) > 0 {
		return &SchemaError{
			Analysis:  analysis,
			Column:    missing[0],
			Available: append([]string(nil), t.Columns...),
		}
	}
	return nil
}

func (e *Engine) dedupeReversals(reversals []records.Record) []records.Record {
	if !e.DedupeReversals {
		return reversals
	}
	return builtin.DeDup{Keys: []string{"claim_id"}, Policy: builtin.KeepFirst}.Apply(reversals)
}
