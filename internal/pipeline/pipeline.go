// Package pipeline sequences one run: load the three datasets, drop claims
// whose pharmacy is unknown, run the analyses and hand the results to the
// configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rxetl/internal/analysis"
	"rxetl/internal/loader"
	"rxetl/internal/logger"
	"rxetl/internal/metrics"
	"rxetl/internal/quarantine"
	"rxetl/internal/refilter"
	"rxetl/internal/results"
	"rxetl/pkg/records"
)

// RunContext carries the per-run values that name artifacts. Zero fields are
// filled in by Run.
type RunContext struct {
	RunID     string
	Timestamp time.Time
	// OutputRoot is the results directory used when Runner.Sinks is nil.
	OutputRoot string
}

// Report summarizes a run.
type Report struct {
	RunID      string       `json:"run_id"`
	Timestamp  time.Time    `json:"timestamp"`
	Pharmacies loader.Stats `json:"pharmacies"`
	Claims     loader.Stats `json:"claims"`
	Reverts    loader.Stats `json:"reverts"`
	Orphaned   int          `json:"orphaned"`

	Aggregates    int `json:"aggregates"`
	TopQuantities int `json:"top_quantities"`
	TopChains     int `json:"top_chains"`

	// Failed lists the analyses that stopped on a schema error.
	Failed []string `json:"failed,omitempty"`
}

// Runner wires the stages of a run. Loader, Engine and Quarantine are
// required.
type Runner struct {
	Log        *logger.Logger
	Datasets   Datasets
	Loader     *loader.Loader
	Engine     *analysis.Engine
	Quarantine quarantine.Sink
	Sinks      results.Sink
	Job        string
}

// Run executes one pass. Load failures (a missing directory, an unwritable
// quarantine) abort it. Analysis schema failures do not: the failed analysis
// is left out of the dispatched document, the others are written, and the
// failures are returned joined together along with the report.
func (r *Runner) Run(ctx context.Context, rc RunContext) (rep *Report, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(r.job(), "run", err, time.Since(start)) }()

	if rc.RunID == "" {
		rc.RunID = uuid.NewString()
	}
	if rc.Timestamp.IsZero() {
		rc.Timestamp = time.Now()
	}
	log := r.log().With("run_id", rc.RunID)
	rep = &Report{RunID: rc.RunID, Timestamp: rc.Timestamp}
	log.Info("Starting run", "timestamp", rc.Timestamp.Format(results.TimestampLayout))

	pharmacies, st, err := r.Loader.LoadDirectory(ctx, r.Datasets.Pharmacies)
	if err != nil {
		return rep, fmt.Errorf("pipeline: load pharmacies: %w", err)
	}
	rep.Pharmacies = st
	claims, st, err := r.Loader.LoadDirectory(ctx, r.Datasets.Claims)
	if err != nil {
		return rep, fmt.Errorf("pipeline: load claims: %w", err)
	}
	rep.Claims = st
	reverts, st, err := r.Loader.LoadDirectory(ctx, r.Datasets.Reverts)
	if err != nil {
		return rep, fmt.Errorf("pipeline: load reverts: %w", err)
	}
	rep.Reverts = st

	claims, err = r.filterClaims(ctx, log, claims, pharmacies, rep)
	if err != nil {
		return rep, err
	}

	doc := results.Document{RunID: rc.RunID, Timestamp: rc.Timestamp}
	var failures []error
	fail := func(name string, err error) {
		var se *analysis.SchemaError
		if errors.As(err, &se) {
			log.Error("Analysis failed on schema", "analysis", name, "column", se.Column, "available", se.Available)
		} else {
			log.Error("Analysis failed", "analysis", name, "error", err)
		}
		rep.Failed = append(rep.Failed, name)
		failures = append(failures, fmt.Errorf("pipeline: %s: %w", name, err))
	}

	if agg, err := r.Engine.Aggregate(pharmacies, claims, reverts); err != nil {
		fail("aggregate", err)
	} else {
		doc.Aggregates = agg
	}
	if chains, err := r.Engine.TopChains(pharmacies, claims); err != nil {
		fail("top_chains", err)
	} else {
		doc.TopChains = chains
	}
	if qty, err := r.Engine.TopQuantities(claims); err != nil {
		fail("top_quantities", err)
	} else {
		doc.TopQuantities = qty
	}
	rep.Aggregates, rep.TopChains, rep.TopQuantities = len(doc.Aggregates), len(doc.TopChains), len(doc.TopQuantities)

	sink := r.Sinks
	if sink == nil {
		sink = results.JSONSink{Dir: rc.OutputRoot}
	}
	if err := sink.Write(ctx, doc); err != nil {
		return rep, errors.Join(append(failures, fmt.Errorf("pipeline: write results: %w", err))...)
	}

	log.Info("Run finished",
		"aggregates", rep.Aggregates, "top_chains", rep.TopChains, "top_quantities", rep.TopQuantities,
		"orphaned", rep.Orphaned, "failed", len(rep.Failed), "duration", time.Since(start).String())
	return rep, errors.Join(failures...)
}

// filterClaims keeps the claims whose npi belongs to a known pharmacy and
// appends the rest to the claims quarantine artifact.
func (r *Runner) filterClaims(ctx context.Context, log *logger.Logger, claims, pharmacies *records.Table, rep *Report) (_ *records.Table, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(r.job(), "filter", err, time.Since(start)) }()

	res := refilter.FilterByParent(claims, pharmacies, "npi", "npi")
	rep.Orphaned = res.Orphaned.Len()
	metrics.RecordRow(r.job(), r.Datasets.Claims.Name(), "orphaned", int64(rep.Orphaned))
	if rep.Orphaned == 0 {
		return res.InUniverse, nil
	}
	log.Warn("Claims reference unknown pharmacies", "rows", rep.Orphaned, "quarantine", r.Datasets.Claims.Quarantine)
	if err := r.Quarantine.Write(ctx, r.Datasets.Claims.Quarantine, res.Orphaned); err != nil {
		return nil, fmt.Errorf("pipeline: quarantine orphaned claims: %w", err)
	}
	return res.InUniverse, nil
}

func (r *Runner) log() *logger.Logger {
	if r.Log == nil {
		return logger.NewNop()
	}
	return r.Log
}

func (r *Runner) job() string {
	if r.Job == "" {
		return "rxetl"
	}
	return r.Job
}
