package main

import (
	"context"
	"fmt"

	"rxetl/internal/analysis"
	"rxetl/internal/config"
	"rxetl/internal/loader"
	"rxetl/internal/logger"
	"rxetl/internal/pipeline"
	"rxetl/internal/quarantine"
	"rxetl/internal/results"
	"rxetl/internal/storage"
)

// buildRunner wires a pipeline.Runner from cfg. The returned close function
// releases the SQL repository, if one was opened, and is safe to call twice.
func buildRunner(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pipeline.Runner, func(), error) {
	q := quarantine.NewFileSink(cfg.QuarantineDir)
	eng := analysis.NewEngine(log)
	eng.DedupeReversals = cfg.DedupeReversals
	eng.Job = cfg.Job

	var (
		sinks results.Multi
		repo  storage.Repository
	)
	for _, f := range cfg.ResultFormats {
		switch f {
		case config.FormatJSON:
			sinks = append(sinks, results.JSONSink{Dir: cfg.ResultsDir})
		case config.FormatParquet:
			sinks = append(sinks, results.ParquetSink{Dir: cfg.ResultsDir})
		case config.FormatSQL:
			r, err := storage.New(ctx, storage.Config{Kind: cfg.StorageKind, DSN: cfg.StorageDSN, Table: cfg.StorageTable})
			if err != nil {
				return nil, nil, fmt.Errorf("open %s storage: %w", cfg.StorageKind, err)
			}
			repo = r
			sinks = append(sinks, results.StorageSink{Repo: r, Table: cfg.StorageTable, Log: log})
		default:
			return nil, nil, fmt.Errorf("unknown result format %q", f)
		}
	}

	closed := false
	closeFn := func() {
		if repo != nil && !closed {
			repo.Close()
			closed = true
		}
	}

	return &pipeline.Runner{
		Log:        log,
		Datasets:   pipeline.DefaultDatasets(cfg),
		Loader:     &loader.Loader{Log: log, Sink: q, Workers: cfg.Workers, Job: cfg.Job},
		Engine:     eng,
		Quarantine: q,
		Sinks:      sinks,
		Job:        cfg.Job,
	}, closeFn, nil
}
