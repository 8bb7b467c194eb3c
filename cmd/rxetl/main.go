package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"rxetl/internal/config"
	"rxetl/internal/logger"
	"rxetl/internal/metrics"
	"rxetl/internal/metrics/datadog"
	"rxetl/internal/metrics/prompush"
	"rxetl/internal/pipeline"
	"rxetl/internal/results"

	// register all backends with the storage factory.
	_ "rxetl/internal/storage/all"
)

// main loads configuration, sets up logging and metrics, and runs one pass
// of the claims pipeline.
func main() {
	validateOnly := flag.Bool("validate", false, "validate the configuration and exit")
	printReport := flag.Bool("report", false, "print the run report as JSON to stdout")

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid")
	}
	if *validateOnly {
		fmt.Fprintln(os.Stderr, "configuration is valid")
		return
	}

	now := time.Now()
	opts := logger.Options{Mode: cfg.LogMode, Level: cfg.LogLevel}
	if cfg.LogDir != "" {
		opts.FilePath = filepath.Join(cfg.LogDir, "rxetl_"+now.Format(results.TimestampLayout)+".log")
	}
	log, err := logger.New(opts)
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer log.Sync()
	log.Info("Configuration loaded", "config", cfg.String())

	setupMetrics(cfg, log)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush error", "error", err)
		}
	}()

	ctx := context.Background()
	runner, closeFn, err := buildRunner(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build pipeline", "error", err)
	}
	defer closeFn()

	rep, err := runner.Run(ctx, pipeline.RunContext{
		RunID:      uuid.NewString(),
		Timestamp:  now,
		OutputRoot: cfg.ResultsDir,
	})
	if *printReport && rep != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
	}
	if err != nil {
		log.Error("Run failed", "error", err)
		closeFn()
		metrics.Flush()
		log.Sync()
		os.Exit(1)
	}
}

func setupMetrics(cfg *config.Config, log *logger.Logger) {
	switch cfg.MetricsBackend {
	case config.MetricsPushgateway:
		b, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			log.Warn("metrics: failed to init prom push backend; using nop", "error", err)
			return
		}
		log.Info("metrics enabled", "backend", cfg.MetricsBackend, "url", cfg.PushgatewayURL, "job_name", cfg.Job)
		metrics.SetBackend(b)
	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  "rxetl.",
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err != nil {
			log.Warn("metrics: failed to init datadog backend; using nop", "error", err)
			return
		}
		log.Info("metrics enabled", "backend", cfg.MetricsBackend, "addr", cfg.DatadogAddr)
		metrics.SetBackend(b)
	default:
		log.Debug("metrics disabled", "backend", cfg.MetricsBackend)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
