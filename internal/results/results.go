// Package results delivers analysis outputs to their destinations: JSON
// files, a Parquet file, or a SQL table.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rxetl/internal/analysis"
)

// TimestampLayout formats run timestamps in artifact names (day, month,
// year, then time of day).
const TimestampLayout = "02012006_150405"

// Document is the output of one run. A nil slice marks an analysis that did
// not complete; sinks skip it. An empty, non-nil slice is a real empty result.
type Document struct {
	RunID         string
	Timestamp     time.Time
	Aggregates    []analysis.AggregateRow
	TopQuantities []analysis.TopQuantityEntry
	TopChains     []analysis.TopChainEntry
}

// Stamp returns the formatted run timestamp.
func (d Document) Stamp() string { return d.Timestamp.Format(TimestampLayout) }

// Sink receives a finished Document.
type Sink interface {
	Write(ctx context.Context, doc Document) error
}

// Multi fans a Document out to several sinks, stopping at the first error.
type Multi []Sink

func (m Multi) Write(ctx context.Context, doc Document) error {
	for _, s := range m {
		if err := s.Write(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// JSONSink writes one indented JSON file per analysis into Dir.
type JSONSink struct {
	Dir string
}

// Artifact names without the directory.
func AggregateFile(stamp string) string     { return "analysis_result_" + stamp + ".json" }
func TopQuantitiesFile(stamp string) string { return "top_prescribed_quantities_" + stamp + ".json" }
func TopChainsFile(stamp string) string     { return "top_chains_" + stamp + ".json" }

func (s JSONSink) Write(ctx context.Context, doc Document) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("results: create dir %s: %w", s.Dir, err)
	}
	stamp := doc.Stamp()
	outs := []struct {
		name string
		skip bool
		v    any
	}{
		{AggregateFile(stamp), doc.Aggregates == nil, doc.Aggregates},
		{TopQuantitiesFile(stamp), doc.TopQuantities == nil, doc.TopQuantities},
		{TopChainsFile(stamp), doc.TopChains == nil, doc.TopChains},
	}
	for _, o := range outs {
		if o.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(s.Dir, o.name), o.v); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("results: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("results: write %s: %w", path, err)
	}
	return nil
}
