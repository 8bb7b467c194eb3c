package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"rxetl/internal/analysis"
)

// ParquetFile is the aggregate artifact name for a run stamp.
func ParquetFile(stamp string) string { return "analysis_result_" + stamp + ".parquet" }

// ParquetSink writes the aggregate rows to a Snappy-compressed Parquet file
// in Dir. The other analyses are nested and stay JSON-only.
type ParquetSink struct {
	Dir string
}

func (s ParquetSink) Write(ctx context.Context, doc Document) error {
	if doc.Aggregates == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("results: create dir %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, ParquetFile(doc.Stamp()))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create aggregate parquet: %w", err)
	}
	writer := parquet.NewGenericWriter[analysis.AggregateRow](file,
		parquet.Compression(&parquet.Snappy),
	)
	if _, err := writer.Write(doc.Aggregates); err != nil {
		_ = writer.Close()
		_ = file.Close()
		return fmt.Errorf("write aggregate rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("close aggregate writer: %w", err)
	}
	return file.Close()
}
