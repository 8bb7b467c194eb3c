package results

import (
	"context"
	"fmt"

	"rxetl/internal/logger"
	"rxetl/internal/storage"
)

// DefaultBatchSize is the number of rows per CopyFrom call.
const DefaultBatchSize = 500

// AggregateColumns is the column order of the aggregate result table.
var AggregateColumns = []string{"run_id", "run_at", "npi", "ndc", "fills", "reverted", "avg_price", "total_price"}

// AggregateTable describes the aggregate result table.
func AggregateTable(name string) storage.TableDef {
	return storage.TableDef{FQN: name, Columns: []storage.ColumnDef{
		{Name: "run_id", Type: storage.Text},
		{Name: "run_at", Type: storage.Timestamp},
		{Name: "npi", Type: storage.Text},
		{Name: "ndc", Type: storage.Text},
		{Name: "fills", Type: storage.Float},
		{Name: "reverted", Type: storage.BigInt},
		{Name: "avg_price", Type: storage.Float},
		{Name: "total_price", Type: storage.Float},
	}}
}

// StorageSink appends the aggregate rows of each run to a SQL table, tagged
// with the run id and timestamp.
type StorageSink struct {
	Repo      storage.Repository
	Table     string
	BatchSize int
	Log       *logger.Logger
}

func (s StorageSink) Write(ctx context.Context, doc Document) error {
	if doc.Aggregates == nil {
		return nil
	}
	if err := s.Repo.EnsureTable(ctx, AggregateTable(s.Table)); err != nil {
		return fmt.Errorf("results: ensure table %s: %w", s.Table, err)
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rows := make(chan []any)
	go func() {
		defer close(rows)
		runAt := doc.Timestamp.UTC()
		for _, a := range doc.Aggregates {
			row := []any{doc.RunID, runAt, a.NPI, a.NDC, a.Fills, a.Reverted, a.AvgPrice, a.TotalPrice}
			select {
			case rows <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	n, err := storage.LoadBatches(ctx, s.Log, AggregateColumns, rows, batch, s.Repo.CopyFrom)
	if err != nil {
		return fmt.Errorf("results: load %s: %w", s.Table, err)
	}
	if s.Log != nil {
		s.Log.Info("Stored aggregate rows", "table", s.Table, "rows", n, "run_id", doc.RunID)
	}
	return nil
}
