package sqlite

import (
	"context"
	"strings"
	"testing"

	"rxetl/internal/storage"
)

func newMemRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := NewRepository(context.Background(), Config{DSN: ":memory:", Table: "results"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestRepository_EnsureTableAndCopy(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo(t)

	td := storage.TableDef{FQN: "results", Columns: []storage.ColumnDef{
		{Name: "npi", Type: storage.Text},
		{Name: "fills", Type: storage.Float},
		{Name: "reverted", Type: storage.BigInt},
	}}
	if err := r.EnsureTable(ctx, td); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// Idempotent.
	if err := r.EnsureTable(ctx, td); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}

	n, err := r.CopyFrom(ctx, []string{"npi", "fills", "reverted"}, [][]any{
		{"123", 30.0, int64(1)},
		{"456", 60.0, int64(0)},
	})
	if err != nil || n != 2 {
		t.Fatalf("CopyFrom = %d, %v", n, err)
	}

	var sum float64
	if err := r.DB().QueryRowContext(ctx, `SELECT SUM(fills) FROM results`).Scan(&sum); err != nil {
		t.Fatalf("query: %v", err)
	}
	if sum != 90 {
		t.Fatalf("sum = %v, want 90", sum)
	}
}

func TestRepository_CopyFromErrors(t *testing.T) {
	ctx := context.Background()
	r := newMemRepo(t)

	if _, err := r.CopyFrom(ctx, nil, [][]any{{1}}); err == nil {
		t.Fatalf("expected error for empty columns")
	}
	if n, err := r.CopyFrom(ctx, []string{"a"}, nil); err != nil || n != 0 {
		t.Fatalf("empty rows = %d, %v", n, err)
	}
	if err := r.Exec(ctx, `CREATE TABLE results (a TEXT)`); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if _, err := r.CopyFrom(ctx, []string{"a"}, [][]any{{"x", "y"}}); err == nil || !strings.Contains(err.Error(), "row length") {
		t.Fatalf("err = %v, want row length error", err)
	}
}

func TestRegistered(t *testing.T) {
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:", Table: "t"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	repo.Close()
}
