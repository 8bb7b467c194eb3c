package mssql

import (
	"context"
	"os"
	"testing"

	"rxetl/internal/storage"
)

func TestCreateIfMissingSQL(t *testing.T) {
	t.Parallel()

	got, err := createIfMissingSQL(storage.TableDef{
		FQN: "dbo.claim_aggregates",
		Columns: []storage.ColumnDef{
			{Name: "npi", Type: storage.Text},
			{Name: "reverted", Type: storage.BigInt},
		},
	})
	if err != nil {
		t.Fatalf("createIfMissingSQL: %v", err)
	}
	want := "IF OBJECT_ID(N'dbo.claim_aggregates', N'U') IS NULL\nCREATE TABLE [dbo].[claim_aggregates] (\n  [npi] NVARCHAR(255) NOT NULL,\n  [reverted] BIGINT NOT NULL\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	if _, err := createIfMissingSQL(storage.TableDef{FQN: "t"}); err == nil {
		t.Fatalf("expected error for table without columns")
	}
}

// getTestDSN reads MSSQL_TEST_DSN and skips when it is unset.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

func TestRepository_Integration(t *testing.T) {
	dsn := getTestDSN(t)
	ctx := context.Background()

	r, err := NewRepository(ctx, Config{DSN: dsn, Table: "rxetl_test_aggregates"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer r.Close()
	_ = r.Exec(ctx, "DROP TABLE IF EXISTS rxetl_test_aggregates")

	td := storage.TableDef{FQN: "rxetl_test_aggregates", Columns: []storage.ColumnDef{
		{Name: "npi", Type: storage.Text},
		{Name: "fills", Type: storage.Float},
	}}
	if err := r.EnsureTable(ctx, td); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if err := r.EnsureTable(ctx, td); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}
	n, err := r.CopyFrom(ctx, []string{"npi", "fills"}, [][]any{{"123", 30.0}, {"456", 60.0}})
	if err != nil || n != 2 {
		t.Fatalf("CopyFrom = %d, %v", n, err)
	}
}
