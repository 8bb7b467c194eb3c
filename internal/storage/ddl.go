package storage

import (
	"fmt"
	"strings"
)

// ColumnType is a portable column type; each backend maps it to its dialect.
type ColumnType int

const (
	Text ColumnType = iota
	Float
	BigInt
	Timestamp
)

// ColumnDef describes one column.
type ColumnDef struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// TableDef describes a table to create.
type TableDef struct {
	// FQN is the table name, optionally schema-qualified ("public.results").
	FQN     string
	Columns []ColumnDef
}

// Dialect renders identifiers and column types for one backend.
type Dialect struct {
	Quote func(ident string) string
	Types map[ColumnType]string
	// IfNotExists prefixes CREATE TABLE with "IF NOT EXISTS" when true.
	IfNotExists bool
}

// QuoteFQN quotes each dot-separated segment of name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// CreateTableSQL renders a CREATE TABLE statement for td.
func (d Dialect) CreateTableSQL(td TableDef) (string, error) {
	if strings.TrimSpace(td.FQN) == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	cols := make([]string, 0, len(td.Columns))
	for _, c := range td.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", td.FQN)
		}
		typ, ok := d.Types[c.Type]
		if !ok {
			return "", fmt.Errorf("ddl: column %s has unsupported type %d", c.Name, c.Type)
		}
		def := d.Quote(c.Name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	head := "CREATE TABLE "
	if d.IfNotExists {
		head += "IF NOT EXISTS "
	}
	return head + d.QuoteFQN(td.FQN) + " (\n  " + strings.Join(cols, ",\n  ") + "\n);", nil
}

// QuoteDouble quotes an identifier with double quotes (SQLite, Postgres).
func QuoteDouble(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuoteBracket quotes an identifier with brackets (SQL Server).
func QuoteBracket(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" }
