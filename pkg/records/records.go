// Package records defines the in-memory row and table types shared by the
// parsers, the loader, the referential filter and the analysis engine.
//
// A Record is a loosely typed row keyed by column name. A key that is absent
// or maps to nil is treated as a null value everywhere in the pipeline.
package records

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is a single parsed row.
type Record map[string]any

// IsNull reports whether the record has no usable value for key.
func (r Record) IsNull(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// Table is an ordered batch of records plus the union of their columns in
// first-seen order. Stages treat tables as immutable and return new ones.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable builds a table from rows, deriving the column list from the rows
// in first-seen order. Extra columns (e.g. a CSV header with no rows) can be
// supplied up front.
func NewTable(columns []string, rows []Record) *Table {
	t := &Table{Columns: make([]string, 0, len(columns)), Rows: make([]Record, 0, len(rows))}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		t.Columns = append(t.Columns, c)
	}
	for _, r := range rows {
		t.Columns = appendNewKeys(t.Columns, seen, r)
		t.Rows = append(t.Rows, r)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table { return &Table{Columns: []string{}, Rows: []Record{}} }

// Len returns the number of rows; a nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether col is part of the table schema.
func (t *Table) Has(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Missing returns the subset of cols not present in the table schema, in the
// order given.
func (t *Table) Missing(cols []string) []string {
	var out []string
	for _, c := range cols {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Concat returns a new table holding the rows of all inputs in order. The
// resulting schema is the column union in first-seen order. Nil inputs are
// skipped.
func Concat(tables ...*Table) *Table {
	var cols []string
	var rows []Record
	for _, t := range tables {
		if t == nil {
			continue
		}
		cols = append(cols, t.Columns...)
		rows = append(rows, t.Rows...)
	}
	return NewTable(cols, rows)
}

// WithRows returns a new table with the same schema as t and the given rows.
func (t *Table) WithRows(rows []Record) *Table {
	var cols []string
	if t != nil {
		cols = t.Columns
	}
	out := &Table{Columns: append([]string(nil), cols...), Rows: rows}
	if out.Rows == nil {
		out.Rows = []Record{}
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	return out
}

func appendNewKeys(cols []string, seen map[string]struct{}, r Record) []string {
	if len(r) == 0 {
		return cols
	}
	// Map iteration order is random, so new keys from one row are sorted to
	// keep the schema deterministic.
	var fresh []string
	for k := range r {
		if _, ok := seen[k]; !ok {
			fresh = append(fresh, k)
		}
	}
	if len(fresh) == 0 {
		return cols
	}
	sort.Strings(fresh)
	for _, k := range fresh {
		seen[k] = struct{}{}
		cols = append(cols, k)
	}
	return cols
}

// String normalizes an identifier-like value to its string form. JSON
// numbers keep their literal text and integral floats drop the fraction, so
// 123, "123", json.Number("123") and 123.0 all compare equal.
func String(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		s := t.String()
		if f, err := strconv.ParseFloat(s, 64); err == nil && isIntegral(f) && strings.ContainsAny(s, ".eE") {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return s, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		if math.IsNaN(t) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// Float converts a numeric or numeric-string value to float64.
func Float(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("null value")
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("type %T is not numeric", v)
	}
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f) && math.Abs(f) < 1<<53
}
