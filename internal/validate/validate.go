// Package validate checks record batches against a set of required fields
// and defines the errors raised while loading source files.
package validate

import (
	"fmt"
	"strings"

	"rxetl/internal/transformer/builtin"
	"rxetl/pkg/records"
)

// Outcome is the partition of one batch into compliant and non-compliant
// rows. Every input row lands in exactly one side, in input order.
type Outcome struct {
	Valid   *records.Table
	Invalid *records.Table
}

// SchemaError reports required columns absent from a batch's schema.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	src := ""
	if e.Source != "" {
		src = e.Source + ": "
	}
	return fmt.Sprintf("%smissing required columns: %s", src, strings.Join(e.Missing, ", "))
}

// ParseError wraps a failure to parse one source file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Validate partitions batch by required-field presence.
//
// When a required column is missing from the schema entirely, the whole batch
// is invalid and a *SchemaError is returned alongside the outcome. The caller
// decides whether that is fatal; the loader treats it as recoverable.
func Validate(batch *records.Table, required []string) (Outcome, error) {
	if batch == nil {
		batch = records.Empty()
	}
	if missing := batch.Missing(required); len(missing) > 0 {
		return Outcome{
			Valid:   batch.WithRows(nil),
			Invalid: batch.WithRows(append([]records.Record(nil), batch.Rows...)),
		}, &SchemaError{Missing: missing}
	}

	valid, invalid := builtin.Require{Fields: required}.Partition(batch.Rows)
	return Outcome{
		Valid:   batch.WithRows(valid),
		Invalid: batch.WithRows(invalid),
	}, nil
}
