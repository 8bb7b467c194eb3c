// Package csv parses delimited files with a header row into a records.Table.
//
// Empty cells become nil so downstream validation sees them as null. Short
// rows are padded with nil; a row wider than the header is a parse error for
// the whole input.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"rxetl/pkg/records"
)

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("csv: no columns to parse")

// Options configures the CSV parser. Zero values are usable.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

const utf8BOM = "\uFEFF"

// Parse reads all rows from r. The returned table carries the header columns
// even when there are no data rows.
func (p *Parser) Parse(r io.Reader) (*records.Table, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h)

	var rows []records.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(row) > len(headers) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(headers), len(row))
		}
		rec := make(records.Record, len(headers))
		for i, key := range headers {
			if i >= len(row) {
				rec[key] = nil
				continue
			}
			rec[key] = emptyToNil(row[i])
		}
		rows = append(rows, rec)
	}
	return records.NewTable(headers, rows), nil
}

// emptyToNil converts an empty cell to nil. Whitespace-only cells are values.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders strips a UTF-8 BOM from the first cell, trims and
// NFC-normalizes every name, and suffixes repeated names with ".N" so no
// column is silently lost.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		c := norm.NFC.String(strings.TrimSpace(col))
		if c == "" {
			c = "col_" + strconv.Itoa(i)
		}
		if n, dup := seen[c]; dup {
			seen[c] = n + 1
			c = c + "." + strconv.Itoa(n)
		} else {
			seen[c] = 1
		}
		res[i] = c
	}
	return res
}
