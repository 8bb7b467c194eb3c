package csv_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	pcsv "rxetl/internal/parser/csv"
)

func TestParse_Basic(t *testing.T) {
	t.Parallel()

	in := "\uFEFFchain, npi\nCVS,123\nWalgreens,\n,456\n  , 789 \n"
	tbl, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := []string{"chain", "npi"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, want)
	}
	if tbl.Len() != 4 {
		t.Fatalf("rows = %d, want 4", tbl.Len())
	}
	if v := tbl.Rows[0]["npi"]; v != "123" {
		t.Fatalf("npi = %v, want 123", v)
	}
	if v := tbl.Rows[1]["npi"]; v != nil {
		t.Fatalf("empty npi = %#v, want nil", v)
	}
	if !tbl.Rows[2].IsNull("chain") {
		t.Fatalf("empty chain should be null")
	}
	// Only an empty cell is null; whitespace is kept verbatim.
	if r := tbl.Rows[3]; r["chain"] != "  " || r["npi"] != " 789 " {
		t.Fatalf("whitespace row = %#v", r)
	}
}

func TestParse_HeaderOnlyKeepsColumns(t *testing.T) {
	t.Parallel()

	tbl, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("chain\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.Len() != 0 || !tbl.Has("chain") || tbl.Has("npi") {
		t.Fatalf("table = %+v", tbl)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{})
	if _, err := p.Parse(strings.NewReader("")); !errors.Is(err, pcsv.ErrEmptyInput) {
		t.Fatalf("empty input err = %v, want ErrEmptyInput", err)
	}
	if _, err := p.Parse(strings.NewReader("a,b\n1,2,3\n")); err == nil {
		t.Fatalf("expected error for wide row")
	}
	if _, err := p.Parse(strings.NewReader("a,b\n\"unterminated,2\n")); err == nil {
		t.Fatalf("expected error for bad quoting")
	}
}

func TestParse_ShortRowsAndDuplicateHeaders(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{Comma: ';'})
	tbl, err := p.Parse(strings.NewReader("NPI;x;x\n1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := []string{"NPI", "x", "x.1"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, want)
	}
	if r := tbl.Rows[0]; r["NPI"] != "1" || r["x"] != nil || r["x.1"] != nil {
		t.Fatalf("row = %#v", r)
	}
}
