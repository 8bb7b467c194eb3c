package validate

import (
	"errors"
	"reflect"
	"testing"

	"rxetl/pkg/records"
)

func TestValidate_PartitionReconstructsBatch(t *testing.T) {
	t.Parallel()

	rows := []records.Record{
		{"chain": "CVS", "npi": "1"},
		{"chain": nil, "npi": "2"},
		{"chain": "RiteAid", "npi": "3"},
		{"chain": "Walgreens", "npi": nil},
		{"chain": "CVS", "npi": "1"}, // duplicate npi is still valid
	}
	batch := records.NewTable([]string{"chain", "npi"}, rows)

	out, err := Validate(batch, []string{"chain", "npi"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if out.Valid.Len()+out.Invalid.Len() != batch.Len() {
		t.Fatalf("valid %d + invalid %d != %d", out.Valid.Len(), out.Invalid.Len(), batch.Len())
	}

	// Disjoint by identity, and merging by original position gives the batch.
	vi, ii := 0, 0
	for i := range rows {
		switch {
		case vi < out.Valid.Len() && sameRow(out.Valid.Rows[vi], rows[i]):
			vi++
		case ii < out.Invalid.Len() && sameRow(out.Invalid.Rows[ii], rows[i]):
			ii++
		default:
			t.Fatalf("row %d not found in order in either side", i)
		}
	}
	if vi != 3 || ii != 2 {
		t.Fatalf("valid=%d invalid=%d, want 3/2", vi, ii)
	}
	if !reflect.DeepEqual(out.Valid.Columns, batch.Columns) || !reflect.DeepEqual(out.Invalid.Columns, batch.Columns) {
		t.Fatalf("schema not preserved")
	}
}

func sameRow(a, b records.Record) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestValidate_MissingColumn(t *testing.T) {
	t.Parallel()

	batch := records.NewTable(nil, []records.Record{{"chain": "CVS"}, {"chain": "RiteAid"}})
	out, err := Validate(batch, []string{"chain", "npi"})

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if !reflect.DeepEqual(se.Missing, []string{"npi"}) {
		t.Fatalf("missing = %v", se.Missing)
	}
	if out.Valid.Len() != 0 || out.Invalid.Len() != 2 {
		t.Fatalf("valid=%d invalid=%d, want 0/2", out.Valid.Len(), out.Invalid.Len())
	}
}

func TestValidate_EmptyAndNil(t *testing.T) {
	t.Parallel()

	out, err := Validate(records.NewTable([]string{"a"}, nil), []string{"a"})
	if err != nil || out.Valid.Len() != 0 || out.Invalid.Len() != 0 {
		t.Fatalf("empty batch: %+v, %v", out, err)
	}
	if _, err := Validate(nil, []string{"a"}); err == nil {
		t.Fatalf("nil batch lacks every column; want SchemaError")
	}
}

func TestParseError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := error(&ParseError{Path: "claims/a.json", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should see the cause")
	}
	if got := err.Error(); got != "parse claims/a.json: boom" {
		t.Fatalf("Error() = %q", got)
	}
}
