package builtin

import (
	"strings"
	"testing"

	"rxetl/internal/schema"
	"rxetl/pkg/records"
)

func TestValidate_RejectsBadNumbers(t *testing.T) {
	t.Parallel()

	var rejected []RejectedRow
	v := Validate{
		Contract: schema.ClaimContract(),
		Reject:   func(r RejectedRow) { rejected = append(rejected, r) },
	}
	good := records.Record{"id": "1", "ndc": "d", "npi": "1", "quantity": "30", "price": "50", "timestamp": "t"}
	bad := records.Record{"id": "2", "ndc": "d", "npi": "1", "quantity": "-3", "price": "50", "timestamp": "t"}

	out := v.Apply([]records.Record{good, bad})
	if len(out) != 1 || out[0]["id"] != "1" {
		t.Fatalf("out = %v", out)
	}
	if len(rejected) != 1 || rejected[0].Raw["id"] != "2" || rejected[0].Stage != "validate" {
		t.Fatalf("rejected = %+v", rejected)
	}
	if !strings.Contains(rejected[0].Reason, "quantity") {
		t.Fatalf("reason = %q", rejected[0].Reason)
	}
}

func TestValidate_NilRejectIsSafe(t *testing.T) {
	t.Parallel()

	v := Validate{Contract: schema.PharmacyContract()}
	out := v.Apply([]records.Record{{"chain": map[string]any{}, "npi": "1"}})
	if len(out) != 0 {
		t.Fatalf("nested chain should be rejected, got %v", out)
	}
}
