package schema

import (
	"fmt"

	"rxetl/pkg/records"
)

// PharmacyRecord is one row of the pharmacy directory.
type PharmacyRecord struct {
	Chain string `json:"chain"`
	NPI   string `json:"npi"`
}

// ClaimRecord is one prescription fill.
type ClaimRecord struct {
	ID        string  `json:"id"`
	NDC       string  `json:"ndc"`
	NPI       string  `json:"npi"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// ReversalRecord reverts a previously filled claim.
type ReversalRecord struct {
	ID        string `json:"id"`
	ClaimID   string `json:"claim_id"`
	Timestamp string `json:"timestamp"`
}

// DecodePharmacies converts a validated pharmacy table into typed rows in
// table order. Rows with a null npi or chain cannot join and are skipped.
func DecodePharmacies(t *records.Table) []PharmacyRecord {
	out := make([]PharmacyRecord, 0, t.Len())
	for _, r := range rowsOf(t) {
		npi, okN := records.String(r["npi"])
		chain, okC := records.String(r["chain"])
		if !okN || !okC {
			continue
		}
		out = append(out, PharmacyRecord{Chain: chain, NPI: npi})
	}
	return out
}

// DecodeClaims converts a validated claims table into typed rows in table
// order. Rows with a null npi or ndc have no group key and are skipped; a
// quantity or price that is not a number is an error naming the row.
func DecodeClaims(t *records.Table) ([]ClaimRecord, error) {
	out := make([]ClaimRecord, 0, t.Len())
	for i, r := range rowsOf(t) {
		var c ClaimRecord
		var okN, okD bool
		c.NPI, okN = records.String(r["npi"])
		c.NDC, okD = records.String(r["ndc"])
		if !okN || !okD {
			continue
		}
		c.ID, _ = records.String(r["id"])
		c.Timestamp, _ = records.String(r["timestamp"])
		q, err := records.Float(r["quantity"])
		if err != nil {
			return nil, fmt.Errorf("claim row %d quantity: %w", i, err)
		}
		p, err := records.Float(r["price"])
		if err != nil {
			return nil, fmt.Errorf("claim row %d price: %w", i, err)
		}
		c.Quantity, c.Price = q, p
		out = append(out, c)
	}
	return out, nil
}

// DecodeReversals converts a validated reversal table into typed rows in
// table order. Rows with a null claim_id match no claim and are skipped.
func DecodeReversals(t *records.Table) []ReversalRecord {
	out := make([]ReversalRecord, 0, t.Len())
	for _, r := range rowsOf(t) {
		var rv ReversalRecord
		var ok bool
		if rv.ClaimID, ok = records.String(r["claim_id"]); !ok {
			continue
		}
		rv.ID, _ = records.String(r["id"])
		rv.Timestamp, _ = records.String(r["timestamp"])
		out = append(out, rv)
	}
	return out
}

func rowsOf(t *records.Table) []records.Record {
	if t == nil {
		return nil
	}
	return t.Rows
}
