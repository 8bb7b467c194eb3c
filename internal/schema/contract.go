// Package schema holds the dataset contracts for the three record families
// (pharmacies, claims, reversals) and the typed rows decoded from them.
package schema

import (
	"fmt"
	"strings"

	"rxetl/pkg/records"
)

// Field kinds understood by Contract.Check.
const (
	KindString = "string"
	KindNumber = "number"
)

// Field is one required column of a dataset.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"` // "string" | "number"
	// NonNegative rejects numbers below zero.
	NonNegative bool `json:"non_negative,omitempty" yaml:"non_negative,omitempty"`
}

// Contract describes the fields a dataset must carry.
type Contract struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Required returns the contract's field names in declaration order.
func (c Contract) Required() []string {
	out := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Check verifies the field types of a row that already passed presence
// validation. It returns a human-readable reason when the row is rejected.
func (c Contract) Check(r records.Record) (bool, string) {
	for _, f := range c.Fields {
		v, ok := r[f.Name]
		if !ok || v == nil {
			return false, fmt.Sprintf("required field %q missing", f.Name)
		}
		switch strings.ToLower(f.Type) {
		case KindNumber:
			n, err := records.Float(v)
			if err != nil {
				return false, fmt.Sprintf("field %q: %v", f.Name, err)
			}
			if f.NonNegative && n < 0 {
				return false, fmt.Sprintf("field %q: %v is negative", f.Name, n)
			}
		default:
			// identifiers and free text: any non-null scalar is accepted
			switch v.(type) {
			case map[string]any, []any:
				return false, fmt.Sprintf("field %q: nested value not allowed", f.Name)
			}
		}
	}
	return true, ""
}

// Built-in dataset names.
const (
	Pharmacies = "pharmacies"
	Claims     = "claims"
	Reverts    = "reverts"
)

// PharmacyContract is the schema of pharmacy directory files.
func PharmacyContract() Contract {
	return Contract{
		Name: Pharmacies,
		Fields: []Field{
			{Name: "chain", Type: KindString},
			{Name: "npi", Type: KindString},
		},
	}
}

// ClaimContract is the schema of prescription claim files.
func ClaimContract() Contract {
	return Contract{
		Name: Claims,
		Fields: []Field{
			{Name: "id", Type: KindString},
			{Name: "ndc", Type: KindString},
			{Name: "npi", Type: KindString},
			{Name: "quantity", Type: KindNumber, NonNegative: true},
			{Name: "price", Type: KindNumber, NonNegative: true},
			{Name: "timestamp", Type: KindString},
		},
	}
}

// ReversalContract is the schema of claim reversal files.
func ReversalContract() Contract {
	return Contract{
		Name: Reverts,
		Fields: []Field{
			{Name: "id", Type: KindString},
			{Name: "claim_id", Type: KindString},
			{Name: "timestamp", Type: KindString},
		},
	}
}
