package builtin

import (
	"rxetl/internal/schema"
	"rxetl/pkg/records"
)

// RejectedRow is a record that failed a contract check.
type RejectedRow struct {
	Raw    records.Record
	Reason string
	Stage  string
}

// Validate drops records that fail Contract.Check and reports each one to
// Reject. It assumes presence validation already ran.
type Validate struct {
	Contract schema.Contract
	Reject   func(RejectedRow) // optional sink
}

func (v Validate) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, r := range in {
		ok, reason := v.Contract.Check(r)
		if ok {
			out = append(out, r)
			continue
		}
		if v.Reject != nil {
			v.Reject(RejectedRow{Raw: r, Reason: reason, Stage: "validate"})
		}
	}
	return out
}
