package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"rxetl/pkg/records"
)

// Normalize rewrites string values to Unicode NFC and trims surrounding
// whitespace. Input records are left untouched; each output row is a copy.
// A whitespace-only value becomes "", never nil: only the parser decides
// what is null.
type Normalize struct{}

func (Normalize) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		cp := make(records.Record, len(r))
		for k, v := range r {
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(norm.NFC.String(s))
			}
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
