// Package builtin contains simple, reusable transformers used by the loader.
package builtin

import "rxetl/pkg/records"

// Require keeps records that have a non-null value for every listed field.
// Empty strings count as values; parsers map empty CSV cells to nil.
type Require struct {
	Fields []string
}

// Apply returns only the records that satisfy every required field.
func (r Require) Apply(in []records.Record) []records.Record {
	valid, _ := r.Partition(in)
	return valid
}

// Partition splits in into records with all required fields present and the
// rest. Both outputs preserve input order and share the input's record values,
// so together they are exactly the input.
func (r Require) Partition(in []records.Record) (valid, invalid []records.Record) {
	valid = make([]records.Record, 0, len(in))
	for _, rec := range in {
		if r.satisfied(rec) {
			valid = append(valid, rec)
		} else {
			invalid = append(invalid, rec)
		}
	}
	if invalid == nil {
		invalid = []records.Record{}
	}
	return valid, invalid
}

func (r Require) satisfied(rec records.Record) bool {
	for _, f := range r.Fields {
		if rec.IsNull(f) {
			return false
		}
	}
	return true
}
