// Package refilter keeps child rows whose foreign key exists in a parent
// table and separates the rest as orphans.
package refilter

import "rxetl/pkg/records"

// Result partitions a child table by parent membership. Both tables keep the
// child's schema and row order.
type Result struct {
	InUniverse *records.Table
	Orphaned   *records.Table
}

// KeySet collects the stringified, non-null values of col in t.
func KeySet(t *records.Table, col string) map[string]struct{} {
	set := make(map[string]struct{}, t.Len())
	if t == nil {
		return set
	}
	for _, r := range t.Rows {
		if s, ok := records.String(r[col]); ok {
			set[s] = struct{}{}
		}
	}
	return set
}

// FilterByParent splits child by whether child[childKey] appears among the
// values of parent[parentKey]. Keys compare as strings, so 123 and "123"
// match. A null child key is always orphaned. A nil child yields two empty
// tables.
func FilterByParent(child, parent *records.Table, childKey, parentKey string) Result {
	if child == nil {
		return Result{InUniverse: records.Empty(), Orphaned: records.Empty()}
	}
	parents := KeySet(parent, parentKey)

	in := make([]records.Record, 0, child.Len())
	var orphaned []records.Record
	for _, r := range child.Rows {
		s, ok := records.String(r[childKey])
		if _, known := parents[s]; ok && known {
			in = append(in, r)
			continue
		}
		orphaned = append(orphaned, r)
	}
	return Result{InUniverse: child.WithRows(in), Orphaned: child.WithRows(orphaned)}
}
