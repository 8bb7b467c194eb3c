package builtin

import (
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"rxetl/pkg/records"
)

// Dedup policies.
const (
	KeepFirst = "keep-first"
	KeepLast  = "keep-last"
)

// DeDup collapses records that share a business key. Key fields are
// normalized with records.String, so 1, "1" and 1.0 collide. Records with a
// null key field are passed through untouched at their original position.
//
// Keys are hashed with a 128-bit xxh3 digest instead of being retained as
// strings.
type DeDup struct {
	Keys []string

	// Policy is KeepFirst (default) or KeepLast.
	Policy string
}

func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}
	keepLast := strings.EqualFold(strings.TrimSpace(d.Policy), KeepLast)

	winner := make(map[xxh3.Uint128]int, len(in))
	keep := make([]int, 0, len(in))
	for i, r := range in {
		h, ok := d.hash(r)
		if !ok {
			keep = append(keep, i)
			continue
		}
		if _, seen := winner[h]; seen && !keepLast {
			continue
		}
		winner[h] = i
	}
	for _, i := range winner {
		keep = append(keep, i)
	}
	sort.Ints(keep)

	out := make([]records.Record, 0, len(keep))
	for _, i := range keep {
		out = append(out, in[i])
	}
	return out
}

func (d DeDup) hash(r records.Record) (xxh3.Uint128, bool) {
	var b strings.Builder
	for i, k := range d.Keys {
		s, ok := records.String(r[k])
		if !ok {
			return xxh3.Uint128{}, false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(s)
	}
	return xxh3.HashString128(b.String()), true
}
