package analysis

import (
	"fmt"
	"sort"
	"time"

	"rxetl/internal/schema"
	"rxetl/pkg/records"
)

// AggregateRow summarizes every claim of one (npi, ndc) pair.
type AggregateRow struct {
	NPI        string  `json:"npi" parquet:"npi"`
	NDC        string  `json:"ndc" parquet:"ndc"`
	Fills      float64 `json:"fills" parquet:"fills"`
	Reverted   int64   `json:"reverted" parquet:"reverted"`
	AvgPrice   float64 `json:"avg_price" parquet:"avg_price"`
	TotalPrice float64 `json:"total_price" parquet:"total_price"`
}

type aggAcc struct {
	fills, priceSum, total float64
	reverted              int64
	n                     int
}

// Aggregate left-joins claims to reversals on id = claim_id and groups the
// joined rows by (npi, ndc). A nil input table is logged and yields an empty
// result. Rows are returned sorted by npi, then ndc.
func (e *Engine) Aggregate(pharmacies, claims, reversals *records.Table) (out []AggregateRow, err error) {
	start := time.Now()
	defer func() { e.record("aggregate", err, start) }()
	out = []AggregateRow{}

	if pharmacies == nil || claims == nil || reversals == nil {
		e.log().Info("Claims data, reversals data, or pharmacy data is missing.", "error", ErrMissingInput)
		return out, nil
	}
	if err := requireColumns("aggregate", claims, "id", "npi", "ndc", "quantity", "price"); err != nil {
		return nil, err
	}
	if claims.Len() == 0 {
		return out, nil
	}

	typed, err := schema.DecodeClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	// claim_id -> number of matching reversals
	matches := make(map[string]int, reversals.Len())
	for _, rv := range schema.DecodeReversals(reversals.WithRows(e.dedupeReversals(reversals.Rows))) {
		matches[rv.ClaimID]++
	}

	type key struct{ npi, ndc string }
	groups := make(map[key]*aggAcc)
	for _, c := range typed {
		joined, flag := 1, int64(0)
		if n := matches[c.ID]; n > 0 {
			joined, flag = n, 1
		}

		k := key{c.NPI, c.NDC}
		acc := groups[k]
		if acc == nil {
			acc = &aggAcc{}
			groups[k] = acc
		}
		for j := 0; j < joined; j++ {
			acc.fills += c.Quantity
			acc.priceSum += c.Price
			acc.total += c.Price * c.Quantity
			acc.reverted += flag
			acc.n++
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].npi != keys[j].npi {
			return keys[i].npi < keys[j].npi
		}
		return keys[i].ndc < keys[j].ndc
	})
	for _, k := range keys {
		acc := groups[k]
		out = append(out, AggregateRow{
			NPI:        k.npi,
			NDC:        k.ndc,
			Fills:      acc.fills,
			Reverted:   acc.reverted,
			AvgPrice:   acc.priceSum / float64(acc.n),
			TotalPrice: acc.total,
		})
	}
	return out, nil
}
