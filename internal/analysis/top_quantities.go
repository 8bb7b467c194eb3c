package analysis

import (
	"fmt"
	"sort"
	"time"

	"rxetl/pkg/records"
)

// MaxTopQuantities is the number of quantities kept per npi.
const MaxTopQuantities = 4

// TopQuantityEntry lists the most frequently prescribed quantities of one npi.
type TopQuantityEntry struct {
	ID                     string    `json:"id"`
	MostPrescribedQuantity []float64 `json:"most_prescribed_quantity"`
}

type quantityCount struct {
	qty   float64
	count int
	first int
}

// TopQuantities returns, per npi, up to four distinct quantities ordered by
// descending frequency; equal frequencies keep first-occurrence order.
// Entries are sorted by npi.
func (e *Engine) TopQuantities(claims *records.Table) (out []TopQuantityEntry, err error) {
	start := time.Now()
	defer func() { e.record("top_quantities", err, start) }()
	out = []TopQuantityEntry{}

	if claims == nil {
		e.log().Info("Claims data is missing.", "error", ErrMissingInput)
		return out, nil
	}
	if err := requireColumns("top_quantities", claims, "npi", "quantity"); err != nil {
		return nil, err
	}

	groups := make(map[string]map[float64]*quantityCount)
	for i, c := range claims.Rows {
		npi, ok := records.String(c["npi"])
		if !ok {
			continue
		}
		qty, err := records.Float(c["quantity"])
		if err != nil {
			return nil, fmt.Errorf("top_quantities: claim row %d quantity: %w", i, err)
		}
		g := groups[npi]
		if g == nil {
			g = make(map[float64]*quantityCount)
			groups[npi] = g
		}
		if qc := g[qty]; qc != nil {
			qc.count++
		} else {
			g[qty] = &quantityCount{qty: qty, count: 1, first: i}
		}
	}

	npis := make([]string, 0, len(groups))
	for npi := range groups {
		npis = append(npis, npi)
	}
	sort.Strings(npis)
	for _, npi := range npis {
		counts := make([]*quantityCount, 0, len(groups[npi]))
		for _, qc := range groups[npi] {
			counts = append(counts, qc)
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].first < counts[j].first
		})
		if len(counts) > MaxTopQuantities {
			counts = counts[:MaxTopQuantities]
		}
		qs := make([]float64, 0, len(counts))
		for _, qc := range counts {
			qs = append(qs, qc.qty)
		}
		out = append(out, TopQuantityEntry{ID: npi, MostPrescribedQuantity: qs})
	}
	return out, nil
}
