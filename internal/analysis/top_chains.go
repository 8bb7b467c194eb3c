package analysis

import (
	"fmt"
	"sort"
	"time"

	"rxetl/internal/schema"
	"rxetl/pkg/records"
)

// MaxTopChains is the number of chains kept per ndc.
const MaxTopChains = 2

// ChainPrice is one chain's mean price for a drug.
type ChainPrice struct {
	Name     string  `json:"name"`
	AvgPrice float64 `json:"avg_price"`
}

// TopChainEntry ranks the chains charging the most for one drug.
type TopChainEntry struct {
	NDC   string       `json:"ndc"`
	Chain []ChainPrice `json:"chain"`
}

type priceAcc struct {
	sum float64
	n   int
}

// TopChains inner-joins claims to pharmacies on npi, averages price per
// (ndc, chain), and keeps the two highest averages per ndc. Ties rank by
// chain name. Duplicate pharmacy rows for one npi each join, so a claim may
// count toward several chains. Entries are sorted by ndc.
func (e *Engine) TopChains(pharmacies, claims *records.Table) (out []TopChainEntry, err error) {
	start := time.Now()
	defer func() { e.record("top_chains", err, start) }()
	out = []TopChainEntry{}

	if pharmacies == nil || claims == nil {
		e.log().Info("Claims data or pharmacy data is missing.", "error", ErrMissingInput)
		return out, nil
	}
	if claims.Len() == 0 || pharmacies.Len() == 0 {
		return out, nil
	}
	if err := requireColumns("top_chains", pharmacies, "npi", "chain"); err != nil {
		return nil, err
	}
	if err := requireColumns("top_chains", claims, "npi", "ndc", "price"); err != nil {
		return nil, err
	}

	// npi -> chains in pharmacy row order
	chainsByNPI := make(map[string][]string, pharmacies.Len())
	for _, p := range schema.DecodePharmacies(pharmacies) {
		chainsByNPI[p.NPI] = append(chainsByNPI[p.NPI], p.Chain)
	}

	groups := make(map[string]map[string]*priceAcc)
	for i, c := range claims.Rows {
		npi, ok := records.String(c["npi"])
		if !ok {
			continue
		}
		chains := chainsByNPI[npi]
		if len(chains) == 0 {
			continue
		}
		ndc, ok := records.String(c["ndc"])
		if !ok {
			continue
		}
		price, err := records.Float(c["price"])
		if err != nil {
			return nil, fmt.Errorf("top_chains: claim row %d price: %w", i, err)
		}
		g := groups[ndc]
		if g == nil {
			g = make(map[string]*priceAcc)
			groups[ndc] = g
		}
		for _, chain := range chains {
			acc := g[chain]
			if acc == nil {
				acc = &priceAcc{}
				g[chain] = acc
			}
			acc.sum += price
			acc.n++
		}
	}

	ndcs := make([]string, 0, len(groups))
	for ndc := range groups {
		ndcs = append(ndcs, ndc)
	}
	sort.Strings(ndcs)
	for _, ndc := range ndcs {
		ranked := make([]ChainPrice, 0, len(groups[ndc]))
		for name, acc := range groups[ndc] {
			ranked = append(ranked, ChainPrice{Name: name, AvgPrice: acc.sum / float64(acc.n)})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].AvgPrice != ranked[j].AvgPrice {
				return ranked[i].AvgPrice > ranked[j].AvgPrice
			}
			return ranked[i].Name < ranked[j].Name
		})
		if len(ranked) > MaxTopChains {
			ranked = ranked[:MaxTopChains]
		}
		out = append(out, TopChainEntry{NDC: ndc, Chain: ranked})
	}
	return out, nil
}
