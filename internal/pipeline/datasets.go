package pipeline

import (
	"rxetl/internal/config"
	"rxetl/internal/loader"
	"rxetl/internal/schema"
)

// Quarantine artifact names of the built-in datasets.
const (
	InvalidPharmacies = "invalid_pharmacies.csv"
	InvalidClaims     = "invalid_claims.json"
	InvalidReverts    = "invalid_reverts.json"
)

// Datasets names the three source directories of a run.
type Datasets struct {
	Pharmacies loader.Dataset
	Claims     loader.Dataset
	Reverts    loader.Dataset
}

// DefaultDatasets builds the built-in dataset definitions from the directory
// roles in cfg and applies any overrides from the datasets file.
func DefaultDatasets(cfg *config.Config) Datasets {
	ds := Datasets{
		Pharmacies: loader.Dataset{Dir: cfg.PharmacyDir, Format: loader.FormatCSV, Contract: schema.PharmacyContract(), Quarantine: InvalidPharmacies},
		Claims:     loader.Dataset{Dir: cfg.ClaimsDir, Format: loader.FormatJSON, Contract: schema.ClaimContract(), Quarantine: InvalidClaims},
		Reverts:    loader.Dataset{Dir: cfg.RevertsDir, Format: loader.FormatJSON, Contract: schema.ReversalContract(), Quarantine: InvalidReverts},
	}
	ds.Pharmacies = override(ds.Pharmacies, cfg.Datasets[schema.Pharmacies])
	ds.Claims = override(ds.Claims, cfg.Datasets[schema.Claims])
	ds.Reverts = override(ds.Reverts, cfg.Datasets[schema.Reverts])
	return ds
}

func override(d loader.Dataset, o config.DatasetOverride) loader.Dataset {
	if o.Dir != "" {
		d.Dir = o.Dir
	}
	if o.Format != "" {
		d.Format = o.Format
	}
	if o.Quarantine != "" {
		d.Quarantine = o.Quarantine
	}
	if len(o.Fields) > 0 {
		d.Contract.Fields = append([]schema.Field(nil), o.Fields...)
	}
	return d
}
