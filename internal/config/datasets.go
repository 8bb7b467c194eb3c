package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rxetl/internal/schema"
)

// DatasetOverride replaces parts of a built-in dataset definition. Zero
// fields keep the built-in value.
type DatasetOverride struct {
	Dir        string         `json:"dir,omitempty" yaml:"dir,omitempty"`
	Format     string         `json:"format,omitempty" yaml:"format,omitempty"`
	Quarantine string         `json:"quarantine,omitempty" yaml:"quarantine,omitempty"`
	Fields     []schema.Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type datasetsFile struct {
	Datasets map[string]DatasetOverride `json:"datasets" yaml:"datasets"`
}

// LoadDatasets decodes a dataset override file. ".yaml"/".yml" files are
// decoded with yaml.v3, ".json" with encoding/json; unknown keys are errors
// in both.
func LoadDatasets(path string) (map[string]DatasetOverride, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read datasets %s: %w", path, err)
	}
	var f datasetsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: datasets file %s must be .yaml, .yml or .json", path)
	}
	if f.Datasets == nil {
		f.Datasets = map[string]DatasetOverride{}
	}
	return f.Datasets, nil
}
