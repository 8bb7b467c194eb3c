// Package quarantine persists rejected rows for audit. Quarantined rows are
// never read back by the pipeline.
package quarantine

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"rxetl/pkg/records"
)

// Sink receives the rejected rows of one artifact. The artifact name carries
// its format as an extension, e.g. "invalid_claims.json".
type Sink interface {
	Write(ctx context.Context, name string, t *records.Table) error
}

// FileSink writes artifacts under Dir. Repeated writes to the same name
// accumulate: the file is rewritten with every row received so far, so one
// run produces exactly one artifact per name.
//
// ".csv" artifacts get a header row plus one line per record; ".json"
// artifacts are newline-delimited JSON objects.
type FileSink struct {
	Dir string

	mu  sync.Mutex
	acc map[string]*records.Table
}

// NewFileSink returns a FileSink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, acc: make(map[string]*records.Table)}
}

// Path returns the file path for an artifact name.
func (s *FileSink) Path(name string) string { return filepath.Join(s.Dir, name) }

func (s *FileSink) Write(ctx context.Context, name string, t *records.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acc == nil {
		s.acc = make(map[string]*records.Table)
	}
	merged := records.Concat(s.acc[name], t)
	s.acc[name] = merged

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("quarantine: create dir %s: %w", s.Dir, err)
	}
	path := s.Path(name)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return writeCSV(path, merged)
	case ".json", ".ndjson":
		return writeNDJSON(path, merged)
	default:
		return fmt.Errorf("quarantine: unsupported artifact format %q for %s", ext, name)
	}
}

func writeCSV(path string, t *records.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("quarantine: create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if len(t.Columns) > 0 {
		if err := w.Write(t.Columns); err != nil {
			_ = f.Close()
			return fmt.Errorf("quarantine: write header %s: %w", path, err)
		}
	}
	line := make([]string, len(t.Columns))
	for i, r := range t.Rows {
		for j, c := range t.Columns {
			line[j] = cell(r[c])
		}
		if err := w.Write(line); err != nil {
			_ = f.Close()
			return fmt.Errorf("quarantine: write row %d of %s: %w", i, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("quarantine: write %s: %w", path, err)
	}
	return f.Close()
}

func writeNDJSON(path string, t *records.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("quarantine: create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	for i, r := range t.Rows {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return fmt.Errorf("quarantine: encode row %d of %s: %w", i, path, err)
		}
	}
	return f.Close()
}

func cell(v any) string {
	switch t := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	s, _ := records.String(v)
	return s
}

// Memory is an in-process Sink that keeps every write. Useful in tests and
// dry runs.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*records.Table
	writes map[string]int
}

func (m *Memory) Write(ctx context.Context, name string, t *records.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables == nil {
		m.tables = make(map[string]*records.Table)
		m.writes = make(map[string]int)
	}
	m.tables[name] = records.Concat(m.tables[name], t)
	m.writes[name]++
	return nil
}

// Table returns the accumulated rows for name, or nil if it was never written.
func (m *Memory) Table(name string) *records.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[name]
}

// Writes returns how many times name was written.
func (m *Memory) Writes(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[name]
}
