// Package file contains helpers for reading local files as datasources.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one regular file found in a dataset directory.
type Entry struct {
	Name string
	Path string
	// Ext is the extension without the dot, case preserved: "a.CSV" has
	// Ext "CSV" and does not match the "csv" format.
	Ext string
}

// ListFiles returns the regular files directly inside dir, sorted by name.
// Symlinks are followed; subdirectories and dangling links are ignored. A missing directory is reported as an error
// that satisfies errors.Is(err, os.ErrNotExist).
func ListFiles(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		path := filepath.Join(dir, name)
		if de.Type()&os.ModeSymlink != 0 {
			fi, err := os.Stat(path)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		} else if !de.Type().IsRegular() {
			continue
		}
		out = append(out, Entry{
			Name: name,
			Path: path,
			Ext:  strings.TrimPrefix(filepath.Ext(name), "."),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
