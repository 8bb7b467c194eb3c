package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestListFiles_SortedRegularOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.CSV", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(got), got)
	}
	wantNames := []string{"a.CSV", "b.json", "c.txt"}
	wantExts := []string{"CSV", "json", "txt"}
	for i, e := range got {
		if e.Name != wantNames[i] || e.Ext != wantExts[i] {
			t.Fatalf("entry %d = %+v, want %s/%s", i, e, wantNames[i], wantExts[i])
		}
		if e.Path != filepath.Join(dir, e.Name) {
			t.Fatalf("path = %q", e.Path)
		}
	}
}

func TestListFiles_FollowsSymlinks(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	target := filepath.Join(src, "real.csv")
	if err := os.WriteFile(target, []byte("chain,npi\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dir := t.TempDir()
	if err := os.Symlink(target, filepath.Join(dir, "link.csv")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(src, "gone.csv"), filepath.Join(dir, "dangling.csv")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if err := os.Symlink(src, filepath.Join(dir, "subdir.csv")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	got, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(got) != 1 || got[0].Name != "link.csv" || got[0].Ext != "csv" {
		t.Fatalf("entries = %+v, want only link.csv", got)
	}
}

func TestListFiles_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.csv")
	if err := os.WriteFile(path, []byte("chain,npi\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rc, err := NewLocal(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "chain,npi\n" {
		t.Fatalf("content = %q", b)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(path).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled Open err = %v", err)
	}
	if _, err := NewLocal(path + ".missing").Open(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing Open err = %v", err)
	}
}
