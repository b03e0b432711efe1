package localstore

import (
	"os"
	"path/filepath"
	"testing"
)

func tempDir(t *testing.T) *Dir {
	t.Helper()
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return d
}

func TestSetAndGet(t *testing.T) {
	d := tempDir(t)
	if err := d.Set("currentFileId", "file-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := d.Get("currentFileId")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "file-1" {
		t.Errorf("Get = %q, %v; want file-1, true", got, ok)
	}
}

func TestGetMissing(t *testing.T) {
	d := tempDir(t)
	got, ok, err := d.Get("nothing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || got != "" {
		t.Errorf("Get = %q, %v; want empty, false", got, ok)
	}
}

func TestRemove(t *testing.T) {
	d := tempDir(t)
	_ = d.Set("k", "v")
	if err := d.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := d.Get("k"); ok {
		t.Error("key should be gone")
	}
	if err := d.Remove("k"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestOpenCreatesDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	d, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "k")); err != nil {
		t.Errorf("value file missing: %v", err)
	}
}

func TestOpenFileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "mdtree-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := Open(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestTraversalBlocked(t *testing.T) {
	d := tempDir(t)
	for _, key := range []string{"../outside", "a/b", "/etc/shadow", "..", "", `a\b`} {
		if err := d.Set(key, "x"); err == nil {
			t.Errorf("expected error for Set(%q)", key)
		}
		if _, _, err := d.Get(key); err == nil {
			t.Errorf("expected error for Get(%q)", key)
		}
	}
}

func TestOverwriteLeavesNoTempFiles(t *testing.T) {
	d := tempDir(t)
	_ = d.Set("k", "original")
	if err := d.Set("k", "updated"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ := d.Get("k")
	if got != "updated" {
		t.Errorf("got %q, want updated", got)
	}
	matches, _ := filepath.Glob(filepath.Join(d.root, ".mdtree-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}
