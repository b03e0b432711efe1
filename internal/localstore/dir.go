// Package localstore keeps small client-side values on disk, one file per key.
package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a directory-backed key/value store.
type Dir struct {
	root string // absolute path to the state directory
}

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("localstore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("localstore: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("localstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localstore: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute state directory.
func (d *Dir) Root() string { return d.root }

// keyPath maps a key to its file and rejects keys that would leave the root.
func (d *Dir) keyPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("localstore: invalid key %q", key)
	}
	if strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("localstore: key escapes state dir: %q", key)
	}
	abs := filepath.Join(d.root, key)
	if filepath.Dir(abs) != d.root {
		return "", fmt.Errorf("localstore: key escapes state dir: %q", key)
	}
	return abs, nil
}

// Get returns the value stored under key and whether it exists.
func (d *Dir) Get(key string) (string, bool, error) {
	p, err := d.keyPath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set atomically writes value under key: tmp file, fsync, rename.
func (d *Dir) Set(key, value string) error {
	p, err := d.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, ".mdtree-tmp-*")
	if err != nil {
		return fmt.Errorf("localstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("localstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("localstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("localstore: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (d *Dir) Remove(key string) error {
	p, err := d.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localstore: remove %s: %w", key, err)
	}
	return nil
}
