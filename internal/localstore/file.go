package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a Store that keeps one file per key under a root directory.
type File struct {
	root string // absolute path to the store directory
}

// NewFile creates a file-backed store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
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
	return &File{root: abs}, nil
}

// keyPath maps a key to its file. Keys are flat names; anything that could
// resolve outside the root is rejected.
func (f *File) keyPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".nbshell-tmp-") {
		return "", fmt.Errorf("localstore: invalid key %q", key)
	}
	return filepath.Join(f.root, key), nil
}

// Get reads the file for key.
func (f *File) Get(key string) (string, bool, error) {
	p, err := f.keyPath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set atomically writes value: tmp file → fsync → rename.
func (f *File) Set(key, value string) error {
	p, err := f.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".nbshell-tmp-*")
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

// Remove deletes the file for key.
func (f *File) Remove(key string) error {
	p, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localstore: remove %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (f *File) Close() error { return nil }
