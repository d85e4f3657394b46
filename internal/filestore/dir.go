// Package filestore provides a directory on disk used as a flat store:
// entries are addressed by name and always resolve inside the root.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// DirPermissions are the permissions for store roots and entries created under them.
const DirPermissions = 0755

// Dir is a directory acting as a flat store.
type Dir struct {
	root string
}

// New returns a Dir rooted at path, creating it (and parents) if absent.
func New(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path %s: %w", path, err)
	}

	if err := os.MkdirAll(abs, DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", abs, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat store directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store path %s is not a directory", abs)
	}

	return &Dir{root: abs}, nil
}

// Path returns the absolute root of the store.
func (d *Dir) Path() string {
	return d.root
}

// Join resolves name inside the store. Names containing separators or
// dot-dot segments can never escape the root.
func (d *Dir) Join(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid entry name %q", name)
	}

	p, err := securejoin.SecureJoin(d.root, name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve entry %q: %w", name, err)
	}
	if p == d.root {
		return "", fmt.Errorf("invalid entry name %q", name)
	}

	return p, nil
}

// List returns the names of the immediate entries of the store, sorted.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}
