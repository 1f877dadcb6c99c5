// Package project locates and decodes the dftemplate.toml manifest that
// configures a directory of quest templates.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file searched for by FindManifest.
const ManifestName = "dftemplate.toml"

// FindManifest walks up from start to locate dftemplate.toml. start may be
// a file; the search then begins in its directory.
func FindManifest(start string) (path string, ok bool, err error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing dftemplate.toml, if any.
func FindProjectRoot(start string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifest(start)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}
