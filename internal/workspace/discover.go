package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// QuestExt is the extension of quest template files.
const QuestExt = ".txt"

// Discover returns the quest files under root in sorted order. A root that
// names a file is returned as is.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// .git, .vscode и прочие служебные каталоги
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), QuestExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// DisplayPath makes file relative to baseDir when it lies below it and uses
// forward slashes, so progress views and reports agree on names.
func DisplayPath(file, baseDir string) string {
	path := filepath.Clean(file)
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// DisplayPaths applies DisplayPath to files, dropping duplicates.
func DisplayPaths(files []string, baseDir string) []string {
	out := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		path := DisplayPath(file, baseDir)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
