package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are directories excluded from workspace listings.
var skipDirs = map[string]bool{
	".git":         true,
	".weft":        true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"target":       true,
}

// ListFiles returns the workspace's files as sorted, slash-separated
// paths relative to root. The listing is read-only input for agents.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CleanPath normalizes a workspace-relative path for comparison: slashes,
// no leading "./", no trailing slash.
func CleanPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}

// WriteFile writes content to a workspace-relative path, creating parent
// directories as needed.
func WriteFile(root, rel string, content []byte) error {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}
	return os.WriteFile(abs, content, 0644)
}
