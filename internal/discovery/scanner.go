package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SpecTree is the layout of a spec directory on disk
type SpecTree struct {
	Dirs  []string // Every directory, the spec directory first
	Files []string // Spec files accepted by the filter
}

// Scanner walks spec directories
type Scanner struct {
	skipDirs map[string]bool
	filter   *Filter
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string, filter *Filter) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap, filter: filter}
}

// Scan walks specDir of workspaceRoot and collects its directories and spec
// files
func (s *Scanner) Scan(workspaceRoot, specDir string) (*SpecTree, error) {
	root := filepath.Join(filepath.Clean(workspaceRoot), specDir)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("spec path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spec path is not a directory: %s", root)
	}

	tree := &SpecTree{}
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			if path != root {
				// Skip hidden directories (starting with .)
				if strings.HasPrefix(name, ".") || s.skipDirs[name] {
					return filepath.SkipDir
				}
			}
			tree.Dirs = append(tree.Dirs, path)
			return nil
		}

		if s.filter == nil || s.filter.Match(workspaceRoot, path) {
			tree.Files = append(tree.Files, path)
		}
		return nil
	})

	return tree, err
}
