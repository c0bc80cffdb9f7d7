package discovery

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter classifies files as spec files by glob patterns relative to a
// workspace root, e.g. "spec/**/*_spec.cr".
type Filter struct {
	patterns []string
}

// NewFilter creates a new Filter for the given patterns
func NewFilter(patterns ...string) *Filter {
	return &Filter{patterns: patterns}
}

// Match reports whether path, located in workspaceRoot, is a spec file
func (f *Filter) Match(workspaceRoot, path string) bool {
	relPath, err := filepath.Rel(workspaceRoot, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range f.patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// FilterByName filters paths by a wildcard pattern on their base name.
// Supports patterns like "*math_spec.cr" or "*math*"; a pattern without
// wildcards matches as a substring.
func FilterByName(paths []string, pattern string) []string {
	if pattern == "" {
		return paths
	}

	var filtered []string
	for _, path := range paths {
		name := filepath.Base(path)

		if !strings.ContainsAny(pattern, "*?[{") {
			if strings.Contains(name, pattern) {
				filtered = append(filtered, path)
			}
			continue
		}

		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			filtered = append(filtered, path)
		}
	}

	return filtered
}
