package discovery

import (
	"os"
	"path/filepath"
)

// IsWorkspace reports whether root is a crystal project with specs: the
// manifest file and the spec directory must both exist.
func IsWorkspace(root, manifestFile, specDir string) bool {
	manifest, err := os.Stat(filepath.Join(root, manifestFile))
	if err != nil || manifest.IsDir() {
		return false
	}
	spec, err := os.Stat(filepath.Join(root, specDir))
	return err == nil && spec.IsDir()
}

// Recognize returns the candidate roots that are workspaces, in order
func Recognize(roots []string, manifestFile, specDir string) []string {
	var out []string
	for _, root := range roots {
		if IsWorkspace(root, manifestFile, specDir) {
			out = append(out, root)
		}
	}
	return out
}
