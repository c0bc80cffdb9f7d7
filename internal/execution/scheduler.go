package execution

import (
	"path/filepath"
	"strings"
)

// Batch is the list of paths to run in one workspace
type Batch struct {
	Workspace string
	Paths     []string
}

// Scheduler splits runner arguments into per-workspace batches
type Scheduler interface {
	Schedule(paths []string, workspaces []string) ([]Batch, []string)
}

// WorkspaceScheduler assigns every path to the deepest workspace root
// containing it. Batches come out in order of first appearance.
type WorkspaceScheduler struct{}

// NewWorkspaceScheduler creates a new WorkspaceScheduler
func NewWorkspaceScheduler() *WorkspaceScheduler {
	return &WorkspaceScheduler{}
}

// Schedule groups paths by workspace. Paths outside every workspace are
// returned separately.
func (s *WorkspaceScheduler) Schedule(paths []string, workspaces []string) ([]Batch, []string) {
	var batches []Batch
	var unmatched []string
	position := make(map[string]int)

	for _, path := range paths {
		workspace := owningWorkspace(path, workspaces)
		if workspace == "" {
			unmatched = append(unmatched, path)
			continue
		}

		i, ok := position[workspace]
		if !ok {
			i = len(batches)
			position[workspace] = i
			batches = append(batches, Batch{Workspace: workspace})
		}
		batches[i].Paths = append(batches[i].Paths, path)
	}

	return batches, unmatched
}

func owningWorkspace(path string, workspaces []string) string {
	path = filepath.Clean(path)
	best := ""
	for _, ws := range workspaces {
		root := filepath.Clean(ws)
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}
