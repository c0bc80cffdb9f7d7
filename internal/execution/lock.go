package execution

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WorkspaceLocks hands out file locks keyed by workspace root so that two
// crspec processes never run specs in the same workspace at once.
type WorkspaceLocks struct {
	dir string
}

// NewWorkspaceLocks keeps its lock files in dir, os.TempDir when empty
func NewWorkspaceLocks(dir string) *WorkspaceLocks {
	if dir == "" {
		dir = os.TempDir()
	}
	return &WorkspaceLocks{dir: dir}
}

// Path returns the lock file used for a workspace root
func (l *WorkspaceLocks) Path(workDir string) string {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		abs = workDir
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(l.dir, "crspec-"+hex.EncodeToString(sum[:8])+".lock")
}

// TryLock acquires the workspace lock without blocking. ErrAlreadyExecuting
// is returned when another process holds it.
func (l *WorkspaceLocks) TryLock(workDir string) (func(), error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", l.dir, err)
	}

	lock := flock.New(l.Path(workDir))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", lock.Path(), err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: workspace %s is locked by another process", ErrAlreadyExecuting, workDir)
	}

	return func() { _ = lock.Unlock() }, nil
}
