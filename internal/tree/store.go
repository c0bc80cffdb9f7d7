// Package tree keeps the hierarchical test tree: workspace spec directory,
// sub directories, spec files and their test cases.
package tree

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"crspec/internal/domain"
)

// Store owns the test tree. It is safe for concurrent use; callers that need
// a removal and an insertion to appear atomic should use Replace.
type Store struct {
	mu      sync.RWMutex
	specDir string
	roots   []*Node
	index   map[string]*Node
}

// NewStore creates an empty Store. specDir is the conventional spec directory
// name relative to a workspace root, "spec" for Crystal projects.
func NewStore(specDir string) *Store {
	return &Store{
		specDir: specDir,
		index:   make(map[string]*Node),
	}
}

// SpecRoot returns the spec directory of a workspace root
func (s *Store) SpecRoot(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, s.specDir)
}

// Insert adds every test case of the report below the workspace node of
// workspaceRoot. Intermediate directory and file nodes are reused when they
// exist. A case that is already present is replaced in place. Cases whose
// file is outside the spec directory are skipped and reported in the
// returned error.
func (s *Store) Insert(report *domain.TestSuiteReport, workspaceRoot string) error {
	if report == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(report, workspaceRoot)
}

func (s *Store) insert(report *domain.TestSuiteReport, workspaceRoot string) error {
	var errs []error
	specRoot := s.SpecRoot(workspaceRoot)

	for _, tc := range report.TestCases {
		segments, err := pathSegments(specRoot, tc.File)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		file := s.ensurePath(workspaceRoot, segments)
		s.attachCase(file, tc)
	}

	return errors.Join(errs...)
}

// EnsurePath returns the node for the given segments below the workspace
// spec directory, creating any missing workspace, directory or file nodes.
// The last segment is treated as a spec file.
func (s *Store) EnsurePath(workspaceRoot string, segments []string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensurePath(workspaceRoot, segments)
}

func (s *Store) ensurePath(workspaceRoot string, segments []string) *Node {
	specRoot := s.SpecRoot(workspaceRoot)

	parent, ok := s.index[specRoot]
	if !ok {
		parent = newNode(specRoot, filepath.Base(workspaceRoot), specRoot, KindWorkspace, workspaceRoot)
		s.roots = append(s.roots, parent)
		s.index[specRoot] = parent
	}

	for i, segment := range segments {
		path := filepath.Join(parent.URI, segment)
		if existing := parent.Child(path); existing != nil {
			parent = existing
			continue
		}

		kind := KindDirectory
		if i == len(segments)-1 {
			kind = KindFile
		}
		child := newNode(path, segment, path, kind, workspaceRoot)
		parent.addChild(child)
		s.index[path] = child
		parent = child
	}

	return parent
}

func (s *Store) attachCase(file *Node, tc domain.TestCaseRecord) {
	id := tc.Key()

	leaf := file.Child(id)
	if leaf == nil {
		leaf = newNode(id, tc.Name, tc.File, KindCase, file.Workspace)
		file.addChild(leaf)
		s.index[id] = leaf
	} else {
		leaf.Label = tc.Name
		leaf.resetOutcome()
	}

	leaf.Range = nil
	if tc.Line != nil && *tc.Line > 0 {
		line := *tc.Line - 1
		leaf.Range = &Range{StartLine: line, EndLine: line}
	}
}

// Lookup returns the node with the given ID, nil when absent
func (s *Store) Lookup(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index[id]
}

// Ancestry returns the ID of the node followed by the IDs of its ancestors up
// to the workspace node. It returns nil when the node is absent.
func (s *Store) Ancestry(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.index[id]
	if !ok {
		return nil
	}
	var ids []string
	for n := node; n != nil; n = n.parent {
		ids = append(ids, n.ID)
	}
	return ids
}

// Remove deletes the node with the given ID and all its descendants.
// Emptied ancestors are left in place. It reports whether a node was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remove(id)
}

func (s *Store) remove(id string) bool {
	node, ok := s.index[id]
	if !ok {
		return false
	}

	if parent := node.Parent(); parent != nil {
		parent.removeChild(id)
	} else {
		for i, root := range s.roots {
			if root == node {
				s.roots = append(s.roots[:i], s.roots[i+1:]...)
				break
			}
		}
	}

	node.walk(0, func(n *Node, _ int) bool {
		delete(s.index, n.ID)
		return true
	})
	return true
}

// PruneWorkspace removes every top-level node located under workspaceRoot
func (s *Store) PruneWorkspace(workspaceRoot string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, root := range s.roots {
		if IsUnder(root.URI, workspaceRoot) {
			ids = append(ids, root.ID)
		}
	}
	for _, id := range ids {
		s.remove(id)
	}
	return len(ids)
}

// Replace atomically removes the given node IDs and inserts the report
func (s *Store) Replace(ids []string, report *domain.TestSuiteReport, workspaceRoot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.remove(id)
	}
	if report == nil {
		return nil
	}
	return s.insert(report, workspaceRoot)
}

// SetOutcome records the result of a run on a node
func (s *Store) SetOutcome(id string, outcome domain.Outcome, duration time.Duration, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.index[id]
	if !ok {
		return false
	}
	node.Outcome = outcome
	node.Duration = duration
	node.Message = message
	return true
}

// Reset drops the whole tree
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roots = nil
	s.index = make(map[string]*Node)
}

// Roots returns the workspace nodes in insertion order
func (s *Store) Roots() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, len(s.roots))
	copy(out, s.roots)
	return out
}

// Children returns the children of the node with the given ID, or the roots
// when id is empty.
func (s *Store) Children(id string) []*Node {
	if id == "" {
		return s.Roots()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.index[id]
	if !ok {
		return nil
	}
	return node.Children()
}

// Walk visits every node depth-first in insertion order while holding a read
// lock. Returning false from fn stops the walk.
func (s *Store) Walk(fn func(n *Node, depth int) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, root := range s.roots {
		if !root.walk(0, fn) {
			return
		}
	}
}

// Keys returns every node ID in walk order
func (s *Store) Keys() []string {
	var keys []string
	s.Walk(func(n *Node, _ int) bool {
		keys = append(keys, n.ID)
		return true
	})
	return keys
}

// Len returns the number of nodes in the tree
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.index)
}

// CaseCount returns the number of test case leaves
func (s *Store) CaseCount() int {
	count := 0
	s.Walk(func(n *Node, _ int) bool {
		if n.Kind == KindCase {
			count++
		}
		return true
	})
	return count
}

// Args maps a run request onto the runner path arguments, walking every
// workspace node in insertion order.
func (s *Store) Args(req domain.RunRequest) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	includes := req.IncludeSet()
	excludes := req.ExcludeSet()

	var args []string
	for _, root := range s.roots {
		args = append(args, BuildArgs(root, includes, excludes)...)
	}
	return args
}

// IsUnder reports whether path is root itself or located below it
func IsUnder(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

func pathSegments(specRoot, file string) ([]string, error) {
	rel, err := filepath.Rel(specRoot, file)
	if err != nil {
		return nil, fmt.Errorf("test file %s: %w", file, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("test file %s is outside %s", file, specRoot)
	}

	var segments []string
	for _, segment := range strings.Split(rel, string(filepath.Separator)) {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments, nil
}
