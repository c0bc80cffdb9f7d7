package tree

import (
	"time"

	"crspec/internal/domain"
)

// Kind tells what a tree node stands for
type Kind int

const (
	KindWorkspace Kind = iota // spec directory of a workspace root
	KindDirectory
	KindFile // a spec file, parent of its test cases
	KindCase
)

func (k Kind) String() string {
	switch k {
	case KindWorkspace:
		return "workspace"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindCase:
		return "case"
	default:
		return "unknown"
	}
}

// Range is a 0-based source position of a test case
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Node is a single item of the test tree. Nodes are owned by a Store and
// must only be mutated through it.
type Node struct {
	ID        string // Full directory/file path, or identity key for cases
	Label     string
	URI       string // Filesystem path passed to the runner
	Kind      Kind
	Workspace string // Workspace root the node belongs to
	Range     *Range

	Outcome  domain.Outcome
	Duration time.Duration
	Message  string

	parent   *Node
	children []*Node
	byID     map[string]*Node
}

func newNode(id, label, uri string, kind Kind, workspace string) *Node {
	return &Node{
		ID:        id,
		Label:     label,
		URI:       uri,
		Kind:      kind,
		Workspace: workspace,
	}
}

// Parent returns the parent node, nil for workspace nodes
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node children in insertion order
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the direct child with the given ID
func (n *Node) Child(id string) *Node {
	return n.byID[id]
}

// Len returns the number of direct children
func (n *Node) Len() int {
	return len(n.children)
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

func (n *Node) addChild(child *Node) {
	if n.byID == nil {
		n.byID = make(map[string]*Node)
	}
	child.parent = n
	n.byID[child.ID] = child
	n.children = append(n.children, child)
}

func (n *Node) removeChild(id string) *Node {
	child, ok := n.byID[id]
	if !ok {
		return nil
	}
	delete(n.byID, id)
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
	return child
}

func (n *Node) walk(depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, child := range n.children {
		if !child.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

func (n *Node) resetOutcome() {
	n.Outcome = domain.OutcomeUnknown
	n.Duration = 0
	n.Message = ""
}
