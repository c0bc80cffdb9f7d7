package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"crspec/internal/config"
	"crspec/internal/discovery"
	"crspec/internal/domain"
	"crspec/internal/tree"
)

var (
	workspaceColor = color.New(color.FgCyan, color.Bold)
	dirColor       = color.New(color.FgCyan)
	fileColor      = color.New(color.FgYellow)
	passColor      = color.New(color.FgGreen)
	failColor      = color.New(color.FgRed)
	mutedColor     = color.New(color.FgHiBlack)
)

// Formatter formats and displays output
type Formatter struct {
	out         io.Writer
	projectPath string
}

// NewFormatter creates a new Formatter
func NewFormatter(cfg *config.Config, out io.Writer) *Formatter {
	projectPath := cfg.ProjectPath
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}
	return &Formatter{out: out, projectPath: projectPath}
}

// PrintTree prints the test tree. With a name filter only the spec files
// whose name matches are shown, along with their directories and cases.
// It returns the number of spec files printed.
func (f *Formatter) PrintTree(store *tree.Store, nameFilter string) int {
	var files []string
	store.Walk(func(n *tree.Node, _ int) bool {
		if n.Kind == tree.KindFile {
			files = append(files, n.ID)
		}
		return true
	})

	var keep map[string]bool
	if nameFilter != "" {
		files = discovery.FilterByName(files, nameFilter)
		keep = make(map[string]bool)
		for _, id := range files {
			for _, ancestor := range store.Ancestry(id) {
				keep[ancestor] = true
			}
		}
	}

	if len(files) == 0 {
		color.New(color.FgYellow).Fprintln(f.out, "No tests found")
		return 0
	}

	cases := 0
	for _, id := range files {
		cases += len(store.Children(id))
	}
	passColor.Fprintf(f.out, "Found %d spec file(s) with %d test case(s):\n\n", len(files), cases)

	roots := visible(store.Roots(), keep)
	for i, root := range roots {
		workspaceColor.Fprintf(f.out, "%s %s\n", root.Label, mutedColor.Sprintf("(%s)", f.relPath(root.URI)))
		f.printChildren(root, "", keep)
		if i < len(roots)-1 {
			fmt.Fprintln(f.out)
		}
	}
	return len(files)
}

func visible(nodes []*tree.Node, keep map[string]bool) []*tree.Node {
	if keep == nil {
		return nodes
	}
	var out []*tree.Node
	for _, n := range nodes {
		if keep[n.ID] || (n.Kind == tree.KindCase && keep[n.Parent().ID]) {
			out = append(out, n)
		}
	}
	return out
}

func (f *Formatter) printChildren(node *tree.Node, prefix string, keep map[string]bool) {
	children := visible(node.Children(), keep)
	for i, child := range children {
		last := i == len(children)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		fmt.Fprintf(f.out, "%s%s%s\n", prefix, connector, nodeText(child))
		f.printChildren(child, childPrefix, keep)
	}
}

func nodeText(n *tree.Node) string {
	switch n.Kind {
	case tree.KindDirectory:
		return dirColor.Sprint(n.Label + "/")
	case tree.KindFile:
		return fileColor.Sprint(n.Label)
	}

	label := n.Label
	if n.Range != nil {
		label += mutedColor.Sprintf(":%d", n.Range.StartLine+1)
	}

	switch n.Outcome {
	case domain.OutcomePassed:
		return passColor.Sprint("✓ ") + label + mutedColor.Sprintf(" (%s)", n.Duration)
	case domain.OutcomeFailed:
		return failColor.Sprint("✗ ") + label + mutedColor.Sprintf(" (%s)", n.Duration)
	case domain.OutcomeErrored:
		return failColor.Sprint("! ") + label + mutedColor.Sprintf(" (%s)", n.Duration)
	default:
		return label
	}
}

// PrintRunSummary displays the statistics of a stored run followed by a
// tree of its failures
func (f *Formatter) PrintRunSummary(output *domain.TestResultsOutput) {
	meta := output.Meta

	fmt.Fprint(f.out, "\n")
	color.New(color.FgCyan).Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	color.New(color.FgCyan).Fprintln(f.out, "║                    Spec Execution Statistics                  ║")
	color.New(color.FgCyan).Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	white := color.New(color.FgWhite)
	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Run ID", meta.RunID, white},
		{"Workspaces", fmt.Sprint(meta.Workspaces), white},
		{"Total Test Cases", fmt.Sprint(meta.TotalTestCases), white},
		{"Passed Test Cases", fmt.Sprint(meta.PassedTestCases), passColor},
		{"Failed Test Cases", fmt.Sprint(meta.FailedTestCases), failColor},
		{"Errored Test Cases", fmt.Sprint(meta.ErroredCases), failColor},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Timestamp", meta.Timestamp, white},
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬──────────────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-36s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, "├─────────────────────────────────┼──────────────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴──────────────────────────────────────┘")

	fmt.Fprintln(f.out)
	switch {
	case meta.Error != "":
		failColor.Fprintf(f.out, "✗ Run aborted: %s\n", meta.Error)
	case meta.FailedTestCases+meta.ErroredCases == 0:
		passColor.Fprintln(f.out, "✓ All specs passed!")
		return
	default:
		failColor.Fprintf(f.out, "✗ %d test case(s) failed, %d errored\n", meta.FailedTestCases, meta.ErroredCases)
	}

	if len(output.Details) > 0 {
		fmt.Fprintln(f.out)
		f.printFailedTestsTree(output.Details)
	}
}

// TreeNode represents a node in the failure tree
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.TestFailure
	IsFile   bool
}

// printFailedTestsTree prints failures grouped by directory and file
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	root := &TreeNode{Children: make(map[string]*TreeNode)}

	for _, failure := range failures {
		parts := strings.Split(filepath.ToSlash(f.relPath(failure.FilePath)), "/")
		current := root
		for i, part := range parts {
			if part == "" {
				continue
			}
			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
					IsFile:   i == len(parts)-1,
				}
			}
			current = current.Children[part]
		}
		current.Failures = append(current.Failures, failure)
	}

	f.printTreeNode(root, "")
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string) {
	var keys []string
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		last := i == len(keys)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if child.IsFile {
			fmt.Fprintf(f.out, "%s%s%s\n", prefix, connector, fileColor.Sprint(child.Name))
			for j, failure := range child.Failures {
				caseConnector := "├── "
				if j == len(child.Failures)-1 {
					caseConnector = "└── "
				}
				text := failure.TestName
				if failure.Line > 0 {
					text += fmt.Sprintf(":%d", failure.Line)
				}
				fmt.Fprintf(f.out, "%s%s%s\n", childPrefix, caseConnector, failColor.Sprint(text))
			}
			continue
		}

		fmt.Fprintf(f.out, "%s%s%s\n", prefix, connector, dirColor.Sprint(child.Name))
		f.printTreeNode(child, childPrefix)
	}
}

// relPath returns path relative to the project when it is inside it
func (f *Formatter) relPath(path string) string {
	if f.projectPath == "" {
		return path
	}
	rel, err := filepath.Rel(f.projectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
