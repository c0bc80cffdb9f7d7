package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"crspec/internal/config"
	"crspec/internal/domain"
	"crspec/internal/storage"
)

// FailureViewer displays the failures of the last run in an interactive tree
type FailureViewer struct {
	storage     storage.Storage
	projectPath string
}

// NewFailureViewer creates a new FailureViewer
func NewFailureViewer(cfg *config.Config, st storage.Storage) *FailureViewer {
	projectPath := cfg.ProjectPath
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}
	return &FailureViewer{storage: st, projectPath: projectPath}
}

// fileGroup holds the failures of one spec file, by index into the details
type fileGroup struct {
	File    string
	Indexes []int
}

// groupByFile groups failures by spec file in order of first appearance
func groupByFile(details []domain.TestFailure) []fileGroup {
	var groups []fileGroup
	position := make(map[string]int)
	for i, failure := range details {
		g, ok := position[failure.FilePath]
		if !ok {
			g = len(groups)
			position[failure.FilePath] = g
			groups = append(groups, fileGroup{File: failure.FilePath})
		}
		groups[g].Indexes = append(groups[g].Indexes, i)
	}
	return groups
}

func countUnresolved(details []domain.TestFailure) int {
	count := 0
	for _, failure := range details {
		if !failure.Resolved {
			count++
		}
	}
	return count
}

// failureLabel is the tree text of a failure, using tview color tags
func failureLabel(failure domain.TestFailure, number int) string {
	name := failure.TestName
	if name == "" {
		name = fmt.Sprintf("Test %d", number)
	}
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ %s[white]", name)
	}
	if failure.Outcome == domain.OutcomeErrored.String() {
		return fmt.Sprintf("[red]![white] %s", name)
	}
	return fmt.Sprintf("[red]✗[white] %s", name)
}

// View displays the failures in an interactive TUI
func (v *FailureViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No spec failures found!")
		return nil
	}
	details := results.Details

	app := tview.NewApplication()

	root := tview.NewTreeNode(fmt.Sprintf("Run %s", results.Meta.RunID)).
		SetColor(tcell.ColorDarkCyan).
		SetSelectable(false)
	failureNodes := make(map[int]*tview.TreeNode)

	for _, group := range groupByFile(details) {
		fileNode := tview.NewTreeNode(v.relPath(group.File)).
			SetColor(tcell.ColorYellow).
			SetExpanded(true)
		for _, i := range group.Indexes {
			node := tview.NewTreeNode(failureLabel(details[i], i+1)).SetReference(i)
			fileNode.AddChild(node)
			failureNodes[i] = node
		}
		root.AddChild(fileNode)
	}

	treeView := tview.NewTreeView().
		SetRoot(root).
		SetTopLevel(1).
		SetGraphics(true)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(treeView, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		headerView.SetText(fmt.Sprintf(" Spec Failures (%d total, %d unresolved) | Use ↑↓ to navigate, [yellow]R[white] to mark resolved, → to view details, ← to go back, Ctrl+C to exit ",
			len(details), countUnresolved(details)))
	}

	selected := func() (int, bool) {
		node := treeView.GetCurrentNode()
		if node == nil {
			return 0, false
		}
		i, ok := node.GetReference().(int)
		return i, ok
	}

	updateDetails := func() {
		i, ok := selected()
		if !ok {
			statsView.SetText("")
			detailsView.SetText("")
			return
		}
		statsView.SetText(formatFailureStats(details[i], v.relPath(details[i].FilePath)))
		detailsView.SetText(formatFailureDetails(details[i]))
		detailsView.ScrollToBeginning()
	}

	treeView.SetChangedFunc(func(*tview.TreeNode) {
		updateDetails()
	})

	treeView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			if _, ok := selected(); ok {
				app.SetFocus(detailsView)
				return nil
			}
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				i, ok := selected()
				if !ok {
					return nil
				}
				resolved := !details[i].Resolved
				if err := v.storage.SetResolved(details[i].NodeID, resolved); err != nil {
					statsView.SetText(fmt.Sprintf("[red]%s[white]", tview.Escape(err.Error())))
					return nil
				}
				details[i].Resolved = resolved
				failureNodes[i].SetText(failureLabel(details[i], i+1))
				updateHeader()
				updateDetails()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(treeView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	// select the first failure
	if children := root.GetChildren(); len(children) > 0 && len(children[0].GetChildren()) > 0 {
		treeView.SetCurrentNode(children[0].GetChildren()[0])
	}
	updateHeader()
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(treeView).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

// formatFailureDetails formats a failure for display using tview color tags
func formatFailureDetails(failure domain.TestFailure) string {
	var builder strings.Builder

	marker := "✗"
	if failure.Outcome == domain.OutcomeErrored.String() {
		marker = "!"
	}
	fmt.Fprintf(&builder, "[red]%s %s[white]\n\n", marker, tview.Escape(failure.TestName))

	fmt.Fprintf(&builder, "[cyan]File: %s[white]\n", tview.Escape(failure.FilePath))
	if failure.Line > 0 {
		fmt.Fprintf(&builder, "[yellow]Location: %s:%d[white]\n", tview.Escape(failure.FilePath), failure.Line)
	}
	if failure.Duration != "" {
		fmt.Fprintf(&builder, "[gray]Duration: %s[white]\n", failure.Duration)
	}
	builder.WriteString("\n")

	if failure.Message != "" {
		fmt.Fprintf(&builder, "[yellow]Message:[white]\n%s\n", tview.Escape(failure.Message))
	}

	return builder.String()
}

// formatFailureStats formats the header line of a failure
func formatFailureStats(failure domain.TestFailure, path string) string {
	if path == "" {
		path = "Unknown path"
	}
	status := failure.Outcome
	if failure.Resolved {
		status = "resolved"
	}
	return fmt.Sprintf("[cyan]path:[white] [yellow]%s[white] [cyan]case:[white] [yellow]%s[white] [gray](%s)[white]\n",
		tview.Escape(path), tview.Escape(failure.TestName), status)
}

func (v *FailureViewer) relPath(path string) string {
	rel, err := filepath.Rel(v.projectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
