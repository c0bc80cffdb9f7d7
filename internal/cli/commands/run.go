package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crspec/internal/controller"
	"crspec/internal/domain"
	"crspec/internal/tree"
	"crspec/internal/ui"
)

// ErrSpecsFailed is returned when a run finished with failed or errored specs
var ErrSpecsFailed = errors.New("specs failed")

// RunCommand handles the run command
type RunCommand struct {
	app *App
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(app *App) *RunCommand {
	return &RunCommand{app: app}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := rc.app.Controller
	flags := rc.app.Config.Flags

	if !requireWorkspaces(rc.app) {
		return nil
	}

	if len(flags.Include) > 0 && len(flags.Exclude) > 0 {
		return controller.ErrAmbiguousSelection
	}

	// Discovery runs the whole suite, its outcomes are the run's results
	progressBar := ui.NewProgressBar(-1, os.Stderr)
	selection := func(store *tree.Store) domain.RunRequest {
		return domain.RunRequest{
			Include: resolveIDs(store, flags.Include),
			Exclude: resolveIDs(store, flags.Exclude),
		}
	}
	session, runErr := c.DiscoverAndRun(ctx, selection, progressBar)
	if runErr == nil && c.Store().CaseCount() == 0 {
		color.Yellow("No specs to execute")
		return nil
	}
	results := session.Results()

	// Save results
	if !flags.NoSave {
		if err := rc.app.Storage.Save(&results); err != nil {
			return fmt.Errorf("failed to save test results: %w", err)
		}
	}

	rc.app.Formatter.PrintRunSummary(&results)
	if runErr != nil {
		return runErr
	}

	if len(results.Details) == 0 {
		return nil
	}
	if flags.OpenFails && !flags.NoSave {
		if err := rc.app.Viewer.View(&results); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %d failed, %d errored", ErrSpecsFailed, results.Meta.FailedTestCases, results.Meta.ErroredCases)
}

// resolveIDs maps node IDs given on the command line onto tree IDs. Relative
// directory and file paths are made absolute; unknown IDs are kept and
// reported.
func resolveIDs(store *tree.Store, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if store.Lookup(id) == nil {
			if abs, err := filepath.Abs(id); err == nil && store.Lookup(abs) != nil {
				id = abs
			} else {
				color.Yellow("Unknown node %q, it will not match anything", id)
			}
		}
		out = append(out, id)
	}
	return out
}
