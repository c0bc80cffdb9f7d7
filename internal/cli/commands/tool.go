package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crspec/internal/execution"
	"crspec/internal/tool"
)

// ToolCommand handles the expand and context commands
type ToolCommand struct {
	app *App
}

// NewToolCommand creates a new ToolCommand
func NewToolCommand(app *App) *ToolCommand {
	return &ToolCommand{app: app}
}

// Execute returns the cobra handler for a crystal tool subcommand
func (tc *ToolCommand) Execute(subcommand string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		pos, err := tool.ParsePosition(args[0])
		if err != nil {
			return err
		}
		if abs, err := filepath.Abs(pos.File); err == nil {
			pos.File = abs
		}

		// run in the owning workspace, or next to the file outside of any
		workDir := filepath.Dir(pos.File)
		batches, _ := execution.NewWorkspaceScheduler().Schedule([]string{pos.File}, tc.app.Controller.Workspaces())
		if len(batches) > 0 {
			workDir = batches[0].Workspace
		}

		var out string
		switch subcommand {
		case tool.SubcommandExpand:
			out, err = tc.app.Tool.Expand(cmd.Context(), workDir, pos)
		default:
			out, err = tc.app.Tool.Context(cmd.Context(), workDir, pos)
		}

		switch {
		case errors.Is(err, tool.ErrNoExpansion):
			color.Yellow("No macro expansion at %s", pos.Cursor())
			return nil
		case errors.Is(err, tool.ErrNoContext):
			color.Yellow("No context information at %s", pos.Cursor())
			return nil
		case err != nil:
			return err
		}

		fmt.Println(out)
		return nil
	}
}
