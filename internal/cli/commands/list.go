package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ListCommand handles the list command
type ListCommand struct {
	app *App
}

// NewListCommand creates a new ListCommand
func NewListCommand(app *App) *ListCommand {
	return &ListCommand{app: app}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	c := lc.app.Controller
	if !requireWorkspaces(lc.app) {
		return nil
	}

	err := c.DiscoverAll(cmd.Context())
	if err != nil {
		color.Red("Discovery failed for some workspaces, the tree may be incomplete\n")
	}

	lc.app.Formatter.PrintTree(c.Store(), lc.app.Config.Flags.NameFilter)
	return err
}

// requireWorkspaces prints a hint and reports false when no workspace was recognized
func requireWorkspaces(app *App) bool {
	if len(app.Controller.Workspaces()) > 0 {
		return true
	}
	color.Yellow("No crystal workspaces found (a workspace needs %s and a %s/ directory)",
		app.Config.ManifestFile, app.Config.SpecDir)
	return false
}
