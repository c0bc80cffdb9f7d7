package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crspec/internal/discovery"
	"crspec/internal/logging"
	"crspec/internal/watch"
)

// WatchCommand handles the watch command
type WatchCommand struct {
	app *App
}

// NewWatchCommand creates a new WatchCommand
func NewWatchCommand(app *App) *WatchCommand {
	return &WatchCommand{app: app}
}

// HandleSave rediscovers the saved file and prints the updated tree
func (wc *WatchCommand) HandleSave(ctx context.Context, path string) (bool, error) {
	handled, err := wc.app.Controller.HandleSave(ctx, path)
	if handled && err == nil {
		color.Cyan("\n%s saved\n", path)
		wc.app.Formatter.PrintTree(wc.app.Controller.Store(), "")
	}
	return handled, err
}

// Execute runs the command
func (wc *WatchCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := wc.app.Config
	c := wc.app.Controller

	if !requireWorkspaces(wc.app) {
		return nil
	}
	if err := c.DiscoverAll(ctx); err != nil {
		color.Red("Discovery failed for some workspaces, the tree may be incomplete\n")
	}
	wc.app.Formatter.PrintTree(c.Store(), "")

	scanner := discovery.NewScanner(cfg.PathsToIgnore, discovery.NewFilter(cfg.SpecPattern))
	w, err := watch.New(wc, scanner, logging.For(wc.app.Logger, "watch"), cfg.Debounce)
	if err != nil {
		return err
	}

	files := 0
	for _, root := range c.Workspaces() {
		n, err := w.Add(root, cfg.SpecDir)
		if err != nil {
			return err
		}
		files += n
	}

	color.Cyan("\nWatching %d spec file(s), press Ctrl+C to stop", files)
	return w.Run(ctx)
}
