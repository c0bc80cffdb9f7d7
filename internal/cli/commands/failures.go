package commands

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crspec/internal/storage"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	app *App
}

// NewFailuresCommand creates a new FailuresCommand
func NewFailuresCommand(app *App) *FailuresCommand {
	return &FailuresCommand{app: app}
}

// Execute runs the command
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	results, err := fc.app.Storage.Load()
	if errors.Is(err, storage.ErrNoResults) {
		color.Yellow("No stored results, run `crspec run` first")
		return nil
	}
	if err != nil {
		return err
	}

	return fc.app.Viewer.View(results)
}
