package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crspec/internal/cli"
	"crspec/internal/cli/commands"
	"crspec/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "crspec",
		Short:         "Crystal spec discovery and runner",
		Long:          `Discover crystal specs through their JUnit report, keep them in a test tree and run any part of it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	app := commands.NewApp(cfg)
	cmds := commands.NewCommands(app)

	// Register all commands
	cmds.Register(rootCmd, &flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	app.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
