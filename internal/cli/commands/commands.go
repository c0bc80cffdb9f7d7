package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"crspec/internal/cli"
	"crspec/internal/config"
	"crspec/internal/controller"
	"crspec/internal/logging"
	"crspec/internal/storage"
	"crspec/internal/tool"
	"crspec/internal/ui"
)

// App holds the dependencies shared by all commands. They are built by
// Setup once the flags are parsed.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Controller *controller.Controller
	Storage    storage.Storage
	Formatter  *ui.Formatter
	Viewer     ui.Viewer
	Tool       *tool.Tool

	closeLog func() error
}

// NewApp creates an App around cfg
func NewApp(cfg *config.Config) *App {
	return &App{Config: cfg, Logger: zerolog.Nop()}
}

// Setup loads the configuration and wires every dependency
func (a *App) Setup(flags config.Flags) error {
	loaded, err := config.Load(flags)
	if err != nil {
		return err
	}
	*a.Config = *loaded

	logger, closeLog, err := logging.Open(a.Config.LogFile, a.Config.LogLevel)
	if err != nil {
		return err
	}
	a.Logger = logger
	a.closeLog = closeLog

	jsonStorage := storage.NewJSONStorage(a.Config)
	a.Controller = controller.New(controller.Options{Config: a.Config, Logger: logger})
	a.Storage = jsonStorage
	a.Formatter = ui.NewFormatter(a.Config, os.Stdout)
	a.Viewer = ui.NewFailureViewer(a.Config, jsonStorage)
	a.Tool = tool.New(a.Config.Compiler, logging.For(logger, "tool"))
	return nil
}

// Close releases the log file
func (a *App) Close() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// Commands holds all CLI commands
type Commands struct {
	app      *App
	Run      *RunCommand
	List     *ListCommand
	Watch    *WatchCommand
	Failures *FailuresCommand
	Tool     *ToolCommand
}

// NewCommands creates all commands around a shared App
func NewCommands(app *App) *Commands {
	return &Commands{
		app:      app,
		Run:      NewRunCommand(app),
		List:     NewListCommand(app),
		Watch:    NewWatchCommand(app),
		Failures: NewFailuresCommand(app),
		Tool:     NewToolCommand(app),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.app.Setup(flags.ToConfigFlags())
	}
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to the config file (default .crspec.yml)")
	rootCmd.PersistentFlags().StringSliceVarP(&flags.Workspaces, "workspace", "w", nil, "Workspace root to use, may be repeated (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flags.Compiler, "compiler", "", "Path to the crystal compiler")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run crystal specs",
		Long:  "Discover the specs of every workspace and run all of them, or only the selected nodes",
		Args:  cobra.NoArgs,
		RunE:  c.Run.Execute,
	}
	runCmd.Flags().StringArrayVarP(&flags.Include, "include", "i", nil, "Node ID to run (directory, spec file or \"<file> <name>\"), may be repeated")
	runCmd.Flags().StringArrayVarP(&flags.Exclude, "exclude", "e", nil, "Node ID to skip, may be repeated")
	runCmd.Flags().BoolVar(&flags.Strict, "strict", false, "Treat every non-zero exit of crystal as an error")
	runCmd.Flags().BoolVar(&flags.NoSave, "no-save", false, "Do not store the results for the failures viewer")
	runCmd.Flags().BoolVar(&flags.OpenFails, "open-fails", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered specs",
		Long:  "Discover the specs of every workspace and print the test tree",
		Args:  cobra.NoArgs,
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter spec files by name pattern (supports wildcards, e.g., '*user_spec.cr' or '*payment*')")
	rootCmd.AddCommand(listCmd)

	// Watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Rediscover spec files when they are saved",
		Long:  "Discover the specs of every workspace, then rediscover a spec file each time it is saved",
		Args:  cobra.NoArgs,
		RunE:  c.Watch.Execute,
	}
	rootCmd.AddCommand(watchCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "View spec failures interactively",
		Long:  "Display the failures of the last run in an interactive viewer",
		Args:  cobra.NoArgs,
		RunE:  c.Failures.Execute,
	}
	rootCmd.AddCommand(failuresCmd)

	// Tool commands
	expandCmd := &cobra.Command{
		Use:   "expand FILE:LINE:COLUMN",
		Short: "Show the macro expansion at a position",
		Args:  cobra.ExactArgs(1),
		RunE:  c.Tool.Execute(tool.SubcommandExpand),
	}
	rootCmd.AddCommand(expandCmd)

	contextCmd := &cobra.Command{
		Use:   "context FILE:LINE:COLUMN",
		Short: "Show the variables and types visible at a position",
		Args:  cobra.ExactArgs(1),
		RunE:  c.Tool.Execute(tool.SubcommandContext),
	}
	rootCmd.AddCommand(contextCmd)
}
