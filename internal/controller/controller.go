// Package controller drives discovery and runs: it invokes the runner per
// workspace, parses the report and keeps the test tree in sync.
package controller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crspec/internal/config"
	"crspec/internal/discovery"
	"crspec/internal/domain"
	"crspec/internal/execution"
	"crspec/internal/logging"
	"crspec/internal/parser"
	"crspec/internal/reconcile"
	"crspec/internal/tree"
)

// Options carries the collaborators of a Controller. Nil fields get the
// default implementation for Config.
type Options struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Runner    execution.Invoker
	Parser    parser.ReportParser
	Store     *tree.Store
	Scheduler execution.Scheduler
}

// Controller owns the test tree and everything that updates it
type Controller struct {
	cfg        *config.Config
	logger     zerolog.Logger
	runner     execution.Invoker
	parser     parser.ReportParser
	store      *tree.Store
	scheduler  execution.Scheduler
	reconciler *reconcile.Reconciler
	filter     *discovery.Filter

	// serializes tree rebuilds so a save and a refresh never interleave
	mu sync.Mutex

	wsMu       sync.RWMutex
	candidates []string
	workspaces []string
}

// New creates a new Controller. Workspaces are recognized among the
// configured roots right away.
func New(opts Options) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}
	logger := opts.Logger

	c := &Controller{
		cfg:        cfg,
		logger:     logging.For(logger, "controller"),
		runner:     opts.Runner,
		parser:     opts.Parser,
		store:      opts.Store,
		scheduler:  opts.Scheduler,
		filter:     discovery.NewFilter(cfg.SpecPattern),
		candidates: cfg.GetWorkspaces(),
	}
	if c.runner == nil {
		c.runner = NewRunner(cfg, logger)
	}
	if c.parser == nil {
		c.parser = parser.NewJUnitParser()
	}
	if c.store == nil {
		c.store = tree.NewStore(cfg.SpecDir)
	}
	if c.scheduler == nil {
		c.scheduler = execution.NewWorkspaceScheduler()
	}
	c.reconciler = reconcile.New(c.store, logging.For(logger, "reconcile"))

	c.RefreshWorkspaces()
	return c
}

// NewRunner builds the runner described by the config
func NewRunner(cfg *config.Config, logger zerolog.Logger) *execution.Runner {
	var opts []execution.RunnerOption
	if cfg.StrictExit {
		opts = append(opts, execution.WithExitPolicy(execution.ExitStrict))
	}
	if cfg.LockWorkspaces {
		opts = append(opts, execution.WithWorkspaceLocks(execution.NewWorkspaceLocks(cfg.LockDir)))
	}
	return execution.NewRunner(logging.For(logger, "runner"), opts...)
}

// Store returns the test tree
func (c *Controller) Store() *tree.Store {
	return c.store
}

// Workspaces returns the recognized workspace roots
func (c *Controller) Workspaces() []string {
	c.wsMu.RLock()
	defer c.wsMu.RUnlock()

	return slices.Clone(c.workspaces)
}

// RefreshWorkspaces recognizes the workspaces among the candidate roots again
func (c *Controller) RefreshWorkspaces() []string {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	c.workspaces = discovery.Recognize(c.candidates, c.cfg.ManifestFile, c.cfg.SpecDir)
	for _, root := range c.workspaces {
		c.logger.Debug().Str("workspace", root).Msg("recognized workspace")
	}
	return slices.Clone(c.workspaces)
}

// AddWorkspace registers a new root and discovers its tests
func (c *Controller) AddWorkspace(ctx context.Context, root string) error {
	root = absPath(root)
	c.logger.Info().Msgf("Adding folder to workspace: %s", root)

	c.wsMu.Lock()
	if !slices.Contains(c.candidates, root) {
		c.candidates = append(c.candidates, root)
	}
	c.wsMu.Unlock()

	if !slices.Contains(c.RefreshWorkspaces(), root) {
		return fmt.Errorf("%w: %s", ErrNotWorkspace, root)
	}
	return c.Discover(ctx, root)
}

// RemoveWorkspace forgets a root and prunes its nodes from the tree
func (c *Controller) RemoveWorkspace(root string) int {
	root = absPath(root)
	c.logger.Info().Msgf("Removing folder from workspace: %s", root)

	c.wsMu.Lock()
	c.candidates = slices.DeleteFunc(c.candidates, func(r string) bool { return r == root })
	c.wsMu.Unlock()
	c.RefreshWorkspaces()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.PruneWorkspace(root)
}

// Discover runs the specs of a workspace, or only the given files, and
// rebuilds the matching part of the tree from the report. An empty suite is
// logged and leaves the tree unchanged.
func (c *Controller) Discover(ctx context.Context, root string, files ...string) error {
	_, err := c.discover(ctx, root, files)
	return err
}

// discover returns the report the tree was rebuilt from, nil for an empty
// suite.
func (c *Controller) discover(ctx context.Context, root string, files []string) (*domain.TestSuiteReport, error) {
	report, err := c.collect(ctx, root, files)
	if errors.Is(err, ErrEmptySuite) {
		c.logger.Warn().Str("workspace", root).Strs("files", files).Msg("No tests found")
		return nil, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Str("workspace", root).Msg("discovery failed")
		return nil, err
	}

	replace := files
	if len(replace) == 0 {
		replace = []string{c.store.SpecRoot(root)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Replace(replace, report, root); err != nil {
		c.logger.Warn().Err(err).Str("workspace", root).Msg("some test cases were skipped")
	}
	c.logger.Info().Str("workspace", root).Int("tests", len(report.TestCases)).Msg("Success!")
	return report, nil
}

// DiscoverAll discovers every recognized workspace in order
func (c *Controller) DiscoverAll(ctx context.Context) error {
	if !c.cfg.Specs {
		c.logger.Info().Msg("spec discovery is disabled")
		return nil
	}

	var errs []error
	for _, root := range c.Workspaces() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Discover(ctx, root); err != nil {
			errs = append(errs, fmt.Errorf("workspace %s: %w", root, err))
		}
	}
	return errors.Join(errs...)
}

// Refresh drops the whole tree, recognizes workspaces again and rediscovers
// them
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.store.Reset()
	c.mu.Unlock()

	c.RefreshWorkspaces()
	return c.DiscoverAll(ctx)
}

// HandleSave rediscovers a saved spec file. It reports false, without
// running anything, when path is not a spec file of a recognized workspace.
func (c *Controller) HandleSave(ctx context.Context, path string) (bool, error) {
	if !c.cfg.Specs {
		return false, nil
	}
	path = absPath(path)

	batches, _ := c.scheduler.Schedule([]string{path}, c.Workspaces())
	if len(batches) == 0 || !c.filter.Match(batches[0].Workspace, path) {
		c.logger.Debug().Str("file", path).Msg("ignoring save of non spec file")
		return false, nil
	}

	return true, c.Discover(ctx, batches[0].Workspace, path)
}

// Run executes the selected part of the tree, one runner invocation per
// workspace, and records the outcomes on the tree. Failed invocations are
// never reconciled. The returned session is non-nil and carries the error.
func (c *Controller) Run(ctx context.Context, req domain.RunRequest, progress Progress) (*RunSession, error) {
	session := newSession(req)
	defer func() {
		session.Duration = time.Since(session.Started)
		if progress != nil {
			progress.Finish()
		}
	}()

	if req.Ambiguous() {
		c.logger.Error().Strs("include", req.Include).Strs("exclude", req.Exclude).Msg("rejecting run request")
		session.Err = ErrAmbiguousSelection
		return session, session.Err
	}

	args := c.store.Args(req)
	batches, unmatched := c.scheduler.Schedule(args, c.Workspaces())
	for _, path := range unmatched {
		c.logger.Warn().Str("path", path).Msg("path is outside every workspace")
	}
	session.Workspaces = len(batches)

	for _, batch := range batches {
		report, err := c.collect(ctx, batch.Workspace, batch.Paths)
		if errors.Is(err, ErrEmptySuite) {
			c.logger.Warn().Str("workspace", batch.Workspace).Msg("No tests found")
			continue
		}
		if err != nil {
			c.logger.Error().Err(err).Str("workspace", batch.Workspace).Msg("run failed")
			session.Err = err
			return session, err
		}

		session.Events = append(session.Events, c.reconciler.Reconcile(report, req)...)
		if progress != nil {
			passed, failed, errored := session.Counts()
			progress.Update(passed, failed+errored)
		}
	}

	return session, nil
}

// DiscoverAndRun discovers every recognized workspace and records the
// outcomes of that same pass for the cases selected by the request that
// selection builds from the discovered tree. The suite runs once per
// workspace. Like Run, it stops at the first failing workspace and never
// reconciles once ctx is cancelled.
func (c *Controller) DiscoverAndRun(ctx context.Context, selection func(*tree.Store) domain.RunRequest, progress Progress) (*RunSession, error) {
	session := newSession(domain.RunRequest{})
	defer func() {
		session.Duration = time.Since(session.Started)
		if progress != nil {
			progress.Finish()
		}
	}()

	if !c.cfg.Specs {
		c.logger.Info().Msg("spec discovery is disabled")
		return session, nil
	}

	type discovered struct {
		root   string
		report *domain.TestSuiteReport
	}
	var reports []discovered
	for _, root := range c.Workspaces() {
		report, err := c.discover(ctx, root, nil)
		if err != nil {
			session.Err = fmt.Errorf("workspace %s: %w", root, err)
			return session, session.Err
		}
		if report != nil {
			reports = append(reports, discovered{root: root, report: report})
		}
	}

	if selection != nil {
		session.Request = selection(c.store)
	}
	req := session.Request
	if req.Ambiguous() {
		c.logger.Error().Strs("include", req.Include).Strs("exclude", req.Exclude).Msg("rejecting run request")
		session.Err = ErrAmbiguousSelection
		return session, session.Err
	}

	for _, d := range reports {
		if err := ctx.Err(); err != nil {
			session.Err = err
			return session, err
		}
		events := c.reconciler.Reconcile(d.report, req)
		if len(events) == 0 {
			continue
		}
		session.Workspaces++
		session.Events = append(session.Events, events...)
		if progress != nil {
			passed, failed, errored := session.Counts()
			progress.Update(passed, failed+errored)
		}
	}

	return session, nil
}

// collect invokes the runner in root and parses its report. Relative file
// names in the report are resolved against root. A report collected while
// ctx was cancelled is dropped.
func (c *Controller) collect(ctx context.Context, root string, args []string) (*domain.TestSuiteReport, error) {
	inv, err := c.runner.Run(ctx, root, c.cfg.Compiler, args)
	if err != nil {
		return nil, err
	}

	report, err := c.parser.Parse(inv.Report)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crystal spec in %s: %w", root, err)
	}
	if report.Empty() {
		return nil, ErrEmptySuite
	}

	for i := range report.TestCases {
		if file := report.TestCases[i].File; file != "" && !filepath.IsAbs(file) {
			report.TestCases[i].File = filepath.Join(root, file)
		}
	}
	return report, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
