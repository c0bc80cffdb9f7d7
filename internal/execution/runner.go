package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ExitPolicy decides which exit codes still count as a finished run
type ExitPolicy int

const (
	// ExitTolerant accepts 0 and 1; crystal exits 1 when some specs fail
	ExitTolerant ExitPolicy = iota
	// ExitStrict only accepts 0
	ExitStrict
)

// waitDelay bounds how long Wait keeps reading output after the process
// was killed, in case spawned spec binaries still hold the pipes.
const waitDelay = 2 * time.Second

func (p ExitPolicy) accepts(code int) bool {
	if p == ExitStrict {
		return code == 0
	}
	return code >= 0 && code <= 1
}

// Invocation is the outcome of a runner execution
type Invocation struct {
	WorkDir  string
	Args     []string // Full argument list passed to the executable
	Output   string   // Interleaved stdout and stderr
	ExitCode int
	Report   []byte // Raw report file contents
	Duration time.Duration
}

// Runner executes `crystal spec` with a JUnit report and collects the report.
// Only one invocation may be in flight per Runner.
type Runner struct {
	logger    zerolog.Logger
	policy    ExitPolicy
	tempRoot  string
	locks     *WorkspaceLocks
	executing atomic.Bool
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithExitPolicy sets the accepted exit codes
func WithExitPolicy(policy ExitPolicy) RunnerOption {
	return func(r *Runner) { r.policy = policy }
}

// WithTempRoot sets the parent directory of the per-invocation report dirs
func WithTempRoot(dir string) RunnerOption {
	return func(r *Runner) { r.tempRoot = dir }
}

// WithWorkspaceLocks guards every invocation with a cross-process lock on
// the workspace.
func WithWorkspaceLocks(locks *WorkspaceLocks) RunnerOption {
	return func(r *Runner) { r.locks = locks }
}

// NewRunner creates a new Runner
func NewRunner(logger zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Executing reports whether an invocation is in flight
func (r *Runner) Executing() bool {
	return r.executing.Load()
}

// Run executes `<executable> spec --junit_output <tmp> args...` in workDir and
// returns the captured output along with the report file contents. The
// returned Invocation is non-nil whenever the process was started, so the
// output is available for diagnostics even on error.
func (r *Runner) Run(ctx context.Context, workDir, executable string, args []string) (*Invocation, error) {
	if !r.executing.CompareAndSwap(false, true) {
		r.logger.Warn().Str("workdir", workDir).Msg("crystal is already being executed")
		return nil, ErrAlreadyExecuting
	}
	defer r.executing.Store(false)

	if r.locks != nil {
		unlock, err := r.locks.TryLock(workDir)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	tempDir, err := os.MkdirTemp(r.tempRoot, tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	reportDir := filepath.Join(tempDir, reportDirName)
	commandArgs := append([]string{SpecCommand, ReportFlag, reportDir}, args...)

	inv, err := r.execute(ctx, workDir, executable, commandArgs)
	if err != nil {
		return inv, err
	}

	report, err := readReport(reportDir)
	if err != nil {
		r.logger.Error().Err(err).Str("workdir", workDir).Msg("reading test results failed")
		return inv, err
	}
	inv.Report = report

	return inv, nil
}

func (r *Runner) execute(ctx context.Context, workDir, executable string, args []string) (*Invocation, error) {
	r.logger.Info().Msgf("Executing in %s: %s %s", workDir, executable, strings.Join(args, " "))

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = workDir
	// same writer for both streams keeps them in arrival order
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crystal spec in %s: %w", workDir, err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("crystal spec in %s: %w", workDir, ctxErr)
		}
		spawnErr := &SpawnError{Executable: executable, Message: err.Error(), Err: err}
		r.logger.Error().Err(spawnErr).Str("workdir", workDir).Send()
		return nil, spawnErr
	}

	waitErr := cmd.Wait()
	inv := &Invocation{
		WorkDir:  workDir,
		Args:     args,
		Output:   output.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	r.logger.Debug().
		Str("workdir", workDir).
		Int("exit_code", inv.ExitCode).
		Dur("duration", inv.Duration).
		Msg(inv.Output)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return inv, fmt.Errorf("crystal spec in %s: %w", workDir, ctxErr)
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return inv, fmt.Errorf("wait for crystal spec: %w", waitErr)
	}

	if !r.policy.accepts(inv.ExitCode) {
		err := &ExitError{Code: inv.ExitCode, Output: inv.Output}
		r.logger.Error().Int("exit_code", inv.ExitCode).Str("workdir", workDir).Msg("crystal spec failed")
		return inv, err
	}

	return inv, nil
}

func readReport(reportDir string) ([]byte, error) {
	path := filepath.Join(reportDir, ReportFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ReportMissingError{Path: path}
		}
		return nil, fmt.Errorf("error reading test results file: %w", err)
	}
	return data, nil
}
