// Package tool wraps the `crystal tool` subcommands that answer questions
// about a source position.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"crspec/internal/execution"
)

const (
	SubcommandExpand  = "expand"
	SubcommandContext = "context"

	noExpansionMarker = "no expansion found"
	noContextMarker   = "no context information found"
)

var (
	// ErrNoExpansion is returned when there is no macro call at the cursor
	ErrNoExpansion = errors.New("no expansion found")
	// ErrNoContext is returned when the compiler knows nothing about the cursor
	ErrNoContext = errors.New("no context information found")
)

// Position is a 1-based cursor in a source file
type Position struct {
	File   string
	Line   int
	Column int
}

// ParsePosition parses "file:line:column"
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return Position{}, fmt.Errorf("invalid position %q, expected file:line:column", s)
	}

	n := len(parts)
	line, err := strconv.Atoi(parts[n-2])
	if err != nil || line < 1 {
		return Position{}, fmt.Errorf("invalid line in %q", s)
	}
	column, err := strconv.Atoi(parts[n-1])
	if err != nil || column < 1 {
		return Position{}, fmt.Errorf("invalid column in %q", s)
	}

	file := strings.Join(parts[:n-2], ":")
	if file == "" {
		return Position{}, fmt.Errorf("missing file in %q", s)
	}
	return Position{File: file, Line: line, Column: column}, nil
}

// Cursor returns the --cursor argument for the position
func (p Position) Cursor() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Tool runs `<compiler> tool <subcommand> <file> --cursor <file>:<line>:<column>`
type Tool struct {
	compiler string
	logger   zerolog.Logger
}

// New creates a new Tool
func New(compiler string, logger zerolog.Logger) *Tool {
	return &Tool{compiler: compiler, logger: logger}
}

// Expand returns the macro expansion at the position
func (t *Tool) Expand(ctx context.Context, workDir string, pos Position) (string, error) {
	out, err := t.run(ctx, workDir, SubcommandExpand, pos)
	if err != nil {
		return "", err
	}
	if strings.Contains(out, noExpansionMarker) {
		t.logger.Debug().Msgf("No macro expansion at %s", pos.Cursor())
		return "", ErrNoExpansion
	}
	return out, nil
}

// Context returns the variables and their types visible at the position
func (t *Tool) Context(ctx context.Context, workDir string, pos Position) (string, error) {
	out, err := t.run(ctx, workDir, SubcommandContext, pos)
	if err != nil {
		return "", err
	}
	if strings.Contains(out, noContextMarker) {
		return "", ErrNoContext
	}
	return out, nil
}

func (t *Tool) run(ctx context.Context, workDir, subcommand string, pos Position) (string, error) {
	args := []string{"tool", subcommand, pos.File, "--cursor", pos.Cursor()}
	t.logger.Debug().Str("workdir", workDir).Msgf("Executing: %s %s", t.compiler, strings.Join(args, " "))

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, t.compiler, args...)
	cmd.Dir = workDir
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &execution.SpawnError{Executable: t.compiler, Message: err.Error(), Err: err}
	}

	err := cmd.Wait()
	out := strings.Trim(output.String(), "\n")
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.logger.Error().Int("exit_code", exitErr.ExitCode()).Msg(out)
		return "", &execution.ExitError{Code: exitErr.ExitCode(), Output: out}
	}
	if err != nil {
		return "", fmt.Errorf("wait for crystal tool: %w", err)
	}
	return out, nil
}
