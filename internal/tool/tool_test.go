package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crspec/internal/execution"
)

func writeFakeCrystal(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crystal")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		input   string
		want    Position
		wantErr bool
	}{
		{input: "src/app.cr:12:5", want: Position{File: "src/app.cr", Line: 12, Column: 5}},
		{input: "C:/src/app.cr:1:1", want: Position{File: "C:/src/app.cr", Line: 1, Column: 1}},
		{input: "src/app.cr:12", wantErr: true},
		{input: "src/app.cr:x:5", wantErr: true},
		{input: "src/app.cr:0:5", wantErr: true},
		{input: ":1:1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePosition(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.Cursor())
		})
	}
}

func TestTool_Expand(t *testing.T) {
	crystal := writeFakeCrystal(t, `printf '\n\n%s\n' "$*"`)
	tool := New(crystal, zerolog.Nop())

	out, err := tool.Expand(context.Background(), t.TempDir(), Position{File: "src/app.cr", Line: 3, Column: 7})
	require.NoError(t, err)
	assert.Equal(t, "tool expand src/app.cr --cursor src/app.cr:3:7", out)
}

func TestTool_Context(t *testing.T) {
	crystal := writeFakeCrystal(t, `echo "$2"; pwd`)
	workDir := t.TempDir()

	out, err := New(crystal, zerolog.Nop()).Context(context.Background(), workDir, Position{File: "a.cr", Line: 1, Column: 1})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Equal(t, "context\n"+want, out)
}

func TestTool_Errors(t *testing.T) {
	pos := Position{File: "a.cr", Line: 1, Column: 1}

	t.Run("no expansion", func(t *testing.T) {
		crystal := writeFakeCrystal(t, `echo "no expansion found"`)
		_, err := New(crystal, zerolog.Nop()).Expand(context.Background(), t.TempDir(), pos)
		assert.ErrorIs(t, err, ErrNoExpansion)
	})

	t.Run("no context", func(t *testing.T) {
		crystal := writeFakeCrystal(t, `echo "no context information found"`)
		_, err := New(crystal, zerolog.Nop()).Context(context.Background(), t.TempDir(), pos)
		assert.ErrorIs(t, err, ErrNoContext)
	})

	t.Run("non zero exit", func(t *testing.T) {
		crystal := writeFakeCrystal(t, `echo "Error: can't find file" >&2; exit 1`)
		_, err := New(crystal, zerolog.Nop()).Expand(context.Background(), t.TempDir(), pos)

		var exitErr *execution.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.Code)
		assert.Equal(t, "Error: can't find file", exitErr.Output)
	})

	t.Run("cancelled", func(t *testing.T) {
		crystal := writeFakeCrystal(t, `echo expanded`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(crystal, zerolog.Nop()).Expand(ctx, t.TempDir(), pos)
		assert.ErrorIs(t, err, context.Canceled)

		var spawnErr *execution.SpawnError
		assert.False(t, errors.As(err, &spawnErr))
	})

	t.Run("spawn error", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing"), zerolog.Nop()).Expand(context.Background(), t.TempDir(), pos)

		var spawnErr *execution.SpawnError
		assert.ErrorAs(t, err, &spawnErr)
	})
}
