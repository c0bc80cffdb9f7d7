package execution

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeReport = `<testsuite tests="1"><testcase file="/w/spec/a_spec.cr" name="adds" time="0.1"/></testsuite>`

// writeFakeCrystal writes a shell script standing in for the compiler.
// The report directory is the third argument: spec --junit_output <dir>.
func writeFakeCrystal(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crystal")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func writeReportScript(exitCode string) string {
	return `mkdir -p "$3"
cat > "$3/output.xml" <<'XML'
` + fakeReport + `
XML
echo "args: $@"
echo "to stderr" >&2
exit ` + exitCode
}

func newTestRunner(opts ...RunnerOption) *Runner {
	return NewRunner(zerolog.Nop(), opts...)
}

func TestRunner_Run(t *testing.T) {
	crystal := writeFakeCrystal(t, writeReportScript("0"))
	workDir := t.TempDir()
	runner := newTestRunner()

	inv, err := runner.Run(context.Background(), workDir, crystal, []string{"spec/a_spec.cr", "spec/b_spec.cr"})
	require.NoError(t, err)
	require.NotNil(t, inv)

	require.Len(t, inv.Args, 5)
	assert.Equal(t, SpecCommand, inv.Args[0])
	assert.Equal(t, ReportFlag, inv.Args[1])
	assert.Equal(t, reportDirName, filepath.Base(inv.Args[2]))
	assert.Equal(t, []string{"spec/a_spec.cr", "spec/b_spec.cr"}, inv.Args[3:])

	assert.Equal(t, 0, inv.ExitCode)
	assert.Contains(t, inv.Output, "args: spec --junit_output")
	assert.Contains(t, inv.Output, "to stderr")
	assert.Equal(t, fakeReport, strings.TrimSpace(string(inv.Report)))
	assert.Equal(t, workDir, inv.WorkDir)
	assert.False(t, runner.Executing())
}

func TestRunner_RunsInWorkDir(t *testing.T) {
	crystal := writeFakeCrystal(t, `pwd > "$(dirname "$0")/pwd.txt"
mkdir -p "$3" && echo '`+fakeReport+`' > "$3/output.xml"`)
	workDir := t.TempDir()

	_, err := newTestRunner().Run(context.Background(), workDir, crystal, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(filepath.Dir(crystal), "pwd.txt"))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(string(got)))
}

func TestRunner_ExitPolicy(t *testing.T) {
	tests := []struct {
		name     string
		exitCode string
		policy   ExitPolicy
		wantErr  bool
	}{
		{name: "tolerant accepts 0", exitCode: "0", policy: ExitTolerant},
		{name: "tolerant accepts 1", exitCode: "1", policy: ExitTolerant},
		{name: "tolerant rejects 2", exitCode: "2", policy: ExitTolerant, wantErr: true},
		{name: "strict accepts 0", exitCode: "0", policy: ExitStrict},
		{name: "strict rejects 1", exitCode: "1", policy: ExitStrict, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crystal := writeFakeCrystal(t, writeReportScript(tt.exitCode))
			inv, err := newTestRunner(WithExitPolicy(tt.policy)).Run(context.Background(), t.TempDir(), crystal, nil)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotEmpty(t, inv.Report)
				return
			}

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
			assert.Equal(t, inv.ExitCode, exitErr.Code)
			assert.Contains(t, exitErr.Output, "to stderr")
			assert.Contains(t, exitErr.Output, "args: spec")
			assert.Nil(t, inv.Report)
		})
	}
}

func TestRunner_SpawnError(t *testing.T) {
	runner := newTestRunner()

	inv, err := runner.Run(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "no-crystal"), nil)
	assert.Nil(t, inv)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr), "expected SpawnError, got %v", err)
	assert.NotEmpty(t, spawnErr.Message)
	assert.False(t, runner.Executing())
}

func TestRunner_ReportMissing(t *testing.T) {
	crystal := writeFakeCrystal(t, `echo "no specs"; exit 0`)

	inv, err := newTestRunner().Run(context.Background(), t.TempDir(), crystal, nil)
	require.NotNil(t, inv)
	assert.Contains(t, inv.Output, "no specs")

	var missing *ReportMissingError
	require.True(t, errors.As(err, &missing), "expected ReportMissingError, got %v", err)
	assert.Equal(t, ReportFileName, filepath.Base(missing.Path))
}

func TestRunner_SingleFlight(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	release := filepath.Join(t.TempDir(), "release")
	crystal := writeFakeCrystal(t, `echo run >> "`+counter+`"
while [ ! -f "`+release+`" ]; do sleep 0.05; done
`+writeReportScript("0"))

	runner := newTestRunner()
	workDir := t.TempDir()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = runner.Run(context.Background(), workDir, crystal, nil)
	}()

	require.Eventually(t, runner.Executing, 5*time.Second, 10*time.Millisecond)

	inv, err := runner.Run(context.Background(), workDir, crystal, nil)
	assert.Nil(t, inv)
	assert.ErrorIs(t, err, ErrAlreadyExecuting)

	require.NoError(t, os.WriteFile(release, nil, 0644))
	wg.Wait()
	require.NoError(t, firstErr)

	runs, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(runs), "run"))

	// settled runner accepts the next invocation
	_, err = runner.Run(context.Background(), workDir, crystal, nil)
	require.NoError(t, err)
}

func TestRunner_ContextCancelled(t *testing.T) {
	crystal := writeFakeCrystal(t, `exec sleep 5`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := newTestRunner().Run(ctx, t.TempDir(), crystal, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_CancelledBeforeStart(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	crystal := writeFakeCrystal(t, `echo run >> "`+counter+`"`+"\n"+writeReportScript("0"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner()
	inv, err := runner.Run(ctx, t.TempDir(), crystal, nil)
	assert.Nil(t, inv)
	assert.ErrorIs(t, err, context.Canceled)

	var spawnErr *SpawnError
	assert.False(t, errors.As(err, &spawnErr), "cancellation must not be reported as a spawn error")
	assert.NoFileExists(t, counter)
	assert.False(t, runner.Executing())
}

func TestRunner_RemovesTempDir(t *testing.T) {
	tempRoot := t.TempDir()
	crystal := writeFakeCrystal(t, writeReportScript("0"))

	_, err := newTestRunner(WithTempRoot(tempRoot)).Run(context.Background(), t.TempDir(), crystal, nil)
	require.NoError(t, err)

	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunner_WorkspaceLock(t *testing.T) {
	locks := NewWorkspaceLocks(t.TempDir())
	workDir := t.TempDir()
	crystal := writeFakeCrystal(t, writeReportScript("0"))

	held := flock.New(locks.Path(workDir))
	acquired, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)

	runner := newTestRunner(WithWorkspaceLocks(locks))
	_, err = runner.Run(context.Background(), workDir, crystal, nil)
	assert.ErrorIs(t, err, ErrAlreadyExecuting)
	assert.False(t, runner.Executing())

	require.NoError(t, held.Unlock())
	_, err = runner.Run(context.Background(), workDir, crystal, nil)
	require.NoError(t, err)
}
