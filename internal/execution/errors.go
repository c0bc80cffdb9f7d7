package execution

import (
	"errors"
	"fmt"
)

// ErrAlreadyExecuting is returned when a runner is asked to start while a
// previous invocation has not settled yet.
var ErrAlreadyExecuting = errors.New("crystal is already being executed")

// SpawnError is returned when the executable cannot be launched at all
type SpawnError struct {
	Executable string
	Message    string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("error executing %s: %s", e.Executable, e.Message)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError is returned when the process exits with a rejected code
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exited with error code %d: %s", e.Code, e.Output)
}

// ReportMissingError is returned when the runner did not write a report file
type ReportMissingError struct {
	Path string
}

func (e *ReportMissingError) Error() string {
	return fmt.Sprintf("test results file doesn't exist: %s", e.Path)
}
