package process

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrLaunch is wrapped by failures that happen before the process runs
// (missing executable, permissions, malformed argument string).
var ErrLaunch = errors.New("process could not be started")

// ExecutionError reports a failed invocation.
//
// Result is nil when the process never ran to completion. When the process
// launched and exited, Result always carries the observed non-zero exit code
// together with everything captured on stdout and stderr.
type ExecutionError struct {
	Command    string
	Executable string
	Arguments  string
	Result     *Result
	Err        error
}

func (e *ExecutionError) Error() string {
	code := "unknown"
	if e.Result != nil {
		code = strconv.Itoa(e.Result.ExitCode)
	}
	msg := fmt.Sprintf("the process '%s %s' exited with code %s", e.Executable, e.Arguments, code)
	if e.Result == nil && e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code of the failed run, or -1 when unknown.
func (e *ExecutionError) ExitCode() int {
	if e.Result == nil {
		return -1
	}
	return e.Result.ExitCode
}

func launchError(inv Invocation, err error) *ExecutionError {
	return &ExecutionError{
		Command:    inv.Command,
		Executable: inv.Executable,
		Arguments:  inv.Arguments,
		Err:        fmt.Errorf("%w: %w", ErrLaunch, err),
	}
}
