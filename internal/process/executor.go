package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Executor runs one fully resolved invocation.
type Executor interface {
	// Run launches the process and blocks until it exits or ctx is done.
	// A non-zero exit yields an *ExecutionError carrying the Result.
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// Option configures an ExecExecutor.
type Option func(*ExecExecutor)

// WithGracePeriod sets the interrupt-to-kill delay used on cancellation.
func WithGracePeriod(d time.Duration) Option {
	return func(e *ExecExecutor) {
		if d > 0 {
			e.gracePeriod = d
		}
	}
}

// WithLineHandler registers a callback that observes every captured line as
// it arrives. The handler is called from the stream copy goroutines.
func WithLineHandler(fn func(stream Stream, line string)) Option {
	return func(e *ExecExecutor) {
		e.onLine = fn
	}
}

// WithCapture selects which streams are captured into the Result. An
// uncaptured stream is passed straight through to this process's own
// stdout or stderr, is not seen by the line handler and is left empty in
// the Result. Both streams are captured by default.
func WithCapture(stdout, stderr bool) Option {
	return func(e *ExecExecutor) {
		e.captureStdout = stdout
		e.captureStderr = stderr
	}
}

// WithProcessController replaces the platform process controller.
func WithProcessController(pc ProcessController) Option {
	return func(e *ExecExecutor) {
		if pc != nil {
			e.process = pc
		}
	}
}

// ExecExecutor is the os/exec backed Executor.
// It holds no per-run state and is safe for concurrent use.
type ExecExecutor struct {
	process       ProcessController
	gracePeriod   time.Duration
	onLine        func(Stream, string)
	captureStdout bool
	captureStderr bool
	passStdout    io.Writer
	passStderr    io.Writer
}

// NewExecExecutor creates an executor for the local host.
func NewExecExecutor(opts ...Option) *ExecExecutor {
	e := &ExecExecutor{
		process:       NewProcessController(),
		gracePeriod:   DefaultGracePeriod,
		captureStdout: true,
		captureStderr: true,
		passStdout:    os.Stdout,
		passStderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run implements Executor.
//
// Stdout and stderr are drained concurrently by the os/exec copy goroutines
// into fresh LineBuffers while the process runs. The controller's Wait
// returns only after the process has exited and both copies have finished,
// so the exit code and captured text are read strictly afterwards.
func (e *ExecExecutor) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd, err := BuildCommand(inv)
	if err != nil {
		return nil, launchError(inv, err)
	}

	stdout := NewLineBuffer(e.lineHandler(Stdout))
	stderr := NewLineBuffer(e.lineHandler(Stderr))
	cmd.Stdout = sink(stdout, e.captureStdout, e.passStdout)
	cmd.Stderr = sink(stderr, e.captureStderr, e.passStderr)
	// Grandchildren holding the pipes open must not stall Wait forever.
	cmd.WaitDelay = e.gracePeriod

	if err := e.process.Start(cmd); err != nil {
		return nil, launchError(inv, err)
	}

	waitErr := e.process.Wait(ctx, cmd, e.gracePeriod)

	stdout.Flush()
	stderr.Flush()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("running %s: %w", inv.Command, ctxErr)
	}

	exitCode := exitCodeFromError(waitErr)
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result := &Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if exitCode != 0 {
		return nil, &ExecutionError{
			Command:    inv.Command,
			Executable: inv.Executable,
			Arguments:  inv.Arguments,
			Result:     result,
			Err:        waitErr,
		}
	}
	return result, nil
}

// sink picks where one child stream is written. An uncaptured stream leaves
// its buffer empty.
func sink(buf *LineBuffer, capture bool, passthrough io.Writer) io.Writer {
	if capture {
		return buf
	}
	if passthrough == nil {
		return io.Discard
	}
	return passthrough
}

func (e *ExecExecutor) lineHandler(stream Stream) func(string) {
	if e.onLine == nil {
		return nil
	}
	return func(line string) {
		e.onLine(stream, line)
	}
}

// exitCodeFromError extracts the exit code from an exec error.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
