package process

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultGracePeriod is the time to wait between interrupt and kill signals.
const DefaultGracePeriod = 5 * time.Second

// ErrProcessNotStarted is returned when signalling or waiting on a command
// that was never started.
var ErrProcessNotStarted = errors.New("process not started")

// ProcessController manages subprocess lifecycle with platform-appropriate signals.
type ProcessController interface {
	// Start configures platform-specific process group settings and starts the command.
	// Existing SysProcAttr fields set by the command builder are preserved.
	Start(cmd *exec.Cmd) error

	// Interrupt sends a graceful interrupt signal to the process group.
	// On Unix: SIGINT to pgid. On Windows: GenerateConsoleCtrlEvent.
	Interrupt(cmd *exec.Cmd) error

	// Kill forcefully terminates the process group.
	Kill(cmd *exec.Cmd) error

	// Wait waits for the process to complete with cancellation support.
	// If ctx is cancelled, sends Interrupt, waits gracePeriod, then Kill.
	Wait(ctx context.Context, cmd *exec.Cmd, gracePeriod time.Duration) error
}

// NewProcessController creates a platform-appropriate ProcessController.
func NewProcessController() ProcessController {
	return newPlatformProcessController()
}

// waitWithGrace runs cmd.Wait in the background and escalates from
// interrupt to kill once ctx is done.
func waitWithGrace(ctx context.Context, pc ProcessController, cmd *exec.Cmd, gracePeriod time.Duration) error {
	if cmd.Process == nil {
		return ErrProcessNotStarted
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = pc.Interrupt(cmd)

		timer := time.NewTimer(gracePeriod)
		defer timer.Stop()
		select {
		case err := <-done:
			return err
		case <-timer.C:
			_ = pc.Kill(cmd)
			return <-done
		}
	}
}
