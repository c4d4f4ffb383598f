//go:build windows

package process

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// LineSeparator is appended after every captured output line.
const LineSeparator = "\r\n"

type windowsProcessController struct{}

func newPlatformProcessController() ProcessController {
	return &windowsProcessController{}
}

// Start adds CREATE_NEW_PROCESS_GROUP to the creation flags and starts the command.
func (w *windowsProcessController) Start(cmd *exec.Cmd) error {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
	return cmd.Start()
}

// Interrupt sends CTRL_BREAK_EVENT to the process group via GenerateConsoleCtrlEvent.
func (w *windowsProcessController) Interrupt(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrProcessNotStarted
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}

// Kill forcefully terminates the process.
func (w *windowsProcessController) Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrProcessNotStarted
	}
	return cmd.Process.Kill()
}

func (w *windowsProcessController) Wait(ctx context.Context, cmd *exec.Cmd, gracePeriod time.Duration) error {
	return waitWithGrace(ctx, w, cmd, gracePeriod)
}
