//go:build !windows

package process

import (
	"context"
	"os/exec"
	"syscall"
	"time"
)

// LineSeparator is appended after every captured output line.
const LineSeparator = "\n"

type unixProcessController struct{}

func newPlatformProcessController() ProcessController {
	return &unixProcessController{}
}

// Start puts the command in a new process group and starts it.
// Pdeathsig is Linux-only and is applied through setPdeathsig.
func (u *unixProcessController) Start(cmd *exec.Cmd) error {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	setPdeathsig(cmd.SysProcAttr)
	return cmd.Start()
}

// Interrupt sends SIGINT to the process group (negative PID targets the group).
func (u *unixProcessController) Interrupt(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrProcessNotStarted
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}

// Kill sends SIGKILL to the process group.
func (u *unixProcessController) Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrProcessNotStarted
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func (u *unixProcessController) Wait(ctx context.Context, cmd *exec.Cmd, gracePeriod time.Duration) error {
	return waitWithGrace(ctx, u, cmd, gracePeriod)
}
