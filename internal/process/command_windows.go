//go:build windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// buildPlatformCommand hands the argument string to the OS verbatim as the
// command line tail; the target program parses it itself.
func buildPlatformCommand(inv Invocation) (*exec.Cmd, error) {
	cmd := exec.Command(inv.Executable)
	attr := &syscall.SysProcAttr{
		CmdLine: syscall.EscapeArg(inv.Executable),
	}
	if inv.Arguments != "" {
		attr.CmdLine += " " + inv.Arguments
	}
	if inv.ErrorDialog {
		// The Go runtime suppresses error boxes and children inherit that
		// mode; the default mode lets the OS show its dialog again.
		attr.CreationFlags |= windows.CREATE_DEFAULT_ERROR_MODE
	}
	cmd.SysProcAttr = attr
	return cmd, nil
}
