package process

import (
	"errors"
	"os"
	"os/exec"
)

// BuildCommand creates an exec.Cmd for the invocation. The command is not
// bound to a context: cancellation is handled by the ProcessController so
// the child gets an interrupt and a grace period before it is killed.
func BuildCommand(inv Invocation) (*exec.Cmd, error) {
	if inv.Executable == "" {
		return nil, errors.New("executable path is empty")
	}

	cmd, err := buildPlatformCommand(inv)
	if err != nil {
		return nil, err
	}

	cmd.Dir = inv.WorkDir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	return cmd, nil
}
