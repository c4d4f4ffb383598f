//go:build !linux && !windows

package process

import "syscall"

// setPdeathsig is a no-op outside Linux.
func setPdeathsig(_ *syscall.SysProcAttr) {}
