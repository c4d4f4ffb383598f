//go:build linux

package process

import "syscall"

// setPdeathsig kills the child if the parent dies.
func setPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}
