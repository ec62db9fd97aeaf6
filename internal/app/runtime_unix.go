//go:build !windows

package app

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	// Own process group so a kill reaches the whole tree.
	return &syscall.SysProcAttr{Setpgid: true}
}

// Kill sends SIGKILL to the process group. No graceful shutdown, no wait:
// confirmation of death is the probe's job.
func (OSRuntime) Kill(pid int32) error {
	return syscall.Kill(-int(pid), syscall.SIGKILL)
}
