//go:build windows

package app

import (
	"os/exec"
	"strconv"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// Kill force-terminates the process tree via taskkill.
func (OSRuntime) Kill(pid int32) error {
	// #nosec G204 -- pid is numeric
	cmd := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(int(pid)))
	return cmd.Run()
}
