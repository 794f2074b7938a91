//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// signalBase is added to the signal number, as POSIX shells do.
const signalBase = 128

func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the negative PID, reaching every process in the group.
func killProcessGroup(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
}

// signalExitCode maps a child killed by a signal to 128+N.
func signalExitCode(exitErr *exec.ExitError) (int, bool) {
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return signalBase + int(ws.Signal()), true
}
