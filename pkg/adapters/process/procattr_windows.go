//go:build windows

package process

import "os/exec"

func setProcessGroup(c *exec.Cmd) {}

func killProcessGroup(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return c.Process.Kill()
}

// Windows has no signal exit statuses.
func signalExitCode(*exec.ExitError) (int, bool) {
	return 0, false
}
