//go:build !windows

package probes

import (
	"fmt"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the command in its own process group so
// killProcessGroup can take down its whole tree.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup kills the entire process group associated with the
// command, catching any children the probe spawned. Negative PID targets
// the whole group.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return fmt.Errorf("process not started")
	}

	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill process group: %w", err)
	}

	return nil
}
