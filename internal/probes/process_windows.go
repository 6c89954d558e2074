//go:build windows

package probes

import (
	"fmt"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the command in a new process group so a console
// Ctrl+C aimed at envprobe does not fan out to probe subprocesses.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessGroup terminates the tracked process. Windows has no
// negative-PID group kill; grandchildren a probe spawned are not chased.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return fmt.Errorf("process not started")
	}

	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill process: %w", err)
	}

	return nil
}
