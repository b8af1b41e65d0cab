//go:build windows

package supervisor

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op on Windows; there is no POSIX process group to
// create.
func setProcessGroup(cmd *exec.Cmd) {}

// ensureExecutable is a no-op on Windows; execute permission is not a file
// mode bit there.
func ensureExecutable(path string, info os.FileInfo) error {
	return nil
}

// terminateTree kills the backend. Windows has no SIGTERM for arbitrary
// processes, so graceful and forced termination collapse into one.
func terminateTree(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// killTree force-kills the backend.
func killTree(pid int) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	proc.Kill()
}
