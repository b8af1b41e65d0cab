//go:build !windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the backend in its own process group so termination
// signals reach uvicorn workers the bootloader forks, not just the leader.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// ensureExecutable forces the execute bit. Bundled backends can lose it when
// the installer unpacks from a zip.
func ensureExecutable(path string, info os.FileInfo) error {
	if info.Mode()&0o111 != 0 {
		return nil
	}
	return os.Chmod(path, 0o755)
}

// terminateTree sends SIGTERM to the backend's process group, falling back
// to the single pid when the group signal fails.
func terminateTree(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		return syscall.Kill(pid, syscall.SIGTERM)
	}
	return nil
}

// killTree sends SIGKILL to the backend's process group.
func killTree(pid int) {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		syscall.Kill(pid, syscall.SIGKILL)
	}
}
