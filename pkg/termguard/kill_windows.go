//go:build windows

package termguard

import "os"

// killTree force-kills the backend. Windows has no process groups in the
// POSIX sense; direct children of the PyInstaller bootloader die with it.
func killTree(pid int) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	proc.Kill()
}
