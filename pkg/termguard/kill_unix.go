//go:build !windows

package termguard

import "syscall"

// killTree force-kills the backend and everything it forked. The backend is
// spawned with Setpgid, so its pid doubles as the process-group id; signaling
// the negative pid reaches the whole group. Falls back to the single pid when
// the group signal fails (already-reaped leader, group gone).
func killTree(pid int) {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		syscall.Kill(pid, syscall.SIGKILL)
	}
}
