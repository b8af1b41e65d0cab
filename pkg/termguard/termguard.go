// Package termguard guarantees the backend child process dies with the host.
//
// The guard keeps a single process-wide termination record: the pid of the
// managed backend plus a one-shot cleanup flag. Every exit path of the host —
// orderly shutdown, termination signal, or panic — funnels into Cleanup,
// which kills the recorded process group at most once. All state lives in
// lock-free atomics so the guard stays usable from signal handlers and
// panicking goroutines.
package termguard

import (
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

var (
	backendPID  atomic.Int64
	cleanupDone atomic.Bool

	// kill is swapped out in tests; the real implementation is per-OS.
	kill = killTree
)

// Record stores the pid of the spawned backend. Call it as soon as the pid is
// known, before any readiness waiting begins, so a crash mid-startup still
// leaves a killable record.
func Record(pid int) {
	backendPID.Store(int64(pid))
	cleanupDone.Store(false)
}

// Clear forgets the recorded pid after an orderly stop has already reaped the
// child, so a later Cleanup will not signal a recycled pid.
func Clear() {
	backendPID.Store(0)
}

// RecordedPID returns the currently recorded backend pid, or 0 when none.
func RecordedPID() int {
	return int(backendPID.Load())
}

// Cleanup kills the recorded backend process group. Only the first caller per
// recorded process acts; concurrent and repeated calls are no-ops. Returns
// true if this call performed the kill.
func Cleanup() bool {
	if !cleanupDone.CompareAndSwap(false, true) {
		return false
	}

	pid := int(backendPID.Load())
	if pid <= 0 {
		return false
	}

	kill(pid)
	backendPID.Store(0)
	return true
}

// Protect runs fn, and if fn panics, performs cleanup before re-panicking so
// the crash still reaches the default handler with its original value.
func Protect(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Cleanup()
			panic(r)
		}
	}()
	fn()
}

// InstallSignalHandler arranges for Cleanup to run when the host receives a
// termination signal, then exits through the supplied exit func. Returns a
// stop func that unregisters the handler (for hosts that take over signal
// handling themselves).
func InstallSignalHandler(logger *slog.Logger, exit func(code int)) (stop func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if exit == nil {
		exit = os.Exit
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			logger.Warn("termination signal received, killing backend", "signal", sig.String())
			Cleanup()
			exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// reset returns the guard to its initial state. Test helper.
func reset() {
	backendPID.Store(0)
	cleanupDone.Store(false)
	kill = killTree
}
