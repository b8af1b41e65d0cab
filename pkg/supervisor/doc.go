// Package supervisor manages the lifecycle of the PhotoSense backend sidecar:
// a long-running local HTTP process the desktop shell spawns, waits on, and
// tears down.
//
// The supervisor is a small state machine:
//
//	NotStarted ──Start──▶ Starting ──ready──▶ Ready
//	                         │                  │
//	                         ├──timeout/exit──▶ Failed
//	                         └──────Stop───────▶ Stopped ◀──Stop── Ready
//
// Start spawns the backend executable (or attaches to an already-listening
// one), records its pid for crash-safe cleanup, and polls readiness in the
// background: a TCP reachability probe followed by an HTTP health check at a
// fixed interval with a bounded attempt budget. The outcome is delivered
// asynchronously through Events, exactly once per start attempt.
//
// Stop is idempotent. It cancels any in-progress readiness poll, asks the
// backend to terminate, escalates to a hard kill after a grace period, and
// always lands in Stopped.
package supervisor
