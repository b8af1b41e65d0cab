package supervisor

import (
	"github.com/abhishekanand16/PhotoSense-AI/pkg/probe"
)

// State represents the supervisor lifecycle state.
type State int32

const (
	// StateNotStarted is the initial state before any Start call.
	StateNotStarted State = iota

	// StateStarting means the backend was spawned (or attached) and the
	// readiness poll is in progress.
	StateStarting

	// StateReady means the backend answered its health check.
	StateReady

	// StateFailed means the start attempt failed: the spawn errored, the
	// child exited early, or the readiness budget ran out.
	StateFailed

	// StateStopped means Stop completed. Terminal until the next Start.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateStarting:
		return "Starting"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Status is a point-in-time snapshot of the supervised backend.
type Status struct {
	// State is the lifecycle state at snapshot time.
	State State

	// Endpoint is where the backend is expected to listen.
	Endpoint probe.Endpoint

	// PID of the spawned backend; 0 when attached or not running.
	PID int

	// Attached is true when the supervisor adopted an already-listening
	// backend instead of spawning one.
	Attached bool

	// Healthy reflects a live health check performed when State is Ready;
	// false otherwise.
	Healthy bool

	// Reason describes why the supervisor is Failed, empty otherwise.
	Reason string
}
