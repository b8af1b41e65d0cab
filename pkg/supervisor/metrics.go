package supervisor

import (
	"time"
)

// MetricsCollector defines the interface for collecting supervisor metrics
type MetricsCollector interface {
	// StateTransition records a lifecycle state transition
	StateTransition(fromState, toState State)

	// ReadinessAttempt records one probe-plus-health readiness attempt
	ReadinessAttempt(attempt int, reachable bool)

	// ReadinessWait records the total readiness wait and its outcome
	ReadinessWait(duration time.Duration, ready bool)

	// SpawnResult records the outcome of a spawn
	SpawnResult(err error)

	// StopDuration records the duration of a stop operation
	StopDuration(duration time.Duration)
}

// noopMetricsCollector is a no-op implementation of MetricsCollector
type noopMetricsCollector struct{}

func (n *noopMetricsCollector) StateTransition(fromState, toState State)         {}
func (n *noopMetricsCollector) ReadinessAttempt(attempt int, reachable bool)     {}
func (n *noopMetricsCollector) ReadinessWait(duration time.Duration, ready bool) {}
func (n *noopMetricsCollector) SpawnResult(err error)                            {}
func (n *noopMetricsCollector) StopDuration(duration time.Duration)              {}

// NewNoopMetricsCollector creates a no-op metrics collector
func NewNoopMetricsCollector() MetricsCollector {
	return &noopMetricsCollector{}
}
