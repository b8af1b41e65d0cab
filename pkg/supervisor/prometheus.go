package supervisor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector implements MetricsCollector using Prometheus metrics
type PrometheusMetricsCollector struct {
	// State transition metrics
	stateTransitions *prometheus.CounterVec

	// Readiness metrics
	readinessAttempts *prometheus.CounterVec
	readinessWait     *prometheus.HistogramVec

	// Lifecycle metrics
	spawns       *prometheus.CounterVec
	stopDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "photosense_supervisor"
	}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}

	pmc.stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of supervisor state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	pmc.readinessAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_attempts_total",
			Help:      "Total number of backend readiness attempts",
		},
		[]string{"reachable"},
	)

	pmc.readinessWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "readiness_wait_seconds",
			Help:      "Time spent waiting for the backend to become ready",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"outcome"},
	)

	pmc.spawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawns_total",
			Help:      "Total number of backend spawn attempts",
		},
		[]string{"status"},
	)

	pmc.stopDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stop_duration_seconds",
			Help:      "Duration of backend stop operations",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pmc.registry.MustRegister(
		pmc.stateTransitions,
		pmc.readinessAttempts,
		pmc.readinessWait,
		pmc.spawns,
		pmc.stopDuration,
	)

	return pmc
}

// StateTransition records a state transition
func (pmc *PrometheusMetricsCollector) StateTransition(fromState, toState State) {
	pmc.stateTransitions.WithLabelValues(
		fromState.String(),
		toState.String(),
	).Inc()
}

// ReadinessAttempt records one readiness attempt
func (pmc *PrometheusMetricsCollector) ReadinessAttempt(attempt int, reachable bool) {
	label := "false"
	if reachable {
		label = "true"
	}
	pmc.readinessAttempts.WithLabelValues(label).Inc()
}

// ReadinessWait records the total readiness wait and its outcome
func (pmc *PrometheusMetricsCollector) ReadinessWait(duration time.Duration, ready bool) {
	outcome := "timeout"
	if ready {
		outcome = "ready"
	}
	pmc.readinessWait.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SpawnResult records the outcome of a spawn
func (pmc *PrometheusMetricsCollector) SpawnResult(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	pmc.spawns.WithLabelValues(status).Inc()
}

// StopDuration records the duration of a stop operation
func (pmc *PrometheusMetricsCollector) StopDuration(duration time.Duration) {
	pmc.stopDuration.Observe(duration.Seconds())
}

// Registry returns the Prometheus registry for HTTP handler setup
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}

// Compile-time interface compliance check
var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)
