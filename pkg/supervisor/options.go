package supervisor

import (
	"log/slog"
	"time"
)

// Option configures the Supervisor
type Option func(*Supervisor)

// WithPollInterval sets the delay between readiness attempts, overriding the
// spec's healthcheck interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithMaxAttempts sets the readiness attempt budget, overriding the spec.
func WithMaxAttempts(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithProbeTimeout sets the TCP reachability probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithHealthTimeout sets the per-request health check timeout, overriding
// the spec.
func WithHealthTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.healthTimeout = d
		}
	}
}

// WithStopGracePeriod sets how long Stop waits after a termination request
// before force-killing the backend.
func WithStopGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.stopGrace = d
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsCollector sets the metrics collector
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(s *Supervisor) {
		if mc != nil {
			s.metrics = mc
		}
	}
}

// WithEventPublisher adds a publisher that receives each start-attempt
// outcome in addition to the Events channel.
func WithEventPublisher(pub EventPublisher) Option {
	return func(s *Supervisor) {
		if pub != nil {
			s.publisher = pub
		}
	}
}

// WithExclusive makes Start fail with ALREADY_RUNNING instead of attaching
// when something is already listening on the backend endpoint.
func WithExclusive() Option {
	return func(s *Supervisor) {
		s.exclusive = true
	}
}

// WithRelayOptions forwards options to the output relay created per spawn.
func WithRelayOptions(opts ...RelayOption) Option {
	return func(s *Supervisor) {
		s.relayOpts = append(s.relayOpts, opts...)
	}
}
