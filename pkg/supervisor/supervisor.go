package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abhishekanand16/PhotoSense-AI/pkg/probe"
	"github.com/abhishekanand16/PhotoSense-AI/pkg/relay"
	"github.com/abhishekanand16/PhotoSense-AI/pkg/termguard"
)

const (
	defaultProbeTimeout = 500 * time.Millisecond
	defaultStopGrace    = 5 * time.Second

	// Log a progress line every this many readiness attempts.
	waitLogEvery = 10
)

// Supervisor manages one backend sidecar process through its lifecycle.
type Supervisor struct {
	spec    *Spec
	logger  *slog.Logger
	metrics MetricsCollector

	pollInterval  time.Duration
	maxAttempts   int
	probeTimeout  time.Duration
	healthTimeout time.Duration
	stopGrace     time.Duration
	exclusive     bool

	publisher EventPublisher
	events    chan Event
	relayOpts []relay.Option

	checker *probe.HealthChecker

	// opMu serializes Start and Stop against each other so a Stop can never
	// land in the window between the Starting transition and the spawn.
	opMu sync.Mutex

	mu         sync.Mutex
	state      State
	handle     *Handle
	attached   bool
	reason     string
	pollCancel context.CancelFunc
	pollDone   chan struct{}
	notified   bool
}

// New creates a supervisor for the given backend spec. The spec is validated
// (and defaulted) on the first Start.
func New(spec *Spec, opts ...Option) *Supervisor {
	s := &Supervisor{
		spec:      spec,
		logger:    slog.Default(),
		metrics:   NewNoopMetricsCollector(),
		publisher: NoopEventPublisher{},
		events:    make(chan Event, 4),
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events delivers the asynchronous outcome of each start attempt: exactly
// one EventReady or EventFailed per Start call. The channel is buffered;
// hosts that never drain it lose old events, not new starts.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// Start spawns the backend (or attaches to an already-listening one) and
// begins the readiness poll in the background.
//
// Start returns an error only for immediate failures: invalid spec, a start
// while already Starting or Ready, or a failed spawn. Readiness outcomes
// arrive through Events.
func (s *Supervisor) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()

	if s.state == StateStarting || s.state == StateReady {
		state := s.state
		s.mu.Unlock()
		return ErrInvalidState("start", state)
	}

	if err := s.spec.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.applySpecDefaults()

	endpoint := s.spec.Endpoint()
	s.transitionLocked(StateStarting, "")
	s.attached = false
	s.handle = nil
	s.notified = false
	s.mu.Unlock()

	// Attach-if-reachable: a previous run (or a dev server) may already own
	// the port. The reachability check and any later spawn are not atomic;
	// losing that race means the spawned backend fails to bind and the poll
	// reports the exit.
	if probe.Reachable(endpoint, s.probeTimeout) {
		if s.exclusive {
			err := ErrAlreadyRunning(endpoint.Addr())
			s.fail(err)
			return err
		}
		s.logger.Info("backend already listening, attaching", "endpoint", endpoint.Addr())
		s.mu.Lock()
		s.attached = true
		s.mu.Unlock()
		s.startPoll(endpoint)
		return nil
	}

	handle, err := spawn(s.spec, s.logger, s.relayOpts...)
	s.metrics.SpawnResult(err)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	s.startPoll(endpoint)
	return nil
}

// startPoll launches the readiness poll goroutine. The poll runs on its own
// context so it outlives the caller's Start context; only Stop cancels it.
func (s *Supervisor) startPoll(endpoint probe.Endpoint) {
	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.pollCancel = cancel
	s.pollDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.poll(pollCtx, endpoint)
	}()
}

// poll drives the bounded readiness loop: TCP probe, then health check, at a
// fixed interval until success, child exit, cancellation, or budget
// exhaustion.
func (s *Supervisor) poll(ctx context.Context, endpoint probe.Endpoint) {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	var childDone <-chan struct{}
	if handle != nil {
		childDone = handle.Done()
	}

	start := time.Now()
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			// Stop got here first; it owns the state transition.
			return
		case <-childDone:
			s.metrics.ReadinessWait(time.Since(start), false)
			s.fail(ErrBackendExited(s.spec.Name, handle.ExitErr()))
			return
		default:
		}

		reachable := probe.Reachable(endpoint, s.probeTimeout)
		s.metrics.ReadinessAttempt(attempt, reachable)

		if reachable && s.checker.Healthy(ctx, endpoint) {
			s.metrics.ReadinessWait(time.Since(start), true)
			s.ready()
			return
		}

		if attempt%waitLogEvery == 0 {
			s.logger.Info("waiting for backend",
				"endpoint", endpoint.Addr(),
				"attempt", attempt,
				"max_attempts", s.maxAttempts)
		}

		select {
		case <-ctx.Done():
			return
		case <-childDone:
			s.metrics.ReadinessWait(time.Since(start), false)
			s.fail(ErrBackendExited(s.spec.Name, handle.ExitErr()))
			return
		case <-time.After(s.pollInterval):
		}
	}

	// Budget exhausted. The backend keeps running; a later Status or Stop
	// still sees it.
	s.metrics.ReadinessWait(time.Since(start), false)
	s.fail(ErrReadinessTimeout(endpoint.Addr(), s.maxAttempts,
		time.Duration(s.maxAttempts)*s.pollInterval))
}

// Stop terminates the backend and lands in Stopped. Idempotent: stopping a
// stopped (or never-started) supervisor is a no-op. An in-progress readiness
// poll is cancelled first, so its Ready/Failed can never race the stop.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
	pollDone := s.pollDone
	s.mu.Unlock()

	if pollDone != nil {
		<-pollDone
	}

	s.mu.Lock()
	// Reap the handle even when already Stopped; being stopped without a
	// child is the only true no-op.
	if s.state == StateStopped && s.handle == nil {
		s.mu.Unlock()
		return nil
	}
	handle := s.handle
	s.handle = nil
	s.transitionLocked(StateStopped, "")
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.StopDuration(time.Since(start))
	}()

	if handle == nil {
		// Attached or never spawned; nothing of ours to kill.
		termguard.Clear()
		return nil
	}

	s.logger.Info("stopping backend", "pid", handle.PID)

	if err := handle.Terminate(); err != nil {
		s.logger.Warn("graceful termination failed, killing", "pid", handle.PID, "error", err)
		handle.Kill()
	}

	select {
	case <-handle.Done():
	case <-time.After(s.stopGrace):
		s.logger.Warn("backend ignored termination, killing", "pid", handle.PID)
		handle.Kill()
		<-handle.Done()
	case <-ctx.Done():
		handle.Kill()
		<-handle.Done()
	}

	termguard.Clear()
	s.logger.Info("backend stopped", "pid", handle.PID, "duration", time.Since(start))
	return nil
}

// Status reports the current lifecycle state. When the supervisor believes
// the backend is Ready it performs a live health check, so a crashed or hung
// backend shows Healthy=false without waiting for the next operation.
func (s *Supervisor) Status(ctx context.Context) Status {
	s.mu.Lock()
	st := Status{
		State:    s.state,
		Endpoint: s.spec.Endpoint(),
		Attached: s.attached,
		Reason:   s.reason,
	}
	if s.handle != nil {
		st.PID = s.handle.PID
	}
	checker := s.checker
	s.mu.Unlock()

	if st.State == StateReady && checker != nil {
		st.Healthy = checker.Healthy(ctx, st.Endpoint)
	}
	return st
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// applySpecDefaults pulls poll parameters from the validated spec for any
// knob not set by an option. Called with mu held.
func (s *Supervisor) applySpecDefaults() {
	if s.pollInterval == 0 {
		s.pollInterval = s.spec.HealthCheck.Interval
	}
	if s.maxAttempts == 0 {
		s.maxAttempts = s.spec.HealthCheck.Attempts
	}
	if s.probeTimeout == 0 {
		s.probeTimeout = defaultProbeTimeout
	}
	if s.healthTimeout == 0 {
		s.healthTimeout = s.spec.HealthCheck.Timeout
	}
	if s.stopGrace == 0 {
		s.stopGrace = defaultStopGrace
	}
	if s.checker == nil {
		s.checker = probe.NewHealthChecker(s.spec.HealthCheck.Path, s.healthTimeout)
	}
}

// ready transitions Starting → Ready and notifies. A stop that happened
// while the final health check was in flight wins: no transition, no event.
func (s *Supervisor) ready() {
	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(StateReady, "")
	attached := s.attached
	s.mu.Unlock()

	s.logger.Info("backend ready",
		"endpoint", s.spec.Endpoint().Addr(),
		"attached", attached)

	s.notify(Event{
		Type:     EventReady,
		Endpoint: s.spec.Endpoint(),
		Attached: attached,
	})
}

// fail transitions to Failed and notifies, unless a stop already won.
func (s *Supervisor) fail(err error) {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(StateFailed, err.Error())
	attached := s.attached
	s.mu.Unlock()

	s.logger.Error("backend start failed", "error", err)

	s.notify(Event{
		Type:     EventFailed,
		Endpoint: s.spec.Endpoint(),
		Attached: attached,
		Err:      err,
	})
}

// notify delivers at most one event per start attempt: to the buffered
// Events channel (dropping when full) and to the optional publisher.
func (s *Supervisor) notify(ev Event) {
	s.mu.Lock()
	if s.notified {
		s.mu.Unlock()
		return
	}
	s.notified = true
	s.mu.Unlock()

	select {
	case s.events <- ev:
	default:
	}
	s.publisher.Publish(ev)
}

// transitionLocked records a state change. Caller holds mu.
func (s *Supervisor) transitionLocked(to State, reason string) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.reason = reason
	s.metrics.StateTransition(from, to)
	s.logger.Debug("state transition", "from", from.String(), "to", to.String())
}
