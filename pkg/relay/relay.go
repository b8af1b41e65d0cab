// Package relay drains the backend child's stdout and stderr into the shared
// log sink without ever applying backpressure to the child.
//
// One goroutine per stream scans lines and feeds a bounded channel; a single
// forwarder goroutine classifies each line's severity and writes it through
// the structured logger. When the channel is full or the flood limiter is
// exhausted, lines are dropped and counted instead of stalling the child's
// pipes — a wedged log consumer must never wedge the backend.
package relay

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

const (
	defaultBufferSize = 1024

	// Scanner line limits; uvicorn tracebacks can run long.
	initialScanBuf = 64 * 1024
	maxScanBuf     = 1024 * 1024
)

// defaultSuppress matches the noise the backend prints at startup that adds
// nothing to the log: banner separators and blank lines.
var defaultSuppress = []string{"====="}

// Relay copies a child process's output streams into a structured logger.
type Relay struct {
	logger   *slog.Logger
	suppress []string
	limiter  *rate.Limiter

	lines    chan line
	scanners sync.WaitGroup
	done     chan struct{}
	started  atomic.Bool

	relayed atomic.Int64
	dropped atomic.Int64
}

type line struct {
	stream string
	text   string
}

// Option configures a Relay.
type Option func(*Relay)

// WithSuppress adds substrings whose lines are dropped silently (not counted
// as drops; suppression is filtering, not overflow).
func WithSuppress(substrings ...string) Option {
	return func(r *Relay) {
		r.suppress = append(r.suppress, substrings...)
	}
}

// WithRateLimit caps relayed lines per second with the given burst. Lines
// beyond the budget are counted as dropped.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Relay) {
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBufferSize sets the pending-line channel capacity.
func WithBufferSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.lines = make(chan line, n)
		}
	}
}

// New creates a relay that forwards into logger.
func New(logger *slog.Logger, opts ...Option) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		logger:   logger,
		suppress: append([]string(nil), defaultSuppress...),
		lines:    make(chan line, defaultBufferSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins draining the given streams. Nil readers are skipped. Start
// returns immediately; use Wait to block until both streams hit EOF and every
// buffered line has been written out. Start may be called once.
func (r *Relay) Start(stdout, stderr io.Reader) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	if stdout != nil {
		r.scanners.Add(1)
		go r.drain("stdout", stdout)
	}
	if stderr != nil {
		r.scanners.Add(1)
		go r.drain("stderr", stderr)
	}

	go func() {
		r.scanners.Wait()
		close(r.lines)
	}()

	go r.forward()
}

// Wait blocks until the relay has forwarded everything it will ever see.
// Returns immediately if Start was never called.
func (r *Relay) Wait() {
	if !r.started.Load() {
		return
	}
	<-r.done
}

// Relayed reports how many lines were written to the sink.
func (r *Relay) Relayed() int64 {
	return r.relayed.Load()
}

// Dropped reports how many lines were discarded due to overflow or flood
// limiting.
func (r *Relay) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Relay) drain(stream string, src io.Reader) {
	defer r.scanners.Done()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, initialScanBuf), maxScanBuf)

	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r")
		if r.suppressed(text) {
			continue
		}
		if r.limiter != nil && !r.limiter.Allow() {
			r.dropped.Add(1)
			continue
		}
		select {
		case r.lines <- line{stream: stream, text: text}:
		default:
			// Forwarder is behind; dropping keeps the child's pipe flowing.
			r.dropped.Add(1)
		}
	}

	if err := scanner.Err(); err != nil {
		r.logger.Warn("backend output stream closed with error", "stream", stream, "error", err)
	}
}

func (r *Relay) suppressed(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	for _, sub := range r.suppress {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

func (r *Relay) forward() {
	defer close(r.done)

	ctx := context.Background()
	for l := range r.lines {
		r.relayed.Add(1)
		r.logger.Log(ctx, classify(l.text), l.text, "stream", l.stream)
	}

	if n := r.dropped.Load(); n > 0 {
		r.logger.Warn("backend output lines dropped", "count", n)
	}
}

// classify maps a backend output line to a log level from the severity
// markers python logging and uvicorn put in their lines.
func classify(text string) slog.Level {
	switch {
	case strings.Contains(text, "CRITICAL"),
		strings.Contains(text, "FATAL"),
		strings.Contains(text, "ERROR"),
		strings.Contains(text, "Traceback"):
		return slog.LevelError
	case strings.Contains(text, "WARNING"), strings.Contains(text, "WARN"):
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
