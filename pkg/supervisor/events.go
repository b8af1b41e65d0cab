package supervisor

import (
	"github.com/abhishekanand16/PhotoSense-AI/pkg/probe"
)

// EventType identifies the outcome of a start attempt.
type EventType string

const (
	// EventReady means the backend answered its health check.
	EventReady EventType = "ready"

	// EventFailed means the start attempt failed; Event.Err carries the cause.
	EventFailed EventType = "failed"
)

// Event is the asynchronous outcome notification for a start attempt. The
// supervisor emits exactly one event per Start call.
type Event struct {
	// Type is ready or failed.
	Type EventType

	// Endpoint the backend listens on (or was expected to).
	Endpoint probe.Endpoint

	// Attached is true when the supervisor adopted an existing listener.
	Attached bool

	// Err is the failure cause for EventFailed, nil for EventReady.
	Err error
}

// EventPublisher receives start-attempt outcomes. Publish must not block;
// slow consumers should hand off internally.
type EventPublisher interface {
	Publish(Event)
}

// NoopEventPublisher discards all events.
type NoopEventPublisher struct{}

// Publish implements EventPublisher.
func (NoopEventPublisher) Publish(Event) {}

var _ EventPublisher = NoopEventPublisher{}
