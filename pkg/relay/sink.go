package relay

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Sink is a serialized writer over the shared backend log file. Both the
// relay (child output) and the supervisor's own logger write through it, so
// every Write is guarded by one mutex to keep interleaved lines intact.
//
// The underlying file is opened append-only and is never truncated; restarts
// accumulate history in the same file.
type Sink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// OpenSink opens (creating if needed) the append-only log file at path,
// creating parent directories as required.
func OpenSink(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return &Sink{w: f}, nil
}

// NewSink wraps an arbitrary writer in a serialized sink. Used by tests and
// by hosts that want child output somewhere other than a file.
func NewSink(w io.WriteCloser) *Sink {
	return &Sink{w: w}
}

// Write implements io.Writer with whole-call serialization.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Close closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}

// Logger returns a structured text logger writing through the sink.
func (s *Sink) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(s, nil))
}
