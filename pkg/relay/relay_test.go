package relay

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectLogger returns a logger whose output accumulates in the returned
// buffer. The buffer is mutex-wrapped because the relay writes from its own
// goroutine.
func collectLogger() (*slog.Logger, *lockedBuffer) {
	buf := &lockedBuffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Close() error { return nil }

func TestRelayForwardsBothStreams(t *testing.T) {
	logger, buf := collectLogger()
	r := New(logger)

	stdout := strings.NewReader("backend listening on 127.0.0.1:8000\n")
	stderr := strings.NewReader("INFO:     Application startup complete.\n")

	r.Start(stdout, stderr)
	r.Wait()

	out := buf.String()
	assert.Contains(t, out, "backend listening on 127.0.0.1:8000")
	assert.Contains(t, out, "Application startup complete")
	assert.Contains(t, out, "stream=stdout")
	assert.Contains(t, out, "stream=stderr")
	assert.Equal(t, int64(2), r.Relayed())
	assert.Zero(t, r.Dropped())
}

func TestRelaySeverityClassification(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		level string
	}{
		{"plain", "worker booted", "level=INFO"},
		{"python error", "ERROR:root:model load failed", "level=ERROR"},
		{"traceback", "Traceback (most recent call last):", "level=ERROR"},
		{"critical", "CRITICAL: out of memory", "level=ERROR"},
		{"warning", "WARNING: deprecated flag", "level=WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := collectLogger()
			r := New(logger)
			r.Start(strings.NewReader(tt.line+"\n"), nil)
			r.Wait()
			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

func TestRelaySuppression(t *testing.T) {
	logger, buf := collectLogger()
	r := New(logger, WithSuppress("healthz probe"))

	input := strings.Join([]string{
		"==========================",
		"",
		"GET /healthz probe ok",
		"real line",
	}, "\n") + "\n"

	r.Start(strings.NewReader(input), nil)
	r.Wait()

	out := buf.String()
	assert.Contains(t, out, "real line")
	assert.NotContains(t, out, "=====")
	assert.NotContains(t, out, "healthz")
	assert.Equal(t, int64(1), r.Relayed())
	assert.Zero(t, r.Dropped(), "suppressed lines are not drops")
}

func TestRelayNeverBlocksProducer(t *testing.T) {
	// A reader that never gets consumed downstream: the logger blocks
	// forever, so the forwarder wedges after one line. The scanner side must
	// still drain the full stream without stalling.
	blocked := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(blockingWriter{blocked}, nil))

	r := New(logger, WithBufferSize(4))

	var input bytes.Buffer
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&input, "line %d\n", i)
	}

	done := make(chan struct{})
	go func() {
		r.Start(&input, nil)
		// Only wait for the scanners, not the wedged forwarder.
		r.scanners.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scanner blocked behind a stuck log consumer")
	}

	assert.Positive(t, r.Dropped(), "overflow must be dropped, not queued")
	close(blocked)
}

type blockingWriter struct {
	release chan struct{}
}

func (w blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestRelayRateLimitDrops(t *testing.T) {
	logger, _ := collectLogger()
	r := New(logger, WithRateLimit(1, 5))

	var input bytes.Buffer
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&input, "flood %d\n", i)
	}

	r.Start(&input, nil)
	r.Wait()

	assert.Positive(t, r.Dropped())
	assert.Less(t, r.Relayed(), int64(100))
}

func TestRelayStartIdempotent(t *testing.T) {
	logger, _ := collectLogger()
	r := New(logger)
	r.Start(strings.NewReader("once\n"), nil)
	r.Start(strings.NewReader("ignored\n"), nil)
	r.Wait()
	assert.Equal(t, int64(1), r.Relayed())
}

func TestRelayWaitWithoutStart(t *testing.T) {
	logger, _ := collectLogger()
	r := New(logger)
	r.Wait() // must not hang
}

func TestSinkAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "backend.log")

	s, err := OpenSink(path)
	require.NoError(t, err)
	_, err = io.WriteString(s, "first run\n")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSink(path)
	require.NoError(t, err)
	_, err = io.WriteString(s, "second run\n")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first run\nsecond run\n", string(data))
}

func TestSinkSerializesConcurrentWriters(t *testing.T) {
	buf := &lockedBuffer{}
	s := NewSink(buf)

	const writers = 8
	const linesEach = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < linesEach; i++ {
				fmt.Fprintf(s, "writer=%d line=%d\n", w, i)
			}
		}(w)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, writers*linesEach)
	for _, l := range lines {
		assert.Regexp(t, `^writer=\d+ line=\d+$`, l)
	}
}

func TestSinkLoggerWritesThroughSink(t *testing.T) {
	buf := &lockedBuffer{}
	s := NewSink(buf)

	s.Logger().Info("backend ready", "pid", 4242)
	assert.Contains(t, buf.String(), "backend ready")
	assert.Contains(t, buf.String(), "pid=4242")
}
