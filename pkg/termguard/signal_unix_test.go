//go:build !windows

package termguard

import (
	"log/slog"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalTriggersCleanup(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var kills atomic.Int64
	kill = func(pid int) { kills.Add(1) }

	exited := make(chan int, 1)
	stop := InstallSignalHandler(slog.Default(), func(code int) { exited <- code })
	defer stop()

	Record(4242)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler never fired")
	}
	assert.Equal(t, int64(1), kills.Load())
}
