package supervisor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSupervisorErrorFormatting(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewError(ErrorCodeSpawnFailed, "Failed to start backend").
		WithContext("pid", 0).
		WithCause(cause).
		WithSuggestion("Check permissions")

	msg := err.Error()
	assert.Contains(t, msg, "[SPAWN_FAILED]")
	assert.Contains(t, msg, "Failed to start backend")
	assert.Contains(t, msg, "pid=0")
	assert.Contains(t, msg, "Cause: permission denied")
	assert.Contains(t, msg, "Suggestion: Check permissions")
}

func TestSupervisorErrorUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := ErrBackendNotFound("/opt/backend", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(fmt.Errorf("start: %w", err), cause))
}

func TestIsErrorCode(t *testing.T) {
	err := ErrAlreadyRunning("127.0.0.1:8000")
	assert.True(t, IsErrorCode(err, ErrorCodeAlreadyRunning))
	assert.False(t, IsErrorCode(err, ErrorCodeSpawnFailed))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrorCodeAlreadyRunning))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCodeReadinessTimeout,
		GetErrorCode(ErrReadinessTimeout("127.0.0.1:8000", 60, 30*time.Second)))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestConstructorsCarryContext(t *testing.T) {
	err := ErrReadinessTimeout("127.0.0.1:8000", 60, 30*time.Second)
	assert.Equal(t, "127.0.0.1:8000", err.Context["endpoint"])
	assert.Equal(t, 60, err.Context["attempts"])
	assert.NotEmpty(t, GetSuggestion(err))

	err = ErrInvalidState("start", StateReady)
	assert.Contains(t, err.Message, "Ready")
}
