package supervisor

import (
	"fmt"
	"strings"
	"time"
)

// SupervisorError represents an error with additional context for troubleshooting.
type SupervisorError struct {
	// Code identifies the error type
	Code ErrorCode

	// Message is the primary error message
	Message string

	// Context provides additional details
	Context map[string]interface{}

	// Cause is the underlying error (if any)
	Cause error

	// Suggestion provides actionable guidance for resolving the error
	Suggestion string
}

// ErrorCode identifies categories of errors
type ErrorCode string

const (
	// Backend resolution errors
	ErrorCodeBackendNotFound      ErrorCode = "BACKEND_NOT_FOUND"
	ErrorCodeBackendNotExecutable ErrorCode = "BACKEND_NOT_EXECUTABLE"
	ErrorCodeInvalidSpec          ErrorCode = "INVALID_SPEC"

	// Lifecycle errors
	ErrorCodeSpawnFailed       ErrorCode = "SPAWN_FAILED"
	ErrorCodeAlreadyRunning    ErrorCode = "ALREADY_RUNNING"
	ErrorCodeReadinessTimeout  ErrorCode = "READINESS_TIMEOUT"
	ErrorCodeHealthCheckFailed ErrorCode = "HEALTH_CHECK_FAILED"
	ErrorCodeBackendExited     ErrorCode = "BACKEND_EXITED"
	ErrorCodeInvalidState      ErrorCode = "INVALID_STATE"
)

// Error implements the error interface
func (e *SupervisorError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		var contextParts []string
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *SupervisorError) Unwrap() error {
	return e.Cause
}

// NewError creates a new SupervisorError with the given code and message
func NewError(code ErrorCode, message string) *SupervisorError {
	return &SupervisorError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *SupervisorError) WithContext(key string, value interface{}) *SupervisorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause to the error
func (e *SupervisorError) WithCause(cause error) *SupervisorError {
	e.Cause = cause
	return e
}

// WithSuggestion adds an actionable suggestion to the error
func (e *SupervisorError) WithSuggestion(suggestion string) *SupervisorError {
	e.Suggestion = suggestion
	return e
}

// Common error constructors with helpful suggestions

// ErrBackendNotFound creates an error for a missing backend executable
func ErrBackendNotFound(execPath string, cause error) *SupervisorError {
	return NewError(ErrorCodeBackendNotFound,
		"Backend executable not found").
		WithContext("executable_path", execPath).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Verify the backend bundle is present:\n"+
				"  ls -la %s\n"+
				"Reinstall the application if the backend binary is missing",
			execPath))
}

// ErrBackendNotExecutable creates an error for a backend that cannot be made runnable
func ErrBackendNotExecutable(execPath string, cause error) *SupervisorError {
	return NewError(ErrorCodeBackendNotExecutable,
		"Backend executable is not runnable").
		WithContext("executable_path", execPath).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Make the backend runnable:\n"+
				"  chmod +x %s",
			execPath))
}

// ErrInvalidSpec creates an error for spec validation failures
func ErrInvalidSpec(field, reason string) *SupervisorError {
	return NewError(ErrorCodeInvalidSpec,
		fmt.Sprintf("Invalid backend spec: %s", reason)).
		WithContext("field", field).
		WithSuggestion(
			"Review backend.yaml and ensure all values are valid.\n" +
				"See the Spec struct documentation for valid ranges.")
}

// ErrSpawnFailed creates an error for backend start failures
func ErrSpawnFailed(name string, cause error) *SupervisorError {
	return NewError(ErrorCodeSpawnFailed,
		fmt.Sprintf("Failed to start backend '%s'", name)).
		WithContext("backend_name", name).
		WithCause(cause).
		WithSuggestion(
			"Common causes:\n" +
				"  1. Executable not found or not runnable\n" +
				"  2. Missing dependencies (libraries, environment variables)\n" +
				"  3. Insufficient permissions\n" +
				"Check the backend log for more details")
}

// ErrAlreadyRunning creates an error for a port already claimed by another process
func ErrAlreadyRunning(endpoint string) *SupervisorError {
	return NewError(ErrorCodeAlreadyRunning,
		"Another process is already listening on the backend endpoint").
		WithContext("endpoint", endpoint).
		WithSuggestion(fmt.Sprintf(
			"Find the listener and stop it, or change the configured port:\n"+
				"  lsof -i @%s",
			endpoint))
}

// ErrReadinessTimeout creates an error for an exhausted readiness budget
func ErrReadinessTimeout(endpoint string, attempts int, waited time.Duration) *SupervisorError {
	return NewError(ErrorCodeReadinessTimeout,
		"Backend did not become ready within the attempt budget").
		WithContext("endpoint", endpoint).
		WithContext("attempts", attempts).
		WithContext("waited", waited.String()).
		WithSuggestion(
			"The backend process is still running but never answered its\n" +
				"health check. Check the backend log for startup errors;\n" +
				"model loading on first run can exceed the default budget.")
}

// ErrHealthCheckFailed creates an error for health check failures
func ErrHealthCheckFailed(healthURL string, cause error) *SupervisorError {
	return NewError(ErrorCodeHealthCheckFailed,
		"Backend health check failed").
		WithContext("health_url", healthURL).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Verify the health endpoint is responding:\n"+
				"  curl %s",
			healthURL))
}

// ErrBackendExited creates an error for a backend that died during startup
func ErrBackendExited(name string, cause error) *SupervisorError {
	return NewError(ErrorCodeBackendExited,
		fmt.Sprintf("Backend '%s' exited before becoming ready", name)).
		WithContext("backend_name", name).
		WithCause(cause).
		WithSuggestion(
			"Check the backend log for the crash output.\n" +
				"A missing data directory or corrupt model cache is the usual cause.")
}

// ErrInvalidState creates an error for operations rejected by the state machine
func ErrInvalidState(op string, state State) *SupervisorError {
	return NewError(ErrorCodeInvalidState,
		fmt.Sprintf("Cannot %s while %s", op, state)).
		WithContext("operation", op).
		WithContext("state", state.String()).
		WithSuggestion("Stop the supervisor before starting it again")
}

// IsErrorCode checks if an error has the specified error code
func IsErrorCode(err error, code ErrorCode) bool {
	if supErr, ok := err.(*SupervisorError); ok {
		return supErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or empty string if not a SupervisorError
func GetErrorCode(err error) ErrorCode {
	if supErr, ok := err.(*SupervisorError); ok {
		return supErr.Code
	}
	return ""
}

// GetSuggestion returns the suggestion from an error, or empty string if not available
func GetSuggestion(err error) string {
	if supErr, ok := err.(*SupervisorError); ok {
		return supErr.Suggestion
	}
	return ""
}
