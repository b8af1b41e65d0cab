package supervisor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpecFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "backend.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSpecAppliesDefaults(t *testing.T) {
	path := writeSpecFile(t, `
executable: bin/photosense-backend
`)

	spec, err := LoadSpec(path)
	require.NoError(t, err)

	assert.Equal(t, "photosense-backend", spec.Name)
	assert.Equal(t, "127.0.0.1", spec.Host)
	assert.Equal(t, 8000, spec.Port)
	assert.Equal(t, "/health", spec.HealthCheck.Path)
	assert.Equal(t, 500*time.Millisecond, spec.HealthCheck.Interval)
	assert.Equal(t, time.Second, spec.HealthCheck.Timeout)
	assert.Equal(t, 60, spec.HealthCheck.Attempts)
}

func TestLoadSpecFullDocument(t *testing.T) {
	path := writeSpecFile(t, `
name: photosense
executable: bin/photosense-backend
host: 127.0.0.1
port: 8123
healthcheck:
  path: /healthz
  attempts: 10
data_dir: /var/lib/photosense
environment:
  PHOTOSENSE_LOG_LEVEL: debug
`)

	spec, err := LoadSpec(path)
	require.NoError(t, err)

	assert.Equal(t, "photosense", spec.Name)
	assert.Equal(t, 8123, spec.Port)
	assert.Equal(t, "/healthz", spec.HealthCheck.Path)
	assert.Equal(t, 10, spec.HealthCheck.Attempts)
	assert.Equal(t, "/var/lib/photosense", spec.DataDir)
	assert.Equal(t, "debug", spec.Environment["PHOTOSENSE_LOG_LEVEL"])
	assert.Equal(t, "127.0.0.1:8123", spec.Endpoint().Addr())
}

func TestLoadSpecResolvesExecutableRelativeToFile(t *testing.T) {
	path := writeSpecFile(t, `
executable: bin/photosense-backend
`)

	spec, err := LoadSpec(path)
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(path), "bin", "photosense-backend")
	assert.Equal(t, want, spec.ExecutablePath())
	assert.Equal(t, path, spec.SpecPath())
}

func TestValidateMissingExecutable(t *testing.T) {
	spec := &Spec{}
	err := spec.Validate()
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrorCodeInvalidSpec))
}

func TestValidateRejectsBadPort(t *testing.T) {
	spec := &Spec{Executable: "backend", Port: 70000}
	err := spec.Validate()
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrorCodeInvalidSpec))
}

func TestValidateDoesNotStatExecutable(t *testing.T) {
	// Existence is checked at spawn time, not load time.
	spec := &Spec{Executable: "/does/not/exist/backend"}
	assert.NoError(t, spec.Validate())
}

func TestLoadSpecMissingFile(t *testing.T) {
	_, err := LoadSpec(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSpecInvalidYAML(t *testing.T) {
	path := writeSpecFile(t, "{not valid: [yaml")
	_, err := LoadSpec(path)
	assert.Error(t, err)
}
