package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no stray config.yaml is picked up.
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Backend.Host)
	assert.Equal(t, 8000, cfg.Backend.Port)
	assert.Equal(t, "/health", cfg.Backend.HealthPath)
	assert.Equal(t, 500, cfg.Backend.PollIntervalMS)
	assert.Equal(t, 60, cfg.Backend.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Backend.DataDir)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
backend:
  port: 8123
  max_attempts: 10
  data_dir: /tmp/photosense-test
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Backend.Port)
	assert.Equal(t, 10, cfg.Backend.MaxAttempts)
	assert.Equal(t, "/tmp/photosense-test", cfg.Backend.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.Backend.Host)
}

func TestEnvOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PHOTOSENSE_BACKEND_PORT", "9001")
	t.Setenv("PHOTOSENSE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Backend.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestDurationHelpers(t *testing.T) {
	b := BackendConfig{PollIntervalMS: 500, StopGraceMS: 5000}
	assert.Equal(t, "500ms", b.PollInterval().String())
	assert.Equal(t, "5s", b.StopGrace().String())
}

func TestLogFileUnderDataDir(t *testing.T) {
	b := BackendConfig{DataDir: "/data/photosense"}
	assert.Equal(t, filepath.Join("/data/photosense", "logs", "backend.log"), b.LogFile())
}

func TestDefaultDataDirNotEmpty(t *testing.T) {
	assert.NotEmpty(t, DefaultDataDir())
}

func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}
