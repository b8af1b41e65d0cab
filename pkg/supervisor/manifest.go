package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhishekanand16/PhotoSense-AI/pkg/probe"
)

// Spec defines the declarative configuration for the backend sidecar.
type Spec struct {
	// Name of the backend (used in logs and errors)
	Name string `yaml:"name"`

	// Path to the backend executable (relative to the spec file)
	Executable string `yaml:"executable"`

	// Host the backend binds; injected as PHOTOSENSE_HOST
	Host string `yaml:"host"`

	// Port the backend binds; injected as PHOTOSENSE_PORT
	Port int `yaml:"port"`

	// Health check configuration
	HealthCheck HealthCheckConfig `yaml:"healthcheck"`

	// Application data directory; injected as PHOTOSENSE_DATA_DIR
	DataDir string `yaml:"data_dir"`

	// Extra environment variables for the backend process
	Environment map[string]string `yaml:"environment"`

	// Internal: absolute path to the spec file (populated during load)
	specPath string `yaml:"-"`
}

// HealthCheckConfig defines readiness poll parameters.
type HealthCheckConfig struct {
	// HTTP path for the health endpoint
	Path string `yaml:"path"`

	// Interval between readiness attempts
	Interval time.Duration `yaml:"interval"`

	// Timeout for each probe and health request
	Timeout time.Duration `yaml:"timeout"`

	// Attempts is the readiness budget; the poll gives up after this many
	Attempts int `yaml:"attempts"`
}

// LoadSpec loads a backend spec from a YAML file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve spec path: %w", err)
	}
	spec.specPath = absPath

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate checks required fields and fills in defaults. It deliberately does
// NOT stat the executable: existence is checked at spawn time so a spec can
// be loaded before the backend bundle is unpacked.
func (s *Spec) Validate() error {
	if s.Executable == "" {
		return ErrInvalidSpec("executable", "executable is required")
	}

	if s.Name == "" {
		s.Name = filepath.Base(s.Executable)
	}

	if s.Host == "" {
		s.Host = "127.0.0.1"
	}

	if s.Port == 0 {
		s.Port = 8000
	}
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidSpec("port", fmt.Sprintf("port must be between 1 and 65535, got %d", s.Port))
	}

	if s.HealthCheck.Path == "" {
		s.HealthCheck.Path = "/health"
	}

	if s.HealthCheck.Interval == 0 {
		s.HealthCheck.Interval = 500 * time.Millisecond
	}
	if s.HealthCheck.Interval < 0 {
		return ErrInvalidSpec("healthcheck.interval", "interval must be positive")
	}

	if s.HealthCheck.Timeout == 0 {
		s.HealthCheck.Timeout = time.Second
	}

	if s.HealthCheck.Attempts == 0 {
		s.HealthCheck.Attempts = 60
	}
	if s.HealthCheck.Attempts < 0 {
		return ErrInvalidSpec("healthcheck.attempts", "attempts must be positive")
	}

	return nil
}

// Endpoint returns the network endpoint the backend is expected to bind.
func (s *Spec) Endpoint() probe.Endpoint {
	return probe.Endpoint{Host: s.Host, Port: s.Port}
}

// ExecutablePath returns the absolute path to the backend executable.
func (s *Spec) ExecutablePath() string {
	if filepath.IsAbs(s.Executable) {
		return s.Executable
	}

	if s.specPath != "" {
		// Resolve relative to the spec file's directory
		return filepath.Join(filepath.Dir(s.specPath), s.Executable)
	}

	abs, err := filepath.Abs(s.Executable)
	if err != nil {
		return s.Executable
	}
	return abs
}

// SpecPath returns the absolute path to the spec file, empty for specs built
// in code.
func (s *Spec) SpecPath() string {
	return s.specPath
}
