// Package config loads host-side configuration for the PhotoSense supervisor.
//
// Configuration is layered: built-in defaults, then an optional config.yaml
// found in ~/.photosense or the working directory, then PHOTOSENSE_* environment
// variables (e.g. PHOTOSENSE_BACKEND_PORT).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the supervisor host.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Log     LogConfig     `mapstructure:"log"`
}

// BackendConfig configures the supervised backend sidecar.
type BackendConfig struct {
	// Manifest is the path to the backend.yaml spec. When set, it takes
	// precedence over the inline fields below.
	Manifest string `mapstructure:"manifest"`

	// Executable is the backend binary path (used without a manifest).
	Executable string `mapstructure:"executable"`

	// Host and Port form the endpoint the backend binds.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// HealthPath is the HTTP liveness path.
	HealthPath string `mapstructure:"health_path"`

	// PollIntervalMS is the delay between readiness attempts.
	PollIntervalMS int `mapstructure:"poll_interval_ms"`

	// MaxAttempts bounds the readiness poll.
	MaxAttempts int `mapstructure:"max_attempts"`

	// StopGraceMS is the wait between SIGTERM and SIGKILL on stop.
	StopGraceMS int `mapstructure:"stop_grace_ms"`

	// DataDir is the application data directory handed to the backend.
	// Empty means the platform default.
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig configures supervisor logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// PollInterval returns the readiness poll interval as a duration.
func (b BackendConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// StopGrace returns the stop grace period as a duration.
func (b BackendConfig) StopGrace() time.Duration {
	return time.Duration(b.StopGraceMS) * time.Millisecond
}

// Load reads configuration from files and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.photosense")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PHOTOSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Backend.DataDir == "" {
		cfg.Backend.DataDir = DefaultDataDir()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.manifest", "")
	v.SetDefault("backend.executable", "")
	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 8000)
	v.SetDefault("backend.health_path", "/health")
	v.SetDefault("backend.poll_interval_ms", 500)
	v.SetDefault("backend.max_attempts", 60)
	v.SetDefault("backend.stop_grace_ms", 5000)
	v.SetDefault("backend.data_dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// DefaultDataDir resolves the platform application data directory for
// PhotoSense: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_DATA_HOME (or ~/.local/share) elsewhere. Falls back to
// ~/.photosense-ai when no platform directory can be determined.
func DefaultDataDir() string {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, "Library", "Application Support")
		}
	default:
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			if home, err := os.UserHomeDir(); err == nil {
				base = filepath.Join(home, ".local", "share")
			}
		}
	}

	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".photosense-ai"
		}
		return filepath.Join(home, ".photosense-ai")
	}

	return filepath.Join(base, "PhotoSense-AI")
}

// LogFile returns the shared backend log path under the data directory.
func (b BackendConfig) LogFile() string {
	return filepath.Join(b.DataDir, "logs", "backend.log")
}
