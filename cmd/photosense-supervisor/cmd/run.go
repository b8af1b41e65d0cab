package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/abhishekanand16/PhotoSense-AI/pkg/config"
	"github.com/abhishekanand16/PhotoSense-AI/pkg/relay"
	"github.com/abhishekanand16/PhotoSense-AI/pkg/supervisor"
	"github.com/abhishekanand16/PhotoSense-AI/pkg/termguard"
)

var (
	manifestPath string
	metricsAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the backend and supervise it until interrupted",
	Long: `Run spawns the PhotoSense backend (or attaches to one already listening),
waits for it to become healthy, and keeps it supervised until SIGINT/SIGTERM.
The backend is terminated on exit, including on panic.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to backend.yaml (overrides config)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	spec, err := loadBackendSpec()
	if err != nil {
		return err
	}

	sink, err := relay.OpenSink(cfg.Backend.LogFile())
	if err != nil {
		return fmt.Errorf("open backend log: %w", err)
	}
	defer sink.Close()

	logger := newLogger(io.MultiWriter(os.Stderr, sink), cfg.Log)

	metrics := supervisor.NewPrometheusMetricsCollector("")
	if metricsAddr != "" {
		go serveMetrics(logger, metrics)
	}

	sup := supervisor.New(spec,
		supervisor.WithLogger(logger),
		supervisor.WithMetricsCollector(metrics),
		supervisor.WithPollInterval(cfg.Backend.PollInterval()),
		supervisor.WithMaxAttempts(cfg.Backend.MaxAttempts),
		supervisor.WithStopGracePeriod(cfg.Backend.StopGrace()),
	)

	// Whatever happens below, the backend must not outlive us.
	defer termguard.Cleanup()

	var runErr error
	termguard.Protect(func() {
		runErr = superviseLoop(logger, sup)
	})
	return runErr
}

// superviseLoop starts the backend and blocks until it fails or the host is
// told to shut down.
func superviseLoop(logger *slog.Logger, sup *supervisor.Supervisor) error {
	if err := sup.Start(context.Background()); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case ev := <-sup.Events():
			switch ev.Type {
			case supervisor.EventReady:
				logger.Info("backend is ready", "endpoint", ev.Endpoint.Addr(), "attached", ev.Attached)
			case supervisor.EventFailed:
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				sup.Stop(stopCtx)
				cancel()
				return ev.Err
			}

		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())

			// A second signal skips the graceful path.
			go func() {
				<-sigCh
				logger.Warn("second signal, killing backend")
				termguard.Cleanup()
				os.Exit(1)
			}()

			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := sup.Stop(stopCtx)
			cancel()
			return err
		}
	}
}

// loadBackendSpec builds the backend spec from the manifest file when one is
// configured, otherwise from the inline config fields.
func loadBackendSpec() (*supervisor.Spec, error) {
	path := manifestPath
	if path == "" {
		path = cfg.Backend.Manifest
	}
	if path != "" {
		return supervisor.LoadSpec(path)
	}

	spec := &supervisor.Spec{
		Executable: cfg.Backend.Executable,
		Host:       cfg.Backend.Host,
		Port:       cfg.Backend.Port,
		DataDir:    cfg.Backend.DataDir,
		HealthCheck: supervisor.HealthCheckConfig{
			Path:     cfg.Backend.HealthPath,
			Interval: cfg.Backend.PollInterval(),
			Attempts: cfg.Backend.MaxAttempts,
		},
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func serveMetrics(logger *slog.Logger, metrics *supervisor.PrometheusMetricsCollector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	logger.Info("serving metrics", "addr", metricsAddr)
	if err := http.ListenAndServe(metricsAddr, mux); err != nil {
		logger.Error("metrics server exited", "error", err)
	}
}
