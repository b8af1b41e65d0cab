package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhishekanand16/PhotoSense-AI/pkg/probe"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the backend is up and healthy",
	Long: `Status probes the configured backend endpoint: first a TCP reachability
check, then a single health request. Exits non-zero when the backend is down
or unhealthy.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to backend.yaml (overrides config)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	spec, err := loadBackendSpec()
	if err != nil {
		return err
	}
	endpoint := spec.Endpoint()

	if !probe.Reachable(endpoint, time.Second) {
		return fmt.Errorf("backend is not listening on %s", endpoint.Addr())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checker := probe.NewHealthChecker(spec.HealthCheck.Path, spec.HealthCheck.Timeout)
	if !checker.Healthy(ctx, endpoint) {
		return fmt.Errorf("backend on %s is listening but unhealthy", endpoint.Addr())
	}

	cmd.Printf("backend on %s is healthy\n", endpoint.Addr())
	return nil
}
