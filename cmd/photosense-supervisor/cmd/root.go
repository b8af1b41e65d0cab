// Package cmd provides the CLI commands for the PhotoSense supervisor
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhishekanand16/PhotoSense-AI/pkg/config"
)

var cfg *config.Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "photosense-supervisor",
	Short: "PhotoSense supervisor - manage the local AI backend sidecar",
	Long: `photosense-supervisor runs and monitors the PhotoSense backend: a local
HTTP service the desktop app talks to for photo analysis.

It spawns the backend executable, waits until its health endpoint answers,
relays its output into the shared backend log, and guarantees the backend
dies with the supervisor.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = "0.1.0"
}
