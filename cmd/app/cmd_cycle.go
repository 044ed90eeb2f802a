package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"MomentumPull/internal/di"

	"github.com/spf13/cobra"
)

var cycleTimeout time.Duration

// cycleCmd runs exactly one aggregation cycle and prints its report.
var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one aggregation cycle and print the report as JSON",
	Long: `Fetch every configured instrument and timeframe once, score them,
append the batch to the snapshot store and print the cycle report.

Example usage:
  momentumpull cycle --config config/config.yaml --timeout 2m`,
	RunE: runCycle,
}

func init() {
	cycleCmd.Flags().DurationVar(&cycleTimeout, "timeout", 5*time.Minute, "Upper bound for the cycle")
}

func runCycle(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cycle, cleanup, err := di.InitializeCycle(cfg)
	if err != nil {
		return fmt.Errorf("cycle initialization failed: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), cycleTimeout)
	defer cancel()

	report, err := cycle.RunOnce(ctx)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return fmt.Errorf("encode report: %w", encErr)
		}
	}
	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}
	return nil
}
