package main

import (
	"fmt"
	"log"
	"os"

	"MomentumPull/internal/di"
	"MomentumPull/pkg/config"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd starts the long-running pipeline when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "momentumpull",
	Short: "Multi-timeframe momentum aggregation over TradingView ratings",
	Long: `MomentumPull polls technical ratings for a watchlist across several
timeframes, folds them into one weighted momentum score per instrument,
appends every cycle to the snapshot store and serves analytics over it.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Run the cycle scheduler, dashboard refresher and HTTP API",
	RunE:    runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd, cycleCmd, dashboardCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Printf("env=%s store=%s symbols=%d", cfg.Environment, cfg.Store.Type, len(cfg.Momentum.Symbols))

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	// Run application (blocks until signal)
	return app.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
