package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eventcatalog/internal/config"
	"eventcatalog/internal/logger"
	"eventcatalog/pkg/logging"
)

var (
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalog-service",
		Short: "Industry event catalog pipeline",
		Long:  "Fetches industry event data from configured sources, merges it with the curated event list, scores every event and publishes the catalog snapshot",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd executes a single pipeline run and exits; the process exit code is
// the run outcome.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one catalog update and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				return app.RunOnce(ctx)
			})
		},
	}
}

// serveCmd starts the scheduler and the operational HTTP endpoints.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run on a schedule with trigger/health/metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				return app.Serve(ctx)
			})
		},
	}
}

func withApp(fn func(ctx context.Context, app *App) error) error {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
		if configFile == "" {
			earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
			return fmt.Errorf("config file is required")
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return err
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := NewApp(cfg, log)
	if err := app.Initialize(ctx); err != nil {
		log.Errorf("Failed to initialize application: %v", err)
		return err
	}

	if err := fn(ctx, app); err != nil {
		log.ErrorwCtx(ctx, "Application error", "error", err)
		return err
	}
	return nil
}
