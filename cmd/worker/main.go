// Package main is the entry point of the learnhub worker.
//
// The worker keeps the module catalog healthy in the background:
//   - purges soft-deleted issues whose retention has passed
//   - keeps solving records in step with their reviews
//   - evicts cached catalog lookups when a module layout changes
//
// Schema migrations can be applied or rolled back with the migrate command.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/learnhub/learnhub/config"
	"github.com/learnhub/learnhub/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/learnhub/pkg/logger"
	"github.com/learnhub/learnhub/pkg/retry"
)

const serviceVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "learnhub-worker",
	Short:         "Background worker for the learnhub module catalog",
	Long:          `Runs scheduled maintenance and event handlers for modules, issues and reviews.`,
	Version:       serviceVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the worker and block until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var (
	envFile        string
	skipMigrations bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "read environment variables from this file first")
	runCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and installs the default logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
		Output: os.Stdout,
	})
	slog.SetDefault(log)
	return cfg, log, nil
}

// connectDatabase opens the pool, retrying while the database comes up.
func connectDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	log.Info("connecting to database...")
	poolOpts := postgres.DefaultPoolOptions()
	poolOpts.MaxConns = cfg.Database.MaxConns
	poolOpts.MinConns = cfg.Database.MinConns

	dbRetrier := retry.DatabaseRetrier(retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not reachable, retrying", "attempt", attempt, "delay", delay, logger.Err(err))
	}))

	var dbConn *postgres.Connection
	err := dbRetrier.Do(ctx, func(ctx context.Context) error {
		conn, err := postgres.Connect(ctx, cfg.Database.URL, poolOpts)
		if err != nil {
			return err
		}
		dbConn = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return dbConn, nil
}
