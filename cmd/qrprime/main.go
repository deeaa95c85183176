// Command qrprime runs the billing API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/qrprime/internal"
	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "qrprime",
	Short:         "QR Prime billing service",
	Long:          `Subscription checkout, Stripe webhook reconciliation and billing history for QR Prime.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(syncPlansCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger.
func setup() (*internal.Config, *slog.Logger, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func stripeConfig(cfg *internal.Config) billing.StripeConfig {
	return billing.StripeConfig{
		APIKey:         cfg.Stripe.SecretKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		MaxRetries:     cfg.Stripe.MaxRetries,
		TimeoutSeconds: cfg.Stripe.TimeoutSeconds,
	}
}

func migrate(ctx context.Context, cfg *internal.Config, logger *slog.Logger) error {
	db, err := internal.OpenMigrationDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(ctx, db); err != nil {
		return err
	}
	version, err := internal.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("Database migrations completed successfully", "version", version)
	return nil
}
