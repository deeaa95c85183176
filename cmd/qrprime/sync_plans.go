package main

import (
	"fmt"

	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/dukerupert/qrprime/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var syncPlansCmd = &cobra.Command{
	Use:   "sync-plans",
	Short: "Create Stripe products and prices for paid plans that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		provider, err := billing.NewStripeProvider(stripeConfig(cfg), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}

		syncer := service.NewPlanSyncer(repository.New(pool), provider, logger)
		res, err := syncer.SyncPlans(ctx)
		logger.Info("Plan sync finished", "synced", res.Synced, "failed", res.Failed)
		if err != nil {
			return fmt.Errorf("plan sync incomplete: %w", err)
		}
		return nil
	},
}
