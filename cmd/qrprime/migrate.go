package main

import (
	"fmt"

	"github.com/dukerupert/qrprime/internal"
	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if !migrateDown {
			return migrate(ctx, cfg, logger)
		}

		db, err := internal.OpenMigrationDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := internal.RollbackMigration(ctx, db); err != nil {
			return err
		}
		version, err := internal.MigrationVersion(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		logger.Info("Rolled back one migration", "version", version)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the most recent migration")
}
