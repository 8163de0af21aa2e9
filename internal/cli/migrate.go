package cli

import (
	"fmt"

	"keebstore/internal/database"

	"github.com/spf13/cobra"
)

var dropFirst bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Creates the catalogue, order and order number tables. Running it again
against an existing schema is a no-op.`,
	RunE: migrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop existing tables before creating")
}

func migrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if dropFirst {
		if err := database.Drop(ctx, pool, logger); err != nil {
			return err
		}
	}

	return database.Migrate(ctx, pool, logger)
}
