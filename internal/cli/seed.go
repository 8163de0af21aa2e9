package cli

import (
	"fmt"

	"keebstore/internal/database"

	"github.com/spf13/cobra"
)

var migrateFirst bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the sample keyboard catalogue",
	RunE:  seed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply the schema before seeding")
}

func seed(cmd *cobra.Command, args []string) error {
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

	if migrateFirst {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	return database.Seed(ctx, pool, logger)
}
