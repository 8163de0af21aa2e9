// Package cli wires the keebstore commands.
package cli

import (
	"fmt"
	"os"

	"keebstore/internal/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keebstore",
	Short: "Keyboard shop order backend",
	Long: `keebstore serves the catalogue and order API of a mechanical keyboard shop.

Configuration is read from the environment and, when present, a .env file in
the working directory.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the root logger shared by every command.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, config.NewLogger(cfg.Logger), nil
}
