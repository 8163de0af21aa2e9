package cli

import (
	"fmt"

	"keebstore/internal/promo"

	"github.com/spf13/cobra"
)

var sampleDir string

var promoSampleCmd = &cobra.Command{
	Use:   "promo-sample",
	Short: "Write sample gzipped promo code files",
	Long: `Writes promocodes1.gz, promocodes2.gz and promocodes3.gz into the target
directory. KEEBLOVER, THOCK2026, SWITCHUP10 and LUBEDUP88 appear in at least
two files and are accepted by the default rules.`,
	Args: cobra.NoArgs,
	RunE: promoSample,
}

func init() {
	rootCmd.AddCommand(promoSampleCmd)

	promoSampleCmd.Flags().StringVar(&sampleDir, "dir", ".", "Directory to write the files into")
}

func promoSample(cmd *cobra.Command, args []string) error {
	paths, err := promo.WriteSamples(sampleDir)
	if err != nil {
		return fmt.Errorf("failed to write sample promo files: %w", err)
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
