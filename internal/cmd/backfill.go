package cmd

import (
	"github.com/spf13/cobra"

	"adminpanel/internal/maintenance"
)

var backfillWorkers int

var backfillCmd = &cobra.Command{
	Use:   "backfill-totals",
	Short: "Set missing item totals and recompute order pricing",
	Long: `Scan every order, set totalPrice = quantity * unitPrice on items where
it is missing or wrong, and recompute subtotal and grandTotal.`,
	Args: cobra.NoArgs,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().IntVar(&backfillWorkers, "workers", 4, "Concurrent order writes")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	st, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := maintenance.BackfillTotals(cmd.Context(), st.Orders, maintenance.BackfillOptions{
		DryRun:  dryRun,
		Workers: backfillWorkers,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}
