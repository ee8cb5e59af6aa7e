package cmd

import (
	"github.com/spf13/cobra"

	"adminpanel/internal/maintenance"
)

var syncOrderID string

var syncCmd = &cobra.Command{
	Use:   "sync-orders",
	Short: "Rewrite customer order mirrors from canonical orders",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect-order ORDER_ID",
	Short: "Print an order, its customer mirror and the fields that differ",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(inspectCmd)

	syncCmd.Flags().StringVar(&syncOrderID, "order", "", "Only sync this order id")
}

func runSync(cmd *cobra.Command, args []string) error {
	st, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := maintenance.SyncOrders(cmd.Context(), st.Orders, maintenance.SyncOptions{
		OrderID: syncOrderID,
		DryRun:  dryRun,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runInspect(cmd *cobra.Command, args []string) error {
	st, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	inspection, err := maintenance.InspectOrder(cmd.Context(), st.Orders, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), inspection)
}
