package cmd

import (
	"github.com/spf13/cobra"

	"adminpanel/internal/maintenance"
)

var rekeyCmd = &cobra.Command{
	Use:   "rekey-customers",
	Short: "Move phone-keyed customers to generated ids",
	Long: `Find customers whose document id is their phone number, give each a
generated id, repoint their orders and rebuild their order mirrors.`,
	Args: cobra.NoArgs,
	RunE: runRekey,
}

func init() {
	rootCmd.AddCommand(rekeyCmd)
}

func runRekey(cmd *cobra.Command, args []string) error {
	st, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := maintenance.RekeyCustomers(cmd.Context(), st, maintenance.RekeyOptions{DryRun: dryRun})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}
