package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voyager-travel/voyager/internal/shared"
)

func newVendorsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Vendor maintenance",
	}

	var vendorID int64
	rebuild := &cobra.Command{
		Use:   "rebuild-totals",
		Short: "Recompute cached vendor purchase and payment totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := rt.wire(ctx)
			if err != nil {
				return err
			}
			if vendorID > 0 {
				if err := services.Ledger.RefreshTotals(ctx, vendorID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "vendor %d totals rebuilt\n", vendorID)
			} else {
				n, err := services.Ledger.RefreshAllTotals(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d vendor(s) rebuilt\n", n)
			}
			shared.Invalidate(ctx, services.DashboardCache, rt.logger)
			return nil
		},
	}
	rebuild.Flags().Int64Var(&vendorID, "vendor", 0, "only rebuild this vendor id")

	cmd.AddCommand(rebuild)
	return cmd
}
