package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voyager-travel/voyager/internal/platform/db"
	"github.com/voyager-travel/voyager/migrations"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := rt.db(cmd.Context())
			if err != nil {
				return err
			}
			applied, err := db.Migrate(cmd.Context(), pool, migrations.FS, rt.logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s): %v\n", len(applied), applied)
			return nil
		},
	}
}
