package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/shared"
)

func newSeedCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create bootstrap records",
	}

	var email, password, name string
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Create or reset an admin account",
		Long:  "Create or reset an admin account. The password falls back to VOYAGER_ADMIN_PASSWORD so it stays out of shell history.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("VOYAGER_ADMIN_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and a password are required")
			}
			services, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			user, err := services.Auth.EnsureUser(cmd.Context(), auth.CreateUserRequest{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     shared.RoleAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s ready (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	admin.Flags().StringVar(&email, "email", "", "login email")
	admin.Flags().StringVar(&password, "password", "", "login password")
	admin.Flags().StringVar(&name, "name", "Administrator", "display name")

	cmd.AddCommand(admin, newSeedDemoCommand(rt))
	return cmd
}
