package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/leadline/internal/config"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin principals",
	}
	cmd.AddCommand(adminAddCmd())
	cmd.AddCommand(adminListCmd())
	return cmd
}

func adminAddCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add <phone>",
		Short: "Register a trusted operator phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				a := &store.AdminPrincipal{
					Phone:    normalizeArg(cfg, args[0]),
					OrgID:    cfg.Tenant.OrgID,
					Role:     role,
					AIStatus: store.AIStatusActive,
				}
				if err := stores.Admins.Create(cmd.Context(), a); err != nil {
					return err
				}
				fmt.Printf("added admin %s (%s)\n", a.Phone, a.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "member", "admin role (admin or member)")
	return cmd
}

func adminListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin principals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				admins, err := stores.Admins.List(cmd.Context(), cfg.Tenant.OrgID)
				if err != nil {
					return err
				}
				for _, a := range admins {
					fmt.Printf("%s\t%s\t%s\n", a.Phone, a.Role, a.AIStatus)
				}
				return nil
			})
		},
	}
}
