package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/leadline/internal/config"
	"github.com/nextlevelbuilder/leadline/internal/notify"
	"github.com/nextlevelbuilder/leadline/internal/outbound"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage operator notifications",
	}
	cmd.AddCommand(notifyFlushCmd())
	cmd.AddCommand(notifyCountCmd())
	return cmd
}

func notifyFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Push unsent high-priority notifications to all admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				push := outbound.NewClient(cfg.Outbound.APIBase, cfg.Outbound.Token, cfg.Outbound.Source)
				escalator := notify.NewEscalator(stores.Notifications, stores.Admins, push, cfg.Tenant.OrgID)
				return escalator.Flush(cmd.Context())
			})
		},
	}
}

func notifyCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count unsent notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				n, err := stores.Notifications.CountUnsent(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%d unsent\n", n)
				return nil
			})
		},
	}
}
