package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/leadline/internal/config"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

func contactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage contacts",
	}
	cmd.AddCommand(contactAddCmd())
	cmd.AddCommand(contactPauseCmd())
	cmd.AddCommand(contactResumeCmd())
	cmd.AddCommand(contactListCmd())
	return cmd
}

func contactAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <phone>",
		Short: "Add a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				c := &store.Contact{
					Phone:    normalizeArg(cfg, args[0]),
					Name:     name,
					OrgID:    cfg.Tenant.OrgID,
					AIStatus: store.AIStatusActive,
				}
				if err := stores.Contacts.Create(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Printf("added %s (%s)\n", c.Phone, c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func contactPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <phone>",
		Short: "Pause automation for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				phone := normalizeArg(cfg, args[0])
				if err := stores.Contacts.SetAIStatus(cmd.Context(), phone, store.AIStatusPaused); err != nil {
					return err
				}
				fmt.Printf("paused %s\n", phone)
				return nil
			})
		},
	}
}

func contactResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <phone>",
		Short: "Resume automation for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				phone := normalizeArg(cfg, args[0])
				if err := stores.Contacts.SetAIStatus(cmd.Context(), phone, store.AIStatusActive); err != nil {
					return err
				}
				fmt.Printf("resumed %s\n", phone)
				return nil
			})
		},
	}
}

func contactListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				contacts, err := stores.Contacts.List(cmd.Context(), cfg.Tenant.OrgID)
				if err != nil {
					return err
				}
				for _, c := range contacts {
					fmt.Printf("%s\t%s\t%s\n", c.Phone, c.AIStatus, c.Name)
				}
				return nil
			})
		},
	}
}
