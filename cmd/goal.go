package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/leadline/internal/config"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

func goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage conversation goals",
	}
	cmd.AddCommand(goalCreateCmd())
	cmd.AddCommand(goalCompleteCmd())
	cmd.AddCommand(goalAbandonCmd())
	cmd.AddCommand(goalListCmd())
	return cmd
}

func goalCreateCmd() *cobra.Command {
	var goalType string
	cmd := &cobra.Command{
		Use:   "create <phone> <description>",
		Short: "Create an active goal (abandons any existing active goal)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				g := &store.ConversationGoal{
					ContactPhone: normalizeArg(cfg, args[0]),
					Description:  args[1],
					Type:         goalType,
					Status:       store.GoalStatusActive,
				}
				if err := stores.Goals.Create(cmd.Context(), g); err != nil {
					return err
				}
				fmt.Printf("created goal %s for %s\n", g.ID, g.ContactPhone)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&goalType, "type", "", "goal type (e.g. schedule_visit, close_sale)")
	return cmd
}

func goalCompleteCmd() *cobra.Command {
	var summary string
	cmd := &cobra.Command{
		Use:   "complete <phone>",
		Short: "Complete the active goal for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				phone := normalizeArg(cfg, args[0])
				g, err := stores.Goals.ActiveByPhone(cmd.Context(), phone)
				if err != nil {
					return err
				}
				ok, err := stores.Goals.Complete(cmd.Context(), g.ID, summary)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("goal was no longer active")
					return nil
				}
				fmt.Printf("completed goal %s\n", g.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "completion summary")
	return cmd
}

func goalAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <phone>",
		Short: "Abandon the active goal for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				phone := normalizeArg(cfg, args[0])
				g, err := stores.Goals.ActiveByPhone(cmd.Context(), phone)
				if err != nil {
					return err
				}
				ok, err := stores.Goals.Abandon(cmd.Context(), g.ID)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("goal was no longer active")
					return nil
				}
				fmt.Printf("abandoned goal %s\n", g.ID)
				return nil
			})
		},
	}
}

func goalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <phone>",
		Short: "List goals for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(func(cfg *config.Config, stores *store.Stores) error {
				goals, err := stores.Goals.ListByPhone(cmd.Context(), normalizeArg(cfg, args[0]))
				if err != nil {
					return err
				}
				for _, g := range goals {
					fmt.Printf("%s\t%s\t%s\n", g.ID, g.Status, g.Description)
				}
				return nil
			})
		},
	}
}
