package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livp123/logvault/internal/event"
	"github.com/livp123/logvault/internal/utils/logger"
)

var eventsCategoryFilter string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and manage the event registry",
	// Short: 查看和管理事件注册表
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known categories and their registered event names",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := openRegistry(cmd)
		if err != nil {
			return err
		}

		cmd.Printf("Event registry stored at: %s\n", registry.Path())
		snapshot := registry.Snapshot()
		for _, category := range registry.Categories() {
			if eventsCategoryFilter != "" && string(category) != eventsCategoryFilter {
				continue
			}
			cmd.Printf("\n%s — %s\n", category, category.Description())
			names := snapshot[category]
			if len(names) == 0 {
				cmd.Println("  (no registered events)")
				continue
			}
			for _, name := range names {
				cmd.Printf("  - %s\n", name)
			}
		}
		return nil
	},
}

var eventsRegisterCmd = &cobra.Command{
	Use:   "register <category> <name>",
	Short: "Register an event name under a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := openRegistry(cmd)
		if err != nil {
			return err
		}

		added, err := registry.EnsureRegistered(event.Category(args[0]), args[1])
		if err != nil {
			return fmt.Errorf("register event: %w", err)
		}
		if added {
			cmd.Printf("✅ Registered %s/%s\n", args[0], args[1])
		} else {
			cmd.Printf("Event %s/%s was already registered\n", args[0], args[1])
		}
		return nil
	},
}

func openRegistry(cmd *cobra.Command) (*event.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registry := event.NewRegistry(cfg.Storage.Root, logger.Get(cmd.Context()))
	if err := registry.Load(); err != nil {
		return nil, err
	}
	return registry, nil
}

func init() {
	eventsListCmd.Flags().StringVar(&eventsCategoryFilter, "category", "", "Only show one category")
	eventsCmd.AddCommand(eventsListCmd, eventsRegisterCmd)
	RootCmd.AddCommand(eventsCmd)
}
