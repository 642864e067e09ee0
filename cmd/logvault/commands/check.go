package commands

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/livp123/logvault/internal/event"
	"github.com/livp123/logvault/internal/utils/logger"
	"github.com/livp123/logvault/internal/writer"
)

var checkCreateTestLogs bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the event store, registry, and partitions",
	// Short: 检查事件存储、注册表和分区
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		log := logger.Get(cmd.Context())

		root := cfg.Storage.Root
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			cmd.Printf("❌ Storage root not found or not a directory: %s\n", root)
			return nil
		}
		cmd.Printf("Storage root: %s\n", root)

		registry := event.NewRegistry(root, log)
		if err := registry.Load(); err != nil {
			return err
		}
		if _, err := os.Stat(registry.Path()); err == nil {
			total := 0
			for _, names := range registry.Snapshot() {
				total += len(names)
			}
			cmd.Printf("Event registry: %s (%d categories, %d names)\n", registry.Path(), len(registry.Categories()), total)
		} else {
			cmd.Println("Event registry: not created yet (first write will create it)")
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			return err
		}
		var partitions []string
		for _, entry := range entries {
			if entry.IsDir() && len(entry.Name()) == len("2006-01-02") {
				partitions = append(partitions, entry.Name())
			}
		}
		sort.Strings(partitions)
		cmd.Printf("Date partitions: %d\n", len(partitions))
		for _, p := range partitions {
			files, _ := os.ReadDir(filepath.Join(root, p))
			cmd.Printf("  %s (%d category files)\n", p, len(files))
		}

		if checkCreateTestLogs {
			w, err := writer.New(root, registry, log)
			if err != nil {
				return err
			}
			for _, category := range event.WellKnownCategories() {
				w.Record(event.Record{
					Category: category,
					Name:     "test_entry",
					Severity: event.SeverityDebug,
					Source:   "check.create_test_logs",
					Message:  "test entry written by logvault check",
				})
			}
			cmd.Printf("✅ Wrote one test entry per well-known category (%d total)\n", len(event.WellKnownCategories()))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkCreateTestLogs, "create-test-logs", false, "Write a test entry for each well-known category")
	RootCmd.AddCommand(checkCmd)
}
