package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/livp123/logvault/internal/retention"
	"github.com/livp123/logvault/internal/utils/logger"
)

var rotateDryRun bool

var rotateCmd = &cobra.Command{
	Use:   "rotate <days>",
	Short: "Delete event partitions older than the given number of days",
	// Short: 删除早于指定天数的事件分区
	Long: `Rotate removes whole date partitions from the event store. The
registry, parser cursors, and the fallback file are never touched.
Use --dry-run to see what would be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		days, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		results, err := retention.Sweep(cfg.Storage.Root, days, rotateDryRun, logger.Get(cmd.Context()))
		if err != nil {
			return err
		}

		var affected int
		var totalBytes int64
		var failed int
		for _, res := range results {
			switch {
			case res.Err != nil:
				failed++
				cmd.Printf("❌ %s: %v\n", res.Partition, res.Err)
			case rotateDryRun:
				affected++
				totalBytes += res.SizeBytes
				cmd.Printf("Would delete: %s (%s)\n", res.Partition, retention.FormatSize(res.SizeBytes))
			default:
				affected++
				totalBytes += res.SizeBytes
				cmd.Printf("Deleted: %s (%s)\n", res.Partition, retention.FormatSize(res.SizeBytes))
			}
		}

		if rotateDryRun {
			cmd.Printf("✅ Dry run completed. Would have deleted %d partitions (%s).\n", affected, retention.FormatSize(totalBytes))
		} else {
			cmd.Printf("✅ Retention sweep completed. Deleted %d partitions (%s), %d failed.\n", affected, retention.FormatSize(totalBytes), failed)
		}
		return nil
	},
}

func init() {
	rotateCmd.Flags().BoolVar(&rotateDryRun, "dry-run", false, "List partitions without deleting them")
	RootCmd.AddCommand(rotateCmd)
}
