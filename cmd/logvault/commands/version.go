package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livp123/logvault/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the current version of logvault`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("logvault %s\n", version.Version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
