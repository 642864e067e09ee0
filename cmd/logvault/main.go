package main

import (
	"os"

	"github.com/livp123/logvault/cmd/logvault/commands"
	"github.com/livp123/logvault/internal/utils/logger"
)

func main() {
	defer logger.Sync() // #nosec G104 // best-effort flush on exit

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
