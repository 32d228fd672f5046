// Command yovoctl runs operator tasks against a YŌVO HUB deployment: schema
// migrations and offline inspection of the suggestion pipeline.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yovohub/hub/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "yovoctl",
	Short:         "Operate a YŌVO HUB deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd, promptCmd, fallbackCmd, parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error("Command failed", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
