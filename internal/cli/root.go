// Package cli implements the gatehouse CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatehouse",
	Short: "Audit, guard, and ship coding agent activity",
	Long: `Gatehouse hooks into Claude Code lifecycle events to write a JSONL
audit trail per git branch, block dangerous commands and protected-path
writes, inject session context, and ship the trail to a Valkey or Kafka
stream with at-least-once delivery.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(shipCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
