// Package cmd implements the arlo command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arlo",
	Short: "Arlo - a knowledge-base persona agent for personal websites",
	Long: `Arlo answers visitor questions on a personal website as the owner's
assistant. It retrieves from a tenant-scoped knowledge base, speaks in the
owner's configured persona and can pull fresh material from GitHub and
approved URLs.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
