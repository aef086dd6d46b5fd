package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chathub",
	Short: "WebSocket chat hub",
	Long: `chathub relays chat messages between WebSocket clients.

Available commands:
  serve     Run the hub and its HTTP surface
  chat      Join a running hub from the terminal
  events    List the events published on the internal bus
  version   Print the version

Use "chathub [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
