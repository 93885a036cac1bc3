package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "batepapo",
	Short: "Bate-papo chat room server",
	Long: `batepapo runs a single-room chat server: participants join by name,
post public or private messages and keep themselves in the room by sending
a heartbeat. Idle participants are removed by a periodic sweep.

Available commands:
  serve      Start the HTTP server
  who        List the participants of a running server
  version    Print the version`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
