// Package cmd defines and implements the CLI commands for the mailsift
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailsift",
		Short: "A contact-page email extraction service.",
		Long: `mailsift crawls a client-supplied list of URLs with a bounded pool of
browser workers, follows likely contact pages, extracts and deduplicates
email addresses, and streams progress over a websocket control channel.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command execution failed: %v\n", err)
		os.Exit(1)
	}
}
