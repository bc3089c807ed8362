// Package main provides the entry point for the wavebot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wavebot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wavebot",
		Short: "WebAIM WAVE accessibility checks for Slack",
		Long: `wavebot is a Slack app that runs WebAIM WAVE accessibility checks.

Users type "/wave <url> [report type 1-4]" in Slack. wavebot asks the WAVE
API to evaluate the page and posts the result back to the channel.
Report type 1 is a per-category summary; 2 and 4 list the findings in each
category; 3 adds XPaths and color contrast samples.

Each workspace installs the app through Slack OAuth and then enters its own
WAVE API key on the configuration page.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewFormatCmd())
	cmd.AddCommand(NewKeysCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
