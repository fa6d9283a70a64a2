package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ccswitch-hq/ccswitch/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "ccswitch",
	Short: "ccswitch - failover routing across chat-completion channels",
	Long: `ccswitch keeps a prioritized list of chat-completion channels and sends
each request to the first one that answers.

Channels are tried one at a time in priority order. A channel that is
unreachable, rejects its key, is rate limited, or returns an unusable
response is skipped and the next one is tried, up to retry_attempts
distinct channels per request.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrSilent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $XDG_CONFIG_HOME/ccswitch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
}
