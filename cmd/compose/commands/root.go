package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the compose root command with every subcommand
// attached.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose and send API requests",
		Long: `A command-line interface for composing typed API requests.

Each request is built from a route pattern, one-shot route parameters and a
request configuration, and is sent through the configured transport.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP(flagConfig, "c", "", "config file (default is $HOME/.restcompose/config.yml)")
	rootCmd.PersistentFlags().StringP(flagBaseURL, "a", "", "base URL every route is appended to")
	rootCmd.PersistentFlags().String(flagTransport, "", "transport (http, nats)")
	rootCmd.PersistentFlags().Duration(flagTimeout, 0, "request timeout")
	rootCmd.PersistentFlags().StringP(flagOutput, "o", "table", "output format (table, json, yaml, raw)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output")

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewRouteCommand())
	rootCmd.AddCommand(NewRequestCommand())

	return rootCmd
}
