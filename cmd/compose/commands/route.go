package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restcompose/internal/constants"
	"github.com/fivetwenty-io/restcompose/pkg/compose"
)

// NewRouteCommand creates the route command.
func NewRouteCommand() *cobra.Command {
	var (
		pattern string
		params  []string
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Resolve a route without sending a request",
		Long:  "Resolve --route with --param and print the resulting path prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := buildRoute(pattern)
			if err != nil {
				return err
			}

			bag, err := parseParams(params)
			if err != nil {
				return err
			}

			resolved, err := compose.New(route).GetRoute(bag)
			if err != nil {
				return fmt.Errorf("resolving route: %w", err)
			}

			format := outputFormat(cmd)
			if format == constants.FormatJSON || format == constants.FormatYAML {
				return encodeStructured(cmd.OutOrStdout(), format, map[string]string{
					"pattern": pattern,
					"route":   resolved,
				})
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolved)

			return err
		},
	}

	addRouteFlags(cmd, &pattern, &params)

	return cmd
}
