package commands

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restcompose/internal/config"
	"github.com/fivetwenty-io/restcompose/internal/constants"
)

// ErrConfigExists is returned by config init when the target file exists.
var ErrConfigExists = errors.New("config file already exists")

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long:  "Inspect the settings resolved from the config file, environment and flags",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			view := maskedSettings(settings)

			output := outputFormat(cmd)
			switch output {
			case constants.FormatJSON, constants.FormatYAML:
				return encodeStructured(cmd.OutOrStdout(), output, view)
			default:
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Property", "Value")
				_ = table.Append("Base URL", view.BaseURL)
				_ = table.Append("Transport", view.Transport)
				_ = table.Append("Timeout", view.Timeout.String())
				_ = table.Append("User Agent", view.UserAgent)
				_ = table.Append("Retry Max", strconv.Itoa(view.RetryMax))
				_ = table.Append("Debug", strconv.FormatBool(view.Debug))
				_ = table.Append("Subject Prefix", view.SubjectPrefix)

				names := make([]string, 0, len(view.Headers))
				for name := range view.Headers {
					names = append(names, name)
				}

				sort.Strings(names)

				for _, name := range names {
					_ = table.Append("Header "+name, view.Headers[name])
				}

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a file",
		Long:  "Write the settings resolved from flags and environment to --config or $HOME/.restcompose/config.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			file := cmd.Flag(flagConfig).Value.String()
			if file == "" {
				var err error

				file, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			source := ""

			_, statErr := os.Stat(file)
			if statErr == nil {
				if !force {
					return fmt.Errorf("%w: %s", ErrConfigExists, file)
				}

				source = file
			}

			settings, err := loadSettingsFrom(cmd, source)
			if err != nil {
				return err
			}

			written, err := settings.Save(file)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", written)

			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	return cmd
}

// maskedSettings copies settings with header values hidden, since they
// commonly carry credentials.
func maskedSettings(settings *config.Settings) config.Settings {
	view := *settings
	if len(settings.Headers) == 0 {
		return view
	}

	view.Headers = make(map[string]string, len(settings.Headers))
	for name := range settings.Headers {
		view.Headers[name] = constants.MaskedSecret
	}

	return view
}
