package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restcompose/internal/constants"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the compose CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Library string `json:"library" yaml:"library"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Library: constants.Version,
				Commit:  commit,
				Built:   date,
			}

			output := outputFormat(cmd)
			switch output {
			case constants.FormatJSON, constants.FormatYAML:
				return encodeStructured(cmd.OutOrStdout(), output, versionInfo)
			default:
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Property", "Value")
				_ = table.Append("Version", version)
				_ = table.Append("Library", constants.Version)
				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}
