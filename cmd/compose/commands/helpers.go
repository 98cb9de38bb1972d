package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restcompose/internal/config"
	"github.com/fivetwenty-io/restcompose/internal/constants"
	"github.com/fivetwenty-io/restcompose/pkg/compose"
)

const defaultJSONIndent = 2

// Common static errors used throughout the commands package.
var (
	ErrInvalidKeyValue     = errors.New("expected KEY=VALUE")
	ErrUnknownOutputFormat = errors.New("unknown output format")
)

// Global flag names.
const (
	flagConfig    = "config"
	flagBaseURL   = "base-url"
	flagTransport = "transport"
	flagTimeout   = "timeout"
	flagOutput    = "output"
	flagVerbose   = "verbose"
)

// loadSettings reads the config file and environment, with flags given on
// the command line taking precedence.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	var file string
	if flag := cmd.Flag(flagConfig); flag != nil {
		file = flag.Value.String()
	}

	return loadSettingsFrom(cmd, file)
}

// loadSettingsFrom is loadSettings with an explicit config file. An empty
// file selects the default location when it exists.
func loadSettingsFrom(cmd *cobra.Command, file string) (*config.Settings, error) {
	v := config.New()

	bindings := map[string]string{
		config.KeyBaseURL:   flagBaseURL,
		config.KeyTransport: flagTransport,
		config.KeyTimeout:   flagTimeout,
		config.KeyDebug:     flagVerbose,
	}

	for key, name := range bindings {
		flag := cmd.Flag(name)
		if flag == nil {
			continue
		}

		err := v.BindPFlag(key, flag)
		if err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	settings, err := config.Load(v, file)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	return settings, nil
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool(flagVerbose)

	return err == nil && verbose
}

func outputFormat(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString(flagOutput)
	if err != nil || format == "" {
		return constants.FormatTable
	}

	return format
}

// isTerminal reports whether writer is an interactive terminal.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)

	return ok && term.IsTerminal(int(file.Fd()))
}

// parseKeyValues parses repeated KEY=VALUE flags.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		out[key] = value
	}

	return out, nil
}

func parseParams(pairs []string) (compose.Params, error) {
	values, err := parseKeyValues(pairs)
	if err != nil || values == nil {
		return nil, err
	}

	params := make(compose.Params, len(values))
	for key, value := range values {
		params[key] = value
	}

	return params, nil
}

func parseQuery(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	query := url.Values{}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		query.Add(key, value)
	}

	return query, nil
}

// buildRoute turns a --route flag into a Route. Patterns containing a
// placeholder become templates.
func buildRoute(pattern string) (compose.Route, error) {
	if !strings.ContainsAny(pattern, "{}") {
		return compose.StaticRoute(pattern), nil
	}

	route, err := compose.ParseTemplate(pattern)
	if err != nil {
		return nil, fmt.Errorf("parsing route: %w", err)
	}

	return route, nil
}

func encodeStructured(writer io.Writer, format string, value interface{}) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(writer)
		defer func() {
			_ = encoder.Close()
		}()

		return encoder.Encode(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}
