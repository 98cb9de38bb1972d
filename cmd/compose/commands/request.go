package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restcompose/internal/constants"
	"github.com/fivetwenty-io/restcompose/pkg/compose"
	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedMethod = errors.New("unsupported method")
)

type requestOptions struct {
	route   string
	params  []string
	headers []string
	query   []string
	data    string
}

// responseView is the structured rendering of a response.
type responseView struct {
	Status  int                 `json:"status"            yaml:"status"`
	Headers map[string][]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    interface{}         `json:"body,omitempty"    yaml:"body,omitempty"`
}

// NewRequestCommand creates the request command.
func NewRequestCommand() *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a request through a composer",
		Long: `Send a request through a composer built from --route.

The request URL is the resolved route followed by PATH, appended to the
configured base URL. Route placeholders such as {id} are filled from --param.`,
		Example: `  compose request GET /detail --route '/items/{id}' --param id=42
  compose request POST "" --route /items --data '{"name":"widget"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, opts, args[0], args[1])
		},
	}

	addRouteFlags(cmd, &opts.route, &opts.params)
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "request header KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.query, "query", "q", nil, "query parameter KEY=VALUE (repeatable)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "request body")

	return cmd
}

func addRouteFlags(cmd *cobra.Command, route *string, params *[]string) {
	cmd.Flags().StringVarP(route, "route", "r", "", "route pattern, e.g. /items/{id}")
	cmd.Flags().StringArrayVarP(params, "param", "p", nil, "route parameter KEY=VALUE (repeatable)")
}

func runRequest(cmd *cobra.Command, opts *requestOptions, method, path string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	route, err := buildRoute(opts.route)
	if err != nil {
		return err
	}

	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}

	headers, err := parseKeyValues(opts.headers)
	if err != nil {
		return err
	}

	query, err := parseQuery(opts.query)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), isVerbose(cmd))

	transportConfig := settings.TransportConfig(logger)
	transportConfig.Interceptors = rest.NewInterceptorChain().
		AddRequestInterceptor(rest.RequestIDInterceptor()).
		AddRequestInterceptor(rest.LoggingInterceptor(logger)).
		AddResponseInterceptor(rest.LoggingResponseInterceptor(logger))

	composer := compose.New(route,
		compose.WithEnvironment(settings.Environment()),
		compose.WithTransportConfig(transportConfig),
	)

	defer func() {
		closeErr := composer.Close()
		if closeErr != nil {
			logger.Warn("closing transport", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	cfg := &rest.RequestConfig{Headers: headers, Query: query}

	resp, err := send(cmd.Context(), composer.WithParams(params), strings.ToUpper(method), path, opts.data, cfg)
	if resp != nil {
		renderErr := renderResponse(cmd.OutOrStdout(), outputFormat(cmd), resp)
		if renderErr != nil && err == nil {
			err = renderErr
		}
	}

	return err
}

func send(ctx context.Context, composer *compose.Composer, method, path, data string, cfg *rest.RequestConfig) (*rest.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body interface{}
	if data != "" {
		body = data
	}

	switch rest.Method(method) {
	case rest.MethodGet:
		return composer.Get(ctx, path, cfg)
	case rest.MethodDelete:
		return composer.Delete(ctx, path, cfg)
	case rest.MethodHead:
		return composer.Head(ctx, path, cfg)
	case rest.MethodOptions:
		return composer.Options(ctx, path, cfg)
	case rest.MethodPost:
		return composer.Post(ctx, path, body, cfg)
	case rest.MethodPut:
		return composer.Put(ctx, path, body, cfg)
	case rest.MethodPatch:
		return composer.Patch(ctx, path, body, cfg)
	default:
		// Still consume the armed parameters.
		_, err := composer.Request(ctx, &rest.RequestConfig{Method: rest.Method(method), URL: path})

		return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedMethod, method, err)
	}
}

func renderResponse(writer io.Writer, format string, resp *rest.Response) error {
	if format == constants.FormatTable && !isTerminal(writer) {
		format = constants.FormatRaw
	}

	switch format {
	case constants.FormatRaw:
		_, err := writer.Write(resp.Body)

		return err
	case constants.FormatJSON, constants.FormatYAML:
		return encodeStructured(writer, format, newResponseView(resp))
	case constants.FormatTable:
		return renderResponseTable(writer, resp)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}

func newResponseView(resp *rest.Response) responseView {
	view := responseView{
		Status:  resp.StatusCode,
		Headers: resp.Headers,
	}

	if len(resp.Body) > 0 {
		var decoded interface{}
		if json.Unmarshal(resp.Body, &decoded) == nil {
			view.Body = decoded
		} else {
			view.Body = string(resp.Body)
		}
	}

	return view
}

func renderResponseTable(writer io.Writer, resp *rest.Response) error {
	table := tablewriter.NewWriter(writer)
	table.Header("Property", "Value")

	_ = table.Append("Status", strconv.Itoa(resp.StatusCode))

	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_ = table.Append(name, strings.Join(resp.Headers[name], ", "))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if len(resp.Body) > 0 {
		_, err = fmt.Fprintf(writer, "\n%s\n", resp.Body)
	}

	return err
}
