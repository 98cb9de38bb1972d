// Package http implements rest.Transport on top of go-retryablehttp.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/restcompose/internal/constants"
	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired = errors.New("transport config is required")
)

const tracerName = "github.com/fivetwenty-io/restcompose/internal/http"

// Client is an HTTP transport. The target of every call is the base URL
// followed by the request URL, concatenated without normalization.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	logger       rest.Logger
	debug        bool
	userAgent    string
	timeout      time.Duration
	headers      map[string]string
	interceptors *rest.InterceptorChain
	metrics      *Metrics
	tracer       trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger rest.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHeaders sets headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithRetryConfig hands retry settings to the underlying retryablehttp
// client. Without it a single attempt is made.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithInterceptors installs an interceptor chain.
func WithInterceptors(chain *rest.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithMetrics records Prometheus metrics into collector.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTracerProvider sets the OpenTelemetry provider spans are created from.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = provider.Tracer(tracerName)
	}
}

// NewClient creates a transport for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 0
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    baseURL,
		httpClient: retryClient,
		userAgent:  constants.DefaultUserAgent,
		timeout:    constants.DefaultHTTPTimeout,
		headers:    make(map[string]string),
		tracer:     otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// New is a rest.TransportFactory building a Client from config.
func New(config *rest.TransportConfig) (rest.Transport, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	return NewClient(config.BaseURL, optionsFromConfig(config)...), nil
}

func optionsFromConfig(config *rest.TransportConfig) []Option {
	var opts []Option

	if config.Logger != nil {
		opts = append(opts, WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, WithUserAgent(config.UserAgent))
	}

	if config.Timeout > 0 {
		opts = append(opts, WithTimeout(config.Timeout))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, WithHeaders(config.Headers))
	}

	if config.RetryMax > 0 {
		waitMin := constants.DefaultRetryWaitMin
		waitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			waitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			waitMax = config.RetryWaitMax
		}

		opts = append(opts, WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	if config.Interceptors != nil {
		opts = append(opts, WithInterceptors(config.Interceptors))
	}

	if config.MetricsRegisterer != nil {
		opts = append(opts, WithMetrics(NewMetrics(config.MetricsRegisterer)))
	}

	if config.TracerProvider != nil {
		opts = append(opts, WithTracerProvider(config.TracerProvider))
	}

	return opts
}

// BaseURL returns the base URL requests are sent against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do implements rest.Transport.
func (c *Client) Do(ctx context.Context, req *rest.RequestConfig) (*rest.Response, error) {
	req = req.Clone()

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	target := c.target(req)

	ctx, span := c.tracer.Start(ctx, "HTTP "+string(req.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", string(req.Method)),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	done := c.metrics.begin(string(req.Method))
	resp, err := c.do(ctx, req, target)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	}

	done(statusCode)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp, err)
	if err == nil && interceptErr != nil {
		err = interceptErr
	}

	return resp, err
}

func (c *Client) target(req *rest.RequestConfig) string {
	target := c.baseURL + req.URL

	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + req.Query.Encode()
	}

	return target
}

func (c *Client) do(ctx context.Context, req *rest.RequestConfig, target string) (*rest.Response, error) {
	body, isJSON, err := encodeBody(req.Data)
	if err != nil {
		return nil, err
	}

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, string(req.Method), target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if isJSON {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  string(req.Method),
			"url":     target,
			"headers": redactHeaders(httpReq.Header),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &rest.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"size":     len(respBody),
		})
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return resp, rest.NewResponseError(httpResp.StatusCode, respBody)
	}

	return resp, nil
}

// encodeBody returns the wire form of data and whether it was JSON encoded.
func encodeBody(data interface{}) ([]byte, bool, error) {
	switch body := data.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return body, false, nil
	case string:
		return []byte(body), false, nil
	case io.Reader:
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, false, fmt.Errorf("reading request body: %w", err)
		}

		return raw, false, nil
	default:
		var buf bytes.Buffer

		err := json.NewEncoder(&buf).Encode(body)
		if err != nil {
			return nil, false, fmt.Errorf("encoding request body: %w", err)
		}

		return bytes.TrimRight(buf.Bytes(), "\n"), true, nil
	}
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))

	for key := range headers {
		if strings.EqualFold(key, "Authorization") {
			out[key] = constants.MaskedSecret

			continue
		}

		out[key] = headers.Get(key)
	}

	return out
}
