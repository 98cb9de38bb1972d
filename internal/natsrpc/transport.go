// Package natsrpc implements rest.Transport as request/reply over NATS.
//
// A call to "GET /items/42" is published on subject "<prefix>.items.42.get"
// with a JSON request envelope; the responder answers with a reply envelope
// carrying the status, headers and body.
package natsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/restcompose/internal/constants"
	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired = errors.New("transport config is required")
	ErrNoReply        = errors.New("empty reply")
)

// Requester is the part of *nats.Conn the transport needs.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// RequestEnvelope is the payload published for every call. Query holds both
// the query string written into the request URL and RequestConfig.Query.
type RequestEnvelope struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query,omitempty"`
	Headers map[string]string   `json:"headers,omitempty"`
	Body    []byte              `json:"body,omitempty"`
}

// ReplyEnvelope is the payload responders answer with. A zero Status is
// read as 200.
type ReplyEnvelope struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    []byte              `json:"body,omitempty"`
}

// Transport sends calls as NATS requests.
type Transport struct {
	conn         Requester
	closeFn      func() error
	prefix       string
	timeout      time.Duration
	headers      map[string]string
	logger       rest.Logger
	debug        bool
	interceptors *rest.InterceptorChain
}

// NewTransport wraps an established connection.
func NewTransport(conn Requester, config *rest.TransportConfig) *Transport {
	t := &Transport{
		conn:    conn,
		prefix:  constants.DefaultSubjectPrefix,
		timeout: constants.DefaultHTTPTimeout,
		headers: map[string]string{},
	}

	if config == nil {
		return t
	}

	if config.SubjectPrefix != "" {
		t.prefix = config.SubjectPrefix
	}

	if config.Timeout > 0 {
		t.timeout = config.Timeout
	}

	for key, value := range config.Headers {
		t.headers[key] = value
	}

	t.logger = config.Logger
	t.debug = config.Debug
	t.interceptors = config.Interceptors

	return t
}

// New is a rest.TransportFactory dialing config.BaseURL.
func New(config *rest.TransportConfig) (rest.Transport, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	name := constants.DefaultNATSClientName
	if config.UserAgent != "" {
		name = config.UserAgent
	}

	conn, err := nats.Connect(config.BaseURL, nats.Name(name), nats.Timeout(constants.ShortHTTPTimeout))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", config.BaseURL, err)
	}

	t := NewTransport(conn, config)
	t.closeFn = conn.Drain

	return t, nil
}

// Close drains the connection when the transport owns it.
func (t *Transport) Close() error {
	if t.closeFn == nil {
		return nil
	}

	return t.closeFn()
}

// Do implements rest.Transport.
func (t *Transport) Do(ctx context.Context, req *rest.RequestConfig) (*rest.Response, error) {
	req = req.Clone()

	err := t.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.do(ctx, req)

	interceptErr := t.interceptors.ExecuteResponseInterceptors(ctx, req, resp, err)
	if err == nil && interceptErr != nil {
		err = interceptErr
	}

	return resp, err
}

func (t *Transport) do(ctx context.Context, req *rest.RequestConfig) (*rest.Response, error) {
	subject := Subject(t.prefix, req.Method, req.URL)

	payload, err := t.encode(req)
	if err != nil {
		return nil, err
	}

	timeout := t.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if t.debug && t.logger != nil {
		t.logger.Debug("NATS Request", map[string]interface{}{
			"subject": subject,
			"method":  string(req.Method),
			"path":    req.URL,
		})
	}

	msg, err := t.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", subject, err)
	}

	resp, err := DecodeReply(msg.Data)
	if err != nil {
		return nil, err
	}

	if t.debug && t.logger != nil {
		t.logger.Debug("NATS Response", map[string]interface{}{
			"subject": subject,
			"status":  resp.StatusCode,
			"size":    len(resp.Body),
		})
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, rest.NewResponseError(resp.StatusCode, resp.Body)
	}

	return resp, nil
}

func (t *Transport) encode(req *rest.RequestConfig) ([]byte, error) {
	path, rawQuery, hasQuery := strings.Cut(req.URL, "?")

	envelope := RequestEnvelope{
		Method: string(req.Method),
		Path:   path,
	}

	query := url.Values{}

	if hasQuery {
		inline, err := url.ParseQuery(rawQuery)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing query in %q: %w", rest.ErrInvalidRequestConfig, req.URL, err)
		}

		for key, values := range inline {
			query[key] = append(query[key], values...)
		}
	}

	for key, values := range req.Query {
		query[key] = append(query[key], values...)
	}

	if len(query) > 0 {
		envelope.Query = query
	}

	if len(t.headers) > 0 || len(req.Headers) > 0 {
		envelope.Headers = make(map[string]string, len(t.headers)+len(req.Headers))

		for key, value := range t.headers {
			envelope.Headers[key] = value
		}

		for key, value := range req.Headers {
			envelope.Headers[key] = value
		}
	}

	switch body := req.Data.(type) {
	case nil:
	case []byte:
		envelope.Body = body
	case string:
		envelope.Body = []byte(body)
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		envelope.Body = raw
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding request envelope: %w", err)
	}

	return payload, nil
}

// DecodeReply turns a reply payload into a response.
func DecodeReply(data []byte) (*rest.Response, error) {
	if len(data) == 0 {
		return nil, ErrNoReply
	}

	var reply ReplyEnvelope

	err := json.Unmarshal(data, &reply)
	if err != nil {
		return nil, fmt.Errorf("parsing reply envelope: %w", err)
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	return &rest.Response{
		StatusCode: status,
		Headers:    http.Header(reply.Headers),
		Body:       reply.Body,
	}, nil
}

// Subject maps a method and path to a NATS subject. Empty path segments are
// dropped and characters NATS reserves are replaced with '_'.
func Subject(prefix string, method rest.Method, path string) string {
	path, _, _ = strings.Cut(path, "?")

	tokens := []string{}
	if prefix != "" {
		tokens = append(tokens, prefix)
	}

	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}

		tokens = append(tokens, sanitizeToken(segment))
	}

	tokens = append(tokens, strings.ToLower(string(method)))

	return strings.Join(tokens, ".")
}

func sanitizeToken(token string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		default:
			return r
		}
	}, token)
}
