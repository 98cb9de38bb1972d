package rest

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Transport performs the network call for a resolved request.
//
// Implementations return the response together with a *ResponseError when
// the remote side answers with a status of 400 or above. Errors are never
// retried or translated by callers in this module.
type Transport interface {
	Do(ctx context.Context, req *RequestConfig) (*Response, error)
}

// TransportFactory builds a Transport from its configuration.
type TransportFactory func(config *TransportConfig) (Transport, error)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// TransportConfig holds the options a TransportFactory builds an instance
// from.
//
// A composer that is not handed a TransportConfig derives one containing
// only BaseURL from the process-wide base address. Every other field keeps
// its zero value, which transports treat as "use the default".
type TransportConfig struct {
	// BaseURL is prepended verbatim to every request URL, e.g.
	// "https://api.example.com" or "nats://127.0.0.1:4222".
	BaseURL string

	// Timeout is the per-call timeout used when a request has none.
	Timeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Headers are sent with every request unless the request overrides them.
	Headers map[string]string

	// RetryMax is handed to the transport engine unchanged. Zero means a
	// single attempt.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables request/response logging when Logger is set.
	Debug  bool
	Logger Logger

	// Interceptors run around every call made by the transport.
	Interceptors *InterceptorChain
	// MetricsRegisterer enables Prometheus metrics when non-nil.
	MetricsRegisterer prometheus.Registerer
	// TracerProvider overrides the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// SubjectPrefix is used by message-based transports to namespace subjects.
	SubjectPrefix string
}
