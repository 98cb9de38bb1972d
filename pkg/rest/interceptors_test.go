package rest_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

var errIntercept = errors.New("rejected")

type recordingLogger struct {
	entries []string
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, "debug:"+msg)
}

func (l *recordingLogger) Info(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, "info:"+msg)
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, "warn:"+msg)
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, "error:"+msg)
}

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	chain := rest.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *rest.RequestConfig) error {
		executionOrder = append(executionOrder, "first")

		return nil
	}).AddRequestInterceptor(func(ctx context.Context, req *rest.RequestConfig) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(ctx, &rest.RequestConfig{Method: rest.MethodGet, URL: "/test"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	chain := rest.NewInterceptorChain()

	called := false

	chain.AddRequestInterceptor(func(ctx context.Context, req *rest.RequestConfig) error {
		return errIntercept
	}).AddRequestInterceptor(func(ctx context.Context, req *rest.RequestConfig) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &rest.RequestConfig{})
	require.ErrorIs(t, err, errIntercept)
	assert.False(t, called)

	chain.AddResponseInterceptor(func(ctx context.Context, req *rest.RequestConfig, resp *rest.Response, callErr error) error {
		return errIntercept
	})

	err = chain.ExecuteResponseInterceptors(context.Background(), &rest.RequestConfig{}, nil, nil)
	require.ErrorIs(t, err, errIntercept)
}

func TestInterceptorChain_Nil(t *testing.T) {
	var chain *rest.InterceptorChain

	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), &rest.RequestConfig{}))
	require.NoError(t, chain.ExecuteResponseInterceptors(context.Background(), &rest.RequestConfig{}, nil, nil))
}

func TestHeaderInterceptor(t *testing.T) {
	interceptor := rest.HeaderInterceptor(map[string]string{"X-Tenant": "acme"})

	req := &rest.RequestConfig{}
	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "acme", req.Headers["X-Tenant"])

	req = &rest.RequestConfig{Headers: map[string]string{"X-Other": "1"}}
	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "1", req.Headers["X-Other"])
	assert.Equal(t, "acme", req.Headers["X-Tenant"])
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := rest.RequestIDInterceptor()

	req := &rest.RequestConfig{}
	require.NoError(t, interceptor(context.Background(), req))

	_, err := uuid.Parse(req.Headers[rest.RequestIDHeader])
	require.NoError(t, err)

	req = &rest.RequestConfig{Headers: map[string]string{rest.RequestIDHeader: "fixed"}}
	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "fixed", req.Headers[rest.RequestIDHeader])
}

func TestLoggingInterceptors(t *testing.T) {
	logger := &recordingLogger{}
	req := &rest.RequestConfig{Method: rest.MethodGet, URL: "/x"}

	require.NoError(t, rest.LoggingInterceptor(logger)(context.Background(), req))

	respInterceptor := rest.LoggingResponseInterceptor(logger)
	require.NoError(t, respInterceptor(context.Background(), req, &rest.Response{StatusCode: http.StatusOK}, nil))
	require.NoError(t, respInterceptor(context.Background(), req, nil, errIntercept))

	assert.Equal(t, []string{"debug:API Request", "debug:API Response", "error:API Response Error"}, logger.entries)
}
