package rest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-call identifier set by RequestIDInterceptor.
const RequestIDHeader = "X-Request-Id"

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *RequestConfig) error

// ResponseInterceptor is called after a call completes. resp may be nil when
// the transport failed before receiving a response.
type ResponseInterceptor func(ctx context.Context, req *RequestConfig, resp *Response, callErr error) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) *InterceptorChain {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)

	return c
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) *InterceptorChain {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)

	return c
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *RequestConfig) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *RequestConfig, resp *Response, callErr error) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp, callErr)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Common Interceptors

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *RequestConfig) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": string(req.Method),
			"url":    req.URL,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *RequestConfig, resp *Response, callErr error) error {
		fields := map[string]interface{}{
			"method": string(req.Method),
			"url":    req.URL,
		}

		if resp != nil {
			fields["status_code"] = resp.StatusCode
		}

		if callErr != nil {
			fields["error"] = callErr.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *RequestConfig) error {
		if req.Headers == nil {
			req.Headers = make(map[string]string, len(headers))
		}

		for key, value := range headers {
			req.Headers[key] = value
		}

		return nil
	}
}

// RequestIDInterceptor tags every request with a random X-Request-Id unless
// the caller already set one.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *RequestConfig) error {
		if req.Headers == nil {
			req.Headers = make(map[string]string, 1)
		}

		if _, ok := req.Headers[RequestIDHeader]; !ok {
			req.Headers[RequestIDHeader] = uuid.NewString()
		}

		return nil
	}
}
