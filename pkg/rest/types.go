package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Method is an HTTP verb accepted by a Transport.
type Method string

// Supported methods.
const (
	MethodGet     Method = http.MethodGet
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
)

// RequestConfig describes a single call handed to a Transport.
//
// URL is a path relative to the transport's base address. Every field other
// than URL and Method is a transport option and is passed through untouched
// by the composer.
type RequestConfig struct {
	URL     string            `json:"url"               yaml:"url"`
	Method  Method            `json:"method"            yaml:"method"  validate:"required,oneof=GET DELETE HEAD OPTIONS POST PUT PATCH"`
	Data    interface{}       `json:"data,omitempty"    yaml:"data,omitempty"`
	Query   url.Values        `json:"query,omitempty"   yaml:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Timeout bounds the call when positive. It is applied by the transport.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Clone returns a shallow copy whose maps can be modified without touching
// the receiver.
func (r *RequestConfig) Clone() *RequestConfig {
	out := *r

	if r.Query != nil {
		out.Query = make(url.Values, len(r.Query))
		for key, values := range r.Query {
			out.Query[key] = append([]string(nil), values...)
		}
	}

	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for key, value := range r.Headers {
			out.Headers[key] = value
		}
	}

	return &out
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// Validate checks the fields every transport depends on. Failures wrap
// ErrInvalidRequestConfig.
func (r *RequestConfig) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidRequestConfig)
	}

	err := requestValidator().Struct(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequestConfig, err)
	}

	if r.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidRequestConfig, r.Timeout)
	}

	return nil
}

// Response is what a Transport hands back for a completed call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return ErrEmptyResponseBody
	}

	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("parsing response body: %w", err)
	}

	return nil
}
