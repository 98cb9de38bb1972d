package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrInvalidRequestConfig  = errors.New("invalid request config")
	ErrEmptyResponseBody     = errors.New("empty response body")
	ErrTransportNotAvailable = errors.New("transport not available")
)

// APIError is a single error entry reported by a remote API.
type APIError struct {
	Code   int    `json:"code"   yaml:"code"`
	Title  string `json:"title"  yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code: %d)", e.Title, e.Detail, e.Code)
}

// ResponseError is returned by transports for responses with a status code
// of 400 or above.
type ResponseError struct {
	StatusCode int        `json:"-"`
	Errors     []APIError `json:"errors"`
	Body       []byte     `json:"-"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	switch len(e.Errors) {
	case 0:
		if e.StatusCode == 0 {
			return "unknown error"
		}

		return fmt.Sprintf("request failed with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("multiple errors: %v", e.Errors)
	}
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// NewResponseError builds a ResponseError for a failed call, decoding an
// {"errors": [...]} body when one is present.
func NewResponseError(statusCode int, body []byte) *ResponseError {
	errResp := &ResponseError{StatusCode: statusCode, Body: body}

	if len(body) > 0 {
		parsed, err := ParseResponseError(body)
		if err == nil {
			errResp.Errors = parsed.Errors
		}
	}

	return errResp
}

// ParseResponseError parses an error response from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// StatusCode reports the status of a ResponseError found in err's chain,
// or 0 when there is none.
func StatusCode(err error) int {
	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		return errResp.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsInvalidRequestConfig checks if the call was rejected before reaching
// the transport.
func IsInvalidRequestConfig(err error) bool {
	return errors.Is(err, ErrInvalidRequestConfig)
}
