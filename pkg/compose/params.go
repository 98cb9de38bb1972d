package compose

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// Static errors for err113 compliance.
var (
	ErrMissingRouteParam = errors.New("missing route parameter")
	ErrInvalidRouteParam = errors.New("invalid route parameter")
	ErrMalformedTemplate = errors.New("malformed route template")
	ErrComposerClosed    = errors.New("composer is closed")
)

// Params is the parameter bag consumed by a route when it is resolved. A nil
// Params means no parameters were supplied.
type Params map[string]interface{}

// Lookup returns the raw value stored under key.
func (p Params) Lookup(key string) (interface{}, bool) {
	if p == nil {
		return nil, false
	}

	value, ok := p[key]

	return value, ok
}

// String renders the value stored under key, or "" when it is missing.
func (p Params) String(key string) string {
	value, ok := p.Lookup(key)
	if !ok {
		return ""
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return s
}

// Require renders the value stored under key and fails with
// ErrMissingRouteParam when the key is absent or nil.
func (p Params) Require(key string) (string, error) {
	value, ok := p.Lookup(key)
	if !ok || value == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingRouteParam, key)
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidRouteParam, key, err)
	}

	return s, nil
}
