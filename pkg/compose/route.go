package compose

import (
	"fmt"
	"net/url"
	"strings"
)

// Route produces the path prefix of a resource.
type Route interface {
	Resolve(params Params) (string, error)
}

// StaticRoute is a fixed path prefix. Parameters are ignored.
type StaticRoute string

// Resolve implements Route.
func (r StaticRoute) Resolve(Params) (string, error) {
	return string(r), nil
}

// RouteFunc computes the path prefix from the parameter bag. params is nil
// when the caller supplied none; functions that need a field should use
// Params.Require so the request fails instead of producing a bogus path.
type RouteFunc func(params Params) (string, error)

// Resolve implements Route.
func (f RouteFunc) Resolve(params Params) (string, error) {
	return f(params)
}

type templatePart struct {
	literal string
	param   string
}

// ParseTemplate compiles a pattern such as "/orgs/{org}/items/{id}" into a
// RouteFunc. Placeholder values are path-escaped; a missing value fails with
// ErrMissingRouteParam.
func ParseTemplate(pattern string) (RouteFunc, error) {
	var parts []templatePart

	remaining := pattern
	for remaining != "" {
		open := strings.IndexByte(remaining, '{')
		if open < 0 {
			if strings.IndexByte(remaining, '}') >= 0 {
				return nil, fmt.Errorf("%w: unexpected '}' in %q", ErrMalformedTemplate, pattern)
			}

			parts = append(parts, templatePart{literal: remaining})

			break
		}

		if strings.IndexByte(remaining[:open], '}') >= 0 {
			return nil, fmt.Errorf("%w: unexpected '}' in %q", ErrMalformedTemplate, pattern)
		}

		if open > 0 {
			parts = append(parts, templatePart{literal: remaining[:open]})
		}

		end := strings.IndexByte(remaining[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated placeholder in %q", ErrMalformedTemplate, pattern)
		}

		name := remaining[open+1 : open+end]
		if name == "" || strings.ContainsAny(name, "{/") {
			return nil, fmt.Errorf("%w: bad placeholder %q in %q", ErrMalformedTemplate, name, pattern)
		}

		parts = append(parts, templatePart{param: name})
		remaining = remaining[open+end+1:]
	}

	return func(params Params) (string, error) {
		var builder strings.Builder

		for _, part := range parts {
			if part.param == "" {
				builder.WriteString(part.literal)

				continue
			}

			value, err := params.Require(part.param)
			if err != nil {
				return "", err
			}

			builder.WriteString(url.PathEscape(value))
		}

		return builder.String(), nil
	}, nil
}

// MustTemplate is like ParseTemplate but panics if the pattern is malformed.
func MustTemplate(pattern string) RouteFunc {
	route, err := ParseTemplate(pattern)
	if err != nil {
		panic(err)
	}

	return route
}
