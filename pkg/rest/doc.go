// Package rest provides the transport-neutral types shared by request
// composers and the transports they drive.
//
// # Overview
//
// A RequestConfig names a relative URL, an HTTP method and any number of
// transport options (body data, query, headers, timeout). A Transport turns
// it into a network call and returns a Response. Transports are built from a
// TransportConfig by a TransportFactory; the compose package memoizes both.
//
// # Errors
//
// Configuration problems detected before a call is attempted wrap
// ErrInvalidRequestConfig. Transport failures for responses with a status of
// 400 or above are reported as *ResponseError, alongside the Response itself.
// Helpers such as IsNotFound, IsUnauthorized and IsForbidden branch on the
// status code.
//
// # Interceptors
//
// InterceptorChain lets callers hook into every call a transport makes, for
// logging, static headers or request ids:
//
//	chain := rest.NewInterceptorChain().
//	  AddRequestInterceptor(rest.RequestIDInterceptor()).
//	  AddResponseInterceptor(rest.LoggingResponseInterceptor(logger))
//	cfg := &rest.TransportConfig{BaseURL: "https://api.example.com", Interceptors: chain}
package rest
