package compose

import (
	"context"

	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

type requester interface {
	Request(ctx context.Context, cfg *rest.RequestConfig) (*rest.Response, error)
}

// verbs is the verb-oriented request surface shared by Composer and Call.
// Its methods are promoted; the field itself cannot be replaced from outside
// the package. Each helper copies cfg (which may be nil), fixes Method and
// URL, sets Data for the body-carrying verbs, and hands the result to Request.
type verbs struct {
	requester requester
}

// Get issues a GET request.
func (v verbs) Get(ctx context.Context, url string, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.send(ctx, rest.MethodGet, url, cfg)
}

// Delete issues a DELETE request.
func (v verbs) Delete(ctx context.Context, url string, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.send(ctx, rest.MethodDelete, url, cfg)
}

// Head issues a HEAD request.
func (v verbs) Head(ctx context.Context, url string, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.send(ctx, rest.MethodHead, url, cfg)
}

// Options issues an OPTIONS request.
func (v verbs) Options(ctx context.Context, url string, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.send(ctx, rest.MethodOptions, url, cfg)
}

// Post issues a POST request with data as the body.
func (v verbs) Post(ctx context.Context, url string, data interface{}, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.sendData(ctx, rest.MethodPost, url, data, cfg)
}

// Put issues a PUT request with data as the body.
func (v verbs) Put(ctx context.Context, url string, data interface{}, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.sendData(ctx, rest.MethodPut, url, data, cfg)
}

// Patch issues a PATCH request with data as the body.
func (v verbs) Patch(ctx context.Context, url string, data interface{}, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.sendData(ctx, rest.MethodPatch, url, data, cfg)
}

func (v verbs) send(ctx context.Context, method rest.Method, url string, cfg *rest.RequestConfig) (*rest.Response, error) {
	return v.requester.Request(ctx, withMethod(cfg, method, url))
}

func (v verbs) sendData(ctx context.Context, method rest.Method, url string, data interface{}, cfg *rest.RequestConfig) (*rest.Response, error) {
	req := withMethod(cfg, method, url)
	req.Data = data

	return v.requester.Request(ctx, req)
}

func withMethod(cfg *rest.RequestConfig, method rest.Method, url string) *rest.RequestConfig {
	req := &rest.RequestConfig{}
	if cfg != nil {
		req = cfg.Clone()
	}

	req.Method = method
	req.URL = url

	return req
}
