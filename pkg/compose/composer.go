package compose

import (
	"context"
	"fmt"
	"io"
	"sync"

	internalhttp "github.com/fivetwenty-io/restcompose/internal/http"
	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// Environment is the process-wide configuration shared by composers that are
// not given their own TransportConfig. Build it once at startup and pass the
// same pointer to every composer.
type Environment struct {
	// BaseAddress is the base URL of the remote API. An empty value is
	// accepted and yields relative request targets.
	BaseAddress string
	// Factory builds transports. Nil selects the default HTTP transport.
	Factory rest.TransportFactory
}

// NewEnvironment creates an environment for the given base address.
func NewEnvironment(baseAddress string) *Environment {
	return &Environment{BaseAddress: baseAddress}
}

// DefaultTransportFactory builds the HTTP transport.
func DefaultTransportFactory(config *rest.TransportConfig) (rest.Transport, error) {
	return internalhttp.New(config)
}

// Option configures a Composer.
type Option func(*Composer)

// WithEnvironment sets the shared environment the composer reads its base
// address and transport factory from.
func WithEnvironment(env *Environment) Option {
	return func(c *Composer) {
		c.env = env
	}
}

// WithBaseAddress is shorthand for WithEnvironment(NewEnvironment(addr)).
func WithBaseAddress(baseAddress string) Option {
	return WithEnvironment(NewEnvironment(baseAddress))
}

// WithTransportConfig supplies the transport configuration. The value is
// owned by the caller and used as is; the environment's base address is then
// ignored.
func WithTransportConfig(config *rest.TransportConfig) Option {
	return func(c *Composer) {
		c.config = config
	}
}

// WithTransportFactory overrides the factory used to build the transport.
func WithTransportFactory(factory rest.TransportFactory) Option {
	return func(c *Composer) {
		c.factory = factory
	}
}

// Composer is the base of a typed API client. It resolves the resource
// route, lazily builds and memoizes the transport configuration and the
// transport instance, and exposes verb helpers (Get, Delete, Head, Options,
// Post, Put, Patch) that
// all funnel through Request.
//
// Concrete resource clients embed a *Composer and call its verbs with paths
// relative to their route:
//
//	type ItemsClient struct{ *compose.Composer }
//
//	func NewItemsClient(env *compose.Environment) *ItemsClient {
//	  return &ItemsClient{compose.New(compose.MustTemplate("/items/{id}"), compose.WithEnvironment(env))}
//	}
//
//	resp, err := items.WithParams(compose.Params{"id": 42}).Get(ctx, "/detail", nil)
//
// Memoization is safe for concurrent use. The pending parameter bag set by
// WithParams is not: see WithParams and Bind.
type Composer struct {
	verbs

	route   Route
	env     *Environment
	factory rest.TransportFactory

	configOnce sync.Once
	config     *rest.TransportConfig

	instanceOnce sync.Once
	instance     rest.Transport
	instanceErr  error

	mu      sync.Mutex
	pending Params
	closed  bool
}

// New creates a composer for route. A nil route resolves to "".
func New(route Route, opts ...Option) *Composer {
	if route == nil {
		route = StaticRoute("")
	}

	c := &Composer{route: route}
	c.verbs = verbs{requester: c}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithParams arms the parameter bag for the next Request and returns the
// composer for chaining. A nil params leaves any armed bag in place.
//
// The bag is consumed by whichever Request runs next on this composer, so a
// WithParams call and the verb call that follows it must not interleave with
// other callers of the same composer. Use Bind when the composer is shared.
func (c *Composer) WithParams(params Params) *Composer {
	if params == nil {
		return c
	}

	c.mu.Lock()
	c.pending = params
	c.mu.Unlock()

	return c
}

// takeParams returns the armed bag and disarms it.
func (c *Composer) takeParams() Params {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := c.pending
	c.pending = nil

	return params
}

// Bind returns a call handle that resolves the route with params. It never
// reads or clears the bag armed by WithParams, which makes it safe to use
// from concurrent goroutines.
func (c *Composer) Bind(params Params) *Call {
	call := &Call{composer: c, params: params}
	call.verbs = verbs{requester: call}

	return call
}

// Request resolves the route, prefixes it to cfg.URL and issues the call on
// the memoized transport.
//
// The armed parameter bag is cleared before anything else happens, so it
// never outlives this call even when the call fails. Configuration problems
// are reported as errors wrapping rest.ErrInvalidRequestConfig before any
// network attempt; everything the transport returns is passed back as is.
// cfg itself is not modified.
func (c *Composer) Request(ctx context.Context, cfg *rest.RequestConfig) (*rest.Response, error) {
	return c.send(ctx, c.takeParams(), cfg)
}

func (c *Composer) send(ctx context.Context, params Params, cfg *rest.RequestConfig) (*rest.Response, error) {
	if c.isClosed() {
		return nil, ErrComposerClosed
	}

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	prefix, err := c.route.Resolve(params)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving route: %w", rest.ErrInvalidRequestConfig, err)
	}

	req := cfg.Clone()
	req.URL = prefix + cfg.URL

	transport, err := c.Instance()
	if err != nil {
		return nil, err
	}

	return transport.Do(ctx, req)
}

// GetRoute resolves the route with params without issuing a request. The
// armed parameter bag is left untouched.
func (c *Composer) GetRoute(params Params) (string, error) {
	return c.route.Resolve(params)
}

// Config returns the memoized transport configuration. Unless one was
// supplied with WithTransportConfig, the first call builds a configuration
// holding only the environment's base address.
func (c *Composer) Config() *rest.TransportConfig {
	c.configOnce.Do(func() {
		if c.config != nil {
			return
		}

		var baseAddress string
		if c.env != nil {
			baseAddress = c.env.BaseAddress
		}

		c.config = &rest.TransportConfig{BaseURL: baseAddress}
	})

	return c.config
}

// Instance returns the memoized transport, building it from Config on first
// use. A construction failure is memoized as well; a factory that returns
// neither a transport nor an error fails with rest.ErrTransportNotAvailable.
func (c *Composer) Instance() (rest.Transport, error) {
	c.instanceOnce.Do(func() {
		transport, err := c.transportFactory()(c.Config())
		if err != nil {
			c.instanceErr = fmt.Errorf("building transport: %w", err)

			return
		}

		if transport == nil {
			c.instanceErr = fmt.Errorf("building transport: %w", rest.ErrTransportNotAvailable)

			return
		}

		c.instance = transport
	})

	return c.instance, c.instanceErr
}

func (c *Composer) transportFactory() rest.TransportFactory {
	if c.factory != nil {
		return c.factory
	}

	if c.env != nil && c.env.Factory != nil {
		return c.env.Factory
	}

	return DefaultTransportFactory
}

// Close releases the transport if it was built and holds resources. Every
// later request on the composer, or on a Call bound to it, fails with
// ErrComposerClosed, and a composer that never built its transport will not
// build one afterwards. Closing twice is a no-op.
func (c *Composer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.mu.Unlock()

	c.instanceOnce.Do(func() {
		c.instanceErr = ErrComposerClosed
	})

	closer, ok := c.instance.(io.Closer)
	if !ok {
		return nil
	}

	err := closer.Close()
	if err != nil {
		return fmt.Errorf("closing transport: %w", err)
	}

	return nil
}

func (c *Composer) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Call is a composer bound to an explicit parameter bag. Obtain one with
// Composer.Bind.
type Call struct {
	verbs

	composer *Composer
	params   Params
}

// Request behaves like Composer.Request but resolves the route with the
// bound parameters.
func (c *Call) Request(ctx context.Context, cfg *rest.RequestConfig) (*rest.Response, error) {
	return c.composer.send(ctx, c.params, cfg)
}
