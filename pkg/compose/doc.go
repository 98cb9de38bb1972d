// Package compose provides Composer, the base every typed resource client
// is built on.
//
// A Composer owns three things:
//
//   - a Route, either a StaticRoute or a RouteFunc (ParseTemplate builds one
//     from a "/items/{id}" pattern), resolved against a Params bag;
//   - a lazily built, memoized rest.TransportConfig and rest.Transport;
//   - the verb surface (Get, Delete, Head, Options, Post, Put, Patch), which
//     funnels every call through Request.
//
// The final request URL is always the resolved route followed by the URL
// passed to the verb, with no separator inserted:
//
//	env := compose.NewEnvironment("https://api.example.com")
//	items := compose.New(compose.MustTemplate("/items/{id}"), compose.WithEnvironment(env))
//
//	// GET https://api.example.com/items/42/detail
//	resp, err := items.WithParams(compose.Params{"id": 42}).Get(ctx, "/detail", nil)
//
// WithParams arms a bag for exactly one Request. The next Request clears it
// whether or not the route uses it and whether or not the call succeeds.
// Bind carries parameters explicitly and is the form to use when a composer
// is shared between goroutines:
//
//	resp, err := items.Bind(compose.Params{"id": 42}).Get(ctx, "/detail", nil)
//
// When a route needs a parameter that was not supplied, Request fails with an
// error matching both rest.ErrInvalidRequestConfig and ErrMissingRouteParam;
// no request is sent.
package compose
