// Package server provides HTTP routing, middleware, and the MusicKit
// authorization flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # MusicKit Authorization
//
// [MusicKitHandler] implements the browser-side user token flow. The handler
// renders an authorization page that configures MusicKit JS with the
// developer token; after the user signs in with their Apple ID, the page
// posts the Music-User-Token back, and the handler delivers it through a
// channel.
//
// It only accepts one token to prevent replay.
//
// # Current Usage
//
// When the user runs the auth command, a temporary HTTP server starts on a
// localhost port, collects the user token, and shuts down after delivering
// it.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
