// Package server provides HTTP routing, middleware and the loopback login used by the CLI and the web page.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses a gorilla/mux router internally, which answers
// 405 for a known path with the wrong method.
//
// # Callback Handler
//
// [CallbackHandler] receives the authorization redirect, hands code and state to the
// [Authorizer] and sends the outcome through a channel. It only processes one callback.
//
// # Loopback Login
//
// [Loopback.Authorize] is the CLI flow: listen on the redirect URI's host and port,
// open the browser at the authorize URL, wait for the callback (or a timeout) and shut down.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
