// Package server provides HTTP routing, middleware and the LINE Login callback used by the CLI and the web pages.
//
// # Router
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] registers "METHOD path" patterns on an [http.ServeMux], so a path can carry
// several methods and unmatched methods get a 405.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
// [Logging], [RequestID] and [Recover] are the stock middleware.
//
// # Login callback
//
// [OAuthHandler] checks the state parameter, trades the code for a session through an
// [ExchangeFunc] and delivers exactly one [OAuthResult] on its channel. A second callback is refused.
//
// `wardrobe auth login` starts a temporary server with [ListenAndServe], waits for the result
// and shuts the server down.
package server
