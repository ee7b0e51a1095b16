// Package server runs the short-lived HTTP server behind the Spotify authorization command.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback. It validates the state parameter,
// exchanges the authorization code for a token, and sends the result through a channel.
// It only processes one callback to prevent replay attacks.
//
// [Authorize] ties these together: it listens on the redirect URL's host, prints the consent URL,
// and shuts the server down once the token arrives.
package server
