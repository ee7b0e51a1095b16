// Package services defines the [Catalog] interface for remote music catalogs and implements it for Spotify and YouTube Music.
//
// # Catalog Interface
//
// The transfer engine only needs three operations from a catalog: search by title and/or artist,
// append a track to a playlist, and create a playlist. Both providers implement them uniformly.
//
// # Spotify Implementation
//
// [SpotifyService] calls the Web API through an [oauth2] client built on a static access token.
// Token refresh is not handled; an expired token surfaces as a non-retryable auth error.
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with the FastAPI proxy server (music/) wrapping ytmusicapi.
// The auth_file path is sent via X-Auth-File header on each request.
// The proxy reports no popularity, so it is derived from search rank.
//
// # Error Handling
//
// Every failure is a [shared.CatalogError] whose Kind drives retries:
//   - [shared.KindNetwork] : transport failure, 408 or 5xx (retryable)
//   - [shared.KindRateLimited] : 429, with the Retry-After hint (retryable)
//   - [shared.KindAuth] : 401/403 (aborts the transfer)
//   - [shared.KindInvalidRequest] : other 4xx or undecodable responses (aborts the transfer)
//
// Context cancellation is returned as the context error itself.
package services
