// Package services implements the Spotify side of spotshuffle: the PKCE login and the playlist tracks endpoint.
//
// # Login
//
// [SpotifyService.BeginAuth] creates a code verifier, stores it with a state value in the caller's
// [session.Store] and returns the authorize URL carrying the S256 challenge. The caller hands control to the
// browser. When the browser comes back with a code, [SpotifyService.CompleteAuth] checks the state, posts the
// code with the stored verifier to the token endpoint through [oauth2.Config.Exchange], stores the access
// token and clears the verifier.
//
// Public clients have no secret, so the client id travels in the form body ([oauth2.AuthStyleInParams]).
//
// # Tracks
//
// [SpotifyService.TracksPage] performs one authenticated GET of a playlist tracks page and converts it into a
// [models.TrackPage]. Looping over pages is the job of the tasks package.
//
// # Error Handling
//
// Errors wrap the sentinels of the shared package:
//   - [shared.ErrTransient] : the token or resource endpoint could not be reached (includes timeouts)
//   - [shared.ErrAuthFailed] : the token endpoint refused the code, or answered without an access token
//   - [shared.ErrTokenExpired] : the resource endpoint answered 401
//   - [shared.ErrFetchFailed] : any other non-2xx answer from the resource endpoint
//   - [shared.ErrDataContract] : a page body that does not match the documented shape
package services
