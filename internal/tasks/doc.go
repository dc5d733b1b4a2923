// Package tasks runs the shuffle flow with real-time progress reporting.
//
// # Core Operations
//
// [ShuffleEngine] is the action surface shared by the CLI, the TUI and the web page:
//
//  1. [ShuffleEngine.Login] : stores a verifier and returns the authorize URL
//  2. [ShuffleEngine.Callback] : exchanges the returned code for an access token
//  3. [ShuffleEngine.Shuffle] : fetches every track of a playlist and shuffles them
//     - validates the playlist id and the session token before any request
//     - pages through the playlist with [Fetcher]
//     - permutes the collection in place with [Shuffle]
//     - records a run when a [RunRecorder] is configured
//
// # Pagination
//
// [Fetcher.FetchAll] follows next links until the last page. Requests are paced by a token
// bucket limiter. A next link that was already visited, or a page count above both the
// configured cap and what the reported total allows, fails with [shared.ErrPaginationLoop].
// The collection must end up with exactly the reported total. Nothing partial is returned.
//
// # Progress Reporting
//
// Operations use non-blocking channels for progress updates.
//
// [ProgressUpdate] carries the phase, step counters, a 0..100 percentage and a message.
// Updates use select with default so a slow reader never stalls a fetch.
package tasks
