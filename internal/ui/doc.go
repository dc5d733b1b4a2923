// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one shuffle:
//  1. [InputView] : Enter a playlist ID, URI or link
//  2. [LoginView] : Wait for the browser login when the session has no token
//  3. [ProgressView] : Follow the page fetch on a progress bar
//  4. [ResultView] : Browse the shuffled tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Engine], so the fetch never blocks rendering.
//
// Keyboard navigation uses vim-style bindings in the result list (j/k, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
