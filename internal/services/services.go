// package services defines the Spotify client used by the login and shuffle flow
package services

import (
	"context"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/session"
	"golang.org/x/oauth2"
)

// Authenticator runs the two halves of the PKCE authorization-code flow.
type Authenticator interface {
	// BeginAuth stores a fresh verifier in store and returns the URL the user must be sent to.
	BeginAuth(store session.Store) (string, error)

	// CompleteAuth exchanges the code returned on the redirect and stores the access token in store.
	CompleteAuth(ctx context.Context, store session.Store, code, state string) (*oauth2.Token, error)
}

// TrackSource fetches single pages of a playlist's tracks.
type TrackSource interface {
	// FirstPageURL returns the URL of the first page of playlistID with the given page size.
	FirstPageURL(playlistID string, pageSize int) string

	// TracksPage fetches one page with the bearer token.
	TracksPage(ctx context.Context, pageURL string, token *oauth2.Token) (*models.TrackPage, error)
}
