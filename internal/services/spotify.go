// Spotify implementation of [Authenticator] and [TrackSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/pkce"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"golang.org/x/oauth2"
)

// SpotifyArtist is the simplified artist object embedded in tracks.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum is the simplified album object embedded in tracks.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	URI     string          `json:"uri"`
}

// SpotifyPlaylistTrack is one entry of a playlist. Track is null for removed or unavailable items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyTracksPage is the paging object returned by GET /playlists/{id}/tracks.
//
// Pointer fields distinguish a missing key from a zero value.
type SpotifyTracksPage struct {
	Items  *[]SpotifyPlaylistTrack `json:"items"`
	Total  *int                    `json:"total"`
	Next   *string                 `json:"next"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// SpotifyService talks to the Spotify accounts service and Web API as a public PKCE client.
type SpotifyService struct {
	config         *oauth2.Config
	httpClient     *http.Client
	apiURL         string
	verifierLength int
}

// NewSpotifyService builds the service from the spotify, fetch and pkce config sections.
func NewSpotifyService(cfg *shared.Config) (*SpotifyService, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if cfg.Spotify.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrInvalidConfig)
	}

	verifierLength := cfg.PKCE.VerifierLength
	if verifierLength == 0 {
		verifierLength = shared.MaxVerifierLength
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:    cfg.Spotify.ClientID,
			RedirectURL: cfg.Spotify.RedirectURI,
			Scopes:      cfg.Spotify.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.Spotify.AuthURL,
				TokenURL:  cfg.Spotify.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient:     &http.Client{Timeout: cfg.Fetch.Timeout()},
		apiURL:         strings.TrimRight(cfg.Spotify.APIURL, "/"),
		verifierLength: verifierLength,
	}, nil
}

// WithHTTPClient replaces the client used for both the token and the resource endpoint.
func (s *SpotifyService) WithHTTPClient(c *http.Client) *SpotifyService {
	s.httpClient = c
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// BeginAuth generates a verifier and state, stores them and returns the authorize URL.
//
// The challenge is derived here and never stored.
func (s *SpotifyService) BeginAuth(store session.Store) (string, error) {
	verifier, err := pkce.Verifier(s.verifierLength)
	if err != nil {
		return "", err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	if err := store.SetPending(verifier, state); err != nil {
		return "", fmt.Errorf("failed to store verifier: %w", err)
	}

	return s.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge(verifier)),
	), nil
}

// CompleteAuth exchanges code for an access token using the stored verifier.
//
// The verifier survives a transient failure so the same code can be retried; any answer from
// the token endpoint consumes it.
func (s *SpotifyService) CompleteAuth(ctx context.Context, store session.Store, code, state string) (*oauth2.Token, error) {
	verifier, expected, err := store.Pending()
	if err != nil {
		return nil, err
	}

	if expected != "" && state != expected {
		return nil, fmt.Errorf("%w: callback state does not match", shared.ErrStateMismatch)
	}

	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: authorization code is empty", shared.ErrInvalidInput)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		err = classifyExchangeError(err)
		if !errors.Is(err, shared.ErrTransient) {
			_ = store.ClearPending()
		}
		return nil, err
	}

	if err := store.SetToken(token); err != nil {
		return nil, err
	}
	if err := store.ClearPending(); err != nil {
		return nil, err
	}
	return token, nil
}

func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	var urlErr *url.Error

	switch {
	case errors.As(err, &retrieveErr):
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if retrieveErr.ErrorCode != "" {
			return fmt.Errorf("%w: token endpoint returned %d (%s)", shared.ErrAuthFailed, status, retrieveErr.ErrorCode)
		}
		return fmt.Errorf("%w: token endpoint returned %d", shared.ErrAuthFailed, status)
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &urlErr), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: token endpoint unreachable: %w", shared.ErrTransient, err)
	default:
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
}

// FirstPageURL returns the tracks URL of playlistID with limit set to pageSize.
func (s *SpotifyService) FirstPageURL(playlistID string, pageSize int) string {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", pageSize))
	return fmt.Sprintf("%s/playlists/%s/tracks?%s", s.apiURL, url.PathEscape(playlistID), q.Encode())
}

// TracksPage performs one authenticated GET and validates the body against the paging object.
func (s *SpotifyService) TracksPage(ctx context.Context, pageURL string, token *oauth2.Token) (*models.TrackPage, error) {
	if token == nil || token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var body SpotifyTracksPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page: %w", shared.ErrDataContract, err)
	}
	return body.toModel()
}

func statusError(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(detail))

	switch {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w: status %d", shared.ErrFetchFailed, shared.ErrTokenExpired, code)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %w: status %d", shared.ErrFetchFailed, shared.ErrAuthFailed, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w: status %d", shared.ErrFetchFailed, shared.ErrPlaylistNotFound, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: %w: status %d %s", shared.ErrFetchFailed, shared.ErrTransient, code, msg)
	default:
		return fmt.Errorf("%w: status %d %s", shared.ErrFetchFailed, code, msg)
	}
}

func (p SpotifyTracksPage) toModel() (*models.TrackPage, error) {
	if p.Items == nil {
		return nil, fmt.Errorf("%w: page has no items", shared.ErrDataContract)
	}

	tracks := make([]models.Track, 0, len(*p.Items))
	for i, item := range *p.Items {
		if item.Track == nil {
			return nil, fmt.Errorf("%w: item %d has no track", shared.ErrDataContract, p.Offset+i)
		}
		if item.Track.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no track name", shared.ErrDataContract, p.Offset+i)
		}

		artists := make([]string, 0, len(item.Track.Artists))
		for _, a := range item.Track.Artists {
			artists = append(artists, a.Name)
		}

		tracks = append(tracks, models.Track{
			ID:      item.Track.ID,
			Name:    item.Track.Name,
			Artists: artists,
			Album:   item.Track.Album.Name,
			URI:     item.Track.URI,
		})
	}

	return &models.TrackPage{Tracks: tracks, Total: p.Total, Next: p.Next}, nil
}
