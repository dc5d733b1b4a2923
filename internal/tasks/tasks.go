// package tasks implements the login and shuffle operations shared by every front end.
package tasks

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/services"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
)

// ShuffleResult contains the shuffled tracks of one playlist.
type ShuffleResult struct {
	PlaylistID string
	Tracks     []models.Track
	Total      int
	Pages      int
	RunID      string // empty when runs are not recorded
}

// RunRecorder keeps an audit row for each shuffle.
type RunRecorder interface {
	// Begin records a pending run for playlistID.
	Begin(playlistID string) (*models.ShuffleRun, error)
	// Finish marks run completed, or failed when err is non-nil.
	Finish(run *models.ShuffleRun, total, pages int, err error) error
}

// Engine defines the actions a front end can take.
type Engine interface {
	// Login starts an authorization and returns the URL the user must visit.
	Login(store session.Store) (string, error)

	// Callback completes an authorization with the code and state returned on the redirect.
	Callback(ctx context.Context, store session.Store, code, state string) error

	// Shuffle fetches every track of the playlist and returns them in random order.
	Shuffle(ctx context.Context, store session.Store, playlistID string, progress chan<- ProgressUpdate) (*ShuffleResult, error)
}

// ShuffleEngine implements [Engine].
type ShuffleEngine struct {
	auth     services.Authenticator
	fetcher  *Fetcher
	source   Source
	recorder RunRecorder
	logger   *log.Logger
}

// NewShuffleEngine creates an engine with a crypto-seeded shuffle source and no run recording.
func NewShuffleEngine(auth services.Authenticator, fetcher *Fetcher) *ShuffleEngine {
	return &ShuffleEngine{
		auth:    auth,
		fetcher: fetcher,
		source:  NewSource(),
		logger:  shared.NewLogger(io.Discard),
	}
}

// WithSource replaces the random source used by [Shuffle].
func (e *ShuffleEngine) WithSource(src Source) *ShuffleEngine {
	e.source = src
	return e
}

// WithRecorder enables run recording.
func (e *ShuffleEngine) WithRecorder(r RunRecorder) *ShuffleEngine {
	e.recorder = r
	return e
}

func (e *ShuffleEngine) WithLogger(l *log.Logger) *ShuffleEngine {
	e.logger = l
	return e
}

func (e *ShuffleEngine) Login(store session.Store) (string, error) {
	if e.auth == nil {
		return "", fmt.Errorf("%w: authenticator not initialized", shared.ErrServiceUnavailable)
	}
	return e.auth.BeginAuth(store)
}

func (e *ShuffleEngine) Callback(ctx context.Context, store session.Store, code, state string) error {
	if e.auth == nil {
		return fmt.Errorf("%w: authenticator not initialized", shared.ErrServiceUnavailable)
	}
	if _, err := e.auth.CompleteAuth(ctx, store, code, state); err != nil {
		return err
	}
	e.logger.Info("authorized with Spotify")
	return nil
}

// Shuffle validates the input and the session before making any request.
func (e *ShuffleEngine) Shuffle(ctx context.Context, store session.Store, playlistID string, progress chan<- ProgressUpdate) (*ShuffleResult, error) {
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher not initialized", shared.ErrServiceUnavailable)
	}

	id, err := ParsePlaylistID(playlistID)
	if err != nil {
		return nil, err
	}

	token, err := store.Token()
	if err != nil {
		return nil, err
	}

	var run *models.ShuffleRun
	if e.recorder != nil {
		if run, err = e.recorder.Begin(id); err != nil {
			e.logger.Warn("failed to record run", "playlist", id, "error", err)
		}
	}

	fetched, err := e.fetcher.FetchAll(ctx, id, token, progress)
	if err != nil {
		e.finish(run, 0, FetchedPages(err), err)
		e.logger.Error("fetch failed", "playlist", id, "error", err)
		return nil, err
	}

	sendProgress(progress, shuffleUpdate(fetched.Total))
	Shuffle(fetched.Tracks, e.source)

	result := &ShuffleResult{
		PlaylistID: id,
		Tracks:     fetched.Tracks,
		Total:      fetched.Total,
		Pages:      fetched.Pages,
	}
	if run != nil {
		result.RunID = run.ID()
	}
	e.finish(run, fetched.Total, fetched.Pages, nil)

	e.logger.Info("shuffled playlist", "playlist", id, "tracks", result.Total, "pages", result.Pages)
	sendProgress(progress, completeUpdate(result))
	return result, nil
}

func (e *ShuffleEngine) finish(run *models.ShuffleRun, total, pages int, err error) {
	if e.recorder == nil || run == nil {
		return
	}
	if ferr := e.recorder.Finish(run, total, pages, err); ferr != nil {
		e.logger.Warn("failed to record run", "id", run.ID(), "error", ferr)
	}
}

// ParsePlaylistID accepts a bare id, a spotify:playlist: URI or an open.spotify.com link.
func ParsePlaylistID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	if rest, ok := strings.CutPrefix(s, "spotify:playlist:"); ok {
		s = rest
	} else if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[len(parts)-2] != "playlist" {
			return "", fmt.Errorf("%w: %s is not a playlist link", shared.ErrInvalidArgument, input)
		}
		s = parts[len(parts)-1]
	}

	for _, r := range s {
		if !strings.ContainsRune(alphanumeric, r) {
			return "", fmt.Errorf("%w: playlist id %q must be alphanumeric", shared.ErrInvalidArgument, s)
		}
	}
	if s == "" {
		return "", fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}
	return s, nil
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
