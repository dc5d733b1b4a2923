package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/services"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// FetchResult is the complete, ordered track collection of one playlist.
type FetchResult struct {
	Tracks []models.Track
	Total  int
	Pages  int
}

// Fetcher pages through a playlist's tracks one request at a time.
type Fetcher struct {
	source   services.TrackSource
	limiter  *rate.Limiter
	pageSize int
	maxPages int
	logger   *log.Logger
}

// NewFetcher creates a fetcher for source using the page size, page cap and request rate of cfg.
//
// A non-positive rate disables pacing.
func NewFetcher(source services.TrackSource, cfg shared.FetchConfig) *Fetcher {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > shared.MaxPageSize {
		pageSize = shared.MaxPageSize
	}

	return &Fetcher{
		source:   source,
		limiter:  rate.NewLimiter(limit, 1),
		pageSize: pageSize,
		maxPages: cfg.MaxPages,
		logger:   shared.NewLogger(io.Discard),
	}
}

// WithLogger sets the logger used for per-page debug output.
func (f *Fetcher) WithLogger(l *log.Logger) *Fetcher {
	f.logger = l
	return f
}

// FetchError is returned by [Fetcher.FetchAll] once a fetch has started. Pages counts the pages
// received before the failure; their tracks are discarded.
type FetchError struct {
	Pages int
	Err   error
}

func (e *FetchError) Error() string { return e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// FetchedPages returns the pages received before err, or 0 when err did not come from a fetch.
func FetchedPages(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Pages
	}
	return 0
}

// FetchAll fetches every page of playlistID and returns the tracks in remote order.
//
// Next links must stay on the origin of the first page, so the token is only sent there.
func (f *Fetcher) FetchAll(ctx context.Context, playlistID string, token *oauth2.Token, progress chan<- ProgressUpdate) (*FetchResult, error) {
	next := f.source.FirstPageURL(playlistID, f.pageSize)
	origin, err := url.Parse(next)
	if err != nil {
		return nil, fmt.Errorf("%w: first page url: %v", shared.ErrInvalidConfig, err)
	}
	seen := map[string]bool{}

	var tracks []models.Track
	total, pages, pageLimit := 0, 0, f.maxPages
	fail := func(err error) (*FetchResult, error) {
		return nil, &FetchError{Pages: pages, Err: err}
	}

	for next != "" {
		if seen[next] {
			return fail(fmt.Errorf("%w: page %s requested twice", shared.ErrPaginationLoop, next))
		}
		seen[next] = true

		if pageLimit > 0 && pages >= pageLimit {
			return fail(fmt.Errorf("%w: more than %d pages for %d tracks", shared.ErrPaginationLoop, pageLimit, total))
		}

		if err := f.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			return fail(fmt.Errorf("%w: %w", shared.ErrTransient, err))
		}

		page, err := f.source.TracksPage(ctx, next, token)
		if err != nil {
			return fail(err)
		}
		pages++

		if pages == 1 {
			if page.Total == nil {
				return fail(fmt.Errorf("%w: first page has no total", shared.ErrDataContract))
			}
			total = *page.Total
			if total < 0 {
				return fail(fmt.Errorf("%w: negative total %d", shared.ErrDataContract, total))
			}
			if f.maxPages > 0 && f.pagesFor(total) > f.maxPages {
				return fail(fmt.Errorf("%w: total %d does not fit in %d pages of %d",
					shared.ErrPaginationLoop, total, f.maxPages, f.pageSize))
			}
			if f.maxPages > 0 {
				tracks = make([]models.Track, 0, total)
			}
			pageLimit = f.expectedPages(total)
		}

		tracks = append(tracks, page.Tracks...)
		f.logger.Debug("fetched page", "playlist", playlistID, "page", pages, "fetched", len(tracks), "total", total)
		sendProgress(progress, fetchPageUpdate(len(tracks), total, pages))

		next = ""
		if page.HasNext() {
			next = *page.Next
			if err := sameOrigin(origin, next); err != nil {
				return fail(err)
			}
		}
	}

	if len(tracks) != total {
		return fail(fmt.Errorf("%w: fetched %d tracks but playlist reports %d", shared.ErrDataContract, len(tracks), total))
	}

	return &FetchResult{Tracks: tracks, Total: total, Pages: pages}, nil
}

func sameOrigin(origin *url.URL, next string) error {
	u, err := url.Parse(next)
	if err != nil {
		return fmt.Errorf("%w: next link %q: %v", shared.ErrDataContract, next, err)
	}
	if u.Scheme != origin.Scheme || u.Host != origin.Host {
		return fmt.Errorf("%w: next link %q leaves %s://%s", shared.ErrDataContract, next, origin.Scheme, origin.Host)
	}
	return nil
}

// expectedPages bounds the page count by the reported total, with one page of slack,
// and by the configured cap.
func (f *Fetcher) expectedPages(total int) int {
	n := f.pagesFor(total)
	if n < math.MaxInt {
		n++
	}
	if f.maxPages > 0 && f.maxPages < n {
		return f.maxPages
	}
	return n
}

// pagesFor is ceil(total/pageSize) without overflowing on a bogus total.
func (f *Fetcher) pagesFor(total int) int {
	n := total / f.pageSize
	if total%f.pageSize != 0 {
		n++
	}
	return n
}
