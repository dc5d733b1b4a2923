// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotshuffle/internal/shared"
)

// FakeSpotify serves the token endpoint and the playlist tracks endpoint from an [httptest.Server].
//
// Playlists contain Total tracks named "Track N" by "Artist N". Fields may be changed
// before the first request to inject failures.
type FakeSpotify struct {
	Server      *httptest.Server
	Total       int
	AccessToken string

	TokenStatus int    // non-zero: token endpoint answers with this status
	TokenBody   string // non-empty: raw 200 body of the token endpoint
	FailPage    int    // 1-based page answered with FailStatus
	FailStatus  int
	LoopNext    bool // every page after the first points back at page two
	OmitTotal   bool
	TotalSkew   int    // added to the reported total
	NullTrackAt int    // index of an item with a null track, -1 for none
	NextBase    string // non-empty: next links point at this origin instead

	mu            sync.Mutex
	tokenRequests []url.Values
	pageRequests  int
	playlistIDs   []string
}

// NewFakeSpotify starts a fake with total tracks and registers its shutdown with t.
func NewFakeSpotify(t *testing.T, total int) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{
		Total:       total,
		AccessToken: "test-access-token",
		FailStatus:  http.StatusInternalServerError,
		NullTrackAt: -1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.token)
	mux.HandleFunc("/v1/playlists/", f.tracks)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns the default config pointed at the fake with pacing disabled.
func (f *FakeSpotify) Config() *shared.Config {
	cfg := shared.DefaultConfig()
	cfg.Spotify.ClientID = "test-client"
	cfg.Spotify.AuthURL = f.Server.URL + "/authorize"
	cfg.Spotify.TokenURL = f.Server.URL + "/api/token"
	cfg.Spotify.APIURL = f.Server.URL + "/v1"
	cfg.Fetch.RateLimit = 0
	return cfg
}

// TokenRequests returns the forms posted to the token endpoint.
func (f *FakeSpotify) TokenRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.tokenRequests...)
}

// PageRequests returns the number of requests made to the tracks endpoint.
func (f *FakeSpotify) PageRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageRequests
}

// PlaylistIDs returns the playlist ids seen by the tracks endpoint.
func (f *FakeSpotify) PlaylistIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.playlistIDs...)
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.tokenRequests = append(f.tokenRequests, r.PostForm)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case f.TokenStatus != 0:
		w.WriteHeader(f.TokenStatus)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
	case f.TokenBody != "":
		_, _ = io.WriteString(w, f.TokenBody)
	case r.PostForm.Get("code_verifier") == "":
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid_request","error_description":"code_verifier required"}`)
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": f.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "playlist-read-private",
		})
	}
}

func (f *FakeSpotify) tracks(w http.ResponseWriter, r *http.Request) {
	playlistID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/playlists/"), "/tracks")

	f.mu.Lock()
	f.pageRequests++
	f.playlistIDs = append(f.playlistIDs, playlistID)
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+f.AccessToken {
		http.Error(w, `{"error":{"status":401,"message":"The access token expired"}}`, http.StatusUnauthorized)
		return
	}

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	page := offset/limit + 1
	if page == f.FailPage {
		http.Error(w, `{"error":{"status":500,"message":"Server error"}}`, f.FailStatus)
		return
	}

	items := []map[string]any{}
	for i := offset; i < offset+limit && i < f.Total; i++ {
		if i == f.NullTrackAt {
			items = append(items, map[string]any{"track": nil})
			continue
		}
		items = append(items, map[string]any{
			"added_at": "2024-01-01T00:00:00Z",
			"track": map[string]any{
				"id":      fmt.Sprintf("id%d", i),
				"name":    fmt.Sprintf("Track %d", i),
				"uri":     fmt.Sprintf("spotify:track:id%d", i),
				"album":   map[string]any{"id": "album", "name": "Album"},
				"artists": []map[string]any{{"id": fmt.Sprintf("a%d", i), "name": fmt.Sprintf("Artist %d", i)}},
			},
		})
	}

	body := map[string]any{"items": items, "limit": limit, "offset": offset, "next": nil}
	if !f.OmitTotal {
		body["total"] = f.Total + f.TotalSkew
	}

	base := f.Server.URL + r.URL.Path
	if f.NextBase != "" {
		base = f.NextBase + r.URL.Path
	}
	switch {
	case f.LoopNext:
		body["next"] = fmt.Sprintf("%s?limit=%d&offset=%d", base, limit, limit)
	case offset+limit < f.Total:
		body["next"] = fmt.Sprintf("%s?limit=%d&offset=%d", base, limit, offset+limit)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 || (key == "limit" && v == 0) {
		return fallback
	}
	return v
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
