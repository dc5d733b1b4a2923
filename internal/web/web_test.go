package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/tasks"
	"golang.org/x/oauth2"
)

type fakeEngine struct {
	loginURL    string
	callbackErr error
	shuffleErr  error
	tracks      []models.Track
	shuffled    []string
}

func (f *fakeEngine) Login(store session.Store) (string, error) {
	if err := store.SetPending("verifier", "state-1"); err != nil {
		return "", err
	}
	return f.loginURL, nil
}

func (f *fakeEngine) Callback(ctx context.Context, store session.Store, code, state string) error {
	if f.callbackErr != nil {
		return f.callbackErr
	}
	if _, expected, err := store.Pending(); err != nil {
		return err
	} else if expected != state {
		return shared.ErrStateMismatch
	}
	if err := store.SetToken(&oauth2.Token{AccessToken: "tok-" + code}); err != nil {
		return err
	}
	return store.ClearPending()
}

func (f *fakeEngine) Shuffle(ctx context.Context, store session.Store, playlistID string, progress chan<- tasks.ProgressUpdate) (*tasks.ShuffleResult, error) {
	id, err := tasks.ParsePlaylistID(playlistID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Token(); err != nil {
		return nil, err
	}
	if f.shuffleErr != nil {
		return nil, f.shuffleErr
	}
	f.shuffled = append(f.shuffled, id)

	for _, pct := range []int{50, 100} {
		if progress != nil {
			progress <- tasks.ProgressUpdate{Phase: tasks.FetchTracks, Percent: pct, Message: fmt.Sprintf("%d%%", pct)}
		}
	}
	return &tasks.ShuffleResult{PlaylistID: id, Tracks: f.tracks, Total: len(f.tracks), Pages: 1}, nil
}

type testClient struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, engine tasks.Engine) *testClient {
	t.Helper()
	app := NewApp(engine, session.NewCookieStore("test-secret"), "/callback", nil)
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &testClient{
		t:      t,
		server: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(method, path string, form url.Values) (*http.Response, string) {
	c.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.server.URL+path, body)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

// login runs /login and /callback so the session holds a token.
func (c *testClient) login() {
	c.t.Helper()
	c.do(http.MethodGet, "/login", nil)
	resp, _ := c.do(http.MethodGet, "/callback?code=abc&state=state-1", nil)
	if resp.StatusCode != http.StatusFound {
		c.t.Fatalf("expected login to redirect, got %d", resp.StatusCode)
	}
}

func TestApp(t *testing.T) {
	tracks := []models.Track{
		{Name: "Song <One>", Artists: []string{"Artist"}},
		{Name: "Song Two", Artists: []string{"A", "B"}},
	}

	t.Run("Home Logged Out", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})
		resp, body := c.do(http.MethodGet, "/", nil)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if !strings.Contains(body, `href="/login"`) {
			t.Error("expected a login link")
		}
		if strings.Contains(body, `name="playlist_id"`) {
			t.Error("expected no playlist form before login")
		}
	})

	t.Run("Login Redirects", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{loginURL: "https://accounts.example.com/authorize?state=state-1"})
		resp, _ := c.do(http.MethodGet, "/login", nil)

		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "https://accounts.example.com/authorize?state=state-1" {
			t.Errorf("unexpected redirect %s", loc)
		}

		cookie := resp.Header.Get("Set-Cookie")
		if !strings.Contains(cookie, session.CookieName) || !strings.Contains(cookie, "HttpOnly") {
			t.Errorf("expected an HttpOnly session cookie, got %s", cookie)
		}
		if strings.Contains(strings.ToLower(cookie), "max-age") || strings.Contains(strings.ToLower(cookie), "expires") {
			t.Errorf("expected a browser-session cookie, got %s", cookie)
		}
	})

	t.Run("Callback", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})
		c.do(http.MethodGet, "/login", nil)

		resp, _ := c.do(http.MethodGet, "/callback?code=abc&state=state-1", nil)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
			t.Fatalf("expected redirect to /, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
		}

		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, `name="playlist_id"`) {
			t.Error("expected the playlist form after login")
		}
	})

	t.Run("Callback Without Login", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})

		resp, _ := c.do(http.MethodGet, "/callback?code=abc&state=state-1", nil)
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected redirect, got %d", resp.StatusCode)
		}

		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, `class="flash"`) || !strings.Contains(body, "log in again") {
			t.Errorf("expected a flash asking to log in again, got %s", body)
		}
	})

	t.Run("Callback Denied", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})
		c.do(http.MethodGet, "/login", nil)
		c.do(http.MethodGet, "/callback?error=access_denied&state=state-1", nil)

		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, "Spotify login failed") {
			t.Errorf("expected login failure message, got %s", body)
		}
		if strings.Contains(body, `name="playlist_id"`) {
			t.Error("expected to stay logged out")
		}
	})

	t.Run("Flash Shown Once", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{callbackErr: shared.ErrAuthFailed})
		c.do(http.MethodGet, "/login", nil)
		c.do(http.MethodGet, "/callback?code=abc&state=state-1", nil)

		_, first := c.do(http.MethodGet, "/", nil)
		_, second := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(first, `class="flash"`) || strings.Contains(second, `class="flash"`) {
			t.Error("expected the flash on the first page view only")
		}
	})

	t.Run("Shuffle", func(t *testing.T) {
		engine := &fakeEngine{tracks: tracks}
		c := newTestClient(t, engine)
		c.login()

		resp, body := c.do(http.MethodPost, "/shuffle", url.Values{"playlist_id": {"pl1"}})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Song &lt;One&gt;") || !strings.Contains(body, "A, B") {
			t.Errorf("expected escaped track list, got %s", body)
		}
		if !strings.Contains(body, "2 tracks from playlist pl1") {
			t.Errorf("expected summary, got %s", body)
		}
	})

	t.Run("Shuffle Blank ID", func(t *testing.T) {
		engine := &fakeEngine{}
		c := newTestClient(t, engine)
		c.login()

		resp, _ := c.do(http.MethodPost, "/shuffle", url.Values{"playlist_id": {"  "}})
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected redirect, got %d", resp.StatusCode)
		}
		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, "Please check your input") {
			t.Errorf("expected input message, got %s", body)
		}
		if len(engine.shuffled) != 0 {
			t.Error("expected no fetch")
		}
	})

	t.Run("Shuffle Logged Out", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})

		c.do(http.MethodPost, "/shuffle", url.Values{"playlist_id": {"pl1"}})
		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, "Please log in with Spotify first.") {
			t.Errorf("expected login message, got %s", body)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{shuffleErr: fmt.Errorf("%w: %w", shared.ErrFetchFailed, shared.ErrTokenExpired)})
		c.login()

		c.do(http.MethodPost, "/shuffle", url.Values{"playlist_id": {"pl1"}})
		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, "session expired") {
			t.Errorf("expected expiry message, got %s", body)
		}
		if !strings.Contains(body, `href="/login"`) {
			t.Error("expected the session to be logged out")
		}
	})

	t.Run("Events", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{tracks: tracks})
		c.login()

		resp, body := c.do(http.MethodGet, "/shuffle/events?playlist_id=pl1", nil)
		if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("expected event stream, got %s", ct)
		}

		progressAt := strings.Index(body, "event: progress\ndata: ")
		resultAt := strings.Index(body, "event: result\ndata: ")
		if progressAt < 0 || resultAt < 0 || progressAt > resultAt {
			t.Fatalf("expected progress events before the result, got %s", body)
		}
		if !strings.Contains(body, `"percent":100`) {
			t.Error("expected a 100% progress event")
		}
		if !strings.Contains(body, `"total":2`) {
			t.Error("expected the result total")
		}
	})

	t.Run("Events Error", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})

		_, body := c.do(http.MethodGet, "/shuffle/events?playlist_id=pl1", nil)
		if !strings.Contains(body, "event: error\ndata: ") || !strings.Contains(body, "Please log in") {
			t.Errorf("expected an error event, got %s", body)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})
		c.login()

		resp, _ := c.do(http.MethodGet, "/logout", nil)
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected redirect, got %d", resp.StatusCode)
		}
		_, body := c.do(http.MethodGet, "/", nil)
		if !strings.Contains(body, `href="/login"`) {
			t.Error("expected to be logged out")
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		c := newTestClient(t, &fakeEngine{})
		resp, _ := c.do(http.MethodGet, "/shuffle", nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}
