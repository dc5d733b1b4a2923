package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
)

// CallbackHandler handles the authorization redirect of one login.
// Implements the Handler interface for registration with a Router.
type CallbackHandler struct {
	auth        Authorizer
	store       session.Store
	path        string
	resultChan  chan error
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler serving path that completes logins into store.
func NewCallbackHandler(auth Authorizer, store session.Store, path string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		auth:       auth,
		store:      store,
		path:       path,
		resultChan: make(chan error, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP exchanges the code of the first callback and reports the outcome.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()

	var err error
	if errParam := q.Get("error"); errParam != "" {
		err = fmt.Errorf("%w: authorization denied (%s)", shared.ErrAuthFailed, errParam)
	} else {
		err = h.auth.Callback(r.Context(), h.store, q.Get("code"), q.Get("state"))
	}
	h.Send(err)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := callbackPage{Title: "Authorization Successful", Message: "You can close this window and return to the terminal."}
	if err != nil {
		page = callbackPage{Title: "Authorization Failed", Message: shared.UserMessage(err), Failed: true}
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = callbackTemplate.Execute(w, page)
}

// Send sends the outcome through the channel (only once).
func (h *CallbackHandler) Send(err error) {
	h.once.Do(func() {
		h.resultChan <- err
		close(h.resultChan)
	})
}

// Result returns the channel receiving the outcome of the login.
//
// Channel will receive exactly one value and then be closed.
func (h *CallbackHandler) Result() <-chan error {
	return h.resultChan
}

type callbackPage struct {
	Title   string
	Message string
	Failed  bool
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{if .Failed}}#e22134{{else}}#1DB954{{end}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{if .Failed}}✗{{else}}✓{{end}} {{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

// Loopback runs a temporary callback server for one CLI login.
type Loopback struct {
	RedirectURI string
	Timeout     time.Duration
	Logger      *log.Logger
	Out         io.Writer

	// Open hands the authorize URL to the user. Defaults to [shared.OpenBrowser].
	Open func(url string) error
}

// CallbackAddr splits a loopback redirect URI into a listen address and a path.
func CallbackAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect_uri must be an http loopback URL, got %q", shared.ErrInvalidConfig, redirectURI)
	}

	addr = u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return addr, path, nil
}

// Authorize starts the callback server, sends the user to the authorize URL and waits
// for the callback, the timeout or ctx.
func (l *Loopback) Authorize(ctx context.Context, auth Authorizer, store session.Store) error {
	addr, path, err := CallbackAddr(l.RedirectURI)
	if err != nil {
		return err
	}

	logger := l.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	out := l.Out
	if out == nil {
		out = io.Discard
	}
	open := l.Open
	if open == nil {
		open = shared.OpenBrowser
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	authURL, err := auth.Login(store)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: cannot listen on %s: %v", shared.ErrServiceUnavailable, addr, err)
	}

	handler := NewCallbackHandler(auth, store, path)
	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting callback server", "addr", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	fmt.Fprintln(out, "→ Opening browser for Spotify login...")
	if err := open(authURL); err != nil {
		logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintln(out, "⚠ Could not open browser automatically.")
		fmt.Fprintf(out, "Please open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(out, "→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-handler.Result():
		return err
	case err := <-serverErrors:
		return fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	case <-timer.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
