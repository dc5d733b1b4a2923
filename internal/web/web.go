// Package web serves the shuffle flow as a small web page.
//
// # Routes
//
//	GET  /                → login link, or the playlist form when a token is in the session
//	GET  /login           → 302 to the authorize URL
//	GET  /callback        → exchanges the code, then 302 to / so the code leaves the address bar
//	POST /shuffle         → results page, or a flash message and 302 to /
//	GET  /shuffle/events  → server-sent events: progress, then result or error
//	GET  /logout          → clears the session
//
// The callback path follows the configured redirect URI.
//
// # State Management
//
// Verifier, state and access token live in an encrypted browser-session cookie ([session.Cookie]).
// Nothing is written server side, and the cookie ends with the browser session.
//
// # Progress Streaming
//
// The events endpoint runs [tasks.Engine.Shuffle] in a goroutine and writes each
// [tasks.ProgressUpdate] as a "progress" event. The final event is "result" with the
// rendered list or "error" with a user-facing message.
package web

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotshuffle/internal/server"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/tasks"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	homeTemplate    = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/home.html"))
	resultsTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/results.html"))
)

// App is the web front end. It implements [http.Handler].
type App struct {
	engine       tasks.Engine
	cookies      sessions.Store
	logger       *log.Logger
	router       *server.BasicRouter
	callbackPath string
}

// NewApp registers the routes for engine. Sessions are kept in cookies.
func NewApp(engine tasks.Engine, cookies sessions.Store, callbackPath string, logger *log.Logger) *App {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	if callbackPath == "" {
		callbackPath = "/callback"
	}

	a := &App{
		engine:       engine,
		cookies:      cookies,
		logger:       logger,
		router:       server.NewBasicRouter(),
		callbackPath: callbackPath,
	}

	a.router.Use(server.Recoverer(logger), server.RequestLogger(logger))
	a.router.HandleFunc(http.MethodGet, "/", a.home)
	a.router.HandleFunc(http.MethodGet, "/login", a.login)
	a.router.HandleFunc(http.MethodGet, callbackPath, a.callback)
	a.router.HandleFunc(http.MethodPost, "/shuffle", a.shuffle)
	a.router.HandleFunc(http.MethodGet, "/shuffle/events", a.events)
	a.router.HandleFunc(http.MethodGet, "/logout", a.logout)
	a.router.NotFound(http.NotFoundHandler())
	return a
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}
