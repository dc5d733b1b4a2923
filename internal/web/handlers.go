package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/desertthunder/spotshuffle/internal/formatter"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
)

type homePage struct {
	Title         string
	Flashes       []string
	Authenticated bool
}

type resultsPage struct {
	Title      string
	Flashes    []string
	PlaylistID string
	Total      int
	Tracks     template.HTML
}

func (a *App) load(w http.ResponseWriter, r *http.Request) (*session.Cookie, bool) {
	store, err := session.Load(a.cookies, w, r)
	if err != nil {
		a.logger.Error("session unavailable", "error", err)
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return store, true
}

// fail shows err on the home page.
func (a *App) fail(w http.ResponseWriter, r *http.Request, store *session.Cookie, err error) {
	a.logger.Warn("request failed", "path", r.URL.Path, "error", err)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		_ = store.Clear()
	}
	if ferr := store.Flash(shared.UserMessage(err)); ferr != nil {
		a.logger.Error("failed to save flash", "error", ferr)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) render(w http.ResponseWriter, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		a.logger.Error("failed to render page", "error", err)
	}
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	store, ok := a.load(w, r)
	if !ok {
		return
	}

	flashes, err := store.Flashes()
	if err != nil {
		a.logger.Warn("failed to read flashes", "error", err)
	}
	_, tokenErr := store.Token()

	a.render(w, homeTemplate, homePage{
		Title:         "spotshuffle",
		Flashes:       flashes,
		Authenticated: tokenErr == nil,
	})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	store, ok := a.load(w, r)
	if !ok {
		return
	}

	authURL, err := a.engine.Login(store)
	if err != nil {
		a.fail(w, r, store, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// callback always ends on / so the single-use code does not stay in the address bar.
func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	store, ok := a.load(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		_ = store.ClearPending()
		a.fail(w, r, store, errors.Join(shared.ErrAuthFailed, errors.New(errParam)))
		return
	}

	if err := a.engine.Callback(r.Context(), store, q.Get("code"), q.Get("state")); err != nil {
		a.fail(w, r, store, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) shuffle(w http.ResponseWriter, r *http.Request) {
	store, ok := a.load(w, r)
	if !ok {
		return
	}

	result, err := a.engine.Shuffle(r.Context(), store, r.PostFormValue("playlist_id"), nil)
	if err != nil {
		a.fail(w, r, store, err)
		return
	}

	list, err := formatter.ToHTML(result.Tracks)
	if err != nil {
		a.fail(w, r, store, err)
		return
	}

	a.render(w, resultsTemplate, resultsPage{
		Title:      "Shuffled playlist",
		PlaylistID: result.PlaylistID,
		Total:      result.Total,
		Tracks:     list,
	})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	store, ok := a.load(w, r)
	if !ok {
		return
	}
	if err := store.Clear(); err != nil {
		a.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
