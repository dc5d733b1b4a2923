package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/spotshuffle/internal/formatter"
	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/tasks"
)

type progressEvent struct {
	Phase   string `json:"phase"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

type resultEvent struct {
	PlaylistID string         `json:"playlist_id"`
	Total      int            `json:"total"`
	Pages      int            `json:"pages"`
	HTML       string         `json:"html"`
	Tracks     []models.Track `json:"tracks"`
}

type errorEvent struct {
	Message string `json:"message"`
}

type shuffleOutcome struct {
	result *tasks.ShuffleResult
	err    error
}

func writeEvent(w http.ResponseWriter, f http.Flusher, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	f.Flush()
	return nil
}

func toProgressEvent(u tasks.ProgressUpdate) progressEvent {
	return progressEvent{
		Phase:   u.Phase.String(),
		Step:    u.Step,
		Total:   u.Total,
		Percent: u.Percent,
		Message: u.Message,
	}
}

// events streams the progress of one shuffle. The session is only read, since no cookie can be set
// once the stream has started.
func (a *App) events(w http.ResponseWriter, r *http.Request) {
	store, ok := a.load(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan shuffleOutcome, 1)
	playlistID := r.URL.Query().Get("playlist_id")

	go func() {
		result, err := a.engine.Shuffle(ctx, store, playlistID, progress)
		done <- shuffleOutcome{result: result, err: err}
	}()

	for {
		select {
		case u := <-progress:
			if err := writeEvent(w, flusher, "progress", toProgressEvent(u)); err != nil {
				a.logger.Warn("event stream closed", "error", err)
				return
			}
		case out := <-done:
			a.drain(w, flusher, progress)
			a.finishStream(w, flusher, out)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) drain(w http.ResponseWriter, f http.Flusher, progress chan tasks.ProgressUpdate) {
	for {
		select {
		case u := <-progress:
			_ = writeEvent(w, f, "progress", toProgressEvent(u))
		default:
			return
		}
	}
}

func (a *App) finishStream(w http.ResponseWriter, f http.Flusher, out shuffleOutcome) {
	if out.err != nil {
		a.logger.Warn("shuffle failed", "error", out.err)
		_ = writeEvent(w, f, "error", errorEvent{Message: shared.UserMessage(out.err)})
		return
	}

	list, err := formatter.ToHTML(out.result.Tracks)
	if err != nil {
		_ = writeEvent(w, f, "error", errorEvent{Message: shared.UserMessage(err)})
		return
	}

	_ = writeEvent(w, f, "result", resultEvent{
		PlaylistID: out.result.PlaylistID,
		Total:      out.result.Total,
		Pages:      out.result.Pages,
		HTML:       string(list),
		Tracks:     out.result.Tracks,
	})
}
