package main

import (
	"context"
	"time"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/repositories"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON shape of a recorded run.
type historyEntry struct {
	ID           string     `json:"id"`
	Sequence     int        `json:"sequence"`
	PlaylistID   string     `json:"playlist_id"`
	Status       string     `json:"status"`
	TracksTotal  int        `json:"tracks_total"`
	PagesFetched int        `json:"pages_fetched"`
	Error        string     `json:"error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func newHistoryEntry(run *models.ShuffleRun) historyEntry {
	return historyEntry{
		ID:           run.ID(),
		Sequence:     run.Sequence(),
		PlaylistID:   run.PlaylistID(),
		Status:       run.Status(),
		TracksTotal:  run.TracksTotal(),
		PagesFetched: run.PagesFetched(),
		Error:        run.ErrorMessage(),
		StartedAt:    run.StartedAt(),
		CompletedAt:  run.CompletedAt(),
	}
}

// History lists recorded shuffle runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewShuffleRunRepository(db).List(map[string]any{
		"playlist_id": cmd.String("playlist"),
		"status":      cmd.String("status"),
		"limit":       int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	entries := make([]historyEntry, len(runs))
	for i, run := range runs {
		entries[i] = newHistoryEntry(run)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlain("No shuffle runs recorded yet.\n")
		return nil
	}

	r.writePlainHeader("Shuffle history")
	for _, e := range entries {
		when := "-"
		if e.StartedAt != nil {
			when = e.StartedAt.Local().Format("2006-01-02 15:04")
		}
		r.writePlain("#%-4d %s  %-22s %-9s %5d tracks %3d pages\n",
			e.Sequence, when, e.PlaylistID, e.Status, e.TracksTotal, e.PagesFetched)
		if e.Error != "" {
			r.writePlain("      ✗ %s\n", e.Error)
		}
	}
	return nil
}
