package models

import (
	"errors"
	"testing"
)

func TestTrack(t *testing.T) {
	tr := Track{Name: "Song", Artists: []string{"A", "B", "C"}}
	if got := tr.ArtistLine(); got != "A, B, C" {
		t.Errorf("ArtistLine() = %q", got)
	}

	if got := (Track{Name: "Solo"}).ArtistLine(); got != "" {
		t.Errorf("ArtistLine() with no artists = %q", got)
	}
}

func TestTrackPage(t *testing.T) {
	empty := ""
	next := "https://api.spotify.com/v1/playlists/x/tracks?offset=100"

	if (TrackPage{}).HasNext() {
		t.Error("nil next should not have a next page")
	}
	if (TrackPage{Next: &empty}).HasNext() {
		t.Error("empty next should not have a next page")
	}
	if !(TrackPage{Next: &next}).HasNext() {
		t.Error("expected next page")
	}
}

func TestShuffleRun(t *testing.T) {
	t.Run("lifecycle", func(t *testing.T) {
		run := NewShuffleRun(1, "playlist")
		run.SetID("id")

		if run.Status() != RunPending {
			t.Errorf("expected pending, got %s", run.Status())
		}
		if err := run.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}

		run.Start()
		if run.StartedAt() == nil {
			t.Error("expected started at")
		}

		run.Complete(250, 3)
		if run.Status() != RunCompleted || run.TracksTotal() != 250 || run.PagesFetched() != 3 {
			t.Errorf("unexpected run after Complete: %s %d %d", run.Status(), run.TracksTotal(), run.PagesFetched())
		}
		if run.CompletedAt() == nil {
			t.Error("expected completed at")
		}
	})

	t.Run("failure", func(t *testing.T) {
		run := NewShuffleRun(1, "playlist")
		run.SetID("id")
		run.Fail(errors.New("status 500"), 1)

		if run.Status() != RunFailed || run.ErrorMessage() != "status 500" {
			t.Errorf("unexpected run after Fail: %s %q", run.Status(), run.ErrorMessage())
		}
	})

	t.Run("validation", func(t *testing.T) {
		tt := []struct {
			name string
			run  func() *ShuffleRun
		}{
			{"missing id", func() *ShuffleRun { return NewShuffleRun(1, "p") }},
			{"missing playlist", func() *ShuffleRun { r := NewShuffleRun(1, ""); r.SetID("id"); return r }},
			{"bad status", func() *ShuffleRun { r := NewShuffleRun(1, "p"); r.SetID("id"); r.SetStatus("x"); return r }},
			{"negative", func() *ShuffleRun { r := NewShuffleRun(1, "p"); r.SetID("id"); r.SetTracksTotal(-1); return r }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if err := tc.run().Validate(); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})
}
