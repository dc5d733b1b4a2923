package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/spotshuffle/internal/formatter"
	"github.com/desertthunder/spotshuffle/internal/server"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run authorizes through a loopback callback server, fetches the playlist and prints it shuffled.
//
// Input is validated before the browser opens so a typo does not cost a login.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := tasks.ParsePlaylistID(cmd.String("id"))
	if err != nil {
		return err
	}

	format := strings.ToLower(cmd.String("format"))
	if !slices.Contains(formatter.Formats, format) && format != "txt" && format != "md" {
		return fmt.Errorf("%w: unknown format %q (expected one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(formatter.Formats, ", "))
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, closeEngine, err := r.newEngine(config)
	if err != nil {
		return err
	}
	defer closeEngine()

	store := session.NewMemory()
	loopback := &server.Loopback{
		RedirectURI: config.Spotify.RedirectURI,
		Logger:      shared.WithLogger(r.logger, "component", "callback"),
		Out:         r.output,
		Open:        r.open,
	}
	if err := loopback.Authorize(ctx, engine, store); err != nil {
		return err
	}
	r.writePlain("✓ Logged in with Spotify\n")

	var progress chan tasks.ProgressUpdate
	done := make(chan struct{})
	if cmd.Bool("quiet") {
		close(done)
	} else {
		progress = make(chan tasks.ProgressUpdate, 32)
		go r.printProgress(progress, done)
	}

	result, err := engine.Shuffle(ctx, store, playlistID, progress)
	if progress != nil {
		close(progress)
	}
	<-done
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Playlist %s (shuffled)", result.PlaylistID)
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, format, title, result.Tracks); err != nil {
			return err
		}
		r.writePlain("✓ Wrote %d tracks to %s\n", result.Total, path)
		return nil
	}

	r.writePlain("\n")
	return formatter.Write(r.output, format, title, result.Tracks)
}

// printProgress writes one line per update until progress is closed.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		r.writePlain("[%3d%%] %s\n", u.Percent, u.Message)
	}
}
