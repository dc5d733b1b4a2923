package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotshuffle/internal/server"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, closeEngine, err := r.newEngine(config)
	if err != nil {
		return err
	}
	defer closeEngine()

	login := func(ctx context.Context, store session.Store, show func(string, error)) error {
		loopback := &server.Loopback{
			RedirectURI: config.Spotify.RedirectURI,
			Logger:      shared.WithLogger(fileLogger, "component", "callback"),
			Out:         io.Discard,
			Open: func(authURL string) error {
				err := r.open(authURL)
				show(authURL, err)
				return err
			},
		}
		return loopback.Authorize(ctx, engine, store)
	}

	model := ui.NewModel(ctx, engine, session.NewMemory(), login).WithLogger(fileLogger).WithPlaylist(cmd.String("id"))
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
