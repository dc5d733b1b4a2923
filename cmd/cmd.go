// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/spotshuffle/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// runCommand logs in through the browser and prints one shuffled playlist.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"shuffle"},
		Usage:   "Log in with Spotify and print a playlist in random order",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID, spotify:playlist: URI or open.spotify.com link",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (" + strings.Join(formatter.Formats, ", ") + ")",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the list to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not print progress",
			},
		},
		Action: r.Run,
	}
}

// serveCommand runs the web front end.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the shuffle page over HTTP",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// historyCommand lists recorded shuffle runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded shuffle runs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Only runs of this playlist ID",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only runs with this status (pending, completed, failed)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for the database and the config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "id",
				Usage: "Playlist to pre-fill",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the TUI writes its logs",
				Value: "./tmp/spotshuffle-tui.log",
			},
		},
		Action: r.TUI,
	}
}
