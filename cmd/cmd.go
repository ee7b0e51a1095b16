// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// libraryFlags are shared by commands that read the local music library.
func libraryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "library",
			Aliases: []string{"l"},
			Usage:   "Directory to scan (defaults to library.path from config)",
		},
	}
}

// transferFlags are shared by the headless and interactive transfer commands.
func transferFlags() []cli.Flag {
	return append(libraryFlags(),
		&cli.StringFlag{
			Name:  "playlist-id",
			Usage: "Existing playlist to append matched tracks to",
		},
		&cli.StringFlag{
			Name:  "playlist-name",
			Usage: "Name of a new playlist to create when --playlist-id is not set",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Match tracks without creating or modifying playlists",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Record the run in the history database",
			Value: true,
		},
	)
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "spotify",
				Usage:  "Authorize with Spotify (OAuth2) and save the tokens to the config file",
				Action: r.SetupSpotify,
			},
		},
	}
}

// scanCommand lists the tracks found in the local library.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan a directory for audio files and print their metadata",
		Flags: append(libraryFlags(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		),
		Action: r.Scan,
	}
}

// transferCommand handles matching and playlist transfer operations
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Match local tracks and add them to a catalog playlist",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a transfer, printing progress as tracks finish",
				Flags: append(transferFlags(),
					&cli.StringFlag{
						Name:    "report",
						Aliases: []string{"o"},
						Usage:   "Write a report to this path (\"-\" picks a default name)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format: json, csv, markdown or txt (default from --report extension)",
					},
				),
				Action: r.TransferRun,
			},
			{
				Name:    "ui",
				Aliases: []string{"tui", "interactive"},
				Usage:   "Interactive TUI with live progress, pause and cancel",
				Flags:   transferFlags(),
				Action:  r.TransferUI,
			},
		},
	}
}

// historyCommand inspects previous runs stored in the database.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect previous transfers",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded transfers, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show runs with this status",
					},
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "Only show runs against this catalog",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a recorded transfer and its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "outcome",
						Usage: "Only show tracks with this outcome (matched, unmatched, errored)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a transfer from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}
