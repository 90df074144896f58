// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the template, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// fetchCommand resolves a catalog URL and exports its track list.
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"export"},
		Usage:   "Fetch playlist, album or artist metadata and export it",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: <name>.<ext>)",
			},
			&cli.BoolFlag{
				Name:  "stdout",
				Usage: "Print the export instead of writing a file",
			},
		},
		Action: r.Fetch,
	}
}

// searchCommand looks up the YouTube source for one track.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Find the YouTube video for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "artist"},
			&cli.StringArg{Name: "name"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// downloadCommand runs the full pipeline for every track of a catalog URL.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download every track of a playlist, album or artist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Destination folder (default: download.output_dir)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Audio format passed to ffmpeg (default: download.format)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Tracks processed at once (default: download.concurrency)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Don't record the run in the database",
			},
			&cli.BoolFlag{
				Name:    "tui",
				Aliases: []string{"i"},
				Usage:   "Follow the run in an interactive terminal UI",
			},
		},
		Action: r.Download,
	}
}

// historyCommand lists recorded runs and their tracks.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show previous download runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Show the tracks of one run by ID",
			},
			&cli.StringFlag{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "Only show tracks with this status (new, searching, queued, downloading, completed, error)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
		},
		Action: r.History,
	}
}
