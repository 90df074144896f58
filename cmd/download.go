package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
	"github.com/desertthunder/spotydl/internal/tasks"
)

// downloadPlan is the resolved input of one download run.
type downloadPlan struct {
	url       string
	outputDir string
	engine    *tasks.DownloadEngine
}

// plan builds the engine for a download command from flags and config.
func (r *Runner) plan(cmd *cli.Command) (*downloadPlan, error) {
	url := cmd.StringArg("url")
	if url == "" {
		return nil, fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	catalog, err := r.catalogService()
	if err != nil {
		return nil, err
	}
	finder, err := r.finderService()
	if err != nil {
		return nil, err
	}

	dl := r.config.Download
	format := cmd.String("format")
	if format == "" {
		format = dl.Format
	}
	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = dl.OutputDir
	}
	concurrency := int(cmd.Int("concurrency"))
	if concurrency <= 0 {
		concurrency = dl.Concurrency
	}

	opts := tasks.EngineOpts{
		Concurrency: concurrency,
		RateLimit:   dl.RateLimit,
		Logger:      shared.WithLogger(r.logger, "component", "engine"),
	}
	if !cmd.Bool("no-history") {
		opts.Recorder = r.ledger()
	}

	engine := tasks.NewDownloadEngine(catalog, finder, r.downloaderService(format), opts)
	return &downloadPlan{url: url, outputDir: outputDir, engine: engine}, nil
}

// Download resolves a catalog URL and downloads every track into the output folder.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		return r.TUI(ctx, cmd)
	}

	p, err := r.plan(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("starting download", "url", p.url, "output", p.outputDir)
	r.writePlain("Starting download...\n")
	r.writePlain("Source: %s\n", p.url)
	r.writePlain("Destination: %s\n\n", p.outputDir)

	var meta *models.PlaylistMetadata
	r.streamProgress(0, func(progress chan<- tasks.ProgressUpdate) {
		meta, err = p.engine.Resolve(ctx, p.url, progress)
	})
	if err != nil {
		return err
	}

	var result *tasks.DownloadRunResult
	r.streamProgress(len(meta.Tracks), func(progress chan<- tasks.ProgressUpdate) {
		result, err = p.engine.RunMetadata(ctx, p.url, meta, p.outputDir, progress)
	})
	if err != nil {
		return err
	}

	r.printSummary(result)
	return nil
}

// streamProgress prints the updates fn sends until fn returns.
func (r *Runner) streamProgress(tracks int, fn func(chan<- tasks.ProgressUpdate)) {
	progressCh := make(chan tasks.ProgressUpdate, tasks.ProgressBufferSize(tracks))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	fn(progressCh)
	close(progressCh)
	<-done
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchCatalog:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.PrepareTracks:
		r.writePlain("\n🎵 %s\n", update.Message)
	case tasks.ProcessTrack:
		// Intermediate states are noise on a plain terminal; only outcomes are printed.
		if t, ok := update.Data.(models.Track); ok && t.Status.IsTerminal() {
			r.writePlain("   %s\n", update.Message)
		}
	}
}

func (r *Runner) printSummary(result *tasks.DownloadRunResult) {
	r.writePlain("\n")
	r.writePlainHeader("Download Complete!")
	r.writePlain("Playlist: %s (%d tracks)\n", result.Playlist.Name, len(result.Tracks))
	r.writePlain("Folder: %s\n", result.Playlist.OutputDir)
	r.writePlain("Run ID: %s\n", result.Playlist.ID)
	r.writePlain("Completed: %d/%d\n", result.Completed, len(result.Tracks))

	if result.Failed > 0 {
		r.writePlain("\nFailed to download %d tracks:\n", result.Failed)
		for _, t := range result.Tracks {
			if t.Status == models.StatusError {
				r.writePlain("  - %s: %s\n", t.Label(), t.Error)
			}
		}
	}
}
