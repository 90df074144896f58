package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/repositories"
	"github.com/desertthunder/spotydl/internal/shared"
)

// History lists recorded runs, or the tracks of one run when --playlist is set.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	if id := cmd.String("playlist"); id != "" {
		return r.historyTracks(ctx, repositories.NewPlaylistRepository(db), repositories.NewTrackRepository(db), id, cmd.String("status"))
	}
	return r.historyPlaylists(ctx, repositories.NewPlaylistRepository(db), int(cmd.Int("limit")))
}

func (r *Runner) historyPlaylists(ctx context.Context, playlists *repositories.PlaylistRepository, limit int) error {
	runs, err := playlists.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return r.writePlain("No downloads recorded yet.\n")
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.output)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "ID", "Name", "Folder", "Created"})
	for _, pl := range runs {
		tw.AppendRow(table.Row{pl.Sequence, pl.ID, pl.Name, pl.OutputDir, pl.CreatedAt.Format("2006-01-02 15:04")})
	}
	tw.Render()
	return nil
}

func (r *Runner) historyTracks(ctx context.Context, playlists *repositories.PlaylistRepository, tracks *repositories.TrackRepository, id, status string) error {
	pl, err := playlists.Get(ctx, id)
	if err != nil {
		return err
	}

	filter := repositories.TrackFilter{PlaylistID: pl.ID}
	if status != "" {
		s, err := models.ParseTrackStatus(status)
		if err != nil {
			return err
		}
		filter.Status = &s
	}

	list, err := tracks.List(ctx, filter)
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.output)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("%s (%s)", pl.Name, pl.SourceURL)
	tw.AppendHeader(table.Row{"#", "Artist", "Name", "Duration", "Status", "Error"})
	completed := 0
	for _, t := range list {
		if t.Status == models.StatusCompleted {
			completed++
		}
		tw.AppendRow(table.Row{t.Index, t.Artist, t.Name, shared.FormatDuration(t.Duration), t.Status, t.Error})
	}
	tw.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d/%d completed", completed, len(list)), ""})
	tw.Render()
	return nil
}
