package repositories

import (
	"context"

	"github.com/desertthunder/spotydl/internal/models"
)

// TrackLedger records a download run in the database. It satisfies tasks.TrackRecorder.
type TrackLedger struct {
	playlists *PlaylistRepository
	tracks    *TrackRepository
}

// NewTrackLedger creates a TrackLedger over the given repositories
func NewTrackLedger(playlists *PlaylistRepository, tracks *TrackRepository) *TrackLedger {
	return &TrackLedger{playlists: playlists, tracks: tracks}
}

func (l *TrackLedger) RecordPlaylist(ctx context.Context, pl *models.Playlist) error {
	return l.playlists.Create(ctx, pl)
}

func (l *TrackLedger) RecordTrack(ctx context.Context, t *models.Track) error {
	return l.tracks.Create(ctx, t)
}

func (l *TrackLedger) RecordStatus(ctx context.Context, t *models.Track) error {
	return l.tracks.UpdateStatus(ctx, t)
}
