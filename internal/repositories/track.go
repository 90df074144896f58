package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

const trackColumns = `id, sequence, playlist_id, idx, artist, name, spotify_url, youtube_url, duration_ms, preview_url, status, error, created_at, updated_at`

// TrackFilter narrows [TrackRepository.List]. Zero fields match everything.
type TrackFilter struct {
	PlaylistID string
	Status     *models.TrackStatus
}

// TrackRepository stores tracks and their latest status.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts t, assigning a sequence and (when empty) an ID.
func (r *TrackRepository) Create(ctx context.Context, t *models.Track) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if t.ID == "" {
		t.ID = shared.GenerateID()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	t.Sequence = sequence

	query := `INSERT INTO tracks (` + trackColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		t.ID,
		t.Sequence,
		nullString(t.PlaylistID),
		t.Index,
		t.Artist,
		t.Name,
		t.SpotifyURL,
		t.YouTubeURL,
		t.Duration,
		t.PreviewURL,
		t.Status,
		t.Error,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID.
func (r *TrackRepository) Get(ctx context.Context, id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`

	t, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return t, err
}

// UpdateStatus writes the track's status, source URL and error.
func (r *TrackRepository) UpdateStatus(ctx context.Context, t *models.Track) error {
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now()
	}

	query := `
		UPDATE tracks
		SET status = ?, youtube_url = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, t.Status, t.YouTubeURL, t.Error, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, t.ID)
	}

	return nil
}

// List retrieves tracks matching filter, in playlist order within insertion order.
func (r *TrackRepository) List(ctx context.Context, filter TrackFilter) ([]*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if filter.PlaylistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, filter.PlaylistID)
	}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []*models.Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func scanTrack(s scanner) (*models.Track, error) {
	var (
		t          models.Track
		playlistID sql.NullString
	)

	err := s.Scan(&t.ID, &t.Sequence, &playlistID, &t.Index, &t.Artist, &t.Name, &t.SpotifyURL, &t.YouTubeURL,
		&t.Duration, &t.PreviewURL, &t.Status, &t.Error, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	t.PlaylistID = playlistID.String
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
