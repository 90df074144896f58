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

const playlistColumns = `id, sequence, name, source_url, output_dir, created_at, updated_at`

// PlaylistRepository stores one row per download run.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts pl, assigning a sequence and (when empty) an ID.
func (r *PlaylistRepository) Create(ctx context.Context, pl *models.Playlist) error {
	if err := pl.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if pl.ID == "" {
		pl.ID = shared.GenerateID()
	}
	now := time.Now()
	if pl.CreatedAt.IsZero() {
		pl.CreatedAt = now
	}
	pl.UpdatedAt = now
	pl.Sequence = sequence

	query := `INSERT INTO playlists (` + playlistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		pl.ID, pl.Sequence, pl.Name, pl.SourceURL, pl.OutputDir, pl.CreatedAt, pl.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ?`

	pl, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return pl, err
}

// List returns the most recent playlists first. limit <= 0 means no limit.
func (r *PlaylistRepository) List(ctx context.Context, limit int) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		pl, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, pl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var pl models.Playlist
	err := s.Scan(&pl.ID, &pl.Sequence, &pl.Name, &pl.SourceURL, &pl.OutputDir, &pl.CreatedAt, &pl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &pl, nil
}
