package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/spotydl/internal/shared"
)

// ResourceKind is the kind of catalog collection a URL points at.
type ResourceKind string

const (
	KindPlaylist ResourceKind = "playlist"
	KindAlbum    ResourceKind = "album"
	KindArtist   ResourceKind = "artist"
)

// Resource identifies a catalog collection.
type Resource struct {
	Kind ResourceKind
	ID   string
}

func (r Resource) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// CatalogTrack is a normalized track entry. Artist holds every contributing
// artist joined with ", ".
type CatalogTrack struct {
	Artist     string `json:"artist"`
	Name       string `json:"name"`
	Duration   int    `json:"duration_ms"`
	PreviewURL string `json:"preview_url,omitempty"`
	SourceURI  string `json:"source_uri,omitempty"`
}

// PlaylistMetadata is the result of resolving a catalog URL. Tracks is never nil.
type PlaylistMetadata struct {
	Name   string         `json:"name"`
	Tracks []CatalogTrack `json:"tracks"`
}

// Playlist is a persisted download run over one catalog resource.
type Playlist struct {
	ID        string
	Sequence  int
	Name      string
	SourceURL string
	OutputDir string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackStatus is the acquisition state of a [Track].
type TrackStatus int

const (
	StatusNew TrackStatus = iota
	StatusSearching
	StatusQueued
	StatusDownloading
	StatusCompleted
	StatusError
)

func (s TrackStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusSearching:
		return "searching"
	case StatusQueued:
		return "queued"
	case StatusDownloading:
		return "downloading"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseTrackStatus is the inverse of [TrackStatus.String].
func ParseTrackStatus(s string) (TrackStatus, error) {
	for st := StatusNew; st <= StatusError; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s TrackStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether moving from s to next is allowed: one step
// forward along the happy path, or into Error from any non-terminal state.
func (s TrackStatus) CanTransition(next TrackStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	return next == s+1
}

// Track is a catalog entry moving through the acquisition lifecycle.
type Track struct {
	ID         string
	Sequence   int
	PlaylistID string
	Index      int // 1-based position in the playlist
	Artist     string
	Name       string
	SpotifyURL string
	YouTubeURL string
	Duration   int
	PreviewURL string
	Status     TrackStatus
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewTrack builds a Track in [StatusNew] from a catalog entry at the given 1-based index.
func NewTrack(entry CatalogTrack, index int) *Track {
	now := time.Now()
	return &Track{
		ID:         shared.GenerateID(),
		Index:      index,
		Artist:     entry.Artist,
		Name:       entry.Name,
		SpotifyURL: entry.SourceURI,
		Duration:   entry.Duration,
		PreviewURL: entry.PreviewURL,
		Status:     StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Transition moves the track to next, returning [shared.ErrInvalidTransition] if the lifecycle forbids it.
func (t *Track) Transition(next TrackStatus) error {
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	return nil
}

// Fail moves the track to [StatusError] and records cause.
func (t *Track) Fail(cause error) error {
	if err := t.Transition(StatusError); err != nil {
		return err
	}
	if cause != nil {
		t.Error = cause.Error()
	}
	return nil
}

// Label is "<artist> - <name>".
func (t *Track) Label() string {
	return t.Artist + " - " + t.Name
}

// Validate checks the fields the ledger requires.
func (t *Track) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: track name is required", shared.ErrInvalidArgument)
	}
	if t.Index < 1 {
		return fmt.Errorf("%w: track index must be positive, got %d", shared.ErrInvalidArgument, t.Index)
	}
	return nil
}

// Validate checks the fields the ledger requires.
func (p *Playlist) Validate() error {
	if p.SourceURL == "" {
		return fmt.Errorf("%w: playlist source url is required", shared.ErrInvalidArgument)
	}
	return nil
}
