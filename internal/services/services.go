package services

import (
	"context"

	"github.com/desertthunder/spotydl/internal/models"
)

// CatalogFetcher resolves a catalog URL into normalized metadata.
type CatalogFetcher interface {
	FetchMetadata(ctx context.Context, url string) (*models.PlaylistMetadata, error)
}

// SourceFinder locates a playable source URL for a track.
type SourceFinder interface {
	FindSource(ctx context.Context, artist, name string) (string, error)
}

// Downloader produces the local audio file for a matched track and returns its path.
type Downloader interface {
	Download(ctx context.Context, track *models.Track, outputFolder string) (string, error)
}

var (
	_ CatalogFetcher = (*SpotifyService)(nil)
	_ CatalogFetcher = (*RetryingFetcher)(nil)
	_ SourceFinder   = (*YouTubeService)(nil)
	_ Downloader     = (*AudioPipeline)(nil)
)
