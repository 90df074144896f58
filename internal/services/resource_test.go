package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

func TestParseResource(t *testing.T) {
	t.Run("Supported Kinds", func(t *testing.T) {
		tests := []struct {
			url  string
			want models.Resource
		}{
			{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", models.Resource{Kind: models.KindPlaylist, ID: "37i9dQZF1DXcBWIGoYBM5M"}},
			{"https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy?si=abc123", models.Resource{Kind: models.KindAlbum, ID: "4aawyAB9vmqN3uQ7FjRGTy"}},
			{"https://open.spotify.com/artist/0TnOYISbd1XYRBk9myaseg", models.Resource{Kind: models.KindArtist, ID: "0TnOYISbd1XYRBk9myaseg"}},
			{"https://open.spotify.com/intl-de/playlist/ABC123", models.Resource{Kind: models.KindPlaylist, ID: "ABC123"}},
			{"spotify:album:XYZ789", models.Resource{Kind: models.KindAlbum, ID: "XYZ789"}},
			{"  https://open.spotify.com/artist/Q1  ", models.Resource{Kind: models.KindArtist, ID: "Q1"}},
		}

		for _, tt := range tests {
			t.Run(tt.url, func(t *testing.T) {
				got, err := ParseResource(tt.url)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("Invalid Input", func(t *testing.T) {
		for _, u := range []string{
			"",
			"https://open.spotify.com/",
			"https://open.spotify.com/track/11dFghVXANMlKmJXsNCbNl",
			"https://example.com/show/abc",
			"playlist/",
		} {
			_, err := ParseResource(u)
			assert.ErrorIs(t, err, shared.ErrInvalidInput, "url %q", u)
		}
	})
}
