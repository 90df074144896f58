package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

var resourcePattern = regexp.MustCompile(`(playlist|album|artist)/([a-zA-Z0-9]+)`)

// ParseResource extracts the resource kind and id from a catalog URL.
//
// Accepts web URLs (https://open.spotify.com/playlist/<id>?si=...) and URIs (spotify:album:<id>).
func ParseResource(rawURL string) (models.Resource, error) {
	s := strings.TrimSpace(rawURL)
	if strings.HasPrefix(s, "spotify:") {
		s = strings.ReplaceAll(strings.TrimPrefix(s, "spotify:"), ":", "/")
	}

	m := resourcePattern.FindStringSubmatch(s)
	if m == nil {
		return models.Resource{}, fmt.Errorf("%w: no playlist, album or artist in %q", shared.ErrInvalidInput, rawURL)
	}

	return models.Resource{Kind: models.ResourceKind(m[1]), ID: m[2]}, nil
}
