// Spotify catalog client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultMarket = "US"
	pageLimit     = 100
)

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// spotifyTrack covers both full and simplified track objects.
type spotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []spotifyArtist `json:"artists"`
	DurationMS   int             `json:"duration_ms"`
	PreviewURL   *string         `json:"preview_url"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

type playlistItem struct {
	Track *spotifyTrack `json:"track"`
}

type playlistPage struct {
	Items  []playlistItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

type spotifyPlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type topTracks struct {
	Tracks []spotifyTrack `json:"tracks"`
}

// fetchStrategy resolves one resource kind using an already exchanged bearer token.
type fetchStrategy func(ctx context.Context, s *SpotifyService, token, id string) (*models.PlaylistMetadata, error)

var strategies = map[models.ResourceKind]fetchStrategy{
	models.KindPlaylist: fetchPlaylist,
	models.KindAlbum:    fetchAlbum,
	models.KindArtist:   fetchArtist,
}

// SpotifyService fetches catalog metadata with client-credentials tokens.
//
// Without a [TokenCache] every [SpotifyService.FetchMetadata] call does a fresh credential exchange.
type SpotifyService struct {
	credentials clientcredentials.Config
	apiURL      string
	market      string
	httpClient  *http.Client
	tokens      *TokenCache
	logger      *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithAPIURL overrides the Web API base URL.
func WithAPIURL(u string) SpotifyOption {
	return func(s *SpotifyService) {
		if u != "" {
			s.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) SpotifyOption {
	return func(s *SpotifyService) {
		if u != "" {
			s.credentials.TokenURL = u
		}
	}
}

// WithMarket sets the market used for artist top tracks.
func WithMarket(m string) SpotifyOption {
	return func(s *SpotifyService) {
		if m != "" {
			s.market = m
		}
	}
}

// WithHTTPClient sets the client used for both token and data requests.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithTokenCache enables token reuse across fetches.
func WithTokenCache(c *TokenCache) SpotifyOption {
	return func(s *SpotifyService) { s.tokens = c }
}

// WithSpotifyLogger sets the logger.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpotifyService creates a catalog client for the given application credentials.
func NewSpotifyService(clientID, clientSecret string, opts ...SpotifyOption) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	s := &SpotifyService{
		credentials: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		apiURL:     spotifyBaseURL,
		market:     defaultMarket,
		httpClient: http.DefaultClient,
		logger:     log.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// FetchMetadata exchanges credentials for a bearer token, parses url and resolves the resource.
func (s *SpotifyService) FetchMetadata(ctx context.Context, rawURL string) (*models.PlaylistMetadata, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	res, err := ParseResource(rawURL)
	if err != nil {
		return nil, err
	}

	return s.FetchResource(ctx, token, res)
}

// FetchResource resolves res with an existing bearer token.
func (s *SpotifyService) FetchResource(ctx context.Context, token string, res models.Resource) (*models.PlaylistMetadata, error) {
	strategy, ok := strategies[res.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedResource, res.Kind)
	}

	s.logger.Debug("fetching catalog resource", "kind", res.Kind, "id", res.ID)

	meta, err := strategy(ctx, s, token, res.ID)
	if err != nil {
		return nil, err
	}
	if meta.Tracks == nil {
		meta.Tracks = []models.CatalogTrack{}
	}

	s.logger.Debug("fetched catalog resource", "kind", res.Kind, "name", meta.Name, "tracks", len(meta.Tracks))
	return meta, nil
}

// token returns a bearer token, from the cache when one is configured.
func (s *SpotifyService) token(ctx context.Context) (string, error) {
	if s.tokens != nil {
		if tok := s.tokens.Get(s.credentials.ClientID); tok != nil {
			return tok.AccessToken, nil
		}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.credentials.Token(ctx)
	if err != nil {
		if isCredentialRejection(err) {
			s.invalidateToken()
			return "", fmt.Errorf("%w: %w", shared.ErrAuthentication, err)
		}
		return "", fmt.Errorf("%w: token exchange: %w", shared.ErrCatalogTransport, err)
	}

	if s.tokens != nil {
		s.tokens.Set(s.credentials.ClientID, tok)
	}
	return tok.AccessToken, nil
}

func (s *SpotifyService) invalidateToken() {
	if s.tokens != nil {
		s.tokens.Invalidate(s.credentials.ClientID)
	}
}

// isCredentialRejection reports whether the token endpoint refused the client (400 invalid_client or 401).
func isCredentialRejection(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return false
	}
	switch re.Response.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusBadRequest:
		return re.ErrorCode == "invalid_client"
	default:
		return false
	}
}

// doRequest performs an authenticated GET against the Web API and decodes the body into result.
func (s *SpotifyService) doRequest(ctx context.Context, token, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrCatalogTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			s.invalidateToken()
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s: status %d (retry after %s)", shared.ErrCatalogTransport, endpoint, resp.StatusCode, resp.Header.Get("Retry-After"))
		}
		return fmt.Errorf("%w: %s: status %d", shared.ErrCatalogTransport, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrCatalogTransport, err)
	}
	return nil
}

func fetchPlaylist(ctx context.Context, s *SpotifyService, token, id string) (*models.PlaylistMetadata, error) {
	var pl spotifyPlaylist
	if err := s.doRequest(ctx, token, "/playlists/"+url.PathEscape(id), &pl); err != nil {
		return nil, err
	}

	meta := &models.PlaylistMetadata{Name: pl.Name, Tracks: []models.CatalogTrack{}}
	for offset := 0; ; offset += pageLimit {
		var page playlistPage
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(id), pageLimit, offset)
		if err := s.doRequest(ctx, token, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			meta.Tracks = append(meta.Tracks, normalizeTrack(*item.Track))
		}

		s.logger.Debug("fetched playlist page", "id", id, "offset", offset, "items", len(page.Items))

		if len(page.Items) == 0 || page.Next == nil {
			break
		}
	}
	return meta, nil
}

func fetchAlbum(ctx context.Context, s *SpotifyService, token, id string) (*models.PlaylistMetadata, error) {
	var album spotifyAlbum
	if err := s.doRequest(ctx, token, "/albums/"+url.PathEscape(id), &album); err != nil {
		return nil, err
	}

	return &models.PlaylistMetadata{
		Name:   album.Name,
		Tracks: lo.Map(album.Tracks.Items, func(t spotifyTrack, _ int) models.CatalogTrack { return normalizeTrack(t) }),
	}, nil
}

func fetchArtist(ctx context.Context, s *SpotifyService, token, id string) (*models.PlaylistMetadata, error) {
	var artist spotifyArtist
	if err := s.doRequest(ctx, token, "/artists/"+url.PathEscape(id), &artist); err != nil {
		return nil, err
	}

	var top topTracks
	endpoint := fmt.Sprintf("/artists/%s/top-tracks?market=%s", url.PathEscape(id), url.QueryEscape(s.market))
	if err := s.doRequest(ctx, token, endpoint, &top); err != nil {
		return nil, err
	}

	return &models.PlaylistMetadata{
		Name:   artist.Name + " (Top Tracks)",
		Tracks: lo.Map(top.Tracks, func(t spotifyTrack, _ int) models.CatalogTrack { return normalizeTrack(t) }),
	}, nil
}

// normalizeTrack joins contributing artists and picks the web URL as the source reference when present.
func normalizeTrack(t spotifyTrack) models.CatalogTrack {
	source := t.ExternalURLs.Spotify
	if source == "" {
		source = t.URI
	}

	return models.CatalogTrack{
		Artist:     strings.Join(lo.Map(t.Artists, func(a spotifyArtist, _ int) string { return a.Name }), ", "),
		Name:       t.Name,
		Duration:   t.DurationMS,
		PreviewURL: lo.FromPtr(t.PreviewURL),
		SourceURI:  source,
	}
}
