// YouTube source matching and media access
//
// Searching goes through the FastAPI proxy wrapping ytmusicapi; streams are read with kkdai/youtube.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/kkdai/youtube/v2"
	"github.com/tidwall/gjson"

	"github.com/desertthunder/spotydl/internal/shared"
)

const (
	defaultYTBaseURL    = "http://localhost:8080"
	defaultSearchFilter = "songs"
	watchURLPrefix      = "https://www.youtube.com/watch?v="
)

// YouTubeService matches catalog tracks to YouTube videos via the search proxy.
type YouTubeService struct {
	baseURL    string
	filter     string
	httpClient *http.Client
	logger     *log.Logger
}

// YouTubeOption configures a [YouTubeService].
type YouTubeOption func(*YouTubeService)

// WithSearchFilter sets the ytmusicapi search filter (songs, videos, ...).
func WithSearchFilter(f string) YouTubeOption {
	return func(y *YouTubeService) {
		if f != "" {
			y.filter = f
		}
	}
}

func WithYouTubeHTTPClient(c *http.Client) YouTubeOption {
	return func(y *YouTubeService) {
		if c != nil {
			y.httpClient = c
		}
	}
}

func WithYouTubeLogger(l *log.Logger) YouTubeOption {
	return func(y *YouTubeService) {
		if l != nil {
			y.logger = l
		}
	}
}

// NewYouTubeService creates a search client for the proxy at baseURL.
func NewYouTubeService(baseURL string, opts ...YouTubeOption) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	y := &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		filter:     defaultSearchFilter,
		httpClient: http.DefaultClient,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// FindSource searches for "<artist> - <name>" and returns the watch URL of the first result.
//
// Calls GET /api/search?q={query}&filter={filter} on the proxy. Results without a videoId are skipped.
func (y *YouTubeService) FindSource(ctx context.Context, artist, name string) (string, error) {
	query := artist + " - " + name
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=%s", url.QueryEscape(query), url.QueryEscape(y.filter))

	body, err := y.doRequest(ctx, endpoint)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("search proxy returned invalid JSON for %q", query)
	}

	var videoID string
	gjson.ParseBytes(body).ForEach(func(_, result gjson.Result) bool {
		videoID = result.Get("videoId").String()
		return videoID == ""
	})

	if videoID == "" {
		return "", fmt.Errorf("%w: %q", shared.ErrNoMatchFound, query)
	}

	y.logger.Debug("matched track", "query", query, "video_id", videoID)
	return watchURLPrefix + videoID, nil
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if detail := gjson.GetBytes(body, "detail").String(); detail != "" {
			return nil, fmt.Errorf("search proxy error (status %d): %s", resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("search proxy error: status %d", resp.StatusCode)
	}
	return body, nil
}

// YouTubeSource opens audio streams for YouTube watch URLs.
type YouTubeSource struct {
	client *youtube.Client
	logger *log.Logger
}

// NewYouTubeSource creates a [MediaSource] backed by kkdai/youtube. A nil httpClient uses the library default.
func NewYouTubeSource(httpClient *http.Client, logger *log.Logger) *YouTubeSource {
	if logger == nil {
		logger = log.Default()
	}
	return &YouTubeSource{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger,
	}
}

// OpenAudio streams the highest-bitrate audio-only format of the video at sourceURL.
func (s *YouTubeSource) OpenAudio(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	video, err := s.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}

	format, err := bestAudioFormat(video.Formats)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", video.ID, err)
	}

	s.logger.Debug("opening audio stream", "video_id", video.ID, "itag", format.ItagNo, "mime", format.MimeType, "bitrate", format.Bitrate)

	stream, _, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	return stream, nil
}

// bestAudioFormat picks the audio-only format with the highest bitrate.
func bestAudioFormat(formats youtube.FormatList) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.Width > 0 {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no audio-only format available")
	}
	return best, nil
}
