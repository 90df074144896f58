package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotydl/internal/shared"
	th "github.com/desertthunder/spotydl/internal/testing"
)

func TestYouTubeService(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		y := NewYouTubeService("")
		assert.Equal(t, defaultYTBaseURL, y.baseURL)
		assert.Equal(t, defaultSearchFilter, y.filter)
		assert.Equal(t, "YouTube", y.Name())
	})

	t.Run("FindSource", func(t *testing.T) {
		t.Run("First Result", func(t *testing.T) {
			var gotQuery, gotFilter string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/search", r.URL.Path)
				gotQuery = r.URL.Query().Get("q")
				gotFilter = r.URL.Query().Get("filter")
				fmt.Fprint(w, `[{"videoId":"abc123","title":"Song"},{"videoId":"zzz","title":"Cover"}]`)
			}))
			defer srv.Close()

			y := NewYouTubeService(srv.URL, WithSearchFilter("videos"), WithYouTubeHTTPClient(srv.Client()))
			got, err := y.FindSource(context.Background(), "Daft Punk", "One More Time")
			require.NoError(t, err)
			assert.Equal(t, "https://www.youtube.com/watch?v=abc123", got)
			assert.Equal(t, "Daft Punk - One More Time", gotQuery)
			assert.Equal(t, "videos", gotFilter)
		})

		t.Run("Skips Results Without Video", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"browseId":"artist"},{"videoId":"second"}]`)
			}))
			defer srv.Close()

			got, err := NewYouTubeService(srv.URL).FindSource(context.Background(), "A", "B")
			require.NoError(t, err)
			assert.Equal(t, "https://www.youtube.com/watch?v=second", got)
		})

		t.Run("No Results", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[]`)
			}))
			defer srv.Close()

			_, err := NewYouTubeService(srv.URL).FindSource(context.Background(), "Nobody", "Nothing")
			assert.ErrorIs(t, err, shared.ErrNoMatchFound)
		})

		t.Run("Proxy Error", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, `{"detail":"upstream unavailable"}`)
			}))
			defer srv.Close()

			_, err := NewYouTubeService(srv.URL).FindSource(context.Background(), "A", "B")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "upstream unavailable")
			assert.NotErrorIs(t, err, shared.ErrNoMatchFound)
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			}))
			defer srv.Close()

			_, err := NewYouTubeService(srv.URL).FindSource(context.Background(), "A", "B")
			assert.Error(t, err)
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("connection refused"))}

			_, err := NewYouTubeService("http://proxy.test", WithYouTubeHTTPClient(client)).FindSource(context.Background(), "A", "B")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "request failed")
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: make(http.Header)}
			client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}

			_, err := NewYouTubeService("http://proxy.test", WithYouTubeHTTPClient(client)).FindSource(context.Background(), "A", "B")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to read response")
		})
	})
}

func TestBestAudioFormat(t *testing.T) {
	t.Run("Highest Bitrate Audio Only", func(t *testing.T) {
		formats := youtube.FormatList{
			{ItagNo: 18, MimeType: "video/mp4", Width: 640, AudioChannels: 2, Bitrate: 500000},
			{ItagNo: 139, MimeType: "audio/mp4", AudioChannels: 2, Bitrate: 48000},
			{ItagNo: 251, MimeType: "audio/webm", AudioChannels: 2, Bitrate: 160000},
			{ItagNo: 137, MimeType: "video/mp4", Width: 1920, Bitrate: 4000000},
		}

		got, err := bestAudioFormat(formats)
		require.NoError(t, err)
		assert.Equal(t, 251, got.ItagNo)
	})

	t.Run("None Available", func(t *testing.T) {
		_, err := bestAudioFormat(youtube.FormatList{{ItagNo: 137, Width: 1920}})
		assert.Error(t, err)
	})
}
