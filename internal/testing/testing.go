// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotydl/internal/models"
)

// SampleMetadata returns a three-track playlist with distinct artists.
func SampleMetadata() *models.PlaylistMetadata {
	return &models.PlaylistMetadata{
		Name: "Road Trip",
		Tracks: []models.CatalogTrack{
			{Artist: "Daft Punk", Name: "One More Time", Duration: 320_000, SourceURI: "https://open.spotify.com/track/0DiWol3AO6WpXZgp0goxAV"},
			{Artist: "AC/DC", Name: "Highway to Hell", Duration: 208_000, SourceURI: "https://open.spotify.com/track/2zYzyRzz6pRmhPzyfMEC8s"},
			{Artist: "Simon & Garfunkel, Paul Simon", Name: "America", Duration: 214_000, PreviewURL: "https://p.scdn.co/mp3-preview/x"},
		},
	}
}

// StubCatalog is a test double for services.CatalogFetcher.
type StubCatalog struct {
	Meta *models.PlaylistMetadata
	Err  error

	mu   sync.Mutex
	URLs []string
}

func (s *StubCatalog) FetchMetadata(ctx context.Context, url string) (*models.PlaylistMetadata, error) {
	s.mu.Lock()
	s.URLs = append(s.URLs, url)
	s.mu.Unlock()
	return s.Meta, s.Err
}

// StubFinder is a test double for services.SourceFinder. Names in Missing fail with Err.
type StubFinder struct {
	Missing map[string]bool
	Err     error
}

func (s *StubFinder) FindSource(ctx context.Context, artist, name string) (string, error) {
	if s.Missing[name] {
		return "", s.Err
	}
	return "https://www.youtube.com/watch?v=" + strings.ReplaceAll(name, " ", "_"), nil
}

// StubDownloader is a test double for tasks.Downloader that writes nothing.
type StubDownloader struct {
	Err error
}

func (s *StubDownloader) OutputPath(folder string, t *models.Track) string {
	return filepath.Join(folder, fmt.Sprintf("%d - %s.mp3", t.Index, t.Label()))
}

func (s *StubDownloader) Download(ctx context.Context, t *models.Track, folder string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.OutputPath(folder, t), nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
