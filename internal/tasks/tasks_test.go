package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/services"
	"github.com/desertthunder/spotydl/internal/shared"
)

type mockCatalog struct {
	meta  *models.PlaylistMetadata
	err   error
	calls int
}

func (m *mockCatalog) FetchMetadata(ctx context.Context, url string) (*models.PlaylistMetadata, error) {
	m.calls++
	return m.meta, m.err
}

type mockFinder struct {
	missing map[string]bool
}

func (m *mockFinder) FindSource(ctx context.Context, artist, name string) (string, error) {
	if m.missing[name] {
		return "", fmt.Errorf("%w: %s", shared.ErrNoMatchFound, name)
	}
	return "https://www.youtube.com/watch?v=" + name, nil
}

type mockDownloader struct {
	mu       sync.Mutex
	failing  map[string]error
	fixed    string
	active   int
	peak     int
	finished []string
}

func (m *mockDownloader) OutputPath(folder string, t *models.Track) string {
	if m.fixed != "" {
		return filepath.Join(folder, m.fixed)
	}
	return services.OutputPath(folder, t, "mp3")
}

func (m *mockDownloader) Download(ctx context.Context, t *models.Track, folder string) (string, error) {
	m.mu.Lock()
	m.active++
	m.peak = max(m.peak, m.active)
	m.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--

	if err := m.failing[t.Name]; err != nil {
		return "", err
	}
	m.finished = append(m.finished, t.Name)
	return m.OutputPath(folder, t), nil
}

type mockRecorder struct {
	mu        sync.Mutex
	playlists []*models.Playlist
	created   []string
	statuses  map[string][]models.TrackStatus
	err       error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{statuses: make(map[string][]models.TrackStatus)}
}

func (m *mockRecorder) RecordPlaylist(ctx context.Context, pl *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists = append(m.playlists, pl)
	return m.err
}

func (m *mockRecorder) RecordTrack(ctx context.Context, t *models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, t.Name)
	m.statuses[t.Name] = append(m.statuses[t.Name], t.Status)
	return m.err
}

func (m *mockRecorder) RecordStatus(ctx context.Context, t *models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[t.Name] = append(m.statuses[t.Name], t.Status)
	return m.err
}

func catalogOf(names ...string) *models.PlaylistMetadata {
	meta := &models.PlaylistMetadata{Name: "Mix", Tracks: []models.CatalogTrack{}}
	for _, n := range names {
		meta.Tracks = append(meta.Tracks, models.CatalogTrack{Artist: "Artist", Name: n})
	}
	return meta
}

func fastOpts(rec TrackRecorder) EngineOpts {
	return EngineOpts{Concurrency: 2, RateLimit: 1000, Recorder: rec}
}

func TestDownloadEngine(t *testing.T) {
	t.Run("NewDownloadEngine Defaults", func(t *testing.T) {
		e := NewDownloadEngine(nil, nil, nil, EngineOpts{})
		assert.Equal(t, defaultConcurrency, e.concurrency)
		assert.Equal(t, defaultRateLimit, e.rateLimit)

		e = NewDownloadEngine(nil, nil, nil, EngineOpts{Concurrency: 50})
		assert.Equal(t, maxConcurrency, e.concurrency)
	})

	t.Run("Run", func(t *testing.T) {
		t.Run("All Tracks Complete", func(t *testing.T) {
			rec := newMockRecorder()
			dl := &mockDownloader{}
			e := NewDownloadEngine(&mockCatalog{meta: catalogOf("one", "two", "three")}, &mockFinder{}, dl, fastOpts(rec))

			res, err := e.Run(context.Background(), "https://open.spotify.com/playlist/x", "/out", nil)
			require.NoError(t, err)

			assert.Equal(t, 3, res.Completed)
			assert.Equal(t, 0, res.Failed)
			require.Len(t, res.Tracks, 3)
			for i, tr := range res.Tracks {
				assert.Equal(t, i+1, tr.Index)
				assert.Equal(t, models.StatusCompleted, tr.Status)
				assert.Equal(t, res.Playlist.ID, tr.PlaylistID)
				assert.Equal(t, "https://www.youtube.com/watch?v="+tr.Name, tr.YouTubeURL)
				assert.Equal(t, filepath.Join("/out", fmt.Sprintf("%d - Artist - %s.mp3", tr.Index, tr.Name)), res.Outputs[tr.ID])
			}

			require.Len(t, rec.playlists, 1)
			assert.Equal(t, "Mix", rec.playlists[0].Name)
			assert.Equal(t, []string{"one", "two", "three"}, rec.created)
			assert.Equal(t, []models.TrackStatus{
				models.StatusNew, models.StatusSearching, models.StatusQueued,
				models.StatusDownloading, models.StatusCompleted,
			}, rec.statuses["two"])
		})

		t.Run("Failures Are Per Track", func(t *testing.T) {
			rec := newMockRecorder()
			streamErr := &services.StreamError{Stage: services.StageRead, Err: errors.New("403")}
			dl := &mockDownloader{failing: map[string]error{"broken": streamErr}}
			finder := &mockFinder{missing: map[string]bool{"unknown": true}}
			e := NewDownloadEngine(&mockCatalog{meta: catalogOf("ok", "unknown", "broken")}, finder, dl, fastOpts(rec))

			res, err := e.Run(context.Background(), "u", t.TempDir(), nil)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Completed)
			assert.Equal(t, 2, res.Failed)

			unknown := res.Tracks[1]
			assert.Equal(t, models.StatusError, unknown.Status)
			assert.Contains(t, unknown.Error, shared.ErrNoMatchFound.Error())
			assert.Empty(t, unknown.YouTubeURL)
			assert.Equal(t, []models.TrackStatus{models.StatusNew, models.StatusSearching, models.StatusError}, rec.statuses["unknown"])

			broken := res.Tracks[2]
			assert.Equal(t, models.StatusError, broken.Status)
			assert.Contains(t, broken.Error, "403")
			assert.Equal(t, []models.TrackStatus{
				models.StatusNew, models.StatusSearching, models.StatusQueued, models.StatusDownloading, models.StatusError,
			}, rec.statuses["broken"])

			assert.NotContains(t, res.Outputs, broken.ID)
		})

		t.Run("Duplicate Output Path", func(t *testing.T) {
			dl := &mockDownloader{fixed: "same.mp3"}
			e := NewDownloadEngine(&mockCatalog{meta: catalogOf("a", "b")}, &mockFinder{}, dl, fastOpts(nil))

			res, err := e.Run(context.Background(), "u", "/out", nil)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Completed)
			assert.Equal(t, 1, res.Failed)
			assert.Len(t, dl.finished, 1)

			for _, tr := range res.Tracks {
				if tr.Status == models.StatusError {
					assert.Contains(t, tr.Error, shared.ErrDuplicateOutput.Error())
				}
			}
		})

		t.Run("Respects Concurrency", func(t *testing.T) {
			dl := &mockDownloader{}
			names := make([]string, 12)
			for i := range names {
				names[i] = fmt.Sprintf("t%d", i)
			}
			e := NewDownloadEngine(&mockCatalog{meta: catalogOf(names...)}, &mockFinder{}, dl, EngineOpts{Concurrency: 3, RateLimit: 1000})

			res, err := e.Run(context.Background(), "u", "/out", nil)
			require.NoError(t, err)
			assert.Equal(t, 12, res.Completed)
			assert.LessOrEqual(t, dl.peak, 3)
		})

		t.Run("Catalog Failure", func(t *testing.T) {
			cause := &services.RetryExhaustedError{Attempts: 3, Last: shared.ErrCatalogTransport}
			e := NewDownloadEngine(&mockCatalog{err: cause}, &mockFinder{}, &mockDownloader{}, fastOpts(nil))

			_, err := e.Run(context.Background(), "u", "/out", nil)
			assert.ErrorIs(t, err, shared.ErrRetryExhausted)
		})

		t.Run("Missing Services", func(t *testing.T) {
			e := NewDownloadEngine(&mockCatalog{}, nil, nil, EngineOpts{})
			_, err := e.Run(context.Background(), "u", "/out", nil)
			assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		})

		t.Run("Recorder Errors Are Ignored", func(t *testing.T) {
			rec := newMockRecorder()
			rec.err = errors.New("database is locked")
			e := NewDownloadEngine(&mockCatalog{meta: catalogOf("one")}, &mockFinder{}, &mockDownloader{}, fastOpts(rec))

			res, err := e.Run(context.Background(), "u", "/out", nil)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Completed)
		})

		t.Run("Cancelled Context Fails Tracks", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			e := NewDownloadEngine(&mockCatalog{meta: catalogOf("one", "two")}, &mockFinder{}, &mockDownloader{}, fastOpts(nil))
			res, err := e.Run(ctx, "u", "/out", nil)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Failed)
		})

		t.Run("Empty Playlist", func(t *testing.T) {
			e := NewDownloadEngine(&mockCatalog{meta: catalogOf()}, &mockFinder{}, &mockDownloader{}, fastOpts(nil))
			res, err := e.Run(context.Background(), "u", "/out", nil)
			require.NoError(t, err)
			assert.Empty(t, res.Tracks)
			assert.Zero(t, res.Completed+res.Failed)
		})
	})

	t.Run("Progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 100)
		e := NewDownloadEngine(&mockCatalog{meta: catalogOf("one", "two")}, &mockFinder{}, &mockDownloader{}, fastOpts(nil))

		_, err := e.Run(context.Background(), "u", "/out", progress)
		require.NoError(t, err)
		close(progress)

		var phases []Phase
		completed := 0
		for u := range progress {
			phases = append(phases, u.Phase)
			if tr, ok := u.Data.(models.Track); ok && tr.Status == models.StatusCompleted {
				completed++
			}
		}

		require.NotEmpty(t, phases)
		assert.Equal(t, FetchCatalog, phases[0])
		assert.Equal(t, Finished, phases[len(phases)-1])
		assert.Contains(t, phases, PrepareTracks)
		assert.Equal(t, 2, completed)
	})

	t.Run("Progress Never Blocks", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		e := NewDownloadEngine(&mockCatalog{meta: catalogOf("one")}, &mockFinder{}, &mockDownloader{}, fastOpts(nil))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = e.Run(context.Background(), "u", "/out", progress)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run blocked on an unread progress channel")
		}
	})

	t.Run("Sized Progress Keeps Every Outcome", func(t *testing.T) {
		names := make([]string, 300)
		for i := range names {
			names[i] = fmt.Sprintf("track-%d", i)
		}
		progress := make(chan ProgressUpdate, ProgressBufferSize(len(names)))
		e := NewDownloadEngine(&mockCatalog{meta: catalogOf(names...)}, &mockFinder{}, &mockDownloader{}, EngineOpts{Concurrency: 5, RateLimit: 10000})

		_, err := e.Run(context.Background(), "u", "/out", progress)
		require.NoError(t, err)
		close(progress)

		terminal := 0
		var last Phase
		for u := range progress {
			last = u.Phase
			if tr, ok := u.Data.(models.Track); ok && tr.Status.IsTerminal() {
				terminal++
			}
		}
		assert.Equal(t, len(names), terminal)
		assert.Equal(t, Finished, last)
	})

	t.Run("RunMetadata", func(t *testing.T) {
		t.Run("Skips The Catalog", func(t *testing.T) {
			cat := &mockCatalog{meta: catalogOf("unused")}
			e := NewDownloadEngine(cat, &mockFinder{}, &mockDownloader{}, fastOpts(nil))

			res, err := e.RunMetadata(context.Background(), "u", catalogOf("one", "two"), "/out", nil)
			require.NoError(t, err)
			assert.Zero(t, cat.calls)
			assert.Equal(t, 2, res.Completed)
			assert.Equal(t, "u", res.Playlist.SourceURL)
		})

		t.Run("Nil Metadata", func(t *testing.T) {
			e := NewDownloadEngine(nil, &mockFinder{}, &mockDownloader{}, fastOpts(nil))
			_, err := e.RunMetadata(context.Background(), "u", nil, "/out", nil)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})

		t.Run("Missing Services", func(t *testing.T) {
			e := NewDownloadEngine(nil, nil, nil, EngineOpts{})
			_, err := e.RunMetadata(context.Background(), "u", catalogOf("one"), "/out", nil)
			assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		})
	})

	t.Run("Resolve", func(t *testing.T) {
		cat := &mockCatalog{meta: catalogOf("one")}
		e := NewDownloadEngine(cat, nil, nil, EngineOpts{})

		meta, err := e.Resolve(context.Background(), "u", nil)
		require.NoError(t, err)
		assert.Equal(t, "Mix", meta.Name)
		assert.Equal(t, 1, cat.calls)

		_, err = NewDownloadEngine(nil, nil, nil, EngineOpts{}).Resolve(context.Background(), "u", nil)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})
}

func TestProgressBufferSize(t *testing.T) {
	assert.Equal(t, minProgressBuffer, ProgressBufferSize(0))
	assert.Equal(t, minProgressBuffer, ProgressBufferSize(-3))
	assert.Equal(t, 1000*updatesPerTrack+updatesPerRun, ProgressBufferSize(1000))
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		FetchCatalog:  "fetch_catalog",
		PrepareTracks: "prepare_tracks",
		ProcessTrack:  "process_track",
		Finished:      "finished",
		Phase(99):     "",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
