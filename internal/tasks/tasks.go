package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/services"
	"github.com/desertthunder/spotydl/internal/shared"
)

const (
	defaultConcurrency = 3
	maxConcurrency     = 10
	defaultRateLimit   = 2.0
)

// Downloader is a [services.Downloader] that can also tell where a track will be written.
type Downloader interface {
	services.Downloader
	OutputPath(outputFolder string, track *models.Track) string
}

// TrackRecorder persists a run as it progresses.
type TrackRecorder interface {
	RecordPlaylist(ctx context.Context, pl *models.Playlist) error
	RecordTrack(ctx context.Context, t *models.Track) error
	RecordStatus(ctx context.Context, t *models.Track) error
}

// DownloadRunResult contains all data from a download run.
type DownloadRunResult struct {
	Playlist  *models.Playlist         // Persisted run
	Metadata  *models.PlaylistMetadata // Catalog result
	Tracks    []*models.Track          // Tracks in catalog order, each in a terminal state
	Outputs   map[string]string        // Track ID → written file
	Completed int                      // Tracks downloaded
	Failed    int                      // Tracks in error
}

// EngineOpts configures a [DownloadEngine].
type EngineOpts struct {
	Concurrency int           // Tracks processed at once (default: 3, max: 10)
	RateLimit   float64       // Track starts per second (default: 2)
	Recorder    TrackRecorder // Optional persistence
	Logger      *log.Logger
}

// DownloadEngine moves each track of a playlist through search and download.
//
// The engine owns the Queued state: a matched track waits there for a download slot. Failures of one track
// never stop the others.
type DownloadEngine struct {
	catalog     services.CatalogFetcher
	finder      services.SourceFinder
	downloader  Downloader
	recorder    TrackRecorder
	concurrency int
	rateLimit   float64
	logger      *log.Logger
}

// NewDownloadEngine creates a DownloadEngine with the provided services.
func NewDownloadEngine(catalog services.CatalogFetcher, finder services.SourceFinder, downloader Downloader, opts EngineOpts) *DownloadEngine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Concurrency > maxConcurrency {
		opts.Concurrency = maxConcurrency
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &DownloadEngine{
		catalog:     catalog,
		finder:      finder,
		downloader:  downloader,
		recorder:    opts.Recorder,
		concurrency: opts.Concurrency,
		rateLimit:   opts.RateLimit,
		logger:      opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *DownloadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Resolve fetches the catalog metadata for url.
func (e *DownloadEngine) Resolve(ctx context.Context, url string, progress chan<- ProgressUpdate) (*models.PlaylistMetadata, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchingCatalogUpdate(url))

	meta, err := e.catalog.FetchMetadata(ctx, url)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, foundPlaylistUpdate(meta))
	return meta, nil
}

// Run resolves url and downloads every track into outputDir.
//
// Only a catalog failure (or a missing service) fails the run; per-track failures are reported in the result.
func (e *DownloadEngine) Run(ctx context.Context, url, outputDir string, progress chan<- ProgressUpdate) (*DownloadRunResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	meta, err := e.Resolve(ctx, url, progress)
	if err != nil {
		return nil, err
	}
	return e.RunMetadata(ctx, url, meta, outputDir, progress)
}

// RunMetadata downloads the tracks of an already resolved meta into outputDir without contacting the catalog.
// url is recorded as the playlist's source.
func (e *DownloadEngine) RunMetadata(ctx context.Context, url string, meta *models.PlaylistMetadata, outputDir string, progress chan<- ProgressUpdate) (*DownloadRunResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: no metadata for %s", shared.ErrInvalidInput, url)
	}

	now := time.Now()
	playlist := &models.Playlist{
		ID:        shared.GenerateID(),
		Name:      meta.Name,
		SourceURL: url,
		OutputDir: outputDir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.record(ctx, "playlist", func(r TrackRecorder) error { return r.RecordPlaylist(ctx, playlist) })

	tracks := make([]*models.Track, len(meta.Tracks))
	for i, entry := range meta.Tracks {
		t := models.NewTrack(entry, i+1)
		t.PlaylistID = playlist.ID
		tracks[i] = t
		e.record(ctx, "track", func(r TrackRecorder) error { return r.RecordTrack(ctx, t) })
	}
	e.sendProgress(progress, preparedTracksUpdate(tracks))

	run := &trackRun{
		engine:    e,
		outputDir: outputDir,
		total:     len(tracks),
		progress:  progress,
		limiter:   rate.NewLimiter(rate.Limit(e.rateLimit), 1),
		claimed:   make(map[string]string),
		outputs:   make(map[string]string),
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, t := range tracks {
		g.Go(func() error {
			run.process(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	result := &DownloadRunResult{
		Playlist: playlist,
		Metadata: meta,
		Tracks:   tracks,
		Outputs:  run.outputs,
	}
	for _, t := range tracks {
		switch t.Status {
		case models.StatusCompleted:
			result.Completed++
		case models.StatusError:
			result.Failed++
		}
	}

	e.logger.Info("download run finished", "playlist", playlist.Name, "completed", result.Completed, "failed", result.Failed)
	e.sendProgress(progress, finishedUpdate(result))
	return result, nil
}

func (e *DownloadEngine) ready() error {
	if e.finder == nil || e.downloader == nil {
		return fmt.Errorf("%w: search or download service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// record calls fn on the recorder if there is one. Persistence failures are logged, never fatal to a run.
func (e *DownloadEngine) record(ctx context.Context, what string, fn func(TrackRecorder) error) {
	if e.recorder == nil {
		return
	}
	if err := fn(e.recorder); err != nil {
		e.logger.Warn("failed to record "+what, "err", err)
	}
}

// trackRun is the shared state of one Run across its track goroutines.
type trackRun struct {
	engine    *DownloadEngine
	outputDir string
	total     int
	done      atomic.Int32
	progress  chan<- ProgressUpdate
	limiter   *rate.Limiter

	mu      sync.Mutex
	claimed map[string]string // output path → track ID
	outputs map[string]string
}

// process drives t to a terminal state.
func (r *trackRun) process(ctx context.Context, t *models.Track) {
	e := r.engine

	if err := r.limiter.Wait(ctx); err != nil {
		r.fail(ctx, t, err)
		return
	}

	if err := r.advance(ctx, t, models.StatusSearching); err != nil {
		r.fail(ctx, t, err)
		return
	}

	sourceURL, err := e.finder.FindSource(ctx, t.Artist, t.Name)
	if err != nil {
		r.fail(ctx, t, err)
		return
	}
	t.YouTubeURL = sourceURL

	if err := r.advance(ctx, t, models.StatusQueued); err != nil {
		r.fail(ctx, t, err)
		return
	}

	path := e.downloader.OutputPath(r.outputDir, t)
	if err := r.claim(path, t); err != nil {
		r.fail(ctx, t, err)
		return
	}

	if err := r.advance(ctx, t, models.StatusDownloading); err != nil {
		r.fail(ctx, t, err)
		return
	}

	written, err := e.downloader.Download(ctx, t, r.outputDir)
	if err != nil {
		r.fail(ctx, t, err)
		return
	}

	if err := r.advance(ctx, t, models.StatusCompleted); err != nil {
		r.fail(ctx, t, err)
		return
	}

	r.mu.Lock()
	r.outputs[t.ID] = written
	r.mu.Unlock()
}

// claim reserves path for t so no two downloads in the run target one file.
func (r *trackRun) claim(path string, t *models.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.claimed[path]; ok && owner != t.ID {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateOutput, path)
	}
	r.claimed[path] = t.ID
	return nil
}

func (r *trackRun) advance(ctx context.Context, t *models.Track, next models.TrackStatus) error {
	if err := t.Transition(next); err != nil {
		return err
	}

	step := int(r.done.Load())
	if next.IsTerminal() {
		step = int(r.done.Add(1))
	}

	r.engine.logger.Debug("track status", "index", t.Index, "track", t.Label(), "status", next)
	r.engine.record(ctx, "status", func(rec TrackRecorder) error { return rec.RecordStatus(ctx, t) })
	r.engine.sendProgress(r.progress, trackUpdate(step, r.total, t))
	return nil
}

func (r *trackRun) fail(ctx context.Context, t *models.Track, cause error) {
	if err := t.Fail(cause); err != nil {
		r.engine.logger.Error("cannot fail track", "track", t.Label(), "status", t.Status, "err", err)
		return
	}

	step := int(r.done.Add(1))
	r.engine.logger.Warn("track failed", "index", t.Index, "track", t.Label(), "err", cause)
	r.engine.record(ctx, "status", func(rec TrackRecorder) error { return rec.RecordStatus(ctx, t) })
	r.engine.sendProgress(r.progress, trackUpdate(step, r.total, t))
}
