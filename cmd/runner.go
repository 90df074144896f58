package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotydl/internal/repositories"
	"github.com/desertthunder/spotydl/internal/services"
	"github.com/desertthunder/spotydl/internal/shared"
	"github.com/desertthunder/spotydl/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily from the loaded config unless injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	catalog    services.CatalogFetcher
	finder     services.SourceFinder
	downloader tasks.Downloader
	db         *sql.DB
	ownsDB     bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Catalog    services.CatalogFetcher
	Finder     services.SourceFinder
	Downloader tasks.Downloader
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		catalog:    opts.Catalog,
		finder:     opts.Finder,
		downloader: opts.Downloader,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, fetchCommand, searchCommand, downloadCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the config file named by --config (when it exists), applies environment overrides and sets
// the log level.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", configPath)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", configPath)
	}

	if err := r.config.ApplyEnv(cmd.String("env")); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// Close releases the database handle if the runner opened it.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil && r.ownsDB {
		r.ownsDB = false
		return r.db.Close()
	}
	return nil
}

// SetLogger replaces the runner's logger; services built afterwards log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// catalogService builds the retrying Spotify catalog client from config.
func (r *Runner) catalogService() (services.CatalogFetcher, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	creds := r.config.Credentials.Spotify
	if !creds.Valid() {
		return nil, fmt.Errorf("%w: set credentials.spotify in config or %s/%s", shared.ErrMissingCredentials, shared.EnvClientID, shared.EnvClientSecret)
	}

	cat := r.config.Catalog
	opts := []services.SpotifyOption{
		services.WithHTTPClient(r.httpClient),
		services.WithMarket(cat.Market),
		services.WithSpotifyLogger(shared.WithLogger(r.logger, "component", "spotify")),
	}
	if cat.APIURL != "" {
		opts = append(opts, services.WithAPIURL(cat.APIURL))
	}
	if cat.TokenURL != "" {
		opts = append(opts, services.WithTokenURL(cat.TokenURL))
	}
	if cat.CacheToken {
		opts = append(opts, services.WithTokenCache(services.NewTokenCache(0)))
	}

	spotify, err := services.NewSpotifyService(creds.ClientID, creds.ClientSecret, opts...)
	if err != nil {
		return nil, err
	}

	r.catalog = services.NewRetryingFetcher(spotify,
		services.WithMaxAttempts(cat.MaxAttempts),
		services.WithAttemptTimeout(cat.AttemptTimeout),
		services.WithRetryDelay(cat.RetryDelay),
		services.WithFailFastOnAuth(cat.FailFastOnAuth),
		services.WithRetryLogger(shared.WithLogger(r.logger, "component", "retry")),
	)
	return r.catalog, nil
}

// finderService builds the YouTube search client from config.
func (r *Runner) finderService() (services.SourceFinder, error) {
	if r.finder != nil {
		return r.finder, nil
	}

	yt := r.config.YouTube
	if yt.ProxyURL == "" {
		return nil, fmt.Errorf("%w: youtube.proxy_url", shared.ErrMissingConfig)
	}

	r.finder = services.NewYouTubeService(yt.ProxyURL,
		services.WithSearchFilter(yt.SearchFilter),
		services.WithYouTubeHTTPClient(r.httpClient),
		services.WithYouTubeLogger(shared.WithLogger(r.logger, "component", "youtube")),
	)
	return r.finder, nil
}

// downloaderService builds the audio pipeline writing files in format.
func (r *Runner) downloaderService(format string) tasks.Downloader {
	if r.downloader != nil {
		return r.downloader
	}

	logger := shared.WithLogger(r.logger, "component", "audio")
	source := services.NewYouTubeSource(r.httpClient, logger)
	transcoder := services.NewFFmpegTranscoder(r.config.Download.FFmpegPath)
	r.downloader = services.NewAudioPipeline(source, transcoder, format, logger)
	return r.downloader
}

// database opens (and migrates) the configured SQLite database once per run.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.ownsDB = true
	return db, nil
}

// ledger returns a recorder backed by the database, or nil when the database can't be opened.
func (r *Runner) ledger() tasks.TrackRecorder {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("history disabled", "err", err)
		return nil
	}
	return repositories.NewTrackLedger(repositories.NewPlaylistRepository(db), repositories.NewTrackRepository(db))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
