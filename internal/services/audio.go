package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

const defaultFormat = "mp3"

// Stage names a step of the [AudioPipeline].
type Stage string

const (
	StageRead      Stage = "read"
	StageTranscode Stage = "transcode"
	StageWrite     Stage = "write"
)

// StreamError reports the pipeline stage that failed first.
// It matches [shared.ErrStream] and the stage's own error.
type StreamError struct {
	Stage Stage
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%v: %s: %v", shared.ErrStream, e.Stage, e.Err)
}

func (e *StreamError) Unwrap() []error {
	return []error{shared.ErrStream, e.Err}
}

// stageError wraps err for stage unless it is already a StreamError travelling back through a pipe.
func stageError(stage Stage, err error) error {
	var se *StreamError
	if errors.As(err, &se) {
		return se
	}
	return &StreamError{Stage: stage, Err: err}
}

// MediaSource opens the raw audio stream behind a source URL.
type MediaSource interface {
	OpenAudio(ctx context.Context, sourceURL string) (io.ReadCloser, error)
}

// Tags are written into the transcoded output.
type Tags struct {
	Title  string
	Artist string
}

// Transcoder converts src into format, tagging the output.
type Transcoder interface {
	Transcode(ctx context.Context, src io.Reader, dst io.Writer, format string, tags Tags) error
}

// FFmpegTranscoder runs ffmpeg with stdin and stdout as the pipe ends.
type FFmpegTranscoder struct {
	path string
}

// NewFFmpegTranscoder uses the ffmpeg binary at path, or "ffmpeg" from PATH.
func NewFFmpegTranscoder(path string) *FFmpegTranscoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegTranscoder{path: path}
}

func (t *FFmpegTranscoder) args(format string, tags Tags) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-metadata", "title=" + tags.Title,
		"-metadata", "artist=" + tags.Artist,
		"-f", format,
		"pipe:1",
	}
}

// Transcode implements [Transcoder].
func (t *FFmpegTranscoder) Transcode(ctx context.Context, src io.Reader, dst io.Writer, format string, tags Tags) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, t.path, t.args(format, tags)...)
	cmd.Stdin = src
	cmd.Stdout = dst
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// AudioPipeline streams a matched track's audio through a transcoder into the output folder.
//
// The three stages (read, transcode, write) are joined by [io.Pipe] and run under one [errgroup.Group];
// the first stage to fail closes its pipes with its error and cancels the others.
type AudioPipeline struct {
	source     MediaSource
	transcoder Transcoder
	format     string
	logger     *log.Logger
}

// NewAudioPipeline creates a pipeline producing files of the given format (mp3 when empty).
func NewAudioPipeline(source MediaSource, transcoder Transcoder, format string, logger *log.Logger) *AudioPipeline {
	if format == "" {
		format = defaultFormat
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AudioPipeline{source: source, transcoder: transcoder, format: format, logger: logger}
}

// Format is the output container/codec name.
func (p *AudioPipeline) Format() string {
	return p.format
}

// OutputPath returns "<folder>/<index> - <artist> - <name>.<format>" for track.
func (p *AudioPipeline) OutputPath(outputFolder string, track *models.Track) string {
	return OutputPath(outputFolder, track, p.format)
}

// OutputPath builds the destination file name. Path separators in artist and name become "_".
func OutputPath(outputFolder string, track *models.Track, format string) string {
	name := fmt.Sprintf("%d - %s - %s.%s",
		track.Index, shared.SanitizeFilename(track.Artist), shared.SanitizeFilename(track.Name), format)
	return filepath.Join(outputFolder, name)
}

// Download streams, transcodes and writes track, returning the written path.
//
// Completion means the file was synced and closed. A failed run leaves any partial file in place.
func (p *AudioPipeline) Download(ctx context.Context, track *models.Track, outputFolder string) (string, error) {
	if track.YouTubeURL == "" {
		return "", fmt.Errorf("%w: track %q has no source url", shared.ErrInvalidInput, track.Label())
	}

	if err := os.MkdirAll(outputFolder, 0755); err != nil {
		return "", &StreamError{Stage: StageWrite, Err: err}
	}

	out := p.OutputPath(outputFolder, track)
	tags := Tags{Title: track.Name, Artist: track.Artist}

	p.logger.Debug("starting download", "track", track.Label(), "source", track.YouTubeURL, "output", out)

	g, gctx := errgroup.WithContext(ctx)
	srcR, srcW := io.Pipe()
	encR, encW := io.Pipe()

	g.Go(func() error {
		stream, err := p.source.OpenAudio(gctx, track.YouTubeURL)
		if err != nil {
			se := stageError(StageRead, err)
			srcW.CloseWithError(se)
			return se
		}
		defer stream.Close()

		if _, err := io.Copy(srcW, stream); err != nil {
			se := stageError(StageRead, err)
			srcW.CloseWithError(se)
			return se
		}
		return srcW.Close()
	})

	g.Go(func() error {
		if err := p.transcoder.Transcode(gctx, srcR, encW, p.format, tags); err != nil {
			se := stageError(StageTranscode, err)
			srcR.CloseWithError(se)
			encW.CloseWithError(se)
			return se
		}

		// Unread input would otherwise block the read stage forever.
		io.Copy(io.Discard, srcR)
		return encW.Close()
	})

	g.Go(func() error {
		f, err := os.Create(out)
		if err != nil {
			se := stageError(StageWrite, err)
			encR.CloseWithError(se)
			return se
		}

		if _, err := io.Copy(f, encR); err != nil {
			f.Close()
			se := stageError(StageWrite, err)
			encR.CloseWithError(se)
			return se
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return &StreamError{Stage: StageWrite, Err: err}
		}
		if err := f.Close(); err != nil {
			return &StreamError{Stage: StageWrite, Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		p.logger.Debug("download failed", "track", track.Label(), "err", err)
		return "", err
	}

	p.logger.Debug("download completed", "track", track.Label(), "output", out)
	return out, nil
}
