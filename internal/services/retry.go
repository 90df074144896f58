package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sethvargo/go-retry"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
)

const (
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 10 * time.Second
	DefaultRetryDelay     = 500 * time.Millisecond
)

// FetchFunc is the fetch operation wrapped by a [RetryingFetcher].
type FetchFunc func(ctx context.Context, url string) (*models.PlaylistMetadata, error)

// RetryExhaustedError is returned when every attempt failed or timed out.
// It matches [shared.ErrRetryExhausted] and the last attempt's error.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", shared.ErrRetryExhausted, e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() []error {
	return []error{shared.ErrRetryExhausted, e.Last}
}

// RetryingFetcher retries a fetch with a per-attempt timeout.
//
// Each attempt is all-or-nothing: a result arriving after its attempt timed out is dropped.
type RetryingFetcher struct {
	fetch          FetchFunc
	maxAttempts    int
	attemptTimeout time.Duration
	delay          time.Duration
	failFastOnAuth bool
	logger         *log.Logger
}

// RetryOption configures a [RetryingFetcher].
type RetryOption func(*RetryingFetcher)

// WithMaxAttempts sets the total number of attempts. Values below 1 are ignored.
func WithMaxAttempts(n int) RetryOption {
	return func(r *RetryingFetcher) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each attempt. Zero or less keeps the default.
func WithAttemptTimeout(d time.Duration) RetryOption {
	return func(r *RetryingFetcher) {
		if d > 0 {
			r.attemptTimeout = d
		}
	}
}

// WithRetryDelay sets the pause between attempts. Zero or less means no pause.
func WithRetryDelay(d time.Duration) RetryOption {
	return func(r *RetryingFetcher) { r.delay = d }
}

// WithFailFastOnAuth stops retrying on [shared.ErrAuthentication] and returns it as is.
func WithFailFastOnAuth(v bool) RetryOption {
	return func(r *RetryingFetcher) { r.failFastOnAuth = v }
}

// WithRetryLogger sets the logger for failed attempts. Nil is ignored.
func WithRetryLogger(l *log.Logger) RetryOption {
	return func(r *RetryingFetcher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetryingFetcher wraps fetcher.
func NewRetryingFetcher(fetcher CatalogFetcher, opts ...RetryOption) *RetryingFetcher {
	return NewRetryingFetcherFunc(fetcher.FetchMetadata, opts...)
}

// NewRetryingFetcherFunc wraps a bare fetch function.
func NewRetryingFetcherFunc(fn FetchFunc, opts ...RetryOption) *RetryingFetcher {
	r := &RetryingFetcher{
		fetch:          fn,
		maxAttempts:    DefaultMaxAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		delay:          DefaultRetryDelay,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchMetadata implements [CatalogFetcher] via [RetryingFetcher.FetchWithRetry].
func (r *RetryingFetcher) FetchMetadata(ctx context.Context, url string) (*models.PlaylistMetadata, error) {
	return r.FetchWithRetry(ctx, url)
}

// FetchWithRetry returns the first successful fetch, or a [*RetryExhaustedError] once attempts run out.
//
// Cancelling ctx stops the loop with ctx.Err().
func (r *RetryingFetcher) FetchWithRetry(ctx context.Context, url string) (*models.PlaylistMetadata, error) {
	var (
		result   *models.PlaylistMetadata
		last     error
		attempts int
	)

	delay := r.delay
	if delay <= 0 {
		delay = time.Nanosecond
	}
	backoff := retry.WithMaxRetries(uint64(r.maxAttempts-1), retry.NewConstant(delay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		meta, err := r.attempt(ctx, url)
		if err == nil {
			result = meta
			return nil
		}

		last = err
		r.logger.Debug("catalog fetch attempt failed", "attempt", attempts, "max", r.maxAttempts, "err", err)

		if ctx.Err() != nil {
			return err
		}
		if r.failFastOnAuth && errors.Is(err, shared.ErrAuthentication) {
			return err
		}
		return retry.RetryableError(err)
	})

	switch {
	case err == nil:
		if result == nil {
			result = &models.PlaylistMetadata{}
		}
		if result.Tracks == nil {
			result.Tracks = []models.CatalogTrack{}
		}
		return result, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case r.failFastOnAuth && errors.Is(err, shared.ErrAuthentication):
		return nil, err
	default:
		return nil, &RetryExhaustedError{Attempts: attempts, Last: last}
	}
}

type attemptResult struct {
	meta *models.PlaylistMetadata
	err  error
}

// attempt runs one fetch against the per-attempt deadline. The goroutine only writes to its own buffered
// channel, so an abandoned fetch can finish later without touching anything the next attempt reads.
func (r *RetryingFetcher) attempt(ctx context.Context, url string) (*models.PlaylistMetadata, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	ch := make(chan attemptResult, 1)
	go func() {
		meta, err := r.fetch(attemptCtx, url)
		ch <- attemptResult{meta: meta, err: err}
	}()

	select {
	case res := <-ch:
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			if res.err != nil {
				return nil, fmt.Errorf("%w: attempt exceeded %s: %w", shared.ErrTimeout, r.attemptTimeout, res.err)
			}
			return nil, fmt.Errorf("%w: attempt exceeded %s", shared.ErrTimeout, r.attemptTimeout)
		}
		return res.meta, res.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: attempt exceeded %s", shared.ErrTimeout, r.attemptTimeout)
	}
}
