// Package tasks schedules the tracks of one catalog resource through search and download.
//
// # Download Run
//
// [DownloadEngine.Run]:
//
//  1. Resolves the URL through a [services.CatalogFetcher] (normally a [services.RetryingFetcher])
//  2. Builds one [models.Track] per catalog entry, 1-based index in catalog order
//  3. Processes tracks through an errgroup limited to the configured concurrency, with a
//     [rate.Limiter] on track starts. Per track: Searching → Queued → Downloading → Completed,
//     or Error with the failure recorded on the track
//  4. Returns a [DownloadRunResult] with completed and failed counts
//
// Two tracks resolving to one output path are never downloaded concurrently: the second is failed with
// [shared.ErrDuplicateOutput].
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Track updates carry a copy of the [models.Track] so receivers never share state with a running goroutine.
//
// # Persistence
//
// The optional [TrackRecorder] interface records the playlist, each track and every status change.
// Recorder errors are logged and otherwise ignored so a database hiccup never aborts downloads.
package tasks
