// Package repositories implements SQLite persistence for download runs.
//
// Key Implementations:
//   - [PlaylistRepository] : one row per run (catalog name, source URL, output directory)
//   - [TrackRepository] : one row per track with its latest status, source URL and error
//   - [TrackLedger] : adapts both to the task layer's recorder interface
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
