// Package models defines the domain entities shared by the catalog resolver, the download pipeline and the ledger.
//
// The package contains two categories of types:
//
// 1. Catalog values: normalized metadata fetched from Spotify
//   - [Resource] : kind + id parsed from a catalog URL
//   - [CatalogTrack] : one normalized track entry
//   - [PlaylistMetadata] : a named, ordered track listing
//
// 2. Acquisition state: per-track lifecycle during a download run
//   - [Track] : a catalog entry being matched, streamed and transcoded
//   - [TrackStatus] : New → Searching → Queued → Downloading → Completed, or Error
//   - [Playlist] : a persisted run over one catalog resource
//
// Status changes go through [Track.Transition], which rejects anything the lifecycle doesn't allow.
package models
