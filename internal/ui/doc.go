// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI follows one download run through its views:
//  1. [ResolveView] : Fetch catalog metadata for the URL
//  2. [ConfirmView] : Preview tracks and confirm the download
//  3. [DownloadView] : Monitor every track's status as it moves through the pipeline
//  4. [ResultView] : Display completed and failed tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the DownloadEngine, providing non-blocking status reporting during downloads.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
