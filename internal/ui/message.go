package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgResolved MsgKind = iota
	MsgProgressUpdate
	MsgRunComplete
)

type resolved struct {
	meta *models.PlaylistMetadata
	err  error
}

type runOutcome struct {
	result *tasks.DownloadRunResult
	err    error
}

// resolvedMsg is the constructor for [MsgResolved]
func resolvedMsg(meta *models.PlaylistMetadata, err error) Msg {
	return Msg{kind: MsgResolved, data: resolved{meta, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.DownloadRunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runOutcome{result, err}}
}
