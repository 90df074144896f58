package tasks

import (
	"fmt"

	"github.com/desertthunder/spotydl/internal/models"
)

// ProgressUpdate represents a progress event during a download run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

const (
	// searching, queued, downloading and one terminal status
	updatesPerTrack = 4
	// fetching, found, prepared and finished
	updatesPerRun = 4

	minProgressBuffer = 256
)

// ProgressBufferSize returns a channel capacity that holds every update a run over tracks can emit,
// so a slow reader never loses a track's terminal status.
func ProgressBufferSize(tracks int) int {
	return max(minProgressBuffer, max(tracks, 0)*updatesPerTrack+updatesPerRun)
}

// Operation phase enumeration
type Phase int

const (
	FetchCatalog Phase = iota
	PrepareTracks
	ProcessTrack
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case PrepareTracks:
		return "prepare_tracks"
	case ProcessTrack:
		return "process_track"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func fetchingCatalogUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching catalog metadata for %s...", url),
	}
}

func foundPlaylistUpdate(meta *models.PlaylistMetadata) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found: %s (%d tracks)", meta.Name, len(meta.Tracks)),
		Data:    meta,
	}
}

// preparedTracksUpdate carries a snapshot of every track so a UI can lay out its rows.
func preparedTracksUpdate(tracks []*models.Track) ProgressUpdate {
	snapshot := make([]models.Track, len(tracks))
	for i, t := range tracks {
		snapshot[i] = *t
	}
	return ProgressUpdate{
		Phase:   PrepareTracks,
		Step:    len(tracks),
		Total:   len(tracks),
		Message: fmt.Sprintf("Prepared %d tracks", len(tracks)),
		Data:    snapshot,
	}
}

// trackUpdate reports a status change. Data is a copy of the track.
func trackUpdate(step, total int, t *models.Track) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s: %s", t.Index, total, t.Label(), t.Status)
	if t.Status == models.StatusError && t.Error != "" {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", t.Index, total, t.Label(), t.Error)
	} else if t.Status == models.StatusCompleted {
		msg = fmt.Sprintf("[%d/%d] ✓ %s", t.Index, total, t.Label())
	}

	return ProgressUpdate{
		Phase:   ProcessTrack,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    *t,
	}
}

func finishedUpdate(res *DownloadRunResult) ProgressUpdate {
	total := len(res.Tracks)
	return ProgressUpdate{
		Phase:   Finished,
		Step:    res.Completed + res.Failed,
		Total:   total,
		Message: fmt.Sprintf("Done: %d completed, %d failed", res.Completed, res.Failed),
		Data:    res,
	}
}
