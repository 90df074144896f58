package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotydl/internal/models"
	"github.com/desertthunder/spotydl/internal/shared"
	"github.com/desertthunder/spotydl/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResolveView ViewState = iota
	ConfirmView
	DownloadView
	ResultView
)


var _ list.Item = trackItem{}

// trackItem wraps [models.CatalogTrack] to implement [list.Item].
type trackItem struct {
	index int
	track models.CatalogTrack
}

func (i trackItem) FilterValue() string { return i.track.Artist + " " + i.track.Name }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.index, i.track.Name) }
func (i trackItem) Description() string {
	return fmt.Sprintf("%s • %s", i.track.Artist, shared.FormatDuration(i.track.Duration))
}

// Model represents the TUI application state for one download run.
type Model struct {
	ctx       context.Context
	engine    *tasks.DownloadEngine
	url       string
	outputDir string

	view      ViewState
	width     int
	height    int
	spinner   spinner.Model
	trackList list.Model
	meta      *models.PlaylistMetadata

	rows     []models.Track
	rowIndex map[string]int
	status   string

	progressChan chan tasks.ProgressUpdate
	outcome      chan runOutcome
	result       *tasks.DownloadRunResult
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model that downloads url into outputDir with engine.
func NewModel(ctx context.Context, engine *tasks.DownloadEngine, url, outputDir string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:       ctx,
		engine:    engine,
		url:       url,
		outputDir: outputDir,
		view:      ResolveView,
		spinner:   s,
		rowIndex:  make(map[string]int),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Result returns the finished run, or nil when the user quit before it completed.
func (m *Model) Result() *tasks.DownloadRunResult { return m.result }

// Err returns the error that ended the run, if any.
func (m *Model) Err() error { return m.err }

// Init starts resolving the catalog URL.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resolve())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ConfirmView {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != ResolveView && m.view != DownloadView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgResolved:
		data := msg.data.(resolved)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.meta = data.meta
		items := make([]list.Item, len(data.meta.Tracks))
		for i, t := range data.meta.Tracks {
			items[i] = trackItem{index: i + 1, track: t}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("%s (%d tracks)", data.meta.Name, len(data.meta.Tracks))
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = ConfirmView
		return m, nil

	case MsgProgressUpdate:
		m.apply(msg.data.(tasks.ProgressUpdate))
		return m, m.waitForProgress()

	case MsgRunComplete:
		data := msg.data.(runOutcome)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ConfirmView:
		switch {
		case key.Matches(msg, m.keys.start), key.Matches(msg, m.keys.yes):
			m.view = DownloadView
			return m, tea.Batch(m.spinner.Tick, m.startRun())
		case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd

	case ResultView:
		if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.start) {
			return m, tea.Quit
		}

	default:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
	}
	return m, nil
}

// apply folds a progress update into the track rows.
func (m *Model) apply(update tasks.ProgressUpdate) {
	m.status = update.Message

	switch update.Phase {
	case tasks.PrepareTracks:
		tracks, ok := update.Data.([]models.Track)
		if !ok {
			return
		}
		m.rows = tracks
		m.rowIndex = make(map[string]int, len(tracks))
		for i, t := range tracks {
			m.rowIndex[t.ID] = i
		}
	case tasks.ProcessTrack:
		t, ok := update.Data.(models.Track)
		if !ok {
			return
		}
		if i, found := m.rowIndex[t.ID]; found {
			m.rows[i] = t
		}
	}
}

func (m *Model) resolve() tea.Cmd {
	return func() tea.Msg {
		meta, err := m.engine.Resolve(m.ctx, m.url, nil)
		return resolvedMsg(meta, err)
	}
}

func (m *Model) startRun() tea.Cmd {
	meta := m.meta
	tracks := 0
	if meta != nil {
		tracks = len(meta.Tracks)
	}
	m.progressChan = make(chan tasks.ProgressUpdate, tasks.ProgressBufferSize(tracks))
	m.outcome = make(chan runOutcome, 1)

	progress, outcome := m.progressChan, m.outcome
	ctx, engine, url, outputDir := m.ctx, m.engine, m.url, m.outputDir
	go func() {
		var (
			result *tasks.DownloadRunResult
			err    error
		)
		// The confirmed track list is what gets downloaded.
		if meta != nil {
			result, err = engine.RunMetadata(ctx, url, meta, outputDir, progress)
		} else {
			result, err = engine.Run(ctx, url, outputDir, progress)
		}
		outcome <- runOutcome{result, err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, outcome := m.progressChan, m.outcome
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			out := <-outcome
			return runCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

// counts tallies rows by outcome.
func (m *Model) counts() (completed, failed int) {
	for _, t := range m.rows {
		switch t.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusError:
			failed++
		}
	}
	return completed, failed
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ResolveView:
		return m.renderResolve()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderResolve() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s Fetching %s...\n\n%s", m.spinner.View(), m.url, helpView)
}

func (m *Model) renderConfirm() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.start, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

// visibleRows picks the window of rows to draw, starting at the first unfinished track.
func (m *Model) visibleRows() []models.Track {
	limit := len(m.rows)
	if m.height > 8 && m.height-8 < limit {
		limit = m.height - 8
	}

	start := 0
	for i, t := range m.rows {
		if !t.Status.IsTerminal() {
			start = i
			break
		}
	}
	if start+limit > len(m.rows) {
		start = max(len(m.rows)-limit, 0)
	}
	return m.rows[start : start+limit]
}

func (m *Model) renderDownload() string {
	name := m.url
	if m.meta != nil {
		name = m.meta.Name
	}
	title := styles.title.Render(fmt.Sprintf("Downloading '%s'", name))

	completed, failed := m.counts()
	summary := fmt.Sprintf("%s %d/%d done (%s, %s)",
		m.spinner.View(),
		completed+failed, len(m.rows),
		styles.ok.Render(fmt.Sprintf("%d completed", completed)),
		styles.err.Render(fmt.Sprintf("%d failed", failed)),
	)

	var b strings.Builder
	for _, t := range m.visibleRows() {
		fmt.Fprintf(&b, "%3d. %-14s %s\n", t.Index, styles.Status(t.Status), t.Label())
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n\n%s", title, summary, b.String(), styles.help.Render(m.status), helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Download failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Download Complete!")
	info := fmt.Sprintf(
		"\nPlaylist: %s\nFolder: %s\nCompleted: %d/%d",
		m.result.Playlist.Name,
		m.result.Playlist.OutputDir,
		m.result.Completed,
		len(m.result.Tracks),
	)

	var failed string
	if m.result.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to download %d tracks:", m.result.Failed)))
		for _, t := range m.result.Tracks {
			if t.Status == models.StatusError {
				failed += fmt.Sprintf("\n  • %s: %s", t.Label(), t.Error)
			}
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
