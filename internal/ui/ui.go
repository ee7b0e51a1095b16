package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/desertthunder/local2stream/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	ConfirmView
	TransferView
	ResultView
)

// number of recent track lines kept on the transfer screen
const logLines = 8

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.TransferEngine
	tracks       []models.LocalTrack
	playlistID   string
	playlistName string
	width        int
	height       int
	trackList    list.Model
	job          *tasks.Job
	last         tasks.ProgressEvent
	lines        []string
	progress     progress.Model
	summary      *tasks.Summary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model for transferring tracks to playlistID, or to a new playlist named playlistName.
func NewModel(ctx context.Context, engine *tasks.TransferEngine, tracks []models.LocalTrack, playlistID, playlistName string) *Model {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{track: track}
	}
	trackList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = fmt.Sprintf("Local Tracks (%d)", len(tracks))

	return &Model{
		ctx:          ctx,
		view:         TrackListView,
		engine:       engine,
		tracks:       tracks,
		playlistID:   playlistID,
		playlistName: playlistName,
		trackList:    trackList,
		progress:     progress.New(progress.WithDefaultGradient()),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init has nothing to fetch; tracks are scanned before the program starts.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Summary returns the final transfer summary, or nil when no transfer finished.
func (m *Model) Summary() *tasks.Summary {
	return m.summary
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error {
	return m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.progress.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case TransferView:
			return m.handleTransferKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == TrackListView {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgJobStarted:
		started := msg.data.(jobStarted)
		if started.err != nil {
			m.err = started.err
			m.view = ResultView
			return m, nil
		}
		m.job = started.job
		return m, m.waitForEvent()

	case MsgProgressEvent:
		ev := msg.data.(tasks.ProgressEvent)
		m.last = ev
		if ev.Kind == tasks.EventTrack {
			m.lines = append(m.lines, outcomeStyle(ev.Outcome).Render(ev.Message()))
			if len(m.lines) > logLines {
				m.lines = m.lines[len(m.lines)-logLines:]
			}
		}
		return m, m.waitForEvent()

	case MsgTransferComplete:
		m.summary = msg.data.(*tasks.Summary)
		if m.summary != nil {
			m.err = m.summary.Err
		}
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = TransferView
		return m, m.startTransfer()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = TrackListView
	}
	return m, nil
}

func (m *Model) handleTransferKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.job == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.pause):
		if !m.job.Pause() {
			m.job.Resume()
		}
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.quit):
		// The event stream still drains to its terminal event, which moves the view to the result screen.
		m.job.Cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.enter) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startTransfer() tea.Cmd {
	return func() tea.Msg {
		playlistID, err := m.engine.EnsurePlaylist(m.ctx, m.playlistID, m.playlistName, len(m.tracks))
		if err != nil {
			return jobStartedMsg(nil, err)
		}
		job, err := m.engine.Start(m.ctx, m.tracks, playlistID)
		return jobStartedMsg(job, err)
	}
}

// waitForEvent reads one event; a closed stream means the job is done.
func (m *Model) waitForEvent() tea.Cmd {
	job := m.job
	return func() tea.Msg {
		ev, ok := <-job.Events()
		if !ok {
			return transferCompleteMsg(job.Wait())
		}
		return progressEventMsg(ev)
	}
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	target := m.playlistID
	if target == "" {
		target = fmt.Sprintf("new playlist '%s'", m.playlistName)
	}
	if m.engine.Options().DryRun {
		target += " (dry run)"
	}

	title := styles.title.Render(fmt.Sprintf("Transfer %d tracks?", len(m.tracks)))
	info := fmt.Sprintf("\nDestination: %s\n", target)
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTransfer() string {
	var b strings.Builder

	title := "Transferring Tracks"
	if m.job != nil && m.job.Status() == models.StatusPaused {
		title += " (paused)"
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	c := m.last.Counters
	total := max(c.Total, len(m.tracks))
	var ratio float64
	if total > 0 {
		ratio = float64(c.Attempted) / float64(total)
	}
	b.WriteString(m.progress.ViewAs(ratio))
	fmt.Fprintf(&b, "\n%d/%d  matched %d  unmatched %d  errored %d\n\n", c.Attempted, total, c.Matched, c.Unmatched, c.Errored)

	if m.job == nil {
		b.WriteString("Starting...\n")
	}
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.pause, m.keys.cancel, m.keys.quit}
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderResult() string {
	if m.summary == nil {
		return styles.err.Render(fmt.Sprintf("Transfer failed: %v\n\nPress q to quit", m.err))
	}

	s := m.summary
	var b strings.Builder
	switch s.Status {
	case models.StatusCompleted:
		b.WriteString(styles.ok.Render("✓ Transfer Complete!"))
	case models.StatusCancelled:
		b.WriteString(styles.warn.Render("Transfer Cancelled"))
	default:
		b.WriteString(styles.err.Render(fmt.Sprintf("Transfer %s: %v", s.Status, s.Err)))
	}

	c := s.Counters
	fmt.Fprintf(&b, "\n\nPlaylist: %s\nProcessed: %d/%d\nMatched: %d  Unmatched: %d  Errored: %d\nSuccess rate: %.1f%% in %s",
		s.PlaylistID, c.Attempted, c.Total, c.Matched, c.Unmatched, c.Errored,
		s.MatchPercentage(), shared.FormatDuration(int(s.Duration().Seconds())))

	if unmatched := s.Unmatched(); len(unmatched) > 0 {
		fmt.Fprintf(&b, "\n\n%s", styles.warn.Render(fmt.Sprintf("Not found (%d):", len(unmatched))))
		for _, r := range unmatched {
			fmt.Fprintf(&b, "\n  • %s", r.Track.Label())
		}
	}
	if errored := s.Errored(); len(errored) > 0 {
		fmt.Fprintf(&b, "\n\n%s", styles.err.Render(fmt.Sprintf("Errors (%d):", len(errored))))
		for _, r := range errored {
			fmt.Fprintf(&b, "\n  • %s: %v", r.Track.Label(), r.Err)
		}
	}

	fmt.Fprintf(&b, "\n\n%s", m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}
