package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andy/track/internal/app"
	"github.com/andy/track/internal/domain"
	"github.com/andy/track/internal/output"
	"github.com/andy/track/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tick returns a command that sends tickMsg every second
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// waitForChange blocks until the watcher reports a change
func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

// Model is the live status view
type Model struct {
	app     *app.App
	keys    KeyMap
	help    help.Model
	changes <-chan struct{}

	status *service.Status
	report *domain.Report

	// busy is set while a start or stop is in flight
	busy bool

	err       error
	statusMsg string
	width     int
	height    int
}

// New creates the watch model. changes may be nil when no watcher runs.
func New(a *app.App, changes <-chan struct{}) Model {
	return Model{
		app:     a,
		keys:    DefaultKeyMap,
		help:    help.New(),
		changes: changes,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick(), waitForChange(m.changes))
}

// load reads tracker status and the report total without locking
func (m Model) load() tea.Cmd {
	a := m.app
	window := a.ReportWindow()
	return func() tea.Msg {
		ctx := context.Background()
		st, err := a.TrackerService.Status(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		r, err := a.ReportService.Report(ctx, window)
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{status: st, report: r}
	}
}

// toggle starts tracking when idle and stops it when running
func (m Model) toggle() tea.Cmd {
	a := m.app
	running := m.running()
	return func() tea.Msg {
		ctx := context.Background()
		if running {
			iv, err := a.TrackerService.Stop(ctx)
			return toggledMsg{started: false, interval: iv, err: err}
		}
		iv, err := a.TrackerService.Start(ctx)
		return toggledMsg{started: true, interval: iv, err: err}
	}
}

func (m Model) running() bool {
	return m.status != nil && m.status.State == domain.TrackerStateRunning
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.load(), tick())

	case fileChangedMsg:
		return m, tea.Batch(m.load(), waitForChange(m.changes))

	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.status
		m.report = msg.report
		return m, nil

	case toggledMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.statusMsg = ""
			return m, m.load()
		}
		m.err = nil
		switch {
		case msg.started && msg.interval != nil:
			m.statusMsg = fmt.Sprintf("Started at %s", output.FormatTime(msg.interval.Start))
		case msg.interval != nil:
			m.statusMsg = fmt.Sprintf("Stopped after %s", output.FormatDuration(msg.interval.Duration(m.app.Clock.Now())))
		default:
			m.statusMsg = "Cleared a lockfile with no open interval"
		}
		return m, m.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.statusMsg = ""
			return m, m.load()

		case key.Matches(msg, m.keys.Toggle):
			if m.busy || m.status == nil {
				return m, nil
			}
			m.busy = true
			m.statusMsg = ""
			return m, m.toggle()
		}
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("track"))
	b.WriteString("  ")
	b.WriteString(subtitleStyle.Render(m.app.IntervalRepo.Path()))
	b.WriteString("\n\n")

	if m.status == nil && m.err == nil {
		b.WriteString("Loading...\n")
	}

	if st := m.status; st != nil {
		badge := idleBadgeStyle.Render("IDLE")
		if st.State == domain.TrackerStateRunning {
			badge = runningBadgeStyle.Render("RUNNING")
		}
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("State"), badge)

		if st.Active != nil {
			fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Started"), output.FormatTime(st.Active.Start))
			fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Elapsed"), elapsedStyle.Render(formatClock(st.Elapsed)))
		}
		if m.report != nil {
			fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Window"), output.FormatDuration(m.report.Total))
		}

		if st.Inconsistent {
			b.WriteString("\n")
			b.WriteString(warningStyle.Render("Lockfile and database disagree; the next start or stop repairs this"))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.statusMsg))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	if m.width == 0 {
		return b.String()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, appBorderStyle.Render(b.String()))
}

// Run starts the watch view on the given terminal streams
func Run(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	w, err := NewWatcher(a.Logger, a.Lockfile.Path(), a.IntervalRepo.Path())
	if err != nil {
		return fmt.Errorf("failed to watch tracker files: %w", err)
	}
	w.Start()
	defer w.Stop()

	p := tea.NewProgram(New(a, w.Changes()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err = p.Run()
	return err
}
