package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ansel1/prettyspec/engine"
	"github.com/ansel1/prettyspec/events"
	"github.com/ansel1/prettyspec/output"
	"github.com/ansel1/prettyspec/output/format"
)

// LifecycleMsg wraps a lifecycle event for bubbletea
type LifecycleMsg struct {
	Event events.Event
}

// RawLineMsg carries a line of non-event output, printed above the live view
type RawLineMsg string

// EOFMsg signals that the input stream has been closed
type EOFMsg struct{}

// Model is the live view of a run.
//
// Events are handed to a Reporter built without live output, so the Reporter
// only accumulates state; View reads that state back. The final report is not
// rendered here: the model stops at SummaryReady, and the caller finishes the
// report through the same Reporter once the program has exited.
type Model struct {
	reporter *output.Reporter

	TerminalWidth int

	// State tracking
	Finished    bool      // the run completed or input ended
	Interrupted bool      // the user quit before the run completed
	StartTime   time.Time // When the TUI started

	summary *events.SummaryReady
	spinner spinner.Model
}

// NewModel creates a new TUI model feeding reporter. The reporter should be
// created with output.WithLiveOutput(false).
func NewModel(reporter *output.Reporter) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		reporter:      reporter,
		TerminalWidth: 80, // Default width, will be updated by Bubbletea
		StartTime:     time.Now(),
		spinner:       s,
	}
}

// Init initializes the model and returns the initial command
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LifecycleMsg:
		if s, ok := msg.Event.(events.SummaryReady); ok {
			m.summary = &s
			m.Finished = true
			return m, tea.Quit
		}
		m.reporter.Handle(msg.Event)

	case RawLineMsg:
		return m, tea.Println(string(msg))

	case tea.WindowSizeMsg:
		m.TerminalWidth = msg.Width

	case EOFMsg:
		m.Finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.Interrupted = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	rd := m.reporter.Renderer()
	c := m.reporter.Collector()
	state := c.Counters()

	status := m.spinner.View() + " " + rd.Header()
	if m.Finished {
		status = "  " + rd.Header()
	}
	elapsed := rd.Muted(format.FormatDuration(time.Since(m.StartTime).Seconds()))

	lines := []string{
		status + "  " + elapsed,
		"",
		rd.ProgressLine(state, c.ProgressFraction()),
	}
	if state.CurrentExample != "" {
		current := format.Truncate(state.CurrentExample, m.TerminalWidth-4)
		lines = append(lines, rd.Muted("  "+current))
	}

	return ensureReset(expandTabs(strings.Join(lines, "\n"), 8))
}

// Summary returns the summary that ended the run, if one arrived.
func (m *Model) Summary() (events.SummaryReady, bool) {
	if m.summary == nil {
		return events.SummaryReady{}, false
	}
	return *m.summary, true
}

// String renders the TUI
func (m *Model) String() string {
	return m.View()
}

// Forward pumps engine events into p until the stream completes.
func Forward(p *tea.Program, ch <-chan engine.Event, logger *slog.Logger) {
	for evt := range ch {
		switch evt.Type {
		case engine.EventRawLine:
			p.Send(RawLineMsg(evt.RawLine))
		case engine.EventLifecycle:
			p.Send(LifecycleMsg{Event: evt.Lifecycle})
		case engine.EventError:
			logger.Warn("skipping input line", "err", evt.Error)
		case engine.EventComplete:
			p.Send(EOFMsg{})
			return
		}
	}
	p.Send(EOFMsg{})
}
