package output

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"

	"github.com/ansel1/prettyspec/config"
	"github.com/ansel1/prettyspec/engine"
	"github.com/ansel1/prettyspec/events"
	"github.com/ansel1/prettyspec/output/format"
	"github.com/ansel1/prettyspec/results"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[K"

// Reporter turns lifecycle events into terminal output.
//
// It keeps the run state in a results.Collector and renders through a
// format.Renderer. Handlers run synchronously and write directly to the
// output, so output order matches event order. A Reporter is not safe for
// concurrent use.
type Reporter struct {
	w         io.Writer
	cfg       config.Config
	profile   *termenv.Profile
	live      bool
	logger    *slog.Logger
	workDir   string
	collector *results.Collector
	renderer  *format.Renderer

	started       bool
	progressShown bool // a progress line without trailing newline is on screen
	summary       *events.SummaryReady
	err           error
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		w:      w,
		cfg:    config.Default(),
		live:   true,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	lg := lipgloss.NewRenderer(w)
	switch {
	case r.profile != nil:
		lg.SetColorProfile(*r.profile)
	case r.cfg.NoColor:
		lg.SetColorProfile(termenv.Ascii)
	}

	r.collector = results.NewCollector(
		results.WithWorkDir(r.workDir),
		results.WithBacktraceLines(r.cfg.BacktraceLines),
	)
	r.renderer = format.NewRenderer(lg, palette(r.cfg.Palette), limits(r.cfg), r.cfg.ProgressWidth)
	return r
}

// Collector exposes the accumulated run state.
func (r *Reporter) Collector() *results.Collector {
	return r.collector
}

// Renderer exposes the renderer, so other views share the same palette.
func (r *Reporter) Renderer() *format.Renderer {
	return r.renderer
}

// OnRunStart starts a new run and prints the header.
func (r *Reporter) OnRunStart(count int) {
	r.collector.Start(count)
	r.renderer.ResetProgress()
	r.summary = nil
	r.started = true
	r.progressShown = false

	if r.live {
		r.println("")
		r.println(r.renderer.Header())
		r.println("")
	}
}

// OnExampleStarted records the example in flight.
func (r *Reporter) OnExampleStarted(id string) {
	r.collector.ExampleStarted(id)
}

// OnExampleCompleted records the example and redraws the progress line.
func (r *Reporter) OnExampleCompleted(evt events.ExampleCompleted) {
	if _, failure := r.collector.Complete(evt); failure != nil {
		r.renderer.MarkFailing()
	}
	if r.live {
		r.drawProgress()
	}
}

// OnRunStop ends the live progress phase.
func (r *Reporter) OnRunStop() {
	if r.live {
		r.print("\n\n")
	}
	r.progressShown = false
}

// OnRawLine prints a line of non-event output, keeping the progress line
// at the bottom.
func (r *Reporter) OnRawLine(line string) {
	if r.progressShown {
		r.print(clearLine)
		r.println(line)
		r.drawProgress()
		return
	}
	r.println(line)
}

// OnSummaryReady prints the final report: summary box, failures, slowest
// tests and the status banner.
//
// The banner reflects the counts in s, not the reporter's own tally.
func (r *Reporter) OnSummaryReady(s events.SummaryReady) {
	r.summary = &s
	if r.progressShown {
		r.println("")
		r.progressShown = false
	}

	state := r.collector.State()
	r.println(r.renderer.SummaryBox(s.Duration, state))

	if len(state.Failures) > 0 {
		r.println("")
		r.println(r.renderer.FailuresTitle())
		for i, f := range state.Failures {
			r.println(r.renderer.FailureBox(i+1, f))
		}
	}

	r.println("")
	r.println(r.renderer.SlowestTitle())
	r.println("")
	if slowest := r.collector.Slowest(r.renderer.Limits().SlowestCount); len(slowest) == 0 {
		r.println(r.renderer.NoTests())
	} else {
		r.println(r.renderer.SlowestTable(slowest))
	}

	r.println("")
	r.println(r.renderer.Banner(s.FailedCount, s.PendingCount))
	r.println("")
}

// Finish prints the final report from the reporter's own tally when the
// stream ended without a summary. It does nothing if no run was started or a
// summary was already received.
func (r *Reporter) Finish(duration float64) {
	if !r.started || r.summary != nil {
		return
	}
	r.logger.Warn("input ended without a summary, reporting the tally")
	c := r.collector.Counters()
	r.OnSummaryReady(events.SummaryReady{
		Duration:     duration,
		FailedCount:  c.Failed,
		PendingCount: c.Pending,
	})
}

// Handle dispatches a lifecycle event to its handler.
func (r *Reporter) Handle(evt events.Event) {
	switch e := evt.(type) {
	case events.RunStart:
		r.OnRunStart(e.Count)
	case events.ExampleStarted:
		r.OnExampleStarted(e.ID)
	case events.ExampleCompleted:
		r.OnExampleCompleted(e)
	case events.RunStop:
		r.OnRunStop()
	case events.SummaryReady:
		r.OnSummaryReady(e)
	default:
		r.logger.Warn("ignoring unknown event", "type", fmt.Sprintf("%T", evt))
	}
}

// ProcessEvents consumes engine events until the stream completes.
// It returns the first write error, if any.
func (r *Reporter) ProcessEvents(ch <-chan engine.Event) error {
	for evt := range ch {
		switch evt.Type {
		case engine.EventRawLine:
			r.OnRawLine(string(evt.RawLine))

		case engine.EventLifecycle:
			r.Handle(evt.Lifecycle)

		case engine.EventError:
			// Log and keep going; one bad line shouldn't end the report.
			r.logger.Warn("skipping input line", "err", evt.Error)

		case engine.EventComplete:
			return r.Err()
		}
	}
	return r.Err()
}

// Summary returns the final summary, once it has been received.
func (r *Reporter) Summary() (events.SummaryReady, bool) {
	if r.summary == nil {
		return events.SummaryReady{}, false
	}
	return *r.summary, true
}

// HasFailures reports whether the run failed, either per the final summary
// or because a failed example was seen.
func (r *Reporter) HasFailures() bool {
	if r.summary != nil && r.summary.FailedCount > 0 {
		return true
	}
	return r.collector.Counters().HasFailures
}

// Err returns the first error encountered while writing output.
func (r *Reporter) Err() error {
	return r.err
}

func (r *Reporter) drawProgress() {
	line := r.renderer.ProgressLine(r.collector.Counters(), r.collector.ProgressFraction())
	r.print(clearLine + line)
	r.progressShown = true
}

func (r *Reporter) println(s string) {
	r.print(s + "\n")
}

// print writes s, remembering the first failure. Later writes are dropped.
func (r *Reporter) print(s string) {
	if r.err != nil {
		return
	}
	if _, err := io.WriteString(r.w, s); err != nil {
		r.err = errors.Wrap(err, "writing report")
		r.logger.Error("report output failed", "err", err)
	}
}
