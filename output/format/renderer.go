package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ansel1/prettyspec/results"
)

// DefaultProgressWidth is the width of the progress bar in cells.
const DefaultProgressWidth = 50

// Renderer turns run state into styled text blocks.
//
// Renderer does no I/O; the caller decides where and in which order blocks
// are written. All styles come from the palette given at construction.
type Renderer struct {
	palette  Palette
	limits   Limits
	styles   styles
	progress progress.Model
}

// NewRenderer creates a renderer bound to r's color profile.
func NewRenderer(r *lipgloss.Renderer, palette Palette, limits Limits, progressWidth int) *Renderer {
	if progressWidth <= 0 {
		progressWidth = DefaultProgressWidth
	}
	bar := progress.New(
		progress.WithWidth(progressWidth),
		progress.WithSolidFill(palette.Success),
		progress.WithColorProfile(r.ColorProfile()),
	)
	bar.EmptyColor = palette.ProgressEmpty

	return &Renderer{
		palette:  palette,
		limits:   limits,
		styles:   newStyles(r, palette),
		progress: bar,
	}
}

// Limits returns the limits the renderer was built with.
func (rd *Renderer) Limits() Limits {
	return rd.limits
}

// ResetProgress restores the progress bar to the "ongoing" color.
func (rd *Renderer) ResetProgress() {
	rd.progress.FullColor = rd.palette.Success
}

// MarkFailing switches the progress bar to the failure color. It stays that
// way until ResetProgress.
func (rd *Renderer) MarkFailing() {
	rd.progress.FullColor = rd.palette.Failure
}

// Muted renders s in the secondary text color.
func (rd *Renderer) Muted(s string) string {
	return rd.styles.muted.Render(s)
}

// Header renders the line printed when a run starts.
func (rd *Renderer) Header() string {
	return rd.styles.header.Render("Running tests...")
}

// ProgressBar renders just the bar for the given fraction.
func (rd *Renderer) ProgressBar(fraction float64) string {
	return rd.progress.ViewAs(fraction)
}

// ProgressLine renders the live status line: the bar, passed/seen and the
// per-outcome counts.
func (rd *Renderer) ProgressLine(s results.RunState, fraction float64) string {
	status := rd.styles.success
	if s.HasFailures {
		status = rd.styles.failure
	}

	failed := rd.styles.muted.Render("0 failed")
	if s.Failed > 0 {
		failed = rd.styles.failure.Render(fmt.Sprintf("%d failed", s.Failed))
	}
	pending := rd.styles.muted.Render("0 pending")
	if s.Pending > 0 {
		pending = rd.styles.pending.Render(fmt.Sprintf("%d pending", s.Pending))
	}

	return strings.Join([]string{
		rd.ProgressBar(fraction),
		" ",
		status.Render(fmt.Sprintf("%d/%d", s.Passed, s.ExamplesSeen)),
		" ",
		rd.styles.muted.Render("("),
		rd.styles.success.Render(fmt.Sprintf("%d passed", s.Passed)),
		rd.styles.muted.Render(", "),
		failed,
		rd.styles.muted.Render(", "),
		pending,
		rd.styles.muted.Render(")"),
	}, "")
}

// ResultsLine lists the non-zero outcome counts, in passed, failed, pending
// order, separated by two spaces.
func (rd *Renderer) ResultsLine(passed, failed, pending int) string {
	var parts []string
	if passed > 0 {
		parts = append(parts, rd.styles.success.Render(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		parts = append(parts, rd.styles.failure.Render(fmt.Sprintf("%d failed", failed)))
	}
	if pending > 0 {
		parts = append(parts, rd.styles.pending.Render(fmt.Sprintf("%d pending", pending)))
	}
	return strings.Join(parts, "  ")
}

// SummaryBox renders the boxed run summary.
func (rd *Renderer) SummaryBox(duration float64, s results.RunState) string {
	text := strings.Join([]string{
		rd.styles.header.Render("Test Summary"),
		"",
		"Duration: " + rd.styles.muted.Render(FormatDuration(duration)),
		fmt.Sprintf("Examples: %d", s.ExamplesSeen),
		"",
		rd.ResultsLine(s.Passed, s.Failed, s.Pending),
	}, "\n")
	return rd.styles.box.Render(text)
}

// FailuresTitle renders the heading above the failure boxes.
func (rd *Renderer) FailuresTitle() string {
	return rd.styles.failure.Render("Failures")
}

// FailureBox renders one failure, numbered from 1.
func (rd *Renderer) FailureBox(n int, f results.FailureRecord) string {
	lines := []string{
		rd.styles.failure.Render(fmt.Sprintf("%d) %s", n, f.Description)),
		"",
		rd.styles.muted.Render("Location: " + f.Location),
		FileLink(f.LocationFull, ""),
		"",
		"Message:",
		FirstLines(f.Message, rd.limits.MessageLines),
	}
	if rd.limits.ShowBacktrace && f.Backtrace != "" {
		lines = append(lines, "", "Backtrace:", rd.styles.muted.Render(f.Backtrace))
	}
	return rd.styles.failureBox.Render(strings.Join(lines, "\n"))
}

// SlowestTitle renders the heading of the slowest tests section.
func (rd *Renderer) SlowestTitle() string {
	return rd.styles.header.Render(fmt.Sprintf("Top %d Slowest Tests", rd.limits.SlowestCount))
}

// NoTests renders the placeholder shown when no timings were recorded.
func (rd *Renderer) NoTests() string {
	return rd.styles.muted.Render("  No tests recorded.")
}

// SlowestTable renders the ranked timings as a table.
func (rd *Renderer) SlowestTable(timings []results.TimingRecord) string {
	rows := make([][]string, 0, len(timings))
	for i, tr := range timings {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			Truncate(tr.Description, rd.limits.DescriptionWidth),
			FileLink(tr.LocationFull, Truncate(tr.Location, rd.limits.LocationWidth)),
			FormatDuration(tr.Duration),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(rd.styles.tableBorder).
		Headers("#", "Test", "Location", "Duration").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return rd.styles.tableHeader
			}
			return rd.styles.tableCell
		})
	return t.Render()
}

// Banner renders the final status. Failures win over pending, pending over
// passed.
func (rd *Renderer) Banner(failed, pending int) string {
	switch {
	case failed > 0:
		return rd.styles.failedBanner.Render(" FAILED ")
	case pending > 0:
		return rd.styles.pendingBanner.Render(" PENDING ")
	default:
		return rd.styles.passedBanner.Render(" PASSED ")
	}
}
