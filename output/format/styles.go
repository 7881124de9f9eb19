package format

import "github.com/charmbracelet/lipgloss"

// Palette is the fixed set of named colors used for one run.
type Palette struct {
	Header        string
	Success       string
	Failure       string
	Pending       string
	Muted         string
	Border        string
	ProgressEmpty string
	TableHeaderFg string
	TableHeaderBg string
}

// DefaultPalette returns the standard colors.
func DefaultPalette() Palette {
	return Palette{
		Header:        "#7D56F4",
		Success:       "#04B575",
		Failure:       "#FF6B6B",
		Pending:       "#FFCC00",
		Muted:         "#626262",
		Border:        "#874BFD",
		ProgressEmpty: "#3C3C3C",
		TableHeaderFg: "#FAFAFA",
		TableHeaderBg: "#5A56E0",
	}
}

// Limits bounds how much of each record is shown.
type Limits struct {
	SlowestCount     int  // rows in the slowest tests table
	DescriptionWidth int  // max characters of a description in the table
	LocationWidth    int  // max characters of a location in the table
	MessageLines     int  // lines of a failure message
	ShowBacktrace    bool // print the backtrace excerpt under the message
}

// DefaultLimits returns the standard limits.
func DefaultLimits() Limits {
	return Limits{
		SlowestCount:     3,
		DescriptionWidth: 50,
		LocationWidth:    30,
		MessageLines:     10,
	}
}

// styles is the palette bound to a lipgloss renderer.
type styles struct {
	header        lipgloss.Style
	success       lipgloss.Style
	failure       lipgloss.Style
	pending       lipgloss.Style
	muted         lipgloss.Style
	box           lipgloss.Style
	failureBox    lipgloss.Style
	tableHeader   lipgloss.Style
	tableCell     lipgloss.Style
	tableBorder   lipgloss.Style
	failedBanner  lipgloss.Style
	pendingBanner lipgloss.Style
	passedBanner  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, p Palette) styles {
	bold := func(color string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}
	banner := func(fg, bg string) lipgloss.Style {
		return r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)).
			Background(lipgloss.Color(bg)).
			Padding(0, 2)
	}

	return styles{
		header:  bold(p.Header),
		success: bold(p.Success),
		failure: bold(p.Failure),
		pending: bold(p.Pending),
		muted:   r.NewStyle().Foreground(lipgloss.Color(p.Muted)),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			Padding(1, 2),
		failureBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Failure)).
			Padding(1, 2).
			MarginTop(1),
		tableHeader: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.TableHeaderFg)).
			Background(lipgloss.Color(p.TableHeaderBg)).
			Padding(0, 1),
		tableCell:     r.NewStyle().Padding(0, 1),
		tableBorder:   r.NewStyle().Foreground(lipgloss.Color(p.Border)),
		failedBanner:  banner("#FFFFFF", p.Failure),
		pendingBanner: banner("#000000", p.Pending),
		passedBanner:  banner("#FFFFFF", p.Success),
	}
}
