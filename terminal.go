package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/ansel1/prettyspec/config"
)

// minProgressWidth keeps the bar readable on very narrow terminals.
const minProgressWidth = 10

// progressTextWidth is roughly what the counts after the bar take up.
const progressTextWidth = 45

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// terminalWidth reports the width of the terminal behind w.
var terminalWidth = defaultTerminalWidth

// uiDecision captures which view renders the run.
type uiDecision struct {
	useTUI  bool
	warning string
}

// resolveUIMode picks the live TUI or the inline progress line.
func resolveUIMode(mode string, stdout io.Writer) uiDecision {
	switch mode {
	case config.UITUI:
		if isTerminal(stdout) {
			return uiDecision{useTUI: true}
		}
		return uiDecision{warning: "tui requested but stdout is not a terminal, falling back to inline output"}
	case config.UIAuto:
		return uiDecision{useTUI: isTerminal(stdout)}
	default:
		return uiDecision{}
	}
}

// colorEnabled reports whether styled output should be written to w.
func colorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// fitProgressWidth shrinks the bar so the progress line fits on one row.
func fitProgressWidth(configured int, stdout io.Writer) int {
	cols, ok := terminalWidth(stdout)
	if !ok {
		return configured
	}
	available := cols - progressTextWidth
	if available < minProgressWidth {
		available = minProgressWidth
	}
	if configured > available {
		return available
	}
	return configured
}

func defaultIsTerminal(w io.Writer) bool {
	if fder, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

func defaultTerminalWidth(w io.Writer) (int, bool) {
	fder, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(fder.Fd())) {
		return 0, false
	}
	cols, _, err := term.GetSize(int(fder.Fd()))
	if err != nil || cols <= 0 {
		return 0, false
	}
	return cols, true
}
