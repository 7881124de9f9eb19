package format

import "strings"

// Truncate shortens s to max characters, ending in "..." when cut.
// A truncated result is always exactly max characters long. For max below 3
// there is no room for the ellipsis and s is simply cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 3 {
		if max < 0 {
			max = 0
		}
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// FirstLines returns at most the first n lines of s.
func FirstLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// FileLink wraps display in an OSC 8 terminal hyperlink to file://full.
// An empty display shows full itself.
func FileLink(full, display string) string {
	if display == "" {
		display = full
	}
	return "\x1b]8;;file://" + full + "\a" + display + "\x1b]8;;\a"
}
