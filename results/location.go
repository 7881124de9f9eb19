package results

import (
	"path/filepath"
	"strings"
)

// NormalizeLocation strips a single leading "./" from a location.
func NormalizeLocation(location string) string {
	return strings.TrimPrefix(location, "./")
}

// AbsoluteLocation turns "file:line" into "/abs/file:line", resolving relative
// files against base. The line part is everything after the last colon. A
// location without a colon is resolved as a bare file.
func AbsoluteLocation(location, base string) string {
	file, line := location, ""
	if i := strings.LastIndex(location, ":"); i >= 0 {
		file, line = location[:i], location[i+1:]
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(base, file)
	}
	file = filepath.Clean(file)
	if line == "" {
		return file
	}
	return file + ":" + line
}

// BacktraceExcerpt joins the first n backtrace lines with newlines.
// A nil or empty backtrace yields "".
func BacktraceExcerpt(backtrace []string, n int) string {
	if len(backtrace) == 0 || n <= 0 {
		return ""
	}
	if len(backtrace) > n {
		backtrace = backtrace[:n]
	}
	return strings.Join(backtrace, "\n")
}
