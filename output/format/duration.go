package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatDuration formats a duration in seconds for display.
//
//	< 1ms      microseconds, e.g. "512.5µs"
//	< 1s       milliseconds, e.g. "500.0ms"
//	< 60s      seconds,      e.g. "5.5s"
//	otherwise  minutes and seconds, e.g. "2m 5.5s"
//
// Values are rounded to two decimals and always show at least one.
func FormatDuration(seconds float64) string {
	switch {
	case seconds < 0.001:
		return decimal(seconds*1_000_000) + "µs"
	case seconds < 1:
		return decimal(seconds*1000) + "ms"
	case seconds < 60:
		return decimal(seconds) + "s"
	default:
		minutes := math.Floor(seconds / 60)
		secs := math.Mod(seconds, 60)
		return fmt.Sprintf("%dm %ss", int64(minutes), decimal(secs))
	}
}

// decimal rounds v to two places and prints the shortest form that keeps a
// decimal point: 5.5 -> "5.5", 2 -> "2.0", 1.234 -> "1.23".
func decimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
