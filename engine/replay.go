package engine

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/ansel1/prettyspec/parser"
)

// stamped is one recorded input line and the time it was emitted.
type stamped struct {
	line []byte
	at   time.Time
}

// ReplayReader wraps an io.Reader and replays its content line by line,
// sleeping between lines for the gap between their timestamps.
//
// Timestamps come from the "time" field of native notifications or the
// "Time" field of go test events. Lines without one inherit the previous
// line's timestamp and play back immediately.
type ReplayReader struct {
	lines []stamped
	rate  float64
	sleep func(time.Duration)

	next    int
	pending []byte
	last    time.Time
}

// NewReplayReader reads all of r and returns a reader that plays it back.
// Delays are multiplied by rate; a rate of 0 disables them.
func NewReplayReader(r io.Reader, rate float64) (*ReplayReader, error) {
	if rate < 0 {
		return nil, errors.Errorf("replay rate must be >= 0, got %v", rate)
	}

	var lines []stamped
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())

		at := lineTime(line)
		if at.IsZero() && len(lines) > 0 {
			at = lines[len(lines)-1].at
		}
		lines = append(lines, stamped{line: line, at: at})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading replay input")
	}

	return &ReplayReader{
		lines: lines,
		rate:  rate,
		sleep: time.Sleep,
	}, nil
}

// lineTime extracts the timestamp of a JSON line, or the zero time.
// encoding/json matches keys case-insensitively, so one field covers both
// "time" and "Time".
func lineTime(line []byte) time.Time {
	var v struct {
		Time parser.Timestamp `json:"time"`
	}
	if err := json.Unmarshal(line, &v); err != nil {
		return time.Time{}
	}
	return v.Time.Time
}

// Read implements io.Reader. Each line is released in full, newline
// included, before the next delay starts.
func (r *ReplayReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.next >= len(r.lines) {
			return 0, io.EOF
		}
		current := r.lines[r.next]
		r.next++

		r.wait(current.at)
		r.pending = append(append(make([]byte, 0, len(current.line)+1), current.line...), '\n')
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *ReplayReader) wait(at time.Time) {
	if at.IsZero() {
		return
	}
	if !r.last.IsZero() && r.rate > 0 {
		if gap := at.Sub(r.last); gap > 0 {
			r.sleep(time.Duration(float64(gap) * r.rate))
		}
	}
	r.last = at
}
