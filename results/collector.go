package results

import (
	"math"
	"os"
	"sort"

	"github.com/ansel1/prettyspec/events"
)

// DefaultBacktraceLines is how many backtrace lines a FailureRecord keeps.
const DefaultBacktraceLines = 5

// Collector accumulates lifecycle events into a RunState.
//
// The Collector is the single owner of the run state. It performs no output;
// rendering reads State() after the fact. It is not safe for concurrent use:
// events are delivered one at a time, in order, by the host runner.
type Collector struct {
	state          *RunState
	workDir        string
	backtraceLines int
}

// Option configures a Collector.
type Option func(*Collector)

// WithWorkDir sets the directory relative locations are resolved against.
func WithWorkDir(dir string) Option {
	return func(c *Collector) {
		c.workDir = dir
	}
}

// WithBacktraceLines sets how many backtrace lines are kept per failure.
func WithBacktraceLines(n int) Option {
	return func(c *Collector) {
		c.backtraceLines = n
	}
}

// NewCollector creates a new result collector.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		state:          NewRunState(0),
		backtraceLines: DefaultBacktraceLines,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.workDir = wd
		}
	}
	return c
}

// Start begins a new run, discarding any previous state.
func (c *Collector) Start(totalExpected int) {
	c.state = NewRunState(totalExpected)
}

// ExampleStarted records which example is in flight.
func (c *Collector) ExampleStarted(id string) {
	c.state.CurrentExample = id
}

// Complete records a finished example. It always appends a TimingRecord and,
// for failures, a FailureRecord, which is returned as well.
//
// Negative and NaN durations are recorded as 0.
func (c *Collector) Complete(evt events.ExampleCompleted) (TimingRecord, *FailureRecord) {
	s := c.state
	s.CurrentExample = ""
	s.ExamplesSeen++

	location := NormalizeLocation(evt.Location)
	locationFull := evt.LocationFull
	if locationFull == "" {
		locationFull = AbsoluteLocation(evt.Location, c.workDir)
	}

	timing := TimingRecord{
		Description:  evt.Description,
		Location:     location,
		LocationFull: locationFull,
		Duration:     sanitizeDuration(evt.Duration),
	}
	s.Timings = append(s.Timings, timing)

	switch evt.Outcome {
	case events.Passed:
		s.Passed++
	case events.Pending:
		s.Pending++
	case events.Failed:
		s.Failed++
		s.HasFailures = true

		failure := FailureRecord{
			Description:  evt.Description,
			Location:     location,
			LocationFull: locationFull,
		}
		if evt.Failure != nil {
			failure.Message = evt.Failure.Message
			failure.Backtrace = BacktraceExcerpt(evt.Failure.Backtrace, c.backtraceLines)
		}
		s.Failures = append(s.Failures, failure)
		return timing, &failure
	default:
		// Unknown outcomes count as pending so the counter invariant holds.
		s.Pending++
	}
	return timing, nil
}

func sanitizeDuration(d float64) float64 {
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// State returns a copy of the current run state.
func (c *Collector) State() RunState {
	s := *c.state
	s.Failures = append([]FailureRecord(nil), c.state.Failures...)
	s.Timings = append([]TimingRecord(nil), c.state.Timings...)
	return s
}

// Counters returns the run state without the failure and timing records.
// It is cheap enough to call after every example.
func (c *Collector) Counters() RunState {
	s := *c.state
	s.Failures = nil
	s.Timings = nil
	return s
}

// Slowest returns up to n timings ordered by duration, longest first.
// Equal durations keep their completion order.
func (c *Collector) Slowest(n int) []TimingRecord {
	sorted := append([]TimingRecord(nil), c.state.Timings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ProgressFraction returns the fraction shown by the progress bar.
//
// When the expected count is known it is the share of examples completed,
// capped at 1. Otherwise it falls back to the share of completed examples
// that passed.
func (c *Collector) ProgressFraction() float64 {
	s := c.state
	if s.TotalExpected > 0 {
		return math.Min(float64(s.ExamplesSeen)/float64(s.TotalExpected), 1)
	}
	if s.ExamplesSeen == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.ExamplesSeen)
}
