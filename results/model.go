package results

// TimingRecord captures how long a completed example took.
type TimingRecord struct {
	Description  string
	Location     string  // normalized file:line
	LocationFull string  // absolute file:line
	Duration     float64 // seconds
}

// FailureRecord captures a failed example and its exception.
type FailureRecord struct {
	Description  string
	Location     string
	LocationFull string
	Message      string
	Backtrace    string // at most BacktraceLines lines joined with "\n"
}

// RunState holds the accumulated state of a single test run.
//
// Invariants, after Start:
//   - ExamplesSeen == Passed + Failed + Pending
//   - len(Failures) == Failed
//   - len(Timings) == ExamplesSeen
//   - HasFailures never goes back to false within a run
type RunState struct {
	TotalExpected  int // advisory, from RunStart
	ExamplesSeen   int
	Passed         int
	Failed         int
	Pending        int
	HasFailures    bool
	Failures       []FailureRecord // in the order failures occurred
	Timings        []TimingRecord  // in completion order
	CurrentExample string          // id of the example in flight
}

// NewRunState creates an empty run state.
func NewRunState(totalExpected int) *RunState {
	return &RunState{
		TotalExpected: totalExpected,
		Failures:      make([]FailureRecord, 0),
		Timings:       make([]TimingRecord, 0),
	}
}
