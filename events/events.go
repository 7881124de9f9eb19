package events

// Outcome is the terminal result of a single example.
type Outcome int

const (
	Passed  Outcome = iota // Example ran and passed
	Failed                 // Example ran and failed
	Pending                // Example was skipped or not yet implemented
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification from the host test runner.
//
// The set of implementations is closed: RunStart, ExampleStarted,
// ExampleCompleted, RunStop and SummaryReady. Consumers type-switch on it.
type Event interface {
	isEvent()
}

// RunStart marks the beginning of a run. Count is advisory.
type RunStart struct {
	Count int
}

// ExampleStarted marks an example going in flight.
type ExampleStarted struct {
	ID string
}

// FailureDetail carries the exception attached to a failed example.
type FailureDetail struct {
	Message   string
	Backtrace []string
}

// ExampleCompleted reports the outcome of one example.
type ExampleCompleted struct {
	Outcome     Outcome
	Description string
	Location    string // file:line as reported by the host, possibly "./" prefixed
	// LocationFull is the absolute file:line. Derived from Location when empty.
	LocationFull string
	Duration     float64 // seconds
	Failure      *FailureDetail
}

// RunStop marks the end of the live progress phase.
type RunStop struct{}

// SummaryReady carries the host's authoritative final tally.
type SummaryReady struct {
	Duration     float64 // seconds
	FailedCount  int
	PendingCount int
}

func (RunStart) isEvent()         {}
func (ExampleStarted) isEvent()   {}
func (ExampleCompleted) isEvent() {}
func (RunStop) isEvent()          {}
func (SummaryReady) isEvent()     {}
