package parser

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/ansel1/prettyspec/events"
)

// Notification types understood on the native stream.
const (
	TypeStart          = "start"
	TypeExampleStarted = "example_started"
	TypeExamplePassed  = "example_passed"
	TypeExampleFailed  = "example_failed"
	TypeExamplePending = "example_pending"
	TypeStop           = "stop"
	TypeDumpSummary    = "dump_summary"
)

// ErrUnknownNotification is returned for well-formed JSON whose type is not
// part of the notification protocol.
var ErrUnknownNotification = errors.New("unknown notification")

// ErrNotNotification is returned for lines that are not JSON objects with a
// "type" key. Such lines belong to the program under test, not the protocol.
var ErrNotNotification = errors.New("not a notification")

// Timestamp is the optional "time" of a line. It accepts RFC 3339 strings
// and Unix seconds; anything else decodes to the zero time.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			ts.Time = t
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return nil
		}
		whole, frac := math.Modf(secs)
		ts.Time = time.Unix(int64(whole), int64(math.Round(frac*1e9)))
	}
	return nil
}

// Exception is the failure payload of an example_failed notification.
type Exception struct {
	Message   string   `json:"message"`
	Backtrace []string `json:"backtrace,omitempty"`
}

// Notification is one line of the native NDJSON notification stream.
//
// Fields are a union over all notification types; which ones are meaningful
// depends on Type.
type Notification struct {
	Type string    `json:"type"`
	Time Timestamp `json:"time"`

	// start
	Count int `json:"count,omitempty"`

	// example_started
	ID string `json:"id,omitempty"`

	// example_passed, example_failed, example_pending
	Description  string     `json:"description,omitempty"`
	Location     string     `json:"location,omitempty"`
	LocationFull string     `json:"location_full,omitempty"`
	RunTime      float64    `json:"run_time,omitempty"`
	Exception    *Exception `json:"exception,omitempty"`

	// dump_summary
	Duration     float64 `json:"duration,omitempty"`
	FailureCount int     `json:"failure_count,omitempty"`
	PendingCount int     `json:"pending_count,omitempty"`
}

// ParseNotification decodes a single line of the native stream.
//
// A line that is not a JSON object with a string "type" returns an error
// wrapping ErrNotNotification, so callers can treat it as raw output. An
// unrecognized type returns an error wrapping ErrUnknownNotification. A
// known type whose fields do not decode returns the decoding error.
func ParseNotification(line []byte) (Notification, error) {
	var n Notification

	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return n, errors.Wrapf(ErrNotNotification, "%v", err)
	}
	if head.Type == nil {
		return n, errors.Wrap(ErrNotNotification, "no type")
	}
	if !knownType(*head.Type) {
		n.Type = *head.Type
		return n, errors.Wrapf(ErrUnknownNotification, "type %q", n.Type)
	}
	if err := json.Unmarshal(line, &n); err != nil {
		return n, errors.Wrapf(err, "decoding %s notification", *head.Type)
	}
	return n, nil
}

func knownType(t string) bool {
	switch t {
	case TypeStart, TypeExampleStarted, TypeExamplePassed, TypeExampleFailed,
		TypeExamplePending, TypeStop, TypeDumpSummary:
		return true
	}
	return false
}

// Event converts the notification into a typed lifecycle event.
func (n Notification) Event() (events.Event, error) {
	switch n.Type {
	case TypeStart:
		return events.RunStart{Count: n.Count}, nil
	case TypeExampleStarted:
		return events.ExampleStarted{ID: n.ID}, nil
	case TypeExamplePassed:
		return n.completed(events.Passed), nil
	case TypeExampleFailed:
		return n.completed(events.Failed), nil
	case TypeExamplePending:
		return n.completed(events.Pending), nil
	case TypeStop:
		return events.RunStop{}, nil
	case TypeDumpSummary:
		return events.SummaryReady{
			Duration:     n.Duration,
			FailedCount:  n.FailureCount,
			PendingCount: n.PendingCount,
		}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownNotification, "type %q", n.Type)
	}
}

func (n Notification) completed(outcome events.Outcome) events.ExampleCompleted {
	evt := events.ExampleCompleted{
		Outcome:      outcome,
		Description:  n.Description,
		Location:     n.Location,
		LocationFull: n.LocationFull,
		Duration:     n.RunTime,
	}
	if outcome == events.Failed && n.Exception != nil {
		evt.Failure = &events.FailureDetail{
			Message:   n.Exception.Message,
			Backtrace: n.Exception.Backtrace,
		}
	}
	return evt
}
