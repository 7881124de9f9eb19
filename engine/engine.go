package engine

import (
	"bufio"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ansel1/prettyspec/events"
	"github.com/ansel1/prettyspec/parser"
)

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventRawLine   EventType = "raw"       // Non-JSON line from input
	EventLifecycle EventType = "lifecycle" // Decoded lifecycle event
	EventError     EventType = "error"     // Error occurred during processing
	EventComplete  EventType = "complete"  // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type      EventType
	RawLine   []byte       // Populated for EventRawLine
	Lifecycle events.Event // Populated for EventLifecycle
	Error     error        // Populated for EventError
}

// Format selects how input lines are decoded.
type Format string

const (
	FormatNative Format = "native" // NDJSON lifecycle notifications
	FormatGoTest Format = "gotest" // go test -json, translated to lifecycle events
)

// maxLineSize bounds a single input line. go test -json can emit long
// output lines, well past bufio's 64KiB default.
const maxLineSize = 16 * 1024 * 1024

// Engine reads raw input and broadcasts decoded events.
// It keeps no run state beyond what the go test translation needs.
type Engine struct {
	format Format
	logger *slog.Logger

	// Output writers for pass-through file writing
	rawWriter  io.Writer
	jsonWriter io.Writer
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput configures engine to write all raw lines to a file
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithJSONOutput configures engine to write parsed JSON events to a file
func WithJSONOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.jsonWriter = w
	}
}

// WithFormat sets the input format. The default is FormatNative.
func WithFormat(f Format) Option {
	return func(e *Engine) {
		e.format = f
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		format: FormatNative,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads from input, decodes lines, and emits events via channel.
// The channel is closed after the EventComplete event.
func (e *Engine) Stream(input io.Reader) <-chan Event {
	out := make(chan Event, 100) // buffered channel for better throughput

	go func() {
		defer close(out)

		var translator *GoTestTranslator
		if e.format == FormatGoTest {
			translator = NewGoTestTranslator()
		}

		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Bytes()

			// Always write raw output to file if configured
			if e.rawWriter != nil {
				e.rawWriter.Write(line)
				e.rawWriter.Write([]byte("\n"))
			}

			if translator != nil {
				e.streamGoTest(out, translator, line)
			} else {
				e.streamNative(out, line, lineNo)
			}
		}

		e.logger.Debug("input finished", "lines", lineNo, "format", e.format)

		// Check for scanner errors
		if err := scanner.Err(); err != nil {
			out <- Event{
				Type:  EventError,
				Error: errors.Wrap(err, "reading input"),
			}
		}

		if translator != nil {
			for _, evt := range translator.Finish() {
				out <- evt
			}
		}

		// Signal completion
		out <- Event{
			Type: EventComplete,
		}
	}()

	return out
}

func (e *Engine) streamNative(out chan<- Event, line []byte, lineNo int) {
	n, err := parser.ParseNotification(line)
	if errors.Is(err, parser.ErrNotNotification) {
		e.logger.Debug("passing through non-event line", "line", lineNo)
		out <- rawLine(line)
		return
	}
	if err != nil {
		e.writeJSON(line)
		out <- Event{
			Type:  EventError,
			Error: errors.Wrapf(err, "line %d", lineNo),
		}
		return
	}

	evt, err := n.Event()
	if err != nil {
		out <- Event{Type: EventError, Error: errors.Wrapf(err, "line %d", lineNo)}
		return
	}
	e.writeJSON(line)
	out <- Event{Type: EventLifecycle, Lifecycle: evt}
}

func (e *Engine) streamGoTest(out chan<- Event, translator *GoTestTranslator, line []byte) {
	testEvent, err := parser.ParseEvent(line)
	if err != nil {
		out <- rawLine(line)
		return
	}
	e.writeJSON(line)
	for _, evt := range translator.Translate(testEvent) {
		out <- evt
	}
}

func (e *Engine) writeJSON(line []byte) {
	if e.jsonWriter != nil {
		e.jsonWriter.Write(line)
		e.jsonWriter.Write([]byte("\n"))
	}
}

// rawLine copies line, since the scanner reuses its buffer.
func rawLine(line []byte) Event {
	lineCopy := make([]byte, len(line))
	copy(lineCopy, line)
	return Event{
		Type:    EventRawLine,
		RawLine: lineCopy,
	}
}
