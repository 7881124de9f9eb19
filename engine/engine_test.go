package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansel1/prettyspec/events"
	"github.com/ansel1/prettyspec/parser"
)

func collect(ch <-chan Event) []Event {
	var collected []Event
	for evt := range ch {
		collected = append(collected, evt)
	}
	return collected
}

func lifecycles(collected []Event) []events.Event {
	var out []events.Event
	for _, evt := range collected {
		if evt.Type == EventLifecycle {
			out = append(out, evt.Lifecycle)
		}
	}
	return out
}

func TestEngine_Stream_ParsesNotifications(t *testing.T) {
	input := `{"type":"start","count":2}
{"type":"example_started","id":"spec/a_spec.rb[1:1]"}
{"type":"example_passed","description":"A works","location":"./spec/a_spec.rb:3","run_time":1.5}`

	eng := NewEngine()
	collected := collect(eng.Stream(strings.NewReader(input)))

	// 3 lifecycle events + 1 complete event
	require.Len(t, collected, 4)

	assert.Equal(t, EventLifecycle, collected[0].Type)
	assert.Equal(t, events.RunStart{Count: 2}, collected[0].Lifecycle)

	assert.Equal(t, EventLifecycle, collected[1].Type)
	assert.Equal(t, events.ExampleStarted{ID: "spec/a_spec.rb[1:1]"}, collected[1].Lifecycle)

	assert.Equal(t, EventLifecycle, collected[2].Type)
	completed, ok := collected[2].Lifecycle.(events.ExampleCompleted)
	require.True(t, ok)
	assert.Equal(t, events.Passed, completed.Outcome)
	assert.Equal(t, "A works", completed.Description)
	assert.Equal(t, 1.5, completed.Duration)

	assert.Equal(t, EventComplete, collected[3].Type)
}

func TestEngine_Stream_HandlesNonJSONLines(t *testing.T) {
	input := `This is not JSON
{"type":"start","count":1}
Another non-JSON line
{"type":"stop"}`

	eng := NewEngine()
	collected := collect(eng.Stream(strings.NewReader(input)))

	// 2 raw lines + 2 lifecycle events + 1 complete
	require.Len(t, collected, 5)

	assert.Equal(t, EventRawLine, collected[0].Type)
	assert.Equal(t, "This is not JSON", string(collected[0].RawLine))

	assert.Equal(t, EventLifecycle, collected[1].Type)
	assert.Equal(t, events.RunStart{Count: 1}, collected[1].Lifecycle)

	assert.Equal(t, EventRawLine, collected[2].Type)
	assert.Equal(t, "Another non-JSON line", string(collected[2].RawLine))

	assert.Equal(t, EventLifecycle, collected[3].Type)
	assert.Equal(t, events.RunStop{}, collected[3].Lifecycle)

	assert.Equal(t, EventComplete, collected[4].Type)
}

func TestEngine_Stream_UnknownNotificationIsError(t *testing.T) {
	input := `{"type":"start","count":1}
{"type":"message","text":"hi"}
{"type":"stop"}`

	eng := NewEngine()
	collected := collect(eng.Stream(strings.NewReader(input)))

	require.Len(t, collected, 4)
	assert.Equal(t, EventLifecycle, collected[0].Type)

	assert.Equal(t, EventError, collected[1].Type)
	require.Error(t, collected[1].Error)
	assert.True(t, errors.Is(collected[1].Error, parser.ErrUnknownNotification))
	assert.Contains(t, collected[1].Error.Error(), "line 2")

	// Processing continues after the bad line
	assert.Equal(t, events.RunStop{}, collected[2].Lifecycle)
	assert.Equal(t, EventComplete, collected[3].Type)
}

func TestEngine_Stream_NumericTimeKeepsNotification(t *testing.T) {
	input := `{"type":"start","count":1,"time":1700000000}
{"type":"example_passed","description":"A works","location":"./spec/a_spec.rb:3","run_time":0.5,"time":1700000000.5}`

	collected := collect(NewEngine().Stream(strings.NewReader(input)))

	require.Len(t, collected, 3)
	for _, evt := range collected[:2] {
		assert.Equal(t, EventLifecycle, evt.Type, "got %+v", evt)
	}
	completed, ok := collected[1].Lifecycle.(events.ExampleCompleted)
	require.True(t, ok)
	assert.Equal(t, "A works", completed.Description)
	assert.Equal(t, 0.5, completed.Duration)
}

func TestEngine_Stream_MalformedNotificationIsError(t *testing.T) {
	input := `{"type":"start","count":"3"}
{"type":"stop"}`

	var jsonBuf bytes.Buffer
	collected := collect(NewEngine(WithJSONOutput(&jsonBuf)).Stream(strings.NewReader(input)))

	require.Len(t, collected, 3)
	assert.Equal(t, EventError, collected[0].Type)
	require.Error(t, collected[0].Error)
	assert.Contains(t, collected[0].Error.Error(), "line 1")
	assert.Contains(t, collected[0].Error.Error(), "decoding start notification")
	assert.False(t, errors.Is(collected[0].Error, parser.ErrNotNotification))

	assert.Equal(t, events.RunStop{}, collected[1].Lifecycle)
	assert.Equal(t, EventComplete, collected[2].Type)
	assert.Contains(t, jsonBuf.String(), `"count":"3"`)
}

func TestEngine_Stream_JSONWithoutTypeIsRaw(t *testing.T) {
	input := `{"level":"info","msg":"connected"}
null
{"type":"stop"}`

	var jsonBuf bytes.Buffer
	collected := collect(NewEngine(WithJSONOutput(&jsonBuf)).Stream(strings.NewReader(input)))

	require.Len(t, collected, 4)
	assert.Equal(t, EventRawLine, collected[0].Type)
	assert.Equal(t, `{"level":"info","msg":"connected"}`, string(collected[0].RawLine))
	assert.Equal(t, EventRawLine, collected[1].Type)
	assert.Equal(t, "null", string(collected[1].RawLine))
	assert.Equal(t, events.RunStop{}, collected[2].Lifecycle)
	assert.Equal(t, EventComplete, collected[3].Type)

	assert.Equal(t, "{\"type\":\"stop\"}\n", jsonBuf.String())
}

func TestEngine_Stream_WritesRawOutput(t *testing.T) {
	input := `This is not JSON
{"type":"start","count":1}`

	var rawBuf bytes.Buffer
	eng := NewEngine(WithRawOutput(&rawBuf))
	collect(eng.Stream(strings.NewReader(input)))

	output := rawBuf.String()
	assert.Contains(t, output, "This is not JSON\n")
	assert.Contains(t, output, `{"type":"start","count":1}`+"\n")
}

func TestEngine_Stream_WritesJSONOutput(t *testing.T) {
	input := `This is not JSON
{"type":"start","count":1}
Another non-JSON line
{"type":"stop"}`

	var jsonBuf bytes.Buffer
	eng := NewEngine(WithJSONOutput(&jsonBuf))
	collect(eng.Stream(strings.NewReader(input)))

	output := jsonBuf.String()
	assert.Equal(t, `{"type":"start","count":1}`+"\n"+`{"type":"stop"}`+"\n", output)
	assert.NotContains(t, output, "This is not JSON")
	assert.NotContains(t, output, "Another non-JSON line")
}

func TestEngine_Stream_BothRawAndJSONOutput(t *testing.T) {
	input := `Non-JSON line
{"type":"start","count":1}`

	var rawBuf, jsonBuf bytes.Buffer
	eng := NewEngine(
		WithRawOutput(&rawBuf),
		WithJSONOutput(&jsonBuf),
	)
	collect(eng.Stream(strings.NewReader(input)))

	rawOutput := rawBuf.String()
	assert.Contains(t, rawOutput, "Non-JSON line\n")
	assert.Contains(t, rawOutput, `{"type":"start"`)

	jsonOutput := jsonBuf.String()
	assert.Contains(t, jsonOutput, `{"type":"start"`)
	assert.NotContains(t, jsonOutput, "Non-JSON line")
}

func TestEngine_Stream_EmptyInput(t *testing.T) {
	for _, format := range []Format{FormatNative, FormatGoTest} {
		t.Run(string(format), func(t *testing.T) {
			eng := NewEngine(WithFormat(format))
			collected := collect(eng.Stream(strings.NewReader("")))

			// Should only have complete event
			require.Len(t, collected, 1)
			assert.Equal(t, EventComplete, collected[0].Type)
		})
	}
}

func TestEngine_Stream_PreservesEventOrder(t *testing.T) {
	input := `{"type":"example_started","id":"1"}
{"type":"example_started","id":"2"}
{"type":"example_started","id":"3"}`

	eng := NewEngine()

	var ids []string
	for _, evt := range lifecycles(collect(eng.Stream(strings.NewReader(input)))) {
		ids = append(ids, evt.(events.ExampleStarted).ID)
	}

	require.Equal(t, []string{"1", "2", "3"}, ids)
}

// errReader simulates a reader that returns an error
type errReader struct{}

func (e errReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("simulated read error")
}

func TestEngine_Stream_HandlesReadError(t *testing.T) {
	eng := NewEngine()
	collected := collect(eng.Stream(errReader{}))

	// Should have error event and complete event
	require.Len(t, collected, 2)
	assert.Equal(t, EventError, collected[0].Type)
	assert.ErrorContains(t, collected[0].Error, "simulated read error")
	assert.Equal(t, EventComplete, collected[1].Type)
}

func TestEngine_Stream_CopiesLineBuffer(t *testing.T) {
	// Scanner reuses its internal buffer, so raw lines must be copied
	input := `line1
line2
line3`

	eng := NewEngine()

	var rawLines [][]byte
	for _, evt := range collect(eng.Stream(strings.NewReader(input))) {
		if evt.Type == EventRawLine {
			rawLines = append(rawLines, evt.RawLine)
		}
	}

	require.Len(t, rawLines, 3)
	assert.Equal(t, "line1", string(rawLines[0]))
	assert.Equal(t, "line2", string(rawLines[1]))
	assert.Equal(t, "line3", string(rawLines[2]))
}

func TestEngine_Stream_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)

	eng := NewEngine()
	collected := collect(eng.Stream(strings.NewReader(long + "\nshort")))

	require.Len(t, collected, 3)
	assert.Equal(t, EventRawLine, collected[0].Type)
	assert.Len(t, collected[0].RawLine, len(long))
	assert.Equal(t, "short", string(collected[1].RawLine))
}

func TestEngine_Stream_GoTestFormat(t *testing.T) {
	input := `{"Time":"2024-01-01T10:00:00Z","Action":"start","Package":"example.com/mypackage"}
{"Time":"2024-01-01T10:00:00.1Z","Action":"run","Package":"example.com/mypackage","Test":"TestExample"}
{"Time":"2024-01-01T10:00:00.2Z","Action":"output","Package":"example.com/mypackage","Test":"TestExample","Output":"=== RUN   TestExample\n"}
{"Time":"2024-01-01T10:00:00.3Z","Action":"output","Package":"example.com/mypackage","Test":"TestExample","Output":"--- PASS: TestExample (0.10s)\n"}
{"Time":"2024-01-01T10:00:00.4Z","Action":"pass","Package":"example.com/mypackage","Test":"TestExample","Elapsed":0.1}
{"Time":"2024-01-01T10:00:00.5Z","Action":"output","Package":"example.com/mypackage","Output":"PASS\n"}
{"Time":"2024-01-01T10:00:02Z","Action":"pass","Package":"example.com/mypackage","Elapsed":2}`

	var jsonBuf bytes.Buffer
	eng := NewEngine(WithFormat(FormatGoTest), WithJSONOutput(&jsonBuf))
	collected := collect(eng.Stream(strings.NewReader(input)))

	got := lifecycles(collected)
	require.Len(t, got, 5)
	assert.Equal(t, events.RunStart{}, got[0])
	assert.Equal(t, events.ExampleStarted{ID: "TestExample (mypackage)"}, got[1])
	assert.Equal(t, events.ExampleCompleted{
		Outcome:     events.Passed,
		Description: "TestExample (mypackage)",
		Location:    "example.com/mypackage",
		Duration:    0.1,
	}, got[2])
	assert.Equal(t, events.RunStop{}, got[3])
	assert.Equal(t, events.SummaryReady{Duration: 2}, got[4])

	assert.Equal(t, EventComplete, collected[len(collected)-1].Type)
	assert.Equal(t, 7, strings.Count(jsonBuf.String(), "\n"))
}

func TestEngine_Stream_GoTestRawLines(t *testing.T) {
	input := `# example.com/broken
{"Action":"build-output","ImportPath":"example.com/broken","Output":"broken.go:3:1: syntax error\n"}`

	eng := NewEngine(WithFormat(FormatGoTest))
	collected := collect(eng.Stream(strings.NewReader(input)))

	var raw []string
	for _, evt := range collected {
		if evt.Type == EventRawLine {
			raw = append(raw, string(evt.RawLine))
		}
	}
	assert.Equal(t, []string{"# example.com/broken", "broken.go:3:1: syntax error"}, raw)
}
