package engine

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/ansel1/prettyspec/events"
	"github.com/ansel1/prettyspec/parser"
)

// Actions found in go test -json output.
const (
	actionStart       = "start"
	actionRun         = "run"
	actionOutput      = "output"
	actionPass        = "pass"
	actionFail        = "fail"
	actionSkip        = "skip"
	actionBuildOutput = "build-output"
)

// sourceRef matches the file:line prefix the testing package puts on
// t.Log and t.Error output.
var sourceRef = regexp.MustCompile(`([\w./-]+\.go:\d+)`)

// testRun buffers what is known about a test between run and its result.
type testRun struct {
	name        string
	output      []string
	refs        []string
	subtests    bool
	childFailed bool
}

// GoTestTranslator converts go test -json events into lifecycle events.
//
// Each leaf test becomes one example. A parent test with subtests is only
// reported when it fails and none of its subtests did, so the failure is not
// lost.
type GoTestTranslator struct {
	started  bool
	finished bool
	first    time.Time
	last     time.Time

	tests   map[string]*testRun
	failed  int
	pending int
}

// NewGoTestTranslator creates a translator for a single run.
func NewGoTestTranslator() *GoTestTranslator {
	return &GoTestTranslator{
		tests: make(map[string]*testRun),
	}
}

// Translate converts one go test event into zero or more engine events.
func (t *GoTestTranslator) Translate(ev parser.TestEvent) []Event {
	var out []Event

	if !ev.Time.IsZero() {
		if t.first.IsZero() {
			t.first = ev.Time
		}
		t.last = ev.Time
	}

	if !t.started {
		t.started = true
		out = append(out, lifecycle(events.RunStart{}))
	}

	if ev.Test == "" {
		return append(out, t.packageEvent(ev)...)
	}

	key := testKey(ev.Package, ev.Test)
	switch ev.Action {
	case actionRun:
		if parent, ok := t.tests[parentKey(ev.Package, ev.Test)]; ok {
			parent.subtests = true
		}
		run := &testRun{name: describe(ev.Package, ev.Test)}
		t.tests[key] = run
		out = append(out, lifecycle(events.ExampleStarted{ID: run.name}))

	case actionOutput:
		run := t.lookup(ev.Package, ev.Test)
		line := strings.TrimRight(ev.Output, "\r\n")
		if isFraming(line) {
			break
		}
		run.output = append(run.output, line)
		if ref := sourceRef.FindString(line); ref != "" {
			run.refs = append(run.refs, ref)
		}

	case actionPass, actionFail, actionSkip:
		run := t.lookup(ev.Package, ev.Test)
		delete(t.tests, key)

		if ev.Action == actionFail {
			t.markAncestors(ev.Package, ev.Test)
		}
		if run.subtests && !(ev.Action == actionFail && !run.childFailed) {
			break
		}
		out = append(out, lifecycle(t.complete(ev, run)))
	}

	return out
}

// Finish closes the run. It returns nothing if no event was translated, and
// nothing on repeated calls.
func (t *GoTestTranslator) Finish() []Event {
	if !t.started || t.finished {
		return nil
	}
	t.finished = true

	var duration float64
	if !t.first.IsZero() {
		duration = t.last.Sub(t.first).Seconds()
	}
	return []Event{
		lifecycle(events.RunStop{}),
		lifecycle(events.SummaryReady{
			Duration:     duration,
			FailedCount:  t.failed,
			PendingCount: t.pending,
		}),
	}
}

// packageEvent passes package level output through as raw lines, minus the
// PASS/FAIL/ok trailer go test prints for every package.
func (t *GoTestTranslator) packageEvent(ev parser.TestEvent) []Event {
	if ev.Action != actionOutput && ev.Action != actionBuildOutput {
		return nil
	}
	line := strings.TrimRight(ev.Output, "\r\n")
	if isPackageTrailer(line) {
		return nil
	}
	return []Event{{Type: EventRawLine, RawLine: []byte(line)}}
}

func (t *GoTestTranslator) complete(ev parser.TestEvent, run *testRun) events.ExampleCompleted {
	location := path.Clean(ev.Package)
	if len(run.refs) > 0 {
		location = run.refs[0]
	}

	evt := events.ExampleCompleted{
		Outcome:     events.Passed,
		Description: run.name,
		Location:    location,
		Duration:    ev.Elapsed,
	}

	switch ev.Action {
	case actionFail:
		t.failed++
		evt.Outcome = events.Failed
		evt.Failure = &events.FailureDetail{
			Message:   failureMessage(run.output),
			Backtrace: run.refs,
		}
	case actionSkip:
		t.pending++
		evt.Outcome = events.Pending
	}
	return evt
}

// lookup returns the buffered run for a test, creating one when the run
// action was never seen.
func (t *GoTestTranslator) lookup(pkg, test string) *testRun {
	key := testKey(pkg, test)
	run, ok := t.tests[key]
	if !ok {
		run = &testRun{name: describe(pkg, test)}
		t.tests[key] = run
	}
	return run
}

func (t *GoTestTranslator) markAncestors(pkg, test string) {
	for {
		i := strings.LastIndex(test, "/")
		if i < 0 {
			return
		}
		test = test[:i]
		if parent, ok := t.tests[testKey(pkg, test)]; ok {
			parent.childFailed = true
		}
	}
}

func lifecycle(evt events.Event) Event {
	return Event{Type: EventLifecycle, Lifecycle: evt}
}

func testKey(pkg, test string) string {
	return pkg + "\x00" + test
}

func parentKey(pkg, test string) string {
	i := strings.LastIndex(test, "/")
	if i < 0 {
		return ""
	}
	return testKey(pkg, test[:i])
}

// describe names a test the way the report shows it: "TestFoo (pkg)".
func describe(pkg, test string) string {
	if pkg == "" {
		return test
	}
	return test + " (" + path.Base(pkg) + ")"
}

func failureMessage(lines []string) string {
	var kept []string
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "test failed"
	}
	return strings.Join(kept, "\n")
}

func isFraming(line string) bool {
	s := strings.TrimSpace(line)
	return strings.HasPrefix(s, "=== ") || strings.HasPrefix(s, "--- ")
}

func isPackageTrailer(line string) bool {
	switch {
	case line == "PASS", line == "FAIL":
		return true
	case strings.HasPrefix(line, "ok  \t"), strings.HasPrefix(line, "FAIL\t"), strings.HasPrefix(line, "?   \t"):
		return true
	}
	return false
}
