package testing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Herwig9820/Justina-interpreter-sub002/native"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
)

// errSkip ends a test that called cb("skip").
var errSkip = errors.New("test skipped")

// TestContext collects the outcome of one test function. It is also an
// observer, so failures can name the line of the statement that reported
// them.
type TestContext struct {
	vm.NoOpObserver
	name       string
	filename   string
	source     string
	pos        int
	failed     bool
	skipped    bool
	skipReason string
	logs       []string
	failures   []AssertionError
}

// NewTestContext creates a new TestContext for a test function.
func NewTestContext(name, filename, source string) *TestContext {
	return &TestContext{name: name, filename: filename, source: source, pos: -1}
}

func (t *TestContext) Config() vm.ObserverConfig {
	return vm.ObserverConfig{ObserveStatements: true}
}

func (t *TestContext) OnStatement(e vm.StatementEvent) bool {
	t.pos = e.Pos
	return true
}

// Callbacks returns the native procedures a test calls through cb().
func (t *TestContext) Callbacks() map[string]native.Func {
	return map[string]native.Func{
		"assert":   t.assert,
		"assertEq": t.assertEq,
		"assertNe": t.assertNe,
		"fail":     t.fail,
		"skip":     t.skip,
		"log":      t.log,
	}
}

func (t *TestContext) Name() string { return t.name }
func (t *TestContext) Failed() bool { return t.failed }
func (t *TestContext) Skipped() bool { return t.skipped }
func (t *TestContext) SkipReason() string { return t.skipReason }
func (t *TestContext) Logs() []string { return t.logs }
func (t *TestContext) Failures() []AssertionError { return t.failures }

func (t *TestContext) line() int {
	if t.pos < 0 || t.pos > len(t.source) {
		return 0
	}
	return strings.Count(t.source[:t.pos], "\n") + 1
}

func message(args []*object.Value, i int, fallback string) string {
	if len(args) > i {
		return args[i].Inspect()
	}
	return fallback
}

func (t *TestContext) addFailure(msg string, got, want *object.Value) {
	t.failed = true
	f := AssertionError{Message: msg, File: t.filename, Line: t.line()}
	if got != nil {
		g := *got
		f.Got = &g
	}
	if want != nil {
		w := *want
		f.Want = &w
	}
	t.failures = append(t.failures, f)
}

func (t *TestContext) assert(args []*object.Value) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("assert: expected 1-2 arguments, got %d", len(args))
	}
	if !args[0].IsTrue() {
		t.addFailure(message(args, 1, "assertion failed"), args[0], nil)
	}
	return nil
}

func (t *TestContext) assertEq(args []*object.Value) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("assertEq: expected 2-3 arguments, got %d", len(args))
	}
	if !args[0].Equals(*args[1]) {
		t.addFailure(message(args, 2, "values are not equal"), args[0], args[1])
	}
	return nil
}

func (t *TestContext) assertNe(args []*object.Value) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("assertNe: expected 2-3 arguments, got %d", len(args))
	}
	if args[0].Equals(*args[1]) {
		t.addFailure(message(args, 2, "values should not be equal"), args[0], args[1])
	}
	return nil
}

func (t *TestContext) fail(args []*object.Value) error {
	t.addFailure(message(args, 0, "failed"), nil, nil)
	return nil
}

func (t *TestContext) skip(args []*object.Value) error {
	t.skipped = true
	t.skipReason = message(args, 0, "")
	return errSkip
}

func (t *TestContext) log(args []*object.Value) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Inspect()
	}
	t.logs = append(t.logs, strings.Join(parts, " "))
	return nil
}
