package vm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/native"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	input    string
	expected object.Value
}

func newMachine(t *testing.T, program string, options ...Option) (*Machine, *console.Buffer) {
	t.Helper()
	buf := console.NewBuffer("")
	m := New(append([]Option{WithConsole(buf)}, options...)...)
	if program != "" {
		require.Nil(t, m.LoadProgram(context.Background(), program))
	}
	return m, buf
}

func exec(t *testing.T, m *Machine, line string) object.Value {
	t.Helper()
	v, err := m.Exec(context.Background(), line)
	require.Nil(t, err)
	return v
}

func runTests(t *testing.T, tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, _ := newMachine(t, "")
			require.Equal(t, tt.expected, exec(t, m, tt.input))
			require.Equal(t, 0, m.StackDepth())
			require.Equal(t, 0, m.Tracker().Errors())
		})
	}
}

func TestPrecedence(t *testing.T) {
	runTests(t, []testCase{
		{"3+5*7", object.NewLong(38)},
		{"(3+5)*7", object.NewLong(56)},
		{"-2 * 3", object.NewLong(-6)},
		{"-2 ** 2", object.NewFloat(-4)},
		{"2 ** 3 ** 2", object.NewFloat(512)},
		{"7 / 2", object.NewLong(3)},
		{"7 / 2.0", object.NewFloat(3.5)},
		{"7 % 3", object.NewLong(1)},
		{"1 << 4 | 1", object.NewLong(17)},
		{"~0", object.NewLong(-1)},
		{"!5", object.NewLong(0)},
		{"3 > 2 && 2 > 3", object.NewLong(0)},
		{"3 > 2 || 2 > 3", object.NewLong(1)},
		{`"ab" + "cd"`, object.NewString("abcd")},
		{"1 == 1.0", object.NewLong(1)},
	})
}

func TestAssignments(t *testing.T) {
	runTests(t, []testCase{
		{"x = 4; x += 3; x", object.NewLong(7)},
		{"x = y = 3; x + y", object.NewLong(6)},
		{"x = 10; x %= 4; x", object.NewLong(2)},
		{"x = 1; x <<= 3; x", object.NewLong(8)},
		{"x = 5; y = x++; y * 10 + x", object.NewLong(56)},
		{"x = 5; y = ++x; y * 10 + x", object.NewLong(66)},
		{"x = 5; x--; x", object.NewLong(4)},
		{`s = "a"; s += "b"; s`, object.NewString("ab")},
		{"x = 1; x = 2.5; x", object.NewFloat(2.5)},
	})
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		input string
		want  errz.Code
	}{
		{"1 / 0", errz.ErrDivByZero},
		{"1.0 / 0", errz.ErrDivByZero},
		{"5 % 0", errz.ErrDivByZero},
		{"7 % 2.0", errz.ErrIntegerExpected},
		{"1 << 32", errz.ErrShiftRange},
		{`"a" + 1`, errz.ErrIncompatibleTypes},
		{`"a" * "b"`, errz.ErrNumberExpected},
		{`"a" == "b"`, errz.ErrNumberExpected},
		{`"abc" < "abd"`, errz.ErrNumberExpected},
		{`"a" != 1`, errz.ErrIncompatibleTypes},
		{"2147483647 + 1", errz.ErrOverflow},
		{"sqrt(-1)", errz.ErrUndefinedResult},
		{"const c = 1; c = 2", errz.ErrAssignToConstant},
		{"var a(3); a(4)", errz.ErrArrayBounds},
		{"var a(3); a(1.5)", errz.ErrSubscriptNotInteger},
		{`var a(3); a(1) = "x"`, errz.ErrArrayTypeMismatch},
		{"var a(3); a + 1", errz.ErrScalarExpected},
		{"mid(\"abc\", 0)", errz.ErrArgRange},
		{"last()", errz.ErrArgRange},
		{"abort", errz.ErrNoProgramStopped},
		{"go", errz.ErrNoProgramStopped},
		{`cb("nothing")`, errz.ErrUnknownCallback},
		{`for i, 1, 3; i = "x"; end`, errz.ErrControlVarType},
		{"for f, 1, 3; f = 1.5; end", errz.ErrControlVarType},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, _ := newMachine(t, "")
			_, err := m.Exec(context.Background(), tt.input)
			require.Equal(t, tt.want, errz.CodeOf(err))
			require.Equal(t, 0, m.StackDepth())
			require.Equal(t, 0, m.FlowDepth())
			require.Equal(t, 0, m.Tracker().Errors())
		})
	}
}

func TestDivisionByZeroReport(t *testing.T) {
	m, _ := newMachine(t, "")
	exec(t, m, `s = "keep"`)
	before := m.Tracker().Snapshot()

	_, err := m.Exec(context.Background(), "5/0")
	require.True(t, errz.Is(err, errz.ErrDivByZero))
	line, col, text := err.(*errz.Error).Location()
	require.Equal(t, 1, line)
	require.Equal(t, 2, col)
	require.Equal(t, "5/0", text)

	out := errz.NewFormatter(false).Format(err)
	require.Contains(t, out, "   | 5/0\n")
	require.Contains(t, out, "   |  ^\n")
	require.Equal(t, before, m.Tracker().Snapshot())
	require.Equal(t, 0, m.StackDepth())
}

func TestEmptyStringNeverAllocates(t *testing.T) {
	m, _ := newMachine(t, "")
	exec(t, m, `e = ""`)
	require.Equal(t, 0, m.Tracker().Count(tracker.UserStrings))
	require.Equal(t, object.NewLong(0), exec(t, m, "len(e)"))
	exec(t, m, `e = "x"`)
	require.Equal(t, 1, m.Tracker().Count(tracker.UserStrings))
	exec(t, m, `e = ""`)
	require.Equal(t, 0, m.Tracker().Count(tracker.UserStrings))
}

func TestStringsAreClipped(t *testing.T) {
	m, _ := newMachine(t, "")
	require.Equal(t, object.NewLong(object.MaxStringLength), exec(t, m, `s = repeat("ab", 200); len(s)`))
	require.Equal(t, object.NewLong(object.MaxStringLength), exec(t, m, `s = s + s; len(s)`))
}

func TestArrays(t *testing.T) {
	m, _ := newMachine(t, "")
	require.Equal(t, object.NewFloat(7), exec(t, m, "var a(3); a(2) = 7; a(2)"))
	require.Equal(t, object.NewFloat(0), exec(t, m, "a(1)"))
	_, err := m.Exec(context.Background(), "a(4)")
	require.True(t, errz.Is(err, errz.ErrArrayBounds))

	require.Equal(t, object.NewLong(9), exec(t, m, "var g(2, 3) = 0; g(2, 3) = 9; g(2, 3)"))
	require.Equal(t, object.NewLong(2), exec(t, m, "dims(g)"))
	require.Equal(t, object.NewLong(3), exec(t, m, "ubound(g, 2)"))
	require.Equal(t, object.NewLong(int32(object.LONG)), exec(t, m, "type(g)"))
	require.Equal(t, 2, m.Tracker().Count(tracker.UserArrays))
}

func TestStackDepthAfterStatements(t *testing.T) {
	m, _ := newMachine(t, "")
	for _, line := range []string{"1 + 2", "x = 3; x * 2; x", "if x; x = 1; end", "for i, 1, 2; x = x + i; end"} {
		exec(t, m, line)
		require.Equal(t, 0, m.StackDepth(), line)
		require.Equal(t, 0, m.FlowDepth(), line)
	}
}

func TestPrintAndWrite(t *testing.T) {
	m, buf := newMachine(t, "")
	exec(t, m, `print "a", 1, 2.5; write "b"; write "c"`)
	require.Equal(t, "a 1 2.5\nbc", buf.Output())
}

func TestPrintResults(t *testing.T) {
	m, buf := newMachine(t, "", WithPrintResults(true))
	exec(t, m, `"hi"`)
	exec(t, m, "x = 2")
	require.Equal(t, "\"hi\"\n2\n", buf.Output())
}

func TestForLoop(t *testing.T) {
	m, buf := newMachine(t, "")
	exec(t, m, "for i, 1, 3; print i; end")
	require.Equal(t, "1\n2\n3\n", buf.Output())
	require.Equal(t, object.NewLong(4), exec(t, m, "i"))

	buf.ResetOutput()
	exec(t, m, "for i, 3, 1, -1; print i; end")
	require.Equal(t, "3\n2\n1\n", buf.Output())

	buf.ResetOutput()
	exec(t, m, "for i, 5, 1; print i; end")
	require.Equal(t, "", buf.Output())

	buf.ResetOutput()
	exec(t, m, "for f, 0, 1, 0.5; print f; end")
	require.Equal(t, "0.0\n0.5\n1.0\n", buf.Output())
}

func TestIfChains(t *testing.T) {
	m, buf := newMachine(t, "")
	for _, x := range []string{"1", "2", "3"} {
		exec(t, m, "x = "+x)
		exec(t, m, `if x == 1; print "one"; elseif x == 2; print "two"; else; print "many"; end`)
	}
	require.Equal(t, "one\ntwo\nmany\n", buf.Output())
}

const loopsProgram = `
program loops;
var out = "";
function breakInner();
  local w = 0, i;
  while w < 2;
    w++;
    for i, 1, 5;
      if i == 3; break; end;
      out = out + str(i);
    end;
    out = out + "|";
  end;
  return w;
end;
function odd();
  local i;
  for i, 1, 5;
    if i % 2 == 0; continue; end;
    out = out + str(i);
  end;
end;
`

func TestBreakLeavesInnermostLoop(t *testing.T) {
	m, _ := newMachine(t, loopsProgram)
	require.Equal(t, object.NewLong(2), exec(t, m, "breakInner()"))
	require.Equal(t, object.NewString("12|12|"), exec(t, m, "out"))
	require.Equal(t, object.NewLong(0), exec(t, m, `out = ""; odd()`))
	require.Equal(t, object.NewString("135"), exec(t, m, "out"))
	require.Equal(t, 0, m.FlowDepth())
}

const callsProgram = `
program calls;
function rep(n, s);
  local t = "x";
  if n <= 0; return s; end;
  return rep(n - 1, s + "a");
end;
function inc(v);
  v = v + 1;
end;
function fill(a(), x = 9);
  a(1) = x;
end;
function bad();
  return 1 / 0;
end;
function caller();
  return bad();
end;
`

func TestRecursionRestoresCounters(t *testing.T) {
	m, _ := newMachine(t, callsProgram)
	before := m.Tracker().Snapshot()
	v := exec(t, m, `rep(50, "")`)
	require.Equal(t, strings.Repeat("a", 50), v.S)
	after := m.Tracker().Snapshot()
	after[tracker.LastValueStrings]--
	require.Equal(t, before, after)
	require.Equal(t, 0, m.Tracker().Errors())
	require.Equal(t, 0, m.FlowDepth())
}

func TestArgumentsByReference(t *testing.T) {
	m, _ := newMachine(t, callsProgram)
	require.Equal(t, object.NewLong(6), exec(t, m, "n = 5; inc(n); n"))
	require.Equal(t, object.NewLong(0), exec(t, m, "inc(5)"))
	require.Equal(t, object.NewFloat(9), exec(t, m, "var arr(2); fill(arr); arr(1)"))
	require.Equal(t, object.NewFloat(3), exec(t, m, "fill(arr, 3); arr(1)"))
	_, err := m.Exec(context.Background(), "fill(n)")
	require.True(t, errz.Is(err, errz.ErrArrayExpected))
}

func TestErrorInsideFunction(t *testing.T) {
	m, _ := newMachine(t, callsProgram)
	_, err := m.Exec(context.Background(), "x = 1 + caller()")
	require.True(t, errz.Is(err, errz.ErrDivByZero))
	e := err.(*errz.Error)
	require.Equal(t, "bad", e.Origin)
	require.Equal(t, []string{"caller", "immediate"}, e.Stack)
	_, _, text := e.Location()
	require.Equal(t, "  return 1 / 0;", text)
	require.Equal(t, 0, m.FlowDepth())
	require.Equal(t, 0, m.StackDepth())
	require.Equal(t, 0, m.Tracker().Errors())
}

func TestEval(t *testing.T) {
	runTests(t, []testCase{
		{`eval("2+3")`, object.NewLong(5)},
		{`10 * eval("2+3")`, object.NewLong(50)},
		{`1 + eval("2 * eval(\"3 + 4\")")`, object.NewLong(15)},
		{`x = 4; eval("x * x")`, object.NewLong(16)},
		{`x = 3; eval("x = x + 1"); x`, object.NewLong(4)},
		{`eval("1; 2")`, object.NewLong(2)},
	})

	m, _ := newMachine(t, "")
	_, err := m.Exec(context.Background(), `eval("1 +")`)
	require.True(t, errz.Is(err, errz.ErrEvalParse))
	_, err = m.Exec(context.Background(), `eval("print 1")`)
	require.True(t, errz.Is(err, errz.ErrEvalParse))
	require.Equal(t, 0, m.FlowDepth())
}

func TestEvalDepthLimit(t *testing.T) {
	m, _ := newMachine(t, "", WithMaxEvalDepth(1))
	_, err := m.Exec(context.Background(), `eval("eval(\"1\")")`)
	require.True(t, errz.Is(err, errz.ErrFlowStackOverflow))
	require.Equal(t, 0, m.FlowDepth())
}

func TestStackOverflow(t *testing.T) {
	m, _ := newMachine(t, "function f(n); return f(n + 1); end;", WithMaxFlowDepth(20))
	_, err := m.Exec(context.Background(), "f(0)")
	require.True(t, errz.Is(err, errz.ErrFlowStackOverflow))
	require.Equal(t, 0, m.FlowDepth())
	require.Equal(t, 0, m.Tracker().Errors())
}

func TestBuiltins(t *testing.T) {
	runTests(t, []testCase{
		{"abs(-3)", object.NewLong(3)},
		{"abs(-2.5)", object.NewFloat(2.5)},
		{"round(2.5)", object.NewFloat(3)},
		{"floor(2.7)", object.NewFloat(2)},
		{"min(3, 2)", object.NewLong(2)},
		{"max(3, 2.5)", object.NewFloat(3)},
		{"pow(2, 10)", object.NewFloat(1024)},
		{"sqrt(16)", object.NewFloat(4)},
		{"int(-2.7)", object.NewLong(-2)},
		{"float(2)", object.NewFloat(2)},
		{"str(12)", object.NewString("12")},
		{`val("0x1F")`, object.NewLong(31)},
		{`val(" 2.5 ")`, object.NewFloat(2.5)},
		{`type("s")`, object.NewLong(int32(object.STRING))},
		{`len("hello")`, object.NewLong(5)},
		{`left("hello", 2)`, object.NewString("he")},
		{`right("hello", 3)`, object.NewString("llo")},
		{`mid("hello", 2, 3)`, object.NewString("ell")},
		{`mid("hello", 4)`, object.NewString("lo")},
		{`asc("A")`, object.NewLong(65)},
		{"char(66)", object.NewString("B")},
		{`upper("abc")`, object.NewString("ABC")},
		{`trim("  x ")`, object.NewString("x")},
		{`find("banana", "na")`, object.NewLong(3)},
		{`find("banana", "na", 4)`, object.NewLong(5)},
		{`find("banana", "x")`, object.NewLong(0)},
		{"bit(5, 2)", object.NewLong(1)},
		{"bitSet(0, 3)", object.NewLong(8)},
		{"bitClear(15, 0)", object.NewLong(14)},
		{"x = 0; bitWrite(x, 4, 1); x", object.NewLong(16)},
		{"byteRead(0x1234, 1)", object.NewLong(0x12)},
		{"sysVal(1)", object.NewLong(0)},
		{"read()", object.NewLong(-1)},
	})
}

func TestLastValues(t *testing.T) {
	m, _ := newMachine(t, "", WithLastValues(2))
	exec(t, m, "5")
	exec(t, m, `"seven"`)
	require.Equal(t, object.NewLong(5), exec(t, m, "last(2)"))
	require.Equal(t, 1, m.Tracker().Count(tracker.LastValueStrings))
	exec(t, m, "1")
	exec(t, m, "2")
	require.Equal(t, 0, m.Tracker().Count(tracker.LastValueStrings))
	v, ok := m.Last(1)
	require.True(t, ok)
	require.Equal(t, object.NewLong(2), v)
}

func TestFrameTeardownChecksLocals(t *testing.T) {
	var m *Machine
	registry := native.NewRegistry()
	require.Nil(t, registry.Register("leak", func(args []*object.Value) error {
		m.Tracker().Alloc(tracker.LocalStrings)
		return nil
	}))
	var logs bytes.Buffer
	m, _ = newMachine(t, `
program leak;
function f();
  cb("leak");
  return 1;
end;
function setStr(s);
  local pad = "local";
  s = "abc";
end;
function holder();
  local t = "";
  setStr(t);
  return len(t);
end;
`, WithCallbacks(registry), WithLogger(zerolog.New(&logs)))

	require.Equal(t, object.NewLong(3), exec(t, m, "holder()"))
	require.Equal(t, 0, m.Tracker().Errors())
	require.NotContains(t, logs.String(), "residual")

	require.Equal(t, object.NewLong(1), exec(t, m, "f()"))
	require.Equal(t, 1, m.Tracker().Errors())
	require.Equal(t, 0, m.Tracker().Count(tracker.LocalStrings))
	require.Contains(t, logs.String(), "residual at frame teardown")
	require.Contains(t, logs.String(), `"function":"f"`)

	logs.Reset()
	require.Equal(t, object.NewLong(1), exec(t, m, "f() * 0 + 1"))
	require.Equal(t, 2, m.Tracker().Errors())
	require.NotContains(t, logs.String(), "residuals at idle")
}

func TestIdleCheckpointLogsResiduals(t *testing.T) {
	var m *Machine
	registry := native.NewRegistry()
	require.Nil(t, registry.Register("leak", func(args []*object.Value) error {
		m.Tracker().Alloc(tracker.IntermediateStrings)
		m.Tracker().Alloc(tracker.UserArrays)
		return nil
	}))
	var logs bytes.Buffer
	m, _ = newMachine(t, "", WithCallbacks(registry), WithLogger(zerolog.New(&logs)))

	exec(t, m, `cb("leak")`)
	require.Equal(t, 2, m.Tracker().Errors())
	require.Contains(t, logs.String(), "object lifecycle residuals at idle")
	require.Contains(t, logs.String(), "intermediateStrings")
	require.Contains(t, logs.String(), "userArrays")

	logs.Reset()
	exec(t, m, "1")
	require.Equal(t, 2, m.Tracker().Errors())
	require.NotContains(t, logs.String(), "residuals")
}

func TestSysValCounters(t *testing.T) {
	m, _ := newMachine(t, "")
	exec(t, m, `s = "abc"`)
	require.Equal(t, object.NewLong(1), exec(t, m, "sysVal(12)"))
	require.Equal(t, object.NewLong(1), exec(t, m, "sysVal(19)"))
	_, err := m.Exec(context.Background(), "sysVal(99)")
	require.True(t, errz.Is(err, errz.ErrArgRange))
}

func TestDelete(t *testing.T) {
	m, _ := newMachine(t, "")
	exec(t, m, `x = "hello"; y = 2`)
	require.Equal(t, 1, m.Tracker().Count(tracker.UserStrings))
	require.Equal(t, 2, m.Tracker().Count(tracker.IdentifierNames))
	exec(t, m, "delete x")
	require.Equal(t, 0, m.Tracker().Count(tracker.UserStrings))
	require.Equal(t, 1, m.Tracker().Count(tracker.IdentifierNames))
	_, err := m.Exec(context.Background(), "x")
	require.True(t, errz.Is(err, errz.ErrUnknownName))
	require.Len(t, m.Users(), 1)
	require.Equal(t, object.NewLong(2), exec(t, m, "y"))
	require.Equal(t, 0, m.Tracker().Errors())
}

func TestClearCommands(t *testing.T) {
	m, _ := newMachine(t, `var g = "global";`)
	exec(t, m, "u = 1")
	require.Equal(t, 1, m.Tracker().Count(tracker.GlobalStrings))
	exec(t, m, "clearProg")
	require.Empty(t, m.Program().Globals)
	require.Equal(t, 0, m.Tracker().Count(tracker.GlobalStrings))
	require.Len(t, m.Users(), 1)
	exec(t, m, "clearAll")
	require.Empty(t, m.Users())
	require.Equal(t, 0, m.Tracker().Count(tracker.IdentifierNames))
	require.Equal(t, 0, m.Tracker().Errors())
}

func TestEvents(t *testing.T) {
	m, _ := newMachine(t, "")
	_, err := m.Exec(context.Background(), "quit")
	require.True(t, errz.Is(err, errz.EventQuit))
	_, err = m.Exec(context.Background(), `load "demo.jus"`)
	require.True(t, errz.Is(err, errz.EventLoadProgram))
	require.Equal(t, "demo.jus", m.LoadRequest())
}

func TestInput(t *testing.T) {
	m, buf := newMachine(t, "")
	buf.Feed("hello\n")
	require.Equal(t, object.NewString("hello"), exec(t, m, `s = ""; input "name? ", s; s`))
	require.Equal(t, "name? ", buf.Output())
}

func TestEscapeAborts(t *testing.T) {
	m, buf := newMachine(t, "")
	buf.Feed(`\a`)
	_, err := m.Exec(context.Background(), "while 1; end")
	require.True(t, errz.Is(err, errz.EventAbort))
	require.Equal(t, 0, m.FlowDepth())
}

func TestEscapeStops(t *testing.T) {
	m, buf := newMachine(t, debugProgram)
	buf.Feed(`\s`)
	_, err := m.Exec(context.Background(), "inner(1)")
	require.True(t, errz.Is(err, errz.EventStopped))
	info, ok := m.StoppedAt()
	require.True(t, ok)
	require.Equal(t, "inner", info.Function)
	require.Equal(t, "return x + 1;", info.Statement)
	require.Equal(t, object.NewLong(2), exec(t, m, "go"))
	require.Equal(t, object.NewLong(10), exec(t, m, "trace"))
	require.False(t, m.Stopped())
}

func TestEscapeConsumesLineEnd(t *testing.T) {
	m, buf := newMachine(t, debugProgram)
	buf.Feed("\\s\r\nprint 1\n")
	_, err := m.Exec(context.Background(), "inner(1)")
	require.True(t, errz.Is(err, errz.EventStopped))
	line, err := console.ReadLine(context.Background(), buf, nil)
	require.Nil(t, err)
	require.Equal(t, "print 1", line)
}

func TestHousekeepingKills(t *testing.T) {
	calls := 0
	m, _ := newMachine(t, "", WithHousekeeping(func() bool {
		calls++
		return calls > 10
	}))
	_, err := m.Exec(context.Background(), "while 1; end")
	require.True(t, errz.Is(err, errz.EventKill))
	require.Equal(t, 0, m.FlowDepth())
}

func TestContextCancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	m, _ := newMachine(t, "", WithHousekeeping(func() bool {
		if calls++; calls == 5 {
			cancel()
		}
		return false
	}))
	_, err := m.Exec(ctx, "while 1; end")
	require.True(t, errz.Is(err, errz.EventAbort))
}

func TestCallbacks(t *testing.T) {
	registry := native.NewRegistry()
	require.Nil(t, registry.Register("double", func(args []*object.Value) error {
		*args[0] = object.NewLong(args[0].L * 2)
		return nil
	}))
	require.Nil(t, registry.Register("stringify", func(args []*object.Value) error {
		*args[0] = object.NewString("oops")
		return nil
	}))
	m, _ := newMachine(t, "", WithCallbacks(registry))
	require.Equal(t, object.NewLong(42), exec(t, m, `x = 21; cb("double", x); x`))
	require.Equal(t, object.NewLong(0), exec(t, m, `cb("double", 5)`))
	_, err := m.Exec(context.Background(), `cb("stringify", x)`)
	require.True(t, errz.Is(err, errz.ErrCallback))
	require.Equal(t, object.NewLong(42), exec(t, m, "x"))
}

func TestFiles(t *testing.T) {
	m, _ := newMachine(t, "")
	exec(t, m, `h = open("notes.txt", 2); writeLine(h, "first"); writeLine(h, 2); close(h)`)
	require.Equal(t, object.NewLong(1), exec(t, m, `exists("notes.txt")`))
	require.Equal(t, object.NewString("first"), exec(t, m, `h = open("notes.txt"); readLine(h)`))
	require.Equal(t, object.NewString("2"), exec(t, m, "readLine(h)"))
	require.Equal(t, object.NewLong(1), exec(t, m, "eof(h)"))
	exec(t, m, "close(h)")
	_, err := m.Exec(context.Background(), "readLine(h)")
	require.True(t, errz.Is(err, errz.ErrFileNotOpen))
	require.Equal(t, 0, m.Files().OpenCount())
}

func TestResetDiscardsState(t *testing.T) {
	m, _ := newMachine(t, `var g = "x";`)
	exec(t, m, `u = "y"; "z"`)
	require.Nil(t, m.Reset())
	require.Empty(t, m.Users())
	require.Empty(t, m.Program().Globals)
	for c := tracker.Category(0); c < tracker.NumCategories; c++ {
		require.Equal(t, 0, m.Tracker().Count(c), c.String())
	}
}

func TestStats(t *testing.T) {
	m, _ := newMachine(t, callsProgram)
	exec(t, m, "u = 1")
	stats := m.Stats()
	require.Equal(t, m.ID().String(), stats.Session)
	require.Equal(t, "calls", stats.Program)
	require.Equal(t, 5, stats.Functions)
	require.Equal(t, 1, stats.Users)
	require.Equal(t, 1, stats.Counters["identifierNames"])
}
