package vm

import (
	"context"
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// TestObserver is a test observer that records events.
type TestObserver struct {
	NoOpObserver
	Statements []StatementEvent
	Calls      []CallEvent
	Returns    []ReturnEvent
	stopAfter  int
}

func (o *TestObserver) OnStatement(event StatementEvent) bool {
	o.Statements = append(o.Statements, event)
	return o.stopAfter == 0 || len(o.Statements) < o.stopAfter
}

func (o *TestObserver) OnCall(event CallEvent) bool {
	o.Calls = append(o.Calls, event)
	return true
}

func (o *TestObserver) OnReturn(event ReturnEvent) bool {
	o.Returns = append(o.Returns, event)
	return true
}

const observedProgram = `
function twice(v);
  local r;
  r = v * 2;
  return r;
end;
function loop();
  while 1; end;
end;
`

func TestObserverEvents(t *testing.T) {
	observer := &TestObserver{}
	m, _ := newMachine(t, observedProgram, WithObserver(observer))
	require.Equal(t, object.NewLong(8), exec(t, m, "twice(4)"))

	require.Len(t, observer.Statements, 2)
	require.Equal(t, "r = v * 2;", observer.Statements[0].Statement)
	require.Equal(t, "twice", observer.Statements[0].Function)
	require.Equal(t, 1, observer.Statements[0].CallDepth)
	require.Equal(t, "return r;", observer.Statements[1].Statement)

	require.Len(t, observer.Calls, 1)
	require.Equal(t, CallEvent{Function: "twice", ArgCount: 1, CallDepth: 1}, observer.Calls[0])
	require.Len(t, observer.Returns, 1)
	require.Equal(t, object.NewLong(8), observer.Returns[0].Value)
	require.Equal(t, 0, observer.Returns[0].CallDepth)
}

func TestObserverAborts(t *testing.T) {
	observer := &TestObserver{stopAfter: 5}
	m, _ := newMachine(t, observedProgram, WithObserver(observer))
	_, err := m.Exec(context.Background(), "loop()")
	require.True(t, errz.Is(err, errz.EventAbort))
	require.Len(t, observer.Statements, 5)
	require.Equal(t, 0, m.FlowDepth())
}

func TestObserverConfigFilters(t *testing.T) {
	observer := &filteredObserver{}
	m, _ := newMachine(t, observedProgram, WithObserver(observer))
	exec(t, m, "twice(1)")
	require.Equal(t, 0, observer.statements)
	require.Equal(t, 1, observer.calls)
}

type filteredObserver struct {
	NoOpObserver
	statements int
	calls      int
}

func (o *filteredObserver) Config() ObserverConfig {
	return ObserverConfig{ObserveCalls: true}
}

func (o *filteredObserver) OnStatement(StatementEvent) bool {
	o.statements++
	return true
}

func (o *filteredObserver) OnCall(CallEvent) bool {
	o.calls++
	return true
}

func TestLogObserver(t *testing.T) {
	m, _ := newMachine(t, observedProgram, WithObserver(NewLogObserver(zerolog.Nop())))
	require.Equal(t, object.NewLong(2), exec(t, m, "twice(1)"))
}
