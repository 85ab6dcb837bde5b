package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/rs/zerolog"
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// ObserveStatements enables OnStatement callbacks.
	ObserveStatements bool

	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool
}

// NewObserverConfig creates a config that receives every event.
func NewObserverConfig() ObserverConfig {
	return ObserverConfig{
		ObserveStatements: true,
		ObserveCalls:      true,
		ObserveReturns:    true,
	}
}

// Observer is an interface for observing machine execution events.
// Implementations can be used for tracing, coverage or profiling.
//
// All methods are optional - implementations can embed NoOpObserver
// to provide default no-op implementations for methods they don't need.
//
// Observer methods are called synchronously on the interpreter thread.
type Observer interface {
	// Config returns the observer's configuration. Called once per
	// execution entry point.
	Config() ObserverConfig

	// OnStatement is called before each program statement executes.
	// Returns false to abort execution.
	OnStatement(event StatementEvent) bool

	// OnCall is called when a user function is entered.
	// Returns false to abort execution.
	OnCall(event CallEvent) bool

	// OnReturn is called when a user function returns.
	// Returns false to abort execution.
	OnReturn(event ReturnEvent) bool
}

// StatementEvent describes a program statement about to run.
type StatementEvent struct {
	// Function is the name of the function the statement belongs to.
	Function string

	// Pos is the byte offset of the statement in the program source.
	Pos int

	// Statement is the source text of the statement.
	Statement string

	// CallDepth is the number of active function calls.
	CallDepth int

	// BlockDepth is the number of open blocks in the current function.
	BlockDepth int

	// StackDepth is the current depth of the evaluation stack.
	StackDepth int
}

// CallEvent contains information about a function call.
type CallEvent struct {
	Function  string
	ArgCount  int
	CallDepth int
}

// ReturnEvent contains information about a function return.
type ReturnEvent struct {
	Function  string
	Value     object.Value
	CallDepth int
}

// NoOpObserver is an Observer implementation that does nothing.
// Embed it in custom observers to implement only the methods you need.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig          { return NewObserverConfig() }
func (NoOpObserver) OnStatement(StatementEvent) bool { return true }
func (NoOpObserver) OnCall(CallEvent) bool           { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool       { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}

// LogObserver traces every event at trace level.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver returns an observer writing to log.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) Config() ObserverConfig { return NewObserverConfig() }

func (o *LogObserver) OnStatement(e StatementEvent) bool {
	o.log.Trace().
		Str("function", e.Function).
		Int("pos", e.Pos).
		Int("call_depth", e.CallDepth).
		Int("block_depth", e.BlockDepth).
		Msg(e.Statement)
	return true
}

func (o *LogObserver) OnCall(e CallEvent) bool {
	o.log.Trace().Str("function", e.Function).Int("args", e.ArgCount).Int("call_depth", e.CallDepth).Msg("call")
	return true
}

func (o *LogObserver) OnReturn(e ReturnEvent) bool {
	o.log.Trace().Str("function", e.Function).Str("value", e.Value.Quoted()).Int("call_depth", e.CallDepth).Msg("return")
	return true
}
