// Package vm provides the Machine that executes parsed token streams: the
// statement dispatch loop, the evaluation stack with its operator engine,
// the flow control stack of calls and open blocks, and the debugger.
//
// A Machine is single threaded. Execution may stop at a statement boundary
// (debugger stop, step) and return control to the host, leaving the stopped
// program's state on the stacks; a later Exec resumes it.
package vm

import (
	"context"
	"time"

	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/native"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/parser"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxStackDepth = 512
	DefaultMaxFlowDepth  = 256
	DefaultMaxEvalDepth  = 16
	DefaultLastValues    = 10
)

// Machine is one interpreter instance.
type Machine struct {
	id           uuid.UUID
	log          zerolog.Logger
	observer     Observer
	obsConfig    ObserverConfig
	console      console.Device
	files        *storage.Files
	natives      *native.Registry
	housekeeping func() bool
	printResults bool
	maxStack     int
	maxFlow      int
	maxEval      int
	lastSize     int
	start        time.Time

	ctx     context.Context
	prog    *parser.Program
	users   []*object.Variable
	tracker *tracker.Tracker
	last    *lastValues

	stack  []slot
	flow   []flowEntry
	active *activation
	result object.Value

	dbg            debugger
	stmtStart      bool
	stopRequested  bool
	abortRequested bool
	killRequested  bool
	loadRequest    string
}

// New creates a Machine with an empty program.
func New(options ...Option) *Machine {
	m := &Machine{
		id:       uuid.Must(uuid.NewV4()),
		log:      zerolog.Nop(),
		maxStack: DefaultMaxStackDepth,
		maxFlow:  DefaultMaxFlowDepth,
		maxEval:  DefaultMaxEvalDepth,
		lastSize: DefaultLastValues,
		start:    time.Now(),
		ctx:      context.Background(),
		prog:     parser.EmptyProgram(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.console == nil {
		m.console = console.NewBuffer("")
	}
	if m.files == nil {
		m.files = storage.NewMemFiles()
	}
	if m.natives == nil {
		m.natives = native.NewRegistry()
	}
	m.log = m.log.With().Str("session", m.id.String()).Logger()
	m.tracker = tracker.New(m.log)
	m.last = newLastValues(m.lastSize, m.tracker)
	return m
}

// ID returns the session id of the machine.
func (m *Machine) ID() uuid.UUID { return m.id }

// Program returns the loaded program.
func (m *Machine) Program() *parser.Program { return m.prog }

// Tracker returns the object lifecycle tracker.
func (m *Machine) Tracker() *tracker.Tracker { return m.tracker }

// Files returns the file storage.
func (m *Machine) Files() *storage.Files { return m.files }

// Callbacks returns the native callback registry.
func (m *Machine) Callbacks() *native.Registry { return m.natives }

// LoadRequest returns the path given to the last load command.
func (m *Machine) LoadRequest() string { return m.loadRequest }

// StackDepth returns the depth of the evaluation stack.
func (m *Machine) StackDepth() int { return len(m.stack) }

// FlowDepth returns the depth of the flow control stack.
func (m *Machine) FlowDepth() int { return len(m.flow) }

// Last returns the n-th most recent statement result, starting at 1.
func (m *Machine) Last(n int) (object.Value, bool) { return m.last.get(n) }

// Variable looks a user or global variable up by name.
func (m *Machine) Variable(name string) (*object.Variable, bool) {
	for _, v := range m.users {
		if v.Name == name {
			return v, true
		}
	}
	if i, ok := m.prog.Global(name); ok {
		return m.prog.Globals[i], true
	}
	return nil, false
}

// Users returns the declared user variables.
func (m *Machine) Users() []*object.Variable {
	var users []*object.Variable
	for _, v := range m.users {
		if v.Name != "" {
			users = append(users, v)
		}
	}
	return users
}

func (m *Machine) env() parser.Env {
	return parser.Env{Program: m.prog, Users: m.users, Func: m.visibleFunc()}
}

func (m *Machine) addUsers(vars []*object.Variable) {
	for _, v := range vars {
		m.users = append(m.users, v)
		m.tracker.Alloc(tracker.IdentifierNames)
		m.adopt(v)
	}
}

// compactUsers removes deleted user variables once no code can refer to
// their table indexes.
func (m *Machine) compactUsers() {
	if len(m.flow) > 0 {
		return
	}
	kept := m.users[:0]
	for _, v := range m.users {
		if v.Name != "" {
			kept = append(kept, v)
		}
	}
	m.users = kept
}

// LoadProgram parses src and makes it the current program, replacing the
// previous one and its globals.
func (m *Machine) LoadProgram(ctx context.Context, src string) error {
	if m.suspendedCount() > 0 {
		return errz.New(errz.ErrProgramSuspended)
	}
	prog, err := parser.ParseProgram(ctx, src)
	if err != nil {
		return err
	}
	m.clearProgram()
	m.prog = prog
	for _, v := range prog.Globals {
		m.adopt(v)
	}
	for _, v := range prog.Statics {
		m.adopt(v)
	}
	m.log.Info().
		Str("program", prog.Name).
		Int("functions", len(prog.Functions)).
		Int("globals", len(prog.Globals)).
		Msg("program loaded")
	return nil
}

func (m *Machine) clearProgram() {
	for _, v := range m.prog.Globals {
		m.drop(v)
	}
	for _, v := range m.prog.Statics {
		m.drop(v)
	}
	m.prog = parser.EmptyProgram()
}

func (m *Machine) clearUsers() {
	for _, v := range m.users {
		if v.Name != "" {
			m.drop(v)
			m.tracker.Free(tracker.IdentifierNames)
		}
	}
	m.users = nil
}

// Reset discards all state: stopped programs, the program, user variables,
// the last-value history and open files.
func (m *Machine) Reset() error {
	m.unwindAll()
	m.clearProgram()
	m.clearUsers()
	m.last.clear()
	m.dbg = debugger{}
	m.stopRequested = false
	m.checkpoint()
	return m.files.CloseAll()
}

// Close closes open files.
func (m *Machine) Close() error {
	return m.files.CloseAll()
}

// Exec parses and runs one immediate-mode line. It returns the value of
// the line's last expression statement, if any. Events (stopped, abort,
// quit, kill, load requested) are returned as *errz.Error values with an
// event code.
func (m *Machine) Exec(ctx context.Context, line string) (object.Value, error) {
	m.ctx = ctx
	m.abortRequested = false
	m.killRequested = false
	m.compactUsers()
	res, err := parser.ParseImmediate(ctx, line, m.env())
	if err != nil {
		return object.Value{}, err
	}
	m.addUsers(res.NewUsers)
	m.result = object.Value{}
	m.obsConfig = ObserverConfig{}
	if m.observer != nil {
		m.obsConfig = m.observer.Config()
	}
	m.active = &activation{
		kind:      actImmediate,
		code:      res.Code,
		baseline:  len(m.stack),
		blockBase: len(m.flow),
	}
	if err := m.run(); err != nil {
		return m.result, m.fail(err)
	}
	m.active = nil
	m.dbg = debugger{}
	m.checkpoint()
	return m.result, nil
}

// run is the statement dispatch loop.
func (m *Machine) run() error {
	for {
		if m.stmtStart {
			m.stmtStart = false
			if err := m.statementStart(); err != nil {
				return err
			}
		}
		act := m.active
		idx := act.ip
		tok := act.code.At(idx)
		var err error
		switch tok.Kind {
		case token.EndOfCode:
			if act.kind != actImmediate {
				return errz.Newf(errz.ErrInternal, "%s ran off its code", act.name())
			}
			m.flow = m.flow[:act.blockBase]
			m.truncate(act.baseline)
			return nil
		case token.EndOfEval:
			err = m.endEval(idx)
		case token.ReservedWord:
			err = m.reservedWord(tok, idx)
		case token.Constant:
			act.ip++
			if err = m.pushValue(tok.Value, idx); err == nil {
				err = m.reduce()
			}
		case token.Variable:
			act.ip++
			err = m.pushVariable(tok, idx)
		case token.InternalFunction, token.ExternalFunction:
			act.ip++
			err = m.push(slot{kind: slotFunc, fnKind: tok.Kind, index: tok.Index, tok: idx})
		case token.GenericName:
			act.ip++
			err = m.push(slot{kind: slotName, name: tok.Name, tok: idx})
		case token.Terminal:
			act.ip++
			switch code := tok.Op(); {
			case code == op.Semicolon:
				err = m.endStatement(idx)
			case code == op.Comma:
			case code == op.RightParen:
				err = m.closeParen(idx)
			case tok.Role == op.Postfix:
				err = m.postfix(code, idx)
			default:
				err = m.push(slot{kind: slotOp, op: code, role: tok.Role, tok: idx})
			}
		default:
			err = errz.Newf(errz.ErrInternal, "unknown token kind %s", tok.Kind)
		}
		if err != nil {
			return m.errorAt(err, idx)
		}
	}
}

func (m *Machine) reservedWord(tok *token.Token, idx int) error {
	act := m.active
	w := tok.Word()
	if w.Has(token.CompileOnly) {
		act.ip = act.code.NextStatement(idx)
		return nil
	}
	switch w {
	case token.ElseIf:
		if skipped := m.skipClause(idx); skipped {
			return nil
		}
	case token.Else:
		m.elseClause(idx)
		return nil
	}
	act.cmd = &pending{word: w, tok: idx, base: len(m.stack)}
	act.ip++
	return nil
}

// endStatement runs at a semicolon: it executes the pending command or
// disposes of the expression result, then handles the boundary.
func (m *Machine) endStatement(idx int) error {
	act := m.active
	var err error
	if cmd := act.cmd; cmd != nil {
		act.cmd = nil
		err = m.command(cmd)
	} else {
		err = m.expressionStatement()
	}
	if err != nil {
		return err
	}
	return m.boundary(act)
}

func (m *Machine) expressionStatement() error {
	act := m.active
	switch act.kind {
	case actEval:
		if act.code.At(act.ip).Kind == token.EndOfEval {
			return nil
		}
	case actImmediate:
		if len(m.stack) == act.baseline+1 {
			top := m.stack[act.baseline]
			v, err := m.value(top)
			if err != nil {
				return m.errorAt(err, top.tok)
			}
			m.truncate(act.baseline)
			m.result = v
			m.last.push(v)
			if m.printResults {
				m.print(v.Quoted() + "\n")
			}
			return nil
		}
	}
	m.truncate(act.baseline)
	return nil
}

// boundary runs after every statement: it scans the console for escape
// sequences, calls the housekeeping hook and honours abort and kill
// requests. The debugger check happens before the next program statement.
func (m *Machine) boundary(act *activation) error {
	if m.active == act && act.kind == actFunction {
		m.stmtStart = true
	}
	m.pollInput()
	if m.housekeeping != nil && m.housekeeping() {
		m.killRequested = true
	}
	if m.ctx.Err() != nil {
		m.abortRequested = true
	}
	if m.killRequested {
		return m.kill()
	}
	if m.abortRequested {
		return m.abortAll()
	}
	return nil
}

// pollInput consumes the escape sequences \a (abort) and \s (stop) at the
// head of the console input, with the line end that follows them.
func (m *Machine) pollInput() {
	for m.console.Available() >= 2 {
		c, err := m.console.Peek()
		if err != nil || c != '\\' {
			return
		}
		m.console.ReadByte()
		c, _ = m.console.ReadByte()
		switch c {
		case 'a':
			m.abortRequested = true
		case 's':
			m.stopRequested = true
		}
		m.skipLineEnd()
	}
}

// skipLineEnd consumes the line terminator typed after an escape.
func (m *Machine) skipLineEnd() {
	if c, err := m.console.Peek(); err == nil && c == '\r' {
		m.console.ReadByte()
	}
	if c, err := m.console.Peek(); err == nil && c == '\n' {
		m.console.ReadByte()
	}
}

// poll is called while a command waits for input or time.
func (m *Machine) poll() error {
	if m.housekeeping != nil && m.housekeeping() {
		m.killRequested = true
		return errz.New(errz.EventKill)
	}
	if m.ctx.Err() != nil {
		return errz.New(errz.EventAbort)
	}
	return nil
}

// statementStart runs before a program statement executes.
func (m *Machine) statementStart() error {
	act := m.active
	if act.kind != actFunction {
		return nil
	}
	for {
		t := act.code.At(act.ip)
		if t.Kind != token.ReservedWord || !t.Word().Has(token.CompileOnly) {
			break
		}
		act.ip = act.code.NextStatement(act.ip)
	}
	if m.observer != nil && m.obsConfig.ObserveStatements {
		ok := m.observer.OnStatement(StatementEvent{
			Function:   act.fn.Name,
			Pos:        act.code.At(act.ip).Pos,
			Statement:  act.code.StatementText(act.ip),
			CallDepth:  m.callDepth(),
			BlockDepth: m.blockDepth(),
			StackDepth: len(m.stack),
		})
		if !ok {
			return m.abortAll()
		}
	}
	if m.shouldStop() {
		return m.suspend()
	}
	return nil
}

// errorAt attaches the position of token tok of the active code to err.
func (m *Machine) errorAt(err error, tok int) error {
	e, ok := err.(*errz.Error)
	if !ok || m.active == nil || e.IsEvent() {
		return err
	}
	e.At(m.active.code.At(tok).Pos, m.active.code.Source, m.active.name())
	return e
}

// callStack names the callers of the active code, innermost first.
func (m *Machine) callStack() []string {
	var stack []string
	for i := len(m.flow) - 1; i >= 0; i-- {
		act := m.flow[i].act
		if act == nil {
			continue
		}
		if act.suspended {
			break
		}
		stack = append(stack, act.name())
	}
	return stack
}

// fail turns an error that ended run into the result of Exec, unwinding
// what it interrupted.
func (m *Machine) fail(err error) error {
	e, ok := err.(*errz.Error)
	if !ok {
		e = errz.Wrap(errz.ErrInternal, err)
	}
	if e.Code != errz.EventStopped {
		if !e.IsEvent() {
			if m.active != nil {
				ip := m.active.ip - 1
				if ip < 0 {
					ip = 0
				}
				e.At(m.active.code.At(ip).Pos, m.active.code.Source, m.active.name())
			}
			e.Stack = m.callStack()
			m.log.Debug().Str("code", e.Code.String()).Strs("stack", e.Stack).Msg("unwinding after error")
		}
		m.unwind()
		m.dbg = debugger{}
	}
	m.active = nil
	m.checkpoint()
	return e
}

func (m *Machine) dropActivation(act *activation) {
	if act.kind != actFunction {
		return
	}
	for _, v := range act.locals {
		m.drop(v)
	}
	act.locals = nil
}

// unwind discards the active activation and every flow entry above the
// topmost stopped program, truncating the evaluation stack to the lowest
// discarded baseline.
func (m *Machine) unwind() {
	base := -1
	if m.active != nil {
		m.dropActivation(m.active)
		base = m.active.baseline
	}
	for len(m.flow) > 0 {
		top := m.flow[len(m.flow)-1]
		if top.act != nil && top.act.suspended {
			break
		}
		m.flow = m.flow[:len(m.flow)-1]
		if top.act != nil {
			m.dropActivation(top.act)
			base = top.act.baseline
		}
	}
	if base >= 0 {
		m.truncate(base)
	}
	m.active = nil
}

// unwindAll discards every activation, including stopped programs.
func (m *Machine) unwindAll() {
	if m.active != nil {
		m.dropActivation(m.active)
	}
	for i := len(m.flow) - 1; i >= 0; i-- {
		if act := m.flow[i].act; act != nil {
			m.dropActivation(act)
		}
	}
	m.flow = m.flow[:0]
	m.truncate(0)
	m.active = nil
	m.stmtStart = false
	m.dbg = debugger{}
}

func (m *Machine) abortAll() error {
	m.abortRequested = false
	m.unwindAll()
	m.log.Debug().Msg("aborted")
	return errz.New(errz.EventAbort)
}

func (m *Machine) kill() error {
	m.killRequested = false
	m.unwindAll()
	m.log.Debug().Msg("killed")
	return errz.New(errz.EventKill)
}

// checkpoint verifies the tracker counters against the live tables once
// the machine is idle.
func (m *Machine) checkpoint() {
	if m.active != nil || len(m.flow) > 0 {
		return
	}
	if len(m.stack) > 0 {
		m.log.Warn().Int("depth", len(m.stack)).Msg("evaluation stack not empty at idle")
		m.truncate(0)
	}
	var result error
	if err := m.tracker.Check(tracker.IntermediateStrings, tracker.LocalStrings, tracker.LocalArrays); err != nil {
		result = multierror.Append(result, err)
	}
	var want tracker.Snapshot
	m.expectTable(&want, m.prog.Globals, tracker.GlobalStrings, tracker.GlobalArrays)
	m.expectTable(&want, m.prog.Statics, tracker.StaticStrings, tracker.StaticArrays)
	m.expectTable(&want, m.users, tracker.UserStrings, tracker.UserArrays)
	for _, v := range m.users {
		if v.Name != "" {
			want[tracker.IdentifierNames]++
		}
	}
	want[tracker.LastValueStrings] = m.last.heapCount()
	err := m.tracker.CheckAt(want,
		tracker.GlobalStrings, tracker.GlobalArrays,
		tracker.StaticStrings, tracker.StaticArrays,
		tracker.UserStrings, tracker.UserArrays,
		tracker.IdentifierNames, tracker.LastValueStrings)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if result != nil {
		m.log.Warn().Err(result).Msg("object lifecycle residuals at idle")
	}
}

// expectTable adds the live strings and arrays of vars to want.
func (m *Machine) expectTable(want *tracker.Snapshot, vars []*object.Variable, strings, arrays tracker.Category) {
	s, a := 0, 0
	for _, v := range vars {
		if v.Name == "" || v.Target != nil {
			continue
		}
		if v.Array != nil {
			a++
			s += v.Array.HeapCount()
		} else if v.Value.HasHeap() {
			s++
		}
	}
	want[strings] += s
	want[arrays] += a
}

// Stats is a snapshot of the machine state for introspection.
type Stats struct {
	Session       string         `json:"session"`
	Program       string         `json:"program"`
	Functions     int            `json:"functions"`
	Globals       int            `json:"globals"`
	Users         int            `json:"users"`
	StackDepth    int            `json:"stack_depth"`
	FlowDepth     int            `json:"flow_depth"`
	Suspended     int            `json:"suspended"`
	LastValues    int            `json:"last_values"`
	OpenFiles     int            `json:"open_files"`
	TrackerErrors int            `json:"tracker_errors"`
	Counters      map[string]int `json:"counters"`
}

// Stats returns a snapshot of the machine state.
func (m *Machine) Stats() Stats {
	return Stats{
		Session:       m.id.String(),
		Program:       m.prog.Name,
		Functions:     len(m.prog.Functions),
		Globals:       len(m.prog.Globals),
		Users:         len(m.Users()),
		StackDepth:    len(m.stack),
		FlowDepth:     len(m.flow),
		Suspended:     m.suspendedCount(),
		LastValues:    m.last.len(),
		OpenFiles:     m.files.OpenCount(),
		TrackerErrors: m.tracker.Errors(),
		Counters:      m.tracker.Snapshot().Map(),
	}
}
