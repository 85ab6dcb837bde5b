package vm

import (
	"math"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
)

func (m *Machine) pushFlow(e flowEntry) error {
	if len(m.flow) >= m.maxFlow {
		return errz.New(errz.ErrFlowStackOverflow)
	}
	m.flow = append(m.flow, e)
	return nil
}

// callDepth counts the function activations, running or saved.
func (m *Machine) callDepth() int {
	n := 0
	if m.active != nil && m.active.kind == actFunction {
		n++
	}
	for _, e := range m.flow {
		if e.act != nil && e.act.kind == actFunction {
			n++
		}
	}
	return n
}

// blockDepth counts the open blocks of the active activation.
func (m *Machine) blockDepth() int {
	if m.active == nil {
		return 0
	}
	return len(m.flow) - m.active.blockBase
}

func (m *Machine) topBlock() *block {
	if m.active == nil || len(m.flow) <= m.active.blockBase {
		return nil
	}
	return m.flow[len(m.flow)-1].blk
}

func (m *Machine) popBlock() {
	m.flow = m.flow[:len(m.flow)-1]
}

// callFunction binds the arguments above marker to a new frame and starts
// running the function body.
func (m *Machine) callFunction(marker, argc int) error {
	call := m.stack[marker]
	fn := m.prog.Functions[call.index]
	if argc < fn.MinParams || argc > len(fn.Params) {
		return m.errorAt(errz.Newf(errz.ErrArgCount, "%s takes %d to %d arguments", fn.Name, fn.MinParams, len(fn.Params)), call.tok)
	}
	locals := make([]*object.Variable, 0, fn.LocalCount())
	for i, p := range fn.Params {
		if i >= argc {
			locals = append(locals, object.NewVariable(p.Name, object.ScopeParam, p.Default))
			continue
		}
		arg := m.stack[marker+1+i]
		v, err := m.bindArgument(p, arg)
		if err != nil {
			return m.errorAt(err, arg.tok)
		}
		locals = append(locals, v)
	}
	for _, l := range fn.Locals {
		v := object.NewVariable(l.Name, object.ScopeLocal, l.Init)
		if l.IsArray {
			arr, err := object.NewArray(l.Dims, l.Init)
			if err != nil {
				return m.errorAt(err, call.tok)
			}
			v.Value = object.Value{}
			v.Array = arr
		}
		locals = append(locals, v)
	}
	if err := m.pushFlow(flowEntry{act: m.active}); err != nil {
		return m.errorAt(err, call.tok)
	}
	m.truncate(marker)
	m.active = &activation{
		kind:      actFunction,
		code:      m.prog.Code,
		ip:        fn.Start,
		fn:        fn,
		locals:    locals,
		baseline:  marker,
		blockBase: len(m.flow),
		callTok:   call.tok,
	}
	for _, v := range locals {
		m.adopt(v)
	}
	m.stmtStart = true
	if m.observer != nil && m.obsConfig.ObserveCalls {
		if !m.observer.OnCall(CallEvent{Function: fn.Name, ArgCount: argc, CallDepth: m.callDepth()}) {
			m.abortRequested = true
		}
	}
	return nil
}

// bindArgument creates the frame slot for one supplied argument. Variables
// and array elements are passed by reference, everything else by value.
func (m *Machine) bindArgument(p object.Param, arg slot) (*object.Variable, error) {
	if arg.kind == slotVar && arg.ref.IsWholeArray() {
		if !p.IsArray {
			return nil, errz.New(errz.ErrScalarExpected)
		}
		target := arg.ref
		return &object.Variable{Name: p.Name, Scope: object.ScopeParamRef, Const: arg.constant, Target: &target}, nil
	}
	if p.IsArray {
		return nil, errz.New(errz.ErrArrayExpected)
	}
	if arg.kind == slotVar && !arg.constant {
		target := arg.ref
		return &object.Variable{Name: p.Name, Scope: object.ScopeParamRef, Target: &target}, nil
	}
	v, err := m.value(arg)
	if err != nil {
		return nil, err
	}
	return object.NewVariable(p.Name, object.ScopeParam, v), nil
}

// returnFromFunction ends the active function call with result v.
func (m *Machine) returnFromFunction(v object.Value) error {
	act := m.active
	if act.kind != actFunction || act.blockBase == 0 {
		return errz.New(errz.ErrInternal)
	}
	m.flow = m.flow[:act.blockBase]
	caller := m.flow[len(m.flow)-1].act
	m.flow = m.flow[:len(m.flow)-1]
	m.dropActivation(act)
	m.truncate(act.baseline)
	m.active = caller
	if err := m.tracker.CheckAt(m.localLevels(), tracker.LocalStrings, tracker.LocalArrays); err != nil {
		m.log.Warn().Err(err).Str("function", act.fn.Name).Msg("object lifecycle residual at frame teardown")
	}
	m.stmtStart = false
	if m.observer != nil && m.obsConfig.ObserveReturns {
		if !m.observer.OnReturn(ReturnEvent{Function: act.fn.Name, Value: v, CallDepth: m.callDepth()}) {
			m.abortRequested = true
		}
	}
	if err := m.pushValue(v, act.callTok); err != nil {
		return err
	}
	return m.reduce()
}

// localLevels counts the local strings and arrays owned by the function
// activations that are still alive.
func (m *Machine) localLevels() tracker.Snapshot {
	var want tracker.Snapshot
	if m.active != nil && m.active.kind == actFunction {
		m.expectTable(&want, m.active.locals, tracker.LocalStrings, tracker.LocalArrays)
	}
	for _, e := range m.flow {
		if e.act != nil && e.act.kind == actFunction {
			m.expectTable(&want, e.act.locals, tracker.LocalStrings, tracker.LocalArrays)
		}
	}
	return want
}

func (m *Machine) jump(idx int) {
	m.active.ip = idx
}

func (m *Machine) condition(cmd *pending) (bool, error) {
	if len(m.stack) != cmd.base+1 {
		return false, errz.New(errz.ErrMissingValue)
	}
	v, err := m.value(m.stack[cmd.base])
	if err != nil {
		return false, err
	}
	if !v.IsNumeric() {
		return false, errz.New(errz.ErrNumberExpected)
	}
	m.truncate(cmd.base)
	return v.IsTrue(), nil
}

func (m *Machine) ifCmd(cmd *pending) error {
	ok, err := m.condition(cmd)
	if err != nil {
		return err
	}
	if err := m.pushFlow(flowEntry{blk: &block{word: token.If, start: cmd.tok, lastTestFailed: !ok}}); err != nil {
		return err
	}
	if !ok {
		m.jump(m.active.code.At(cmd.tok).Link)
	}
	return nil
}

// skipClause is called on reaching an elseif. When an earlier clause ran,
// it jumps to the block end and reports true.
func (m *Machine) skipClause(idx int) bool {
	b := m.topBlock()
	if b != nil && b.word == token.If && b.lastTestFailed {
		return false
	}
	code := m.active.code
	j := idx
	for !code.At(j).IsWord(token.End) && code.At(j).Kind != token.EndOfCode {
		j = code.At(j).Link
	}
	m.jump(j)
	return true
}

// elseClause enters the else body when every earlier test failed.
func (m *Machine) elseClause(idx int) {
	b := m.topBlock()
	if b != nil && b.word == token.If && b.lastTestFailed {
		b.lastTestFailed = false
		m.jump(m.active.code.NextStatement(idx))
		return
	}
	m.jump(m.active.code.At(idx).Link)
}

func (m *Machine) elseIfCmd(cmd *pending) error {
	ok, err := m.condition(cmd)
	if err != nil {
		return err
	}
	if b := m.topBlock(); b != nil && b.word == token.If {
		b.lastTestFailed = !ok
	}
	if !ok {
		m.jump(m.active.code.At(cmd.tok).Link)
	}
	return nil
}

func (m *Machine) whileCmd(cmd *pending) error {
	ok, err := m.condition(cmd)
	if err != nil {
		return err
	}
	b := m.topBlock()
	if b != nil && b.word == token.While && b.start == cmd.tok && b.withinIteration {
		b.withinIteration = false
	} else {
		if err := m.pushFlow(flowEntry{blk: &block{word: token.While, start: cmd.tok}}); err != nil {
			return err
		}
	}
	if !ok {
		m.popBlock()
		code := m.active.code
		m.jump(code.NextStatement(code.At(cmd.tok).Link))
	}
	return nil
}

// forCmd sets up a for loop: for ctrl, from, to [, step].
func (m *Machine) forCmd(cmd *pending) error {
	args := m.stack[cmd.base:]
	if len(args) < 3 || len(args) > 4 {
		return errz.New(errz.ErrArgCount)
	}
	ctrl := args[0]
	if ctrl.kind != slotVar || ctrl.constant || ctrl.ref.IsWholeArray() {
		return errz.New(errz.ErrVariableExpected)
	}
	vals := []object.Value{object.NewLong(0), object.NewLong(0), object.NewLong(1)}
	isFloat := false
	for i, s := range args[1:] {
		v, err := m.value(s)
		if err != nil {
			return err
		}
		if !v.IsNumeric() {
			return errz.New(errz.ErrNumberExpected)
		}
		isFloat = isFloat || v.Type == object.FLOAT
		vals[i] = v
	}
	if isFloat {
		for i, v := range vals {
			vals[i] = object.NewFloat(v.AsFloat())
		}
	}
	from, final, step := vals[0], vals[1], vals[2]
	if err := m.store(ctrl, from); err != nil {
		return err
	}
	m.truncate(cmd.base)
	b := &block{
		word:     token.For,
		start:    cmd.tok,
		ctrl:     ctrl.ref,
		ctrlType: ctrl.ref.Load().Type,
		final:    final,
		step:     step,
	}
	if err := m.pushFlow(flowEntry{blk: b}); err != nil {
		return err
	}
	if forDone(ctrl.ref.Load(), b) {
		m.popBlock()
		code := m.active.code
		m.jump(code.NextStatement(code.At(cmd.tok).Link))
	}
	return nil
}

func forDone(v object.Value, b *block) bool {
	if b.ctrlType == object.FLOAT {
		if b.step.F < 0 {
			return v.F < b.final.F
		}
		return v.F > b.final.F
	}
	if b.step.L < 0 {
		return v.L < b.final.L
	}
	return v.L > b.final.L
}

// nextIteration advances a for loop at its end statement and reports
// whether the loop is finished.
func (m *Machine) nextIteration(b *block) (bool, error) {
	cur := b.ctrl.Load()
	if cur.Type != b.ctrlType {
		return false, errz.New(errz.ErrControlVarType)
	}
	var next object.Value
	if b.ctrlType == object.FLOAT {
		next = object.NewFloat(cur.F + b.step.F)
	} else {
		n := int64(cur.L) + int64(b.step.L)
		if n > math.MaxInt32 || n < math.MinInt32 {
			return true, nil
		}
		next = object.NewLong(int32(n))
	}
	m.write(b.ctrl, next)
	return forDone(next, b), nil
}

func (m *Machine) endCmd(cmd *pending) error {
	code := m.active.code
	start := code.At(cmd.tok).Link
	if code.At(start).IsWord(token.Function) {
		return m.returnFromFunction(object.NewLong(0))
	}
	b := m.topBlock()
	if b == nil || b.start != start {
		return errz.New(errz.ErrNoMatchingBlock)
	}
	switch b.word {
	case token.While:
		if b.breakRequested {
			m.popBlock()
			return nil
		}
		b.withinIteration = true
		m.jump(b.start)
	case token.For:
		if b.breakRequested {
			m.popBlock()
			return nil
		}
		done, err := m.nextIteration(b)
		if err != nil {
			return err
		}
		if done {
			m.popBlock()
			return nil
		}
		m.jump(code.NextStatement(b.start))
	default:
		m.popBlock()
	}
	return nil
}

// loopExit handles break and continue: it closes the if blocks inside the
// innermost loop and jumps to the loop's end statement.
func (m *Machine) loopExit(cmd *pending) error {
	for {
		b := m.topBlock()
		if b == nil {
			return errz.New(errz.ErrBreakOutsideLoop)
		}
		if b.word == token.If {
			m.popBlock()
			continue
		}
		b.breakRequested = cmd.word == token.Break
		m.jump(m.active.code.At(b.start).Link)
		return nil
	}
}
