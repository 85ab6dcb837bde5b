package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
)

func stringCategory(s object.Scope) tracker.Category {
	switch s {
	case object.ScopeGlobal:
		return tracker.GlobalStrings
	case object.ScopeStatic:
		return tracker.StaticStrings
	case object.ScopeUser:
		return tracker.UserStrings
	default:
		return tracker.LocalStrings
	}
}

func arrayCategory(s object.Scope) tracker.Category {
	switch s {
	case object.ScopeGlobal:
		return tracker.GlobalArrays
	case object.ScopeStatic:
		return tracker.StaticArrays
	case object.ScopeUser:
		return tracker.UserArrays
	default:
		return tracker.LocalArrays
	}
}

// adopt reports the storage of a new variable to the tracker.
func (m *Machine) adopt(v *object.Variable) {
	if v.Target != nil {
		return
	}
	if v.Array != nil {
		m.tracker.Alloc(arrayCategory(v.Scope))
		m.tracker.AllocN(stringCategory(v.Scope), v.Array.HeapCount())
		return
	}
	if v.Value.HasHeap() {
		m.tracker.Alloc(stringCategory(v.Scope))
	}
}

// drop releases the storage of a variable that goes away.
func (m *Machine) drop(v *object.Variable) {
	if v.Target != nil {
		return
	}
	if v.Array != nil {
		m.tracker.Free(arrayCategory(v.Scope))
		m.tracker.FreeN(stringCategory(v.Scope), v.Array.HeapCount())
		return
	}
	if v.Value.HasHeap() {
		m.tracker.Free(stringCategory(v.Scope))
	}
}

func (m *Machine) push(s slot) error {
	if len(m.stack) >= m.maxStack {
		return errz.New(errz.ErrEvalStackOverflow)
	}
	if s.kind == slotValue && s.val.HasHeap() {
		m.tracker.Alloc(tracker.IntermediateStrings)
	}
	m.stack = append(m.stack, s)
	return nil
}

func (m *Machine) pushValue(v object.Value, tok int) error {
	return m.push(slot{kind: slotValue, val: v, tok: tok})
}

// truncate pops slots until the stack has depth n.
func (m *Machine) truncate(n int) {
	for len(m.stack) > n {
		s := m.stack[len(m.stack)-1]
		if s.kind == slotValue && s.val.HasHeap() {
			m.tracker.Free(tracker.IntermediateStrings)
		}
		m.stack = m.stack[:len(m.stack)-1]
	}
}

// value dereferences an operand slot.
func (m *Machine) value(s slot) (object.Value, error) {
	switch s.kind {
	case slotValue:
		return s.val, nil
	case slotVar:
		if s.ref.IsWholeArray() {
			return object.Value{}, errz.New(errz.ErrScalarExpected)
		}
		return s.ref.Load(), nil
	}
	return object.Value{}, errz.New(errz.ErrMissingValue)
}

// store assigns to the variable or element an operand slot references.
func (m *Machine) store(s slot, v object.Value) error {
	if s.kind != slotVar {
		return errz.New(errz.ErrVariableExpected)
	}
	if s.constant {
		return errz.New(errz.ErrAssignToConstant)
	}
	if s.ref.IsWholeArray() {
		return errz.New(errz.ErrScalarExpected)
	}
	if v.Type == object.STRING {
		v.S = object.Clip(v.S)
	}
	if s.ref.IsElement() {
		cast, err := s.ref.Var.Array.Cast(v)
		if err != nil {
			return err
		}
		v = cast
	}
	m.write(s.ref, v)
	return nil
}

// write replaces the referenced value, moving string ownership.
func (m *Machine) write(ref object.Ref, v object.Value) {
	cat := stringCategory(ref.Scope())
	if ref.Load().HasHeap() {
		m.tracker.Free(cat)
	}
	if v.HasHeap() {
		m.tracker.Alloc(cat)
	}
	if ref.IsElement() {
		ref.Var.Array.Elems[ref.Elem] = v
	} else {
		ref.Var.Value = v
	}
}

// frameLocals returns the frame slots visible to the active code: its own
// when it is a function, else those of the nearest function below it.
func (m *Machine) frameLocals() []*object.Variable {
	if act := m.visibleActivation(); act != nil {
		return act.locals
	}
	return nil
}

func (m *Machine) visibleActivation() *activation {
	if m.active != nil && m.active.kind == actFunction {
		return m.active
	}
	for i := len(m.flow) - 1; i >= 0; i-- {
		if act := m.flow[i].act; act != nil && act.kind == actFunction {
			return act
		}
	}
	return nil
}

func (m *Machine) visibleFunc() *object.Function {
	if act := m.visibleActivation(); act != nil {
		return act.fn
	}
	return nil
}

// resolve returns the variable a Variable token names.
func (m *Machine) resolve(tok *token.Token) (*object.Variable, error) {
	var table []*object.Variable
	switch tok.Scope {
	case object.ScopeGlobal:
		table = m.prog.Globals
	case object.ScopeStatic:
		table = m.prog.Statics
	case object.ScopeUser:
		table = m.users
	default:
		table = m.frameLocals()
	}
	if tok.Index < 0 || tok.Index >= len(table) {
		return nil, errz.Newf(errz.ErrInternal, "%s variable %d out of range", tok.Scope, tok.Index)
	}
	v := table[tok.Index]
	if v.Name == "" {
		return nil, errz.New(errz.ErrVariableNotDeclared)
	}
	return v, nil
}

func (m *Machine) pushVariable(tok *token.Token, idx int) error {
	v, err := m.resolve(tok)
	if err != nil {
		return err
	}
	ref := v.Ref()
	s := slot{kind: slotVar, ref: ref, constant: v.Const || ref.Var.Const, tok: idx}
	if v.IsArray() && m.active.code.At(idx+1).IsTerminal(op.LeftParen) {
		s.kind = slotArray
		return m.push(s)
	}
	if err := m.push(s); err != nil {
		return err
	}
	return m.reduce()
}

// nextPriority is the priority of the token following an operand: the
// priority of an infix or postfix operator, zero for anything else.
func (m *Machine) nextPriority() int {
	tok := m.active.code.At(m.active.ip)
	if tok.Kind != token.Terminal {
		return 0
	}
	info := op.GetInfo(tok.Op())
	switch tok.Role {
	case op.Infix:
		return info.Infix
	case op.Postfix:
		return info.Postfix
	}
	return 0
}

// reduce applies pending operators below the operand on top of the stack
// while their priority beats the priority of the next token.
func (m *Machine) reduce() error {
	for {
		n := len(m.stack)
		if n-m.active.baseline < 2 {
			return nil
		}
		top := m.stack[n-1]
		if top.kind != slotValue && top.kind != slotVar {
			return nil
		}
		below := m.stack[n-2]
		if below.kind != slotOp || below.op == op.LeftParen {
			return nil
		}
		info := op.GetInfo(below.op)
		prio := info.Priority(below.role)
		next := m.nextPriority()
		if prio < next || (prio == next && info.IsRightToLeft(below.role)) {
			return nil
		}
		var err error
		if below.role == op.Prefix {
			err = m.reducePrefix()
		} else {
			err = m.reduceInfix()
		}
		if err != nil {
			return m.errorAt(err, below.tok)
		}
	}
}

func (m *Machine) reducePrefix() error {
	n := len(m.stack)
	operand, opSlot := m.stack[n-1], m.stack[n-2]
	v, err := m.value(operand)
	if err != nil {
		return err
	}
	res, err := unaryOp(opSlot.op, v)
	if err != nil {
		return err
	}
	if opSlot.op == op.Incr || opSlot.op == op.Decr {
		if err := m.store(operand, res); err != nil {
			return err
		}
		m.stack[n-2] = operand
		m.stack = m.stack[:n-1]
		return nil
	}
	m.truncate(n - 2)
	return m.pushValue(res, opSlot.tok)
}

func (m *Machine) reduceInfix() error {
	n := len(m.stack)
	if n-m.active.baseline < 3 {
		return errz.New(errz.ErrMissingValue)
	}
	left, opSlot, right := m.stack[n-3], m.stack[n-2], m.stack[n-1]
	rv, err := m.value(right)
	if err != nil {
		return err
	}
	if op.GetInfo(opSlot.op).Has(op.Assigns) {
		if left.kind != slotVar {
			return errz.New(errz.ErrVariableExpected)
		}
		res := rv
		if opSlot.op != op.Assign {
			lv, err := m.value(left)
			if err != nil {
				return err
			}
			if res, err = binaryOp(opSlot.op, lv, rv); err != nil {
				return err
			}
		}
		if err := m.store(left, res); err != nil {
			return err
		}
		m.truncate(n - 2)
		return nil
	}
	lv, err := m.value(left)
	if err != nil {
		return err
	}
	res, err := binaryOp(opSlot.op, lv, rv)
	if err != nil {
		return err
	}
	m.truncate(n - 3)
	return m.pushValue(res, opSlot.tok)
}

// postfix applies ++ or -- to the operand on top of the stack, leaving its
// previous value.
func (m *Machine) postfix(code op.Code, idx int) error {
	n := len(m.stack)
	if n-m.active.baseline < 1 {
		return m.errorAt(errz.New(errz.ErrMissingValue), idx)
	}
	operand := m.stack[n-1]
	if operand.kind != slotVar {
		return m.errorAt(errz.New(errz.ErrVariableExpected), idx)
	}
	old, err := m.value(operand)
	if err != nil {
		return m.errorAt(err, idx)
	}
	res, err := unaryOp(code, old)
	if err != nil {
		return m.errorAt(err, idx)
	}
	if err := m.store(operand, res); err != nil {
		return m.errorAt(err, idx)
	}
	m.truncate(n - 1)
	if err := m.pushValue(old, idx); err != nil {
		return err
	}
	return m.reduce()
}

// closeParen handles a right parenthesis: grouping, a built-in or user
// function call, or array subscripts, depending on what precedes the
// matching left parenthesis.
func (m *Machine) closeParen(idx int) error {
	base := m.active.baseline
	lp := -1
	for i := len(m.stack) - 1; i >= base; i-- {
		if s := m.stack[i]; s.kind == slotOp && s.op == op.LeftParen {
			lp = i
			break
		}
	}
	if lp < 0 {
		return m.errorAt(errz.New(errz.ErrParenMismatch), idx)
	}
	argc := len(m.stack) - lp - 1
	copy(m.stack[lp:], m.stack[lp+1:])
	m.stack = m.stack[:len(m.stack)-1]
	if lp > base {
		marker := m.stack[lp-1]
		switch marker.kind {
		case slotFunc:
			if marker.fnKind == token.InternalFunction {
				return m.callBuiltin(lp-1, argc)
			}
			return m.callFunction(lp-1, argc)
		case slotArray:
			return m.subscript(lp-1, argc)
		}
	}
	if argc != 1 {
		return m.errorAt(errz.New(errz.ErrMissingValue), idx)
	}
	top := &m.stack[len(m.stack)-1]
	if top.kind == slotVar {
		v, err := m.value(*top)
		if err != nil {
			return m.errorAt(err, top.tok)
		}
		*top = slot{kind: slotValue, val: v, tok: top.tok}
		if v.HasHeap() {
			m.tracker.Alloc(tracker.IntermediateStrings)
		}
	}
	return m.reduce()
}

func (m *Machine) subscript(marker, argc int) error {
	arr := m.stack[marker]
	subs := make([]int, argc)
	for i := 0; i < argc; i++ {
		s := m.stack[marker+1+i]
		v, err := m.value(s)
		if err != nil {
			return m.errorAt(err, s.tok)
		}
		if !v.IsNumeric() || (v.Type == object.FLOAT && v.F != float32(int32(v.F))) {
			return m.errorAt(errz.New(errz.ErrSubscriptNotInteger), s.tok)
		}
		subs[i] = int(v.AsLong())
	}
	offset, err := arr.ref.Var.Array.Offset(subs)
	if err != nil {
		return m.errorAt(err, arr.tok)
	}
	m.truncate(marker)
	elem := slot{kind: slotVar, ref: object.Ref{Var: arr.ref.Var, Elem: offset}, constant: arr.constant, tok: arr.tok}
	if err := m.push(elem); err != nil {
		return err
	}
	return m.reduce()
}
