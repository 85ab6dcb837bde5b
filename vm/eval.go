package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/parser"
)

func (m *Machine) evalDepth() int {
	n := 0
	if m.active != nil && m.active.kind == actEval {
		n++
	}
	for _, e := range m.flow {
		if e.act != nil && e.act.kind == actEval {
			n++
		}
	}
	return n
}

// startEval parses the string argument of eval() and runs it as a nested
// activation whose single result replaces the call.
func (m *Machine) startEval(marker, argc int) error {
	call := m.stack[marker]
	if argc != 1 {
		return m.errorAt(errz.New(errz.ErrArgCount), call.tok)
	}
	arg := m.stack[marker+1]
	v, err := m.value(arg)
	if err != nil {
		return m.errorAt(err, arg.tok)
	}
	if !v.IsString() {
		return m.errorAt(errz.New(errz.ErrStringExpected), arg.tok)
	}
	if m.evalDepth() >= m.maxEval {
		return m.errorAt(errz.New(errz.ErrFlowStackOverflow), call.tok)
	}
	res, err := parser.ParseEval(m.ctx, v.S, m.env())
	if err != nil {
		return m.errorAt(errz.Wrap(errz.ErrEvalParse, err), call.tok)
	}
	if err := m.pushFlow(flowEntry{act: m.active}); err != nil {
		return m.errorAt(err, call.tok)
	}
	m.addUsers(res.NewUsers)
	m.truncate(marker)
	m.active = &activation{
		kind:      actEval,
		code:      res.Code,
		baseline:  marker,
		blockBase: len(m.flow),
		callTok:   call.tok,
	}
	return nil
}

// endEval hands the value left by eval() code to the caller.
func (m *Machine) endEval(idx int) error {
	act := m.active
	if len(m.stack) != act.baseline+1 {
		return m.errorAt(errz.New(errz.ErrEvalResult), idx)
	}
	v, err := m.value(m.stack[act.baseline])
	if err != nil {
		return m.errorAt(err, idx)
	}
	m.truncate(act.baseline)
	m.flow = m.flow[:act.blockBase]
	caller := m.flow[len(m.flow)-1].act
	m.flow = m.flow[:len(m.flow)-1]
	m.active = caller
	if err := m.pushValue(v, act.callTok); err != nil {
		return err
	}
	return m.reduce()
}
