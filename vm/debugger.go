package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
)

type stepMode uint8

const (
	modeContinue stepMode = iota
	modeSingleStep
	modeStepOver
	modeStepOut
	modeStepOutOfBlock
	modeStepToBlockEnd
)

// debugger holds the step mode of the program being debugged and the call
// and block depths recorded when it was resumed.
type debugger struct {
	mode       stepMode
	callDepth  int
	blockDepth int
}

// StopInfo describes a stopped program.
type StopInfo struct {
	Function  string
	Statement string
	Pos       int
	CallDepth int
	// Suspended is the number of stopped programs, including this one.
	Suspended int
}

func (m *Machine) suspendedCount() int {
	n := 0
	for _, e := range m.flow {
		if e.act != nil && e.act.suspended {
			n++
		}
	}
	return n
}

func (m *Machine) topSuspended() int {
	for i := len(m.flow) - 1; i >= 0; i-- {
		if act := m.flow[i].act; act != nil && act.suspended {
			return i
		}
	}
	return -1
}

// Stopped reports whether a program is stopped.
func (m *Machine) Stopped() bool { return m.topSuspended() >= 0 }

// StoppedAt describes the most recently stopped program.
func (m *Machine) StoppedAt() (StopInfo, bool) {
	i := m.topSuspended()
	if i < 0 {
		return StopInfo{}, false
	}
	act := m.flow[i].act
	depth := 0
	for _, e := range m.flow[:i+1] {
		if e.act != nil && e.act.kind == actFunction {
			depth++
		}
	}
	return StopInfo{
		Function:  act.fn.Name,
		Statement: act.code.StatementText(act.ip),
		Pos:       act.code.At(act.ip).Pos,
		CallDepth: depth,
		Suspended: m.suspendedCount(),
	}, true
}

// shouldStop decides, before a program statement, whether execution stops.
func (m *Machine) shouldStop() bool {
	if m.stopRequested {
		m.stopRequested = false
		return true
	}
	calls, blocks := m.callDepth(), m.blockDepth()
	switch m.dbg.mode {
	case modeSingleStep:
		return true
	case modeStepOver:
		return calls <= m.dbg.callDepth
	case modeStepOut:
		return calls < m.dbg.callDepth
	case modeStepOutOfBlock:
		return calls < m.dbg.callDepth || (calls == m.dbg.callDepth && blocks < m.dbg.blockDepth)
	case modeStepToBlockEnd:
		if calls < m.dbg.callDepth {
			return true
		}
		if calls == m.dbg.callDepth {
			if blocks < m.dbg.blockDepth {
				return true
			}
			return blocks == m.dbg.blockDepth && m.active.code.At(m.active.ip).IsWord(token.End)
		}
	}
	return false
}

// suspend parks the active function activation on the flow stack. The
// activations below it, up to the immediate line that started the
// program, stay where they are.
func (m *Machine) suspend() error {
	act := m.active
	if err := m.pushFlow(flowEntry{act: act}); err != nil {
		return err
	}
	act.suspended = true
	m.active = nil
	m.dbg.mode = modeContinue
	m.log.Debug().
		Str("function", act.fn.Name).
		Int("suspended", m.suspendedCount()).
		Msg("program stopped")
	return errz.New(errz.EventStopped)
}

// resume continues the most recently stopped program in the step mode the
// command selects. The rest of the immediate line is discarded.
func (m *Machine) resume(cmd *pending) error {
	i := m.topSuspended()
	if i < 0 {
		return errz.New(errz.ErrNoProgramStopped)
	}
	act := m.flow[i].act
	if cmd.word == token.Skip {
		if t := act.code.At(act.ip); t.Kind == token.ReservedWord && t.Word().Has(token.Block) {
			return errz.New(errz.ErrCannotSkip)
		}
	}
	m.truncate(m.active.baseline)
	m.flow = m.flow[:i]
	act.suspended = false
	m.active = act

	m.dbg = debugger{callDepth: m.callDepth(), blockDepth: m.blockDepth()}
	switch cmd.word {
	case token.Go:
		m.dbg.mode = modeContinue
	case token.Step:
		m.dbg.mode = modeSingleStep
	case token.StepOver:
		m.dbg.mode = modeStepOver
	case token.StepOut:
		m.dbg.mode = modeStepOut
	case token.StepOutOfBlock:
		m.dbg.mode = modeStepOutOfBlock
	case token.StepToBlockEnd:
		m.dbg.mode = modeStepToBlockEnd
	case token.Skip:
		act.ip = act.code.NextStatement(act.ip)
		m.dbg.mode = modeSingleStep
		m.stmtStart = true
	}
	m.log.Debug().
		Str("function", act.fn.Name).
		Str("command", cmd.word.String()).
		Msg("program resumed")
	return nil
}
