package vm

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
)

// command executes a reserved-word statement whose arguments are on the
// stack above cmd.base.
func (m *Machine) command(cmd *pending) error {
	var err error
	switch cmd.word {
	case token.If:
		err = m.ifCmd(cmd)
	case token.ElseIf:
		err = m.elseIfCmd(cmd)
	case token.While:
		err = m.whileCmd(cmd)
	case token.For:
		err = m.forCmd(cmd)
	case token.End:
		err = m.endCmd(cmd)
	case token.Break, token.Continue:
		err = m.loopExit(cmd)
	case token.Return:
		err = m.returnCmd(cmd)
	case token.Print:
		err = m.printCmd(cmd, "\n")
	case token.Write:
		err = m.printCmd(cmd, "")
	case token.Input:
		err = m.inputCmd(cmd)
	case token.Pause:
		err = m.pauseCmd(cmd)
	case token.Halt:
		err = m.haltCmd()
	case token.Stop:
		m.stopRequested = true
	case token.Go, token.Step, token.StepOver, token.StepOut,
		token.StepOutOfBlock, token.StepToBlockEnd, token.Skip:
		err = m.resume(cmd)
	case token.Abort:
		if m.suspendedCount() == 0 {
			err = errz.New(errz.ErrNoProgramStopped)
		} else {
			return m.abortAll()
		}
	case token.Quit:
		return errz.New(errz.EventQuit)
	case token.Load:
		err = m.loadCmd(cmd)
	case token.ClearProg, token.ClearAll:
		err = m.clearCmd(cmd)
	case token.Delete:
		err = m.deleteCmd(cmd)
	default:
		err = errz.Newf(errz.ErrInternal, "no handler for %q", cmd.word)
	}
	if err != nil {
		switch errz.CodeOf(err) {
		case errz.EventKill:
			return m.kill()
		case errz.EventAbort:
			return m.abortAll()
		}
		return m.errorAt(err, cmd.tok)
	}
	return nil
}

func (m *Machine) print(s string) {
	if _, err := io.WriteString(m.console, s); err != nil {
		m.log.Warn().Err(err).Msg("console write failed")
	}
}

func (m *Machine) returnCmd(cmd *pending) error {
	v := object.NewLong(0)
	if len(m.stack) > cmd.base {
		var err error
		if v, err = m.value(m.stack[cmd.base]); err != nil {
			return err
		}
	}
	return m.returnFromFunction(v)
}

// printCmd writes its arguments separated by spaces, followed by end.
func (m *Machine) printCmd(cmd *pending, end string) error {
	parts := make([]string, 0, len(m.stack)-cmd.base)
	for _, s := range m.stack[cmd.base:] {
		v, err := m.value(s)
		if err != nil {
			return err
		}
		parts = append(parts, v.Inspect())
	}
	m.truncate(cmd.base)
	m.print(strings.Join(parts, " ") + end)
	return nil
}

// inputCmd prints a prompt and stores the line typed in reply as a string.
// A reply of \a aborts and \s requests a stop.
func (m *Machine) inputCmd(cmd *pending) error {
	prompt, err := m.value(m.stack[cmd.base])
	if err != nil {
		return err
	}
	dest := m.stack[cmd.base+1]
	if dest.kind != slotVar {
		return errz.New(errz.ErrVariableExpected)
	}
	m.print(prompt.Inspect())
	line, err := console.ReadLine(m.ctx, m.console, m.poll)
	switch {
	case errors.Is(err, io.EOF):
		line = ""
	case err != nil:
		if _, ok := err.(*errz.Error); !ok {
			return errz.New(errz.EventAbort)
		}
		return err
	}
	switch line {
	case `\a`:
		return errz.New(errz.EventAbort)
	case `\s`:
		m.stopRequested = true
	}
	if err := m.store(dest, object.NewString(line)); err != nil {
		return err
	}
	m.truncate(cmd.base)
	return nil
}

func (m *Machine) pauseCmd(cmd *pending) error {
	v, err := m.value(m.stack[cmd.base])
	if err != nil {
		return err
	}
	if !v.IsNumeric() {
		return errz.New(errz.ErrNumberExpected)
	}
	ms := v.AsLong()
	if ms < 0 {
		return errz.New(errz.ErrArgRange)
	}
	m.truncate(cmd.base)
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for {
		if err := m.poll(); err != nil {
			return err
		}
		m.pollInput()
		if m.abortRequested {
			m.abortRequested = false
			return errz.New(errz.EventAbort)
		}
		left := time.Until(deadline)
		if left <= 0 {
			return nil
		}
		time.Sleep(min(left, console.PollInterval))
	}
}

// haltCmd waits for any key, or the end of the input.
func (m *Machine) haltCmd() error {
	for {
		_, err := m.console.ReadByte()
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		if !errors.Is(err, console.ErrNoData) {
			return errz.Wrap(errz.ErrFileIO, err)
		}
		if err := m.poll(); err != nil {
			return err
		}
		time.Sleep(console.PollInterval)
	}
}

func (m *Machine) loadCmd(cmd *pending) error {
	if m.suspendedCount() > 0 {
		return errz.New(errz.ErrProgramSuspended)
	}
	m.loadRequest = ""
	if len(m.stack) > cmd.base {
		v, err := m.value(m.stack[cmd.base])
		if err != nil {
			return err
		}
		if !v.IsString() {
			return errz.New(errz.ErrStringExpected)
		}
		m.loadRequest = v.S
	}
	m.truncate(cmd.base)
	return errz.New(errz.EventLoadProgram)
}

// clearCmd removes the program, and for clearAll also the user variables
// and the last-value history. The rest of the line is skipped.
func (m *Machine) clearCmd(cmd *pending) error {
	if m.suspendedCount() > 0 {
		return errz.New(errz.ErrProgramSuspended)
	}
	m.truncate(cmd.base)
	m.clearProgram()
	if cmd.word == token.ClearAll {
		m.clearUsers()
		m.last.clear()
	}
	m.jump(m.active.code.Len() - 1)
	return nil
}

// deleteCmd removes user variables. Their table slots stay behind as
// unnamed tombstones until no code can refer to them.
func (m *Machine) deleteCmd(cmd *pending) error {
	if m.suspendedCount() > 0 {
		return errz.New(errz.ErrProgramSuspended)
	}
	for _, s := range m.stack[cmd.base:] {
		if s.kind != slotName {
			return errz.New(errz.ErrVariableExpected)
		}
		i := m.userIndex(s.name)
		if i < 0 {
			return errz.Newf(errz.ErrVariableNotDeclared, "no user variable %q", s.name)
		}
		m.drop(m.users[i])
		m.tracker.Free(tracker.IdentifierNames)
		m.users[i] = &object.Variable{Scope: object.ScopeUser}
	}
	m.truncate(cmd.base)
	return nil
}

func (m *Machine) userIndex(name string) int {
	for i, v := range m.users {
		if v.Name == name {
			return i
		}
	}
	return -1
}
