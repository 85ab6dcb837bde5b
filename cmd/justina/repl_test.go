package main

import (
	"context"
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const counterProgram = `
program counter;
var count = 0;
function bump(n);
  stop;
  count = count + n;
  return count;
end;
`

func runHost(t *testing.T, input string) (*vm.Machine, string) {
	t.Helper()
	color.NoColor = true
	files := storage.NewMemFiles()
	require.Nil(t, afero.WriteFile(files.Fs(), "/counter.jus", []byte(counterProgram), 0o644))
	buf := console.NewBuffer(input)
	m := vm.New(vm.WithConsole(buf), vm.WithFiles(files))
	h := newHost(m, buf, false, false)
	require.Nil(t, h.run(context.Background()))
	return m, buf.Output()
}

func TestHostRunsLines(t *testing.T) {
	_, out := runHost(t, "x = 2\n\nprint x * 3\n")
	require.Equal(t, "6\n", out)
}

func TestHostReportsErrors(t *testing.T) {
	_, out := runHost(t, "1/0\nprint 7\n")
	require.Contains(t, out, "division by zero")
	require.Contains(t, out, "   | 1/0\n")
	require.Contains(t, out, "7\n")
}

func TestHostQuit(t *testing.T) {
	_, out := runHost(t, "quit\nn\nprint 99\n")
	require.Equal(t, "** quit **\nkeep state? (y/n) state discarded\n", out)
}

func TestHostQuitKeepsState(t *testing.T) {
	m, out := runHost(t, `load "counter.jus"`+"\nbump(5)\nquit\ny\n")
	require.Contains(t, out, "keep state? (y/n) state kept\n")
	require.True(t, m.Stopped())
	require.Equal(t, "counter", m.Program().Name)
	_, ok := m.Variable("count")
	require.True(t, ok)
}

func TestHostQuitDiscardsState(t *testing.T) {
	m, out := runHost(t, `load "counter.jus"`+"\nx = 1\nbump(5)\nquit\nn\n")
	require.Contains(t, out, "state discarded\n")
	require.False(t, m.Stopped())
	require.Equal(t, "", m.Program().Name)
	_, ok := m.Variable("x")
	require.False(t, ok)
	require.Equal(t, 0, m.Tracker().Errors())
}

func TestHostQuitAtEndOfInput(t *testing.T) {
	m, out := runHost(t, "x = 1\nquit")
	require.Contains(t, out, "state discarded\n")
	_, ok := m.Variable("x")
	require.False(t, ok)
}

func TestHostLoadAndDebug(t *testing.T) {
	m, out := runHost(t, `load "counter.jus"`+"\nbump(5)\ncount\ngo\nprint count\n")
	require.Contains(t, out, `program "counter" loaded`)
	require.Contains(t, out, "stopped in bump\n  next: count = count + n;\n")
	require.Contains(t, out, "5\n")
	require.False(t, m.Stopped())
}

func TestHostLoadMissingFile(t *testing.T) {
	_, out := runHost(t, `load "nope.jus"`+"\n")
	require.Contains(t, out, "file I/O error")
}
