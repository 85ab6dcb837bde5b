package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/native"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/rs/zerolog"
)

// Option is a configuration function for a Machine.
type Option func(*Machine)

// WithLogger sets the logger. The machine tags it with its session id.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithObserver sets an observer for statement, call and return events.
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observer = observer
	}
}

// WithConsole sets the console device used by print, input and the
// console built-ins. Between statements the machine also scans it for the
// abort and stop escape sequences.
func WithConsole(dev console.Device) Option {
	return func(m *Machine) {
		m.console = dev
	}
}

// WithFiles sets the file storage used by the file built-ins.
func WithFiles(files *storage.Files) Option {
	return func(m *Machine) {
		m.files = files
	}
}

// WithCallbacks sets the registry cb() looks aliases up in.
func WithCallbacks(registry *native.Registry) Option {
	return func(m *Machine) {
		m.natives = registry
	}
}

// WithHousekeeping sets a hook called at every statement boundary and on
// every poll of a blocking command. Returning true kills the running
// program.
func WithHousekeeping(fn func() bool) Option {
	return func(m *Machine) {
		m.housekeeping = fn
	}
}

// WithPrintResults makes the machine print the result of every
// immediate-mode expression statement.
func WithPrintResults(enabled bool) Option {
	return func(m *Machine) {
		m.printResults = enabled
	}
}

// WithMaxStackDepth bounds the evaluation stack.
func WithMaxStackDepth(depth int) Option {
	return func(m *Machine) {
		m.maxStack = depth
	}
}

// WithMaxFlowDepth bounds the flow control stack: nested calls, eval()
// levels and open blocks together.
func WithMaxFlowDepth(depth int) Option {
	return func(m *Machine) {
		m.maxFlow = depth
	}
}

// WithMaxEvalDepth bounds the nesting of eval() calls.
func WithMaxEvalDepth(depth int) Option {
	return func(m *Machine) {
		m.maxEval = depth
	}
}

// WithLastValues sets the size of the last-value history.
func WithLastValues(n int) Option {
	return func(m *Machine) {
		m.lastSize = n
	}
}
