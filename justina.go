// Package justina embeds the Justina interpreter: a program of user
// functions plus an interactive immediate mode that runs one line at a time
// against it, with a built-in debugger.
//
// The vm package holds the machine itself. This package wires its
// collaborators together:
//
//	m, err := justina.New(ctx, justina.WithProgram(src))
//	result, err := m.Exec(ctx, "main()")
package justina

import (
	"context"

	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
)

// New creates a machine. A program supplied through WithProgram or
// WithProgramFile is loaded before New returns.
func New(ctx context.Context, opts ...Option) (*vm.Machine, error) {
	o := collectOptions(opts...)
	registry, err := o.registry()
	if err != nil {
		return nil, err
	}
	m := vm.New(o.vmOpts(registry)...)
	switch {
	case o.filename != "":
		if err := LoadFile(ctx, m, o.filename); err != nil {
			return nil, err
		}
	case o.program != "":
		if err := m.LoadProgram(ctx, o.program); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadFile reads a program from the machine's file storage and loads it.
// Hosts call it when Exec reports a load request.
func LoadFile(ctx context.Context, m *vm.Machine, path string) error {
	src, err := m.Files().ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadProgram(ctx, src)
}

// Eval runs one immediate-mode line on a new machine and returns the value
// of its last expression statement as a Go value.
func Eval(ctx context.Context, line string, opts ...Option) (any, error) {
	m, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	result, err := m.Exec(ctx, line)
	if err != nil {
		return nil, err
	}
	return Interface(result), nil
}

// Interface converts a value to int64, float64 or string. An absent value
// converts to nil.
func Interface(v object.Value) any {
	switch v.Type {
	case object.LONG:
		return int64(v.L)
	case object.FLOAT:
		return float64(v.F)
	case object.STRING:
		return v.S
	default:
		return nil
	}
}
