package parser

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
)

// Program is a parsed program: its code and the tables its tokens index.
type Program struct {
	Name      string
	Code      *token.Code
	Globals   []*object.Variable
	Statics   []*object.Variable
	Functions []*object.Function
}

// EmptyProgram returns a program with no declarations.
func EmptyProgram() *Program {
	return &Program{
		Code: &token.Code{Name: "program", Tokens: []token.Token{{Kind: token.EndOfCode, Link: token.NoLink}}},
	}
}

// Function returns the named function.
func (p *Program) Function(name string) (*object.Function, bool) {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// Global returns the index of the named global.
func (p *Program) Global(name string) (int, bool) {
	return lookup(p.Globals, name)
}

func lookup(vars []*object.Variable, name string) (int, bool) {
	for i, v := range vars {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Env is what immediate-mode and eval() code is resolved against.
type Env struct {
	Program *Program
	Users   []*object.Variable
	// Func, when set, makes the locals and statics of that function
	// visible, for code running while the function is stopped or for
	// eval() called from it.
	Func *object.Function
}

// Result is parsed immediate-mode or eval() code. NewUsers are user
// variables the code declares; the caller appends them, in order, to the
// user table it passed in Env.
type Result struct {
	Code     *token.Code
	NewUsers []*object.Variable
}
