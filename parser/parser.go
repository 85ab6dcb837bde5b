// Package parser turns source text into the token stream the runtime
// executes.
//
// Three entry points exist: ParseProgram for a stored program, ParseImmediate
// for one interactive command line, and ParseEval for the argument of
// eval(). The parser resolves every name to a table index, decides the role
// (prefix, infix, postfix) of every operator and links block commands to
// their matching clauses, so the runtime treats all of these as data.
package parser

import (
	"context"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/internal/lexer"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
)

// DefaultMaxDepth is the default maximum nesting depth of parentheses and
// prefix operators.
const DefaultMaxDepth = 32

// MaxFrameSlots bounds parameters plus locals of one function.
const MaxFrameSlots = 255

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

type mode uint8

const (
	modeProgram mode = iota
	modeImmediate
	modeEval
)

func (m mode) origin() string {
	switch m {
	case modeProgram:
		return "program"
	case modeEval:
		return "eval"
	default:
		return "immediate"
	}
}

type blockEntry struct {
	word    token.Word
	start   int
	last    int
	hasElse bool
}

type callSite struct {
	fn   *object.Function
	argc int
	pos  int
}

// Parser holds the state of one parse. A Parser is used once.
type Parser struct {
	ctx      context.Context
	mode     mode
	src      string
	lx       []lexer.Lexeme
	pos      int
	tokens   []token.Token
	prog     *Program
	env      Env
	fn       *object.Function
	fnStart  *object.Function
	blocks   []blockEntry
	newUsers []*object.Variable
	calls    []callSite
	forCtrl  bool
	depth    int
	maxDepth int
}

func newParser(ctx context.Context, m mode, src string, options []Option) (*Parser, error) {
	p := &Parser{ctx: ctx, mode: m, src: src, maxDepth: DefaultMaxDepth}
	for _, opt := range options {
		opt(p)
	}
	lx, err := lexer.Tokenize(src)
	if err != nil {
		if e, ok := err.(*errz.Error); ok {
			e.Origin = m.origin()
		}
		return nil, err
	}
	p.lx = lx
	return p, nil
}

// ParseProgram parses a stored program. Programs contain declarations and
// function definitions only.
func ParseProgram(ctx context.Context, src string, options ...Option) (*Program, error) {
	p, err := newParser(ctx, modeProgram, src, options)
	if err != nil {
		return nil, err
	}
	p.prog = &Program{}
	if err := p.prescanFunctions(); err != nil {
		return nil, err
	}
	for !p.atEOF() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.statement(); err != nil {
			return nil, err
		}
	}
	if len(p.blocks) > 0 {
		return nil, p.errorAt(errz.ErrMissingEnd, p.tokens[p.blocks[len(p.blocks)-1].start].Pos)
	}
	for _, c := range p.calls {
		if c.argc < c.fn.MinParams || c.argc > len(c.fn.Params) {
			return nil, p.errorAt(errz.ErrArgCount, c.pos)
		}
	}
	p.emit(token.Token{Kind: token.EndOfCode, Link: token.NoLink, Pos: len(src)})
	p.prog.Code = &token.Code{Name: "program", Source: src, Tokens: p.tokens}
	return p.prog, nil
}

// ParseImmediate parses one interactive command line. A missing final
// semicolon is supplied.
func ParseImmediate(ctx context.Context, src string, env Env, options ...Option) (*Result, error) {
	return parseLine(ctx, modeImmediate, src, env, options)
}

// ParseEval parses the argument of eval(). It accepts expression statements
// only and terminates the code with an EndOfEval marker.
func ParseEval(ctx context.Context, src string, env Env, options ...Option) (*Result, error) {
	return parseLine(ctx, modeEval, src, env, options)
}

func parseLine(ctx context.Context, m mode, src string, env Env, options []Option) (*Result, error) {
	p, err := newParser(ctx, m, src, options)
	if err != nil {
		return nil, err
	}
	if env.Program == nil {
		env.Program = EmptyProgram()
	}
	p.env = env
	for !p.atEOF() {
		if err := p.statement(); err != nil {
			return nil, err
		}
	}
	if len(p.blocks) > 0 {
		return nil, p.errorAt(errz.ErrMissingEnd, p.tokens[p.blocks[len(p.blocks)-1].start].Pos)
	}
	end := token.EndOfCode
	name := "immediate"
	if m == modeEval {
		end = token.EndOfEval
		name = "eval"
	}
	p.emit(token.Token{Kind: end, Link: token.NoLink, Pos: len(src)})
	return &Result{
		Code:     &token.Code{Name: name, Source: src, Tokens: p.tokens},
		NewUsers: p.newUsers,
	}, nil
}

// prescanFunctions collects function names so calls may precede
// definitions.
func (p *Parser) prescanFunctions() error {
	for i := 0; i+1 < len(p.lx); i++ {
		if p.lx[i].Kind != lexer.Ident || p.lx[i].Literal != "function" {
			continue
		}
		name := p.lx[i+1]
		if name.Kind != lexer.Ident {
			continue
		}
		if _, ok := p.prog.Function(name.Literal); ok {
			return p.errorAt(errz.ErrFunctionRedefined, name.Pos)
		}
		if _, ok := token.LookupBuiltin(name.Literal); ok {
			return p.errorAt(errz.ErrFunctionRedefined, name.Pos)
		}
		p.prog.Functions = append(p.prog.Functions, &object.Function{
			Name:  name.Literal,
			Index: len(p.prog.Functions),
			Start: -1,
			End:   -1,
		})
	}
	return nil
}

func (p *Parser) cur() lexer.Lexeme { return p.peek(0) }

func (p *Parser) peek(n int) lexer.Lexeme {
	if p.pos+n >= len(p.lx) {
		return p.lx[len(p.lx)-1]
	}
	return p.lx[p.pos+n]
}

func (p *Parser) advance(n int) { p.pos += n }

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) isTerminal(lx lexer.Lexeme, code op.Code) bool {
	return lx.Kind == lexer.Terminal && lx.Op == code
}

func (p *Parser) emit(t token.Token) int {
	p.tokens = append(p.tokens, t)
	return len(p.tokens) - 1
}

func (p *Parser) emitTerminal(lx lexer.Lexeme, role op.Role) int {
	return p.emit(token.Token{Kind: token.Terminal, Index: int(lx.Op), Role: role, Link: token.NoLink, Pos: lx.Pos})
}

func (p *Parser) expectTerminal(code op.Code) error {
	lx := p.cur()
	if !p.isTerminal(lx, code) {
		return p.unexpected(lx)
	}
	p.emitTerminal(lx, op.NoRole)
	p.advance(1)
	return nil
}

func (p *Parser) expectIdent() (lexer.Lexeme, error) {
	lx := p.cur()
	if lx.Kind != lexer.Ident {
		return lx, p.unexpected(lx)
	}
	if isReserved(lx.Literal) {
		return lx, p.errorAt(errz.ErrUnexpectedToken, lx.Pos)
	}
	p.advance(1)
	return lx, nil
}

func (p *Parser) errorAt(code errz.Code, pos int) *errz.Error {
	e := errz.New(code)
	e.Pos = pos
	e.Source = p.src
	e.Origin = p.mode.origin()
	return e
}

func (p *Parser) unexpected(lx lexer.Lexeme) *errz.Error {
	if lx.Kind == lexer.EOF || (lx.Kind == lexer.Terminal && (lx.Op == op.Semicolon || lx.Op == op.Comma || lx.Op == op.RightParen)) {
		return p.errorAt(errz.ErrMissingValue, lx.Pos)
	}
	return p.errorAt(errz.ErrUnexpectedToken, lx.Pos)
}

func isReserved(name string) bool {
	_, ok := token.LookupWord(name)
	return ok
}

// scopeFunc returns the function whose locals are visible.
func (p *Parser) scopeFunc() *object.Function {
	if p.mode == modeProgram {
		return p.fn
	}
	return p.env.Func
}

func (p *Parser) program() *Program {
	if p.mode == modeProgram {
		return p.prog
	}
	return p.env.Program
}

type resolved struct {
	scope   object.Scope
	index   int
	isArray bool
	isConst bool
}

// lookupVar resolves a variable name: frame slots and statics of the
// visible function first, then globals, then user variables.
func (p *Parser) lookupVar(name string) (resolved, bool) {
	prog := p.program()
	if fn := p.scopeFunc(); fn != nil {
		for i := 0; i < fn.LocalCount(); i++ {
			if fn.LocalName(i) == name {
				scope := object.ScopeLocal
				if i < len(fn.Params) {
					scope = object.ScopeParam
				}
				return resolved{scope: scope, index: i, isArray: fn.LocalIsArray(i)}, true
			}
		}
		for _, si := range fn.Statics {
			if v := prog.Statics[si]; v.Name == name {
				return resolved{scope: object.ScopeStatic, index: si, isArray: v.Array != nil}, true
			}
		}
	}
	if i, ok := prog.Global(name); ok {
		v := prog.Globals[i]
		return resolved{scope: object.ScopeGlobal, index: i, isArray: v.Array != nil, isConst: v.Const}, true
	}
	if p.mode == modeProgram {
		return resolved{}, false
	}
	if i, ok := lookup(p.env.Users, name); ok {
		v := p.env.Users[i]
		return resolved{scope: object.ScopeUser, index: i, isArray: v.Array != nil, isConst: v.Const}, true
	}
	if i, ok := lookup(p.newUsers, name); ok {
		v := p.newUsers[i]
		return resolved{scope: object.ScopeUser, index: len(p.env.Users) + i, isArray: v.Array != nil, isConst: v.Const}, true
	}
	return resolved{}, false
}

func (p *Parser) lookupFunction(name string) (*object.Function, bool) {
	prog := p.program()
	if prog == nil {
		return nil, false
	}
	return prog.Function(name)
}

// declareUser adds a user variable created by this line.
func (p *Parser) declareUser(v *object.Variable) int {
	p.newUsers = append(p.newUsers, v)
	return len(p.env.Users) + len(p.newUsers) - 1
}
