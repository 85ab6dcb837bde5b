package parser

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/internal/lexer"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
)

// expression emits the tokens of one expression in source order. Only the
// roles of operators are decided here; priorities are applied at run time.
func (p *Parser) expression() error {
	if err := p.unary(); err != nil {
		return err
	}
	for {
		lx := p.cur()
		if lx.Kind != lexer.Terminal || op.GetInfo(lx.Op).Infix == 0 {
			return nil
		}
		p.emitTerminal(lx, op.Infix)
		p.advance(1)
		if err := p.unary(); err != nil {
			return err
		}
	}
}

func (p *Parser) enter(pos int) error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorAt(errz.ErrStatementTooLong, pos)
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

func (p *Parser) unary() error {
	lx := p.cur()
	if lx.Kind == lexer.Terminal && op.GetInfo(lx.Op).Prefix > 0 {
		if err := p.enter(lx.Pos); err != nil {
			return err
		}
		defer p.leave()
		p.emitTerminal(lx, op.Prefix)
		p.advance(1)
		return p.unary()
	}
	if err := p.primary(); err != nil {
		return err
	}
	for {
		lx = p.cur()
		if lx.Kind != lexer.Terminal || op.GetInfo(lx.Op).Postfix == 0 {
			return nil
		}
		p.emitTerminal(lx, op.Postfix)
		p.advance(1)
	}
}

func (p *Parser) primary() error {
	lx := p.cur()
	switch lx.Kind {
	case lexer.Long:
		p.emitConstant(object.NewLong(lx.Long), lx.Pos)
	case lexer.Float:
		p.emitConstant(object.NewFloat(lx.Float), lx.Pos)
	case lexer.String:
		p.emitConstant(object.NewString(lx.Literal), lx.Pos)
	case lexer.Ident:
		return p.name()
	case lexer.Terminal:
		if lx.Op != op.LeftParen {
			return p.unexpected(lx)
		}
		if err := p.enter(lx.Pos); err != nil {
			return err
		}
		defer p.leave()
		p.emitTerminal(lx, op.NoRole)
		p.advance(1)
		if err := p.expression(); err != nil {
			return err
		}
		if !p.isTerminal(p.cur(), op.RightParen) {
			return p.errorAt(errz.ErrParenMismatch, p.cur().Pos)
		}
		p.emitTerminal(p.cur(), op.NoRole)
		p.advance(1)
		return nil
	default:
		return p.unexpected(lx)
	}
	p.advance(1)
	return nil
}

func (p *Parser) emitConstant(v object.Value, pos int) {
	p.emit(token.Token{Kind: token.Constant, Value: v, Link: token.NoLink, Pos: pos})
}

// name emits a function call, an array element or a variable.
func (p *Parser) name() error {
	lx := p.cur()
	if isReserved(lx.Literal) {
		return p.errorAt(errz.ErrUnexpectedToken, lx.Pos)
	}
	call := p.isTerminal(p.peek(1), op.LeftParen)
	if call {
		if i, ok := token.LookupBuiltin(lx.Literal); ok {
			p.emit(token.Token{Kind: token.InternalFunction, Index: i, Link: token.NoLink, Pos: lx.Pos})
			p.advance(1)
			argc, err := p.callArguments()
			if err != nil {
				return err
			}
			info := token.Builtins[i]
			if argc < info.MinArgs || argc > info.MaxArgs {
				return p.errorAt(errz.ErrArgCount, lx.Pos)
			}
			return nil
		}
		if fn, ok := p.lookupFunction(lx.Literal); ok {
			p.emit(token.Token{Kind: token.ExternalFunction, Index: fn.Index, Link: token.NoLink, Pos: lx.Pos})
			p.advance(1)
			argc, err := p.callArguments()
			if err != nil {
				return err
			}
			if p.mode == modeProgram {
				p.calls = append(p.calls, callSite{fn: fn, argc: argc, pos: lx.Pos})
			} else if argc < fn.MinParams || argc > len(fn.Params) {
				return p.errorAt(errz.ErrArgCount, lx.Pos)
			}
			return nil
		}
	}
	r, ok := p.lookupVar(lx.Literal)
	if !ok {
		if call {
			return p.errorAt(errz.ErrUndefinedFunction, lx.Pos)
		}
		if !p.mayDeclare() {
			return p.errorAt(errz.ErrUnknownName, lx.Pos)
		}
		v := object.NewVariable(lx.Literal, object.ScopeUser, object.Zero)
		r = resolved{scope: object.ScopeUser, index: p.declareUser(v)}
	}
	if call && !r.isArray {
		return p.errorAt(errz.ErrArrayExpected, lx.Pos)
	}
	p.emit(token.Token{Kind: token.Variable, Index: r.index, Scope: r.scope, Array: r.isArray, Link: token.NoLink, Pos: lx.Pos})
	p.advance(1)
	if !call {
		return nil
	}
	n, err := p.callArguments()
	if err != nil {
		return err
	}
	if n == 0 || n > object.MaxArrayDims {
		return p.errorAt(errz.ErrArrayDimCount, lx.Pos)
	}
	return nil
}

// mayDeclare reports whether an unknown name at the current position
// declares a user variable: the target of a plain assignment or the control
// variable of a for loop, outside programs.
func (p *Parser) mayDeclare() bool {
	if p.mode == modeProgram {
		return false
	}
	return p.forCtrl || p.isTerminal(p.peek(1), op.Assign)
}

// callArguments parses a parenthesised argument list and returns the
// argument count.
func (p *Parser) callArguments() (int, error) {
	open := p.cur()
	if err := p.enter(open.Pos); err != nil {
		return 0, err
	}
	defer p.leave()
	p.emitTerminal(open, op.NoRole)
	p.advance(1)
	if p.isTerminal(p.cur(), op.RightParen) {
		p.emitTerminal(p.cur(), op.NoRole)
		p.advance(1)
		return 0, nil
	}
	count := 0
	for {
		if err := p.expression(); err != nil {
			return 0, err
		}
		count++
		lx := p.cur()
		if p.isTerminal(lx, op.Comma) {
			p.emitTerminal(lx, op.NoRole)
			p.advance(1)
			continue
		}
		if p.isTerminal(lx, op.RightParen) {
			p.emitTerminal(lx, op.NoRole)
			p.advance(1)
			return count, nil
		}
		return 0, p.errorAt(errz.ErrParenMismatch, lx.Pos)
	}
}
