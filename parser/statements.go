package parser

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/internal/lexer"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
)

func (p *Parser) statement() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	lx := p.cur()
	if p.isTerminal(lx, op.Semicolon) {
		p.advance(1)
		return nil
	}
	if lx.Kind == lexer.Ident {
		if w, n := p.matchWord(); n > 0 {
			return p.command(w, n)
		}
	}
	if p.mode == modeProgram && p.fn == nil {
		return p.errorAt(errz.ErrOnlyProgramTopLevel, lx.Pos)
	}
	if err := p.expression(); err != nil {
		return err
	}
	return p.endStatement()
}

// matchWord recognises a reserved word at the current position, including
// the multi-word step commands. It returns the number of lexemes the word
// spans, or zero.
func (p *Parser) matchWord() (token.Word, int) {
	name := p.cur().Literal
	if name == "step" {
		ident := func(n int) string {
			lx := p.peek(n)
			if lx.Kind != lexer.Ident {
				return ""
			}
			return lx.Literal
		}
		switch ident(1) {
		case "over":
			return token.StepOver, 2
		case "out":
			if ident(2) == "of" && ident(3) == "block" {
				return token.StepOutOfBlock, 4
			}
			return token.StepOut, 2
		case "to":
			if ident(2) == "block" && ident(3) == "end" {
				return token.StepToBlockEnd, 4
			}
		}
		return token.Step, 1
	}
	w, ok := token.LookupWord(name)
	if !ok {
		return token.WordInvalid, 0
	}
	return w, 1
}

func (p *Parser) endStatement() error {
	lx := p.cur()
	if p.isTerminal(lx, op.Semicolon) {
		p.emitTerminal(lx, op.NoRole)
		p.advance(1)
		return nil
	}
	if lx.Kind == lexer.EOF && p.mode != modeProgram {
		p.emit(token.Token{Kind: token.Terminal, Index: int(op.Semicolon), Link: token.NoLink, Pos: lx.Pos})
		return nil
	}
	return p.errorAt(errz.ErrUnexpectedToken, lx.Pos)
}

func (p *Parser) checkPlacement(w token.Word, pos int) error {
	switch {
	case p.mode == modeEval:
		return p.errorAt(errz.ErrEvalCommand, pos)
	case p.mode == modeProgram && w.Has(token.ImmediateOnly):
		return p.errorAt(errz.ErrOnlyImmediate, pos)
	case p.mode != modeProgram && w.Has(token.ProgramOnly):
		return p.errorAt(errz.ErrNotInProgram, pos)
	case p.mode != modeProgram:
		return nil
	case p.fn == nil && !w.Has(token.TopLevel):
		if w == token.Local || w == token.Static {
			return p.errorAt(errz.ErrNotInFunction, pos)
		}
		return p.errorAt(errz.ErrOnlyProgramTopLevel, pos)
	case p.fn != nil && w.Has(token.TopLevel):
		return p.errorAt(errz.ErrBlockMismatch, pos)
	}
	return nil
}

func (p *Parser) command(w token.Word, n int) error {
	pos := p.cur().Pos
	if err := p.checkPlacement(w, pos); err != nil {
		return err
	}
	p.advance(n)
	idx := p.emit(token.Token{Kind: token.ReservedWord, Index: int(w), Link: token.NoLink, Pos: pos})
	var err error
	switch w {
	case token.Program:
		err = p.programHeader(idx, pos)
	case token.Var, token.Const, token.Local, token.Static:
		err = p.declarations(w)
	case token.Function:
		err = p.functionHeader(idx)
	case token.Delete:
		err = p.genericNames(w)
	case token.If, token.While:
		p.blocks = append(p.blocks, blockEntry{word: w, start: idx, last: idx})
		err = p.arguments(w, pos)
	case token.ElseIf, token.Else:
		if err = p.blockClause(w, idx, pos); err == nil {
			err = p.arguments(w, pos)
		}
	case token.For:
		p.blocks = append(p.blocks, blockEntry{word: w, start: idx, last: idx})
		err = p.forHeader(pos)
	case token.End:
		err = p.blockClose(idx, pos)
	case token.Break, token.Continue:
		err = p.checkInLoop(pos)
	default:
		err = p.arguments(w, pos)
	}
	if err != nil {
		return err
	}
	if err := p.endStatement(); err != nil {
		return err
	}
	if p.fnStart != nil {
		p.fnStart.Start = len(p.tokens)
		p.fnStart = nil
	}
	return nil
}

// arguments parses a comma separated expression list and checks its length
// against the word's argument counts.
func (p *Parser) arguments(w token.Word, pos int) error {
	info := w.Info()
	count := 0
	if !p.atStatementEnd() {
		for {
			if err := p.expression(); err != nil {
				return err
			}
			count++
			lx := p.cur()
			if !p.isTerminal(lx, op.Comma) {
				break
			}
			p.emitTerminal(lx, op.NoRole)
			p.advance(1)
		}
	}
	if count < info.MinArgs || count > info.MaxArgs {
		return p.errorAt(errz.ErrArgCount, pos)
	}
	return nil
}

func (p *Parser) atStatementEnd() bool {
	lx := p.cur()
	return lx.Kind == lexer.EOF || p.isTerminal(lx, op.Semicolon)
}

func (p *Parser) genericNames(w token.Word) error {
	info := w.Info()
	count := 0
	for {
		lx, err := p.expectIdent()
		if err != nil {
			return err
		}
		p.emit(token.Token{Kind: token.GenericName, Name: lx.Literal, Link: token.NoLink, Pos: lx.Pos})
		count++
		if !p.isTerminal(p.cur(), op.Comma) {
			break
		}
		p.advance(1)
	}
	if count > info.MaxArgs {
		return p.errorAt(errz.ErrArgCount, p.cur().Pos)
	}
	return nil
}

func (p *Parser) programHeader(idx, pos int) error {
	if idx != 0 || p.prog.Name != "" {
		return p.errorAt(errz.ErrBlockMismatch, pos)
	}
	lx, err := p.expectIdent()
	if err != nil {
		return err
	}
	p.prog.Name = lx.Literal
	p.emit(token.Token{Kind: token.GenericName, Name: lx.Literal, Link: token.NoLink, Pos: lx.Pos})
	return nil
}

// constant parses an optionally signed literal.
func (p *Parser) constant() (object.Value, error) {
	neg := false
	lx := p.cur()
	if p.isTerminal(lx, op.Minus) || p.isTerminal(lx, op.Plus) {
		neg = lx.Op == op.Minus
		p.advance(1)
		lx = p.cur()
		if lx.Kind != lexer.Long && lx.Kind != lexer.Float {
			return object.Value{}, p.errorAt(errz.ErrConstantExpected, lx.Pos)
		}
	}
	p.advance(1)
	switch lx.Kind {
	case lexer.Long:
		if neg {
			return object.NewLong(-lx.Long), nil
		}
		return object.NewLong(lx.Long), nil
	case lexer.Float:
		if neg {
			return object.NewFloat(-lx.Float), nil
		}
		return object.NewFloat(lx.Float), nil
	case lexer.String:
		return object.NewString(lx.Literal), nil
	}
	return object.Value{}, p.errorAt(errz.ErrConstantExpected, lx.Pos)
}

// dimensions parses "(d1, d2, ...)" after an array name.
func (p *Parser) dimensions() ([]int, error) {
	p.advance(1) // (
	var dims []int
	for {
		lx := p.cur()
		if lx.Kind != lexer.Long {
			return nil, p.errorAt(errz.ErrConstantExpected, lx.Pos)
		}
		p.advance(1)
		dims = append(dims, int(lx.Long))
		next := p.cur()
		if p.isTerminal(next, op.RightParen) {
			p.advance(1)
			break
		}
		if !p.isTerminal(next, op.Comma) {
			return nil, p.unexpected(next)
		}
		p.advance(1)
	}
	if len(dims) > object.MaxArrayDims {
		return nil, p.errorAt(errz.ErrArrayDimCount, p.cur().Pos)
	}
	return dims, nil
}

func (p *Parser) declarations(w token.Word) error {
	for {
		lx, err := p.expectIdent()
		if err != nil {
			return err
		}
		var dims []int
		if p.isTerminal(p.cur(), op.LeftParen) {
			if w == token.Const {
				return p.errorAt(errz.ErrConstantExpected, p.cur().Pos)
			}
			if dims, err = p.dimensions(); err != nil {
				return err
			}
		}
		init := object.Zero
		if dims != nil {
			init = object.NewFloat(0)
		}
		if p.isTerminal(p.cur(), op.Assign) {
			p.advance(1)
			if init, err = p.constant(); err != nil {
				return err
			}
		} else if w == token.Const {
			return p.errorAt(errz.ErrConstantExpected, p.cur().Pos)
		}
		if err := p.declare(w, lx, dims, init); err != nil {
			return err
		}
		p.emit(token.Token{Kind: token.GenericName, Name: lx.Literal, Array: dims != nil, Link: token.NoLink, Pos: lx.Pos})
		if !p.isTerminal(p.cur(), op.Comma) {
			return nil
		}
		p.advance(1)
	}
}

func (p *Parser) newVariable(name string, scope object.Scope, isConst bool, dims []int, init object.Value, pos int) (*object.Variable, error) {
	v := object.NewVariable(name, scope, init)
	v.Const = isConst
	if dims != nil {
		arr, err := object.NewArray(dims, init)
		if err != nil {
			return nil, p.errorAt(errz.CodeOf(err), pos)
		}
		v.Array = arr
		v.Value = object.Value{}
	}
	return v, nil
}

func (p *Parser) declare(w token.Word, lx lexer.Lexeme, dims []int, init object.Value) error {
	name, pos := lx.Literal, lx.Pos
	isConst := w == token.Const
	switch {
	case w == token.Local:
		if p.frameSlot(name) || p.staticSlot(name) {
			return p.errorAt(errz.ErrVariableRedeclared, pos)
		}
		if p.fn.LocalCount() >= MaxFrameSlots {
			return p.errorAt(errz.ErrTooManyParams, pos)
		}
		if dims != nil {
			if _, err := object.NewArray(dims, init); err != nil {
				return p.errorAt(errz.CodeOf(err), pos)
			}
		}
		p.fn.Locals = append(p.fn.Locals, object.Local{Name: name, IsArray: dims != nil, Dims: dims, Init: init})
	case w == token.Static:
		if p.frameSlot(name) || p.staticSlot(name) {
			return p.errorAt(errz.ErrVariableRedeclared, pos)
		}
		v, err := p.newVariable(name, object.ScopeStatic, false, dims, init, pos)
		if err != nil {
			return err
		}
		p.prog.Statics = append(p.prog.Statics, v)
		p.fn.Statics = append(p.fn.Statics, len(p.prog.Statics)-1)
	case p.mode == modeProgram:
		if _, ok := p.prog.Global(name); ok {
			return p.errorAt(errz.ErrVariableRedeclared, pos)
		}
		if _, ok := p.prog.Function(name); ok {
			return p.errorAt(errz.ErrVariableRedeclared, pos)
		}
		v, err := p.newVariable(name, object.ScopeGlobal, isConst, dims, init, pos)
		if err != nil {
			return err
		}
		p.prog.Globals = append(p.prog.Globals, v)
	default:
		if _, ok := p.lookupVar(name); ok {
			return p.errorAt(errz.ErrVariableRedeclared, pos)
		}
		v, err := p.newVariable(name, object.ScopeUser, isConst, dims, init, pos)
		if err != nil {
			return err
		}
		p.declareUser(v)
	}
	return nil
}

func (p *Parser) frameSlot(name string) bool {
	for i := 0; i < p.fn.LocalCount(); i++ {
		if p.fn.LocalName(i) == name {
			return true
		}
	}
	return false
}

func (p *Parser) staticSlot(name string) bool {
	for _, si := range p.fn.Statics {
		if p.prog.Statics[si].Name == name {
			return true
		}
	}
	return false
}

func (p *Parser) functionHeader(idx int) error {
	lx, err := p.expectIdent()
	if err != nil {
		return err
	}
	fn, ok := p.prog.Function(lx.Literal)
	if !ok || fn.End >= 0 {
		return p.errorAt(errz.ErrFunctionRedefined, lx.Pos)
	}
	p.emit(token.Token{Kind: token.GenericName, Name: lx.Literal, Link: token.NoLink, Pos: lx.Pos})
	if !p.isTerminal(p.cur(), op.LeftParen) {
		return p.unexpected(p.cur())
	}
	p.advance(1)
	p.fn = fn
	seenDefault := false
	for !p.isTerminal(p.cur(), op.RightParen) {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if p.frameSlot(name.Literal) {
			return p.errorAt(errz.ErrVariableRedeclared, name.Pos)
		}
		param := object.Param{Name: name.Literal}
		if p.isTerminal(p.cur(), op.LeftParen) {
			if !p.isTerminal(p.peek(1), op.RightParen) {
				return p.unexpected(p.peek(1))
			}
			p.advance(2)
			param.IsArray = true
		}
		if p.isTerminal(p.cur(), op.Assign) {
			if param.IsArray {
				return p.errorAt(errz.ErrUnexpectedToken, p.cur().Pos)
			}
			p.advance(1)
			v, err := p.constant()
			if err != nil {
				return err
			}
			param.HasDefault, param.Default = true, v
			seenDefault = true
		} else if seenDefault {
			return p.errorAt(errz.ErrConstantExpected, p.cur().Pos)
		}
		if !seenDefault {
			fn.MinParams++
		}
		fn.Params = append(fn.Params, param)
		if len(fn.Params) > MaxFrameSlots {
			return p.errorAt(errz.ErrTooManyParams, name.Pos)
		}
		if p.isTerminal(p.cur(), op.Comma) {
			p.advance(1)
			continue
		}
		if !p.isTerminal(p.cur(), op.RightParen) {
			return p.unexpected(p.cur())
		}
	}
	p.advance(1)
	p.blocks = append(p.blocks, blockEntry{word: token.Function, start: idx, last: idx})
	p.fnStart = fn
	return nil
}

func (p *Parser) forHeader(pos int) error {
	lx := p.cur()
	if lx.Kind != lexer.Ident {
		return p.unexpected(lx)
	}
	p.forCtrl = true
	err := p.name()
	p.forCtrl = false
	if err != nil {
		return err
	}
	ctrl := p.tokens[len(p.tokens)-1]
	if ctrl.Kind != token.Variable || ctrl.Array {
		return p.errorAt(errz.ErrVariableExpected, lx.Pos)
	}
	count := 1
	for p.isTerminal(p.cur(), op.Comma) {
		p.emitTerminal(p.cur(), op.NoRole)
		p.advance(1)
		if err := p.expression(); err != nil {
			return err
		}
		count++
	}
	info := token.For.Info()
	if count < info.MinArgs || count > info.MaxArgs {
		return p.errorAt(errz.ErrArgCount, pos)
	}
	return nil
}

func (p *Parser) blockClause(w token.Word, idx, pos int) error {
	if len(p.blocks) == 0 {
		return p.errorAt(errz.ErrBlockMismatch, pos)
	}
	top := &p.blocks[len(p.blocks)-1]
	if top.word != token.If || top.hasElse {
		return p.errorAt(errz.ErrBlockMismatch, pos)
	}
	p.tokens[top.last].Link = idx
	top.last = idx
	top.hasElse = w == token.Else
	return nil
}

func (p *Parser) blockClose(idx, pos int) error {
	if len(p.blocks) == 0 {
		return p.errorAt(errz.ErrBlockMismatch, pos)
	}
	top := p.blocks[len(p.blocks)-1]
	p.blocks = p.blocks[:len(p.blocks)-1]
	p.tokens[top.last].Link = idx
	p.tokens[idx].Link = top.start
	if top.word == token.Function {
		p.fn.End = idx
		p.fn = nil
	}
	return nil
}

func (p *Parser) checkInLoop(pos int) error {
	for i := len(p.blocks) - 1; i >= 0; i-- {
		switch p.blocks[i].word {
		case token.While, token.For:
			return nil
		case token.Function:
			return p.errorAt(errz.ErrBreakOutsideLoop, pos)
		}
	}
	return p.errorAt(errz.ErrBreakOutsideLoop, pos)
}
