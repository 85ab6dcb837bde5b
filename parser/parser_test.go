package parser

import (
	"context"
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := ParseProgram(context.Background(), src)
	require.Nil(t, err)
	return prog
}

func TestImmediateRoles(t *testing.T) {
	res, err := ParseImmediate(context.Background(), "x = -2 * 3 ** 2", Env{})
	require.Nil(t, err)
	toks := res.Code.Tokens
	require.Equal(t, token.Variable, toks[0].Kind)
	require.Equal(t, object.ScopeUser, toks[0].Scope)
	require.Equal(t, op.Infix, toks[1].Role)
	require.Equal(t, op.Prefix, toks[2].Role)
	require.Equal(t, op.Minus, toks[2].Op())
	require.Equal(t, token.Constant, toks[3].Kind)
	require.True(t, toks[len(toks)-2].IsTerminal(op.Semicolon))
	require.Equal(t, token.EndOfCode, toks[len(toks)-1].Kind)
	require.Len(t, res.NewUsers, 1)
	require.Equal(t, "x", res.NewUsers[0].Name)
}

func TestImmediateUnknownName(t *testing.T) {
	_, err := ParseImmediate(context.Background(), "y + 1", Env{})
	require.True(t, errz.Is(err, errz.ErrUnknownName))
	_, err = ParseImmediate(context.Background(), "y += 1", Env{})
	require.True(t, errz.Is(err, errz.ErrUnknownName))
}

func TestPostfixRole(t *testing.T) {
	users := []*object.Variable{object.NewVariable("n", object.ScopeUser, object.NewLong(1))}
	res, err := ParseImmediate(context.Background(), "n++; ++n", Env{Users: users})
	require.Nil(t, err)
	toks := res.Code.Tokens
	require.Equal(t, op.Postfix, toks[1].Role)
	require.Equal(t, op.Prefix, toks[3].Role)
	require.Empty(t, res.NewUsers)
}

func TestStepWords(t *testing.T) {
	tests := []struct {
		src  string
		want token.Word
	}{
		{"step", token.Step},
		{"step over", token.StepOver},
		{"step out", token.StepOut},
		{"step out of block", token.StepOutOfBlock},
		{"step to block end", token.StepToBlockEnd},
		{"go", token.Go},
		{"abort", token.Abort},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := ParseImmediate(context.Background(), tt.src, Env{})
			require.Nil(t, err)
			require.True(t, res.Code.Tokens[0].IsWord(tt.want))
			require.True(t, res.Code.Tokens[1].IsTerminal(op.Semicolon))
		})
	}
}

func TestProgramDeclarations(t *testing.T) {
	prog := parseProgram(t, `
program demo;
var a = 5, s = "x", arr(2, 3) = 1;
const k = -10;
function f(p, q = 2, r());
  local l, m(4);
  static st = 7;
  return p + q + l + st;
end;
`)
	require.Equal(t, "demo", prog.Name)
	require.Len(t, prog.Globals, 4)
	require.Equal(t, object.NewLong(5), prog.Globals[0].Value)
	require.Equal(t, "x", prog.Globals[1].Value.S)
	require.NotNil(t, prog.Globals[2].Array)
	require.Equal(t, 6, prog.Globals[2].Array.Len())
	require.Equal(t, object.LONG, prog.Globals[2].Array.Elem)
	require.True(t, prog.Globals[3].Const)
	require.Equal(t, int32(-10), prog.Globals[3].Value.L)

	fn, ok := prog.Function("f")
	require.True(t, ok)
	require.Equal(t, 1, fn.MinParams)
	require.Len(t, fn.Params, 3)
	require.True(t, fn.Params[1].HasDefault)
	require.True(t, fn.Params[2].IsArray)
	require.Len(t, fn.Locals, 2)
	require.True(t, fn.Locals[1].IsArray)
	require.Equal(t, []int{0}, fn.Statics)
	require.True(t, prog.Code.At(fn.End).IsWord(token.End))
	require.True(t, prog.Code.At(fn.Start).IsWord(token.Local))
}

func TestProgramBlockLinks(t *testing.T) {
	prog := parseProgram(t, `
function f(x);
  if x > 1; x = 1;
  elseif x < 0; x = 0;
  else; x = 2;
  end;
  while x; x--; end;
end;
`)
	code := prog.Code
	var ifIdx, elseifIdx, elseIdx, whileIdx int
	var ends []int
	for i, tok := range code.Tokens {
		switch {
		case tok.IsWord(token.If):
			ifIdx = i
		case tok.IsWord(token.ElseIf):
			elseifIdx = i
		case tok.IsWord(token.Else):
			elseIdx = i
		case tok.IsWord(token.While):
			whileIdx = i
		case tok.IsWord(token.End):
			ends = append(ends, i)
		}
	}
	require.Len(t, ends, 3)
	require.Equal(t, elseifIdx, code.At(ifIdx).Link)
	require.Equal(t, elseIdx, code.At(elseifIdx).Link)
	require.Equal(t, ends[0], code.At(elseIdx).Link)
	require.Equal(t, ifIdx, code.At(ends[0]).Link)
	require.Equal(t, ends[1], code.At(whileIdx).Link)
	require.Equal(t, whileIdx, code.At(ends[1]).Link)
}

func TestCallBeforeDefinition(t *testing.T) {
	prog := parseProgram(t, `
function a(); return b(1); end;
function b(n); return n; end;
`)
	require.Len(t, prog.Functions, 2)
	_, err := ParseProgram(context.Background(), `
function a(); return b(); end;
function b(n); return n; end;
`)
	require.True(t, errz.Is(err, errz.ErrArgCount))
}

func TestProgramErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want errz.Code
	}{
		{"statement at top level", "x = 1;", errz.ErrOnlyProgramTopLevel},
		{"missing end", "function f(); if 1; end;", errz.ErrMissingEnd},
		{"end at top level", "function f(); end; end;", errz.ErrOnlyProgramTopLevel},
		{"break outside loop", "function f(); if 1; break; end; end;", errz.ErrBreakOutsideLoop},
		{"redeclared global", "var a; var a;", errz.ErrVariableRedeclared},
		{"redefined function", "function f(); end; function f(); end;", errz.ErrFunctionRedefined},
		{"local outside function", "local x;", errz.ErrNotInFunction},
		{"immediate command", "function f(); go; end;", errz.ErrOnlyImmediate},
		{"const without value", "const c;", errz.ErrConstantExpected},
		{"default before required", "function f(a = 1, b); end;", errz.ErrConstantExpected},
		{"unknown function", "function f(); return g(1); end;", errz.ErrUndefinedFunction},
		{"missing semicolon", "var a", errz.ErrUnexpectedToken},
		{"too many dims", "var a(2,2,2,2);", errz.ErrArrayDimCount},
		{"else after else", "function f(); if 1; else; else; end; end;", errz.ErrBlockMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(context.Background(), tt.src)
			require.Error(t, err)
			require.Equal(t, tt.want, errz.CodeOf(err))
			e := err.(*errz.Error)
			require.Equal(t, "program", e.Origin)
			require.GreaterOrEqual(t, e.Pos, 0)
		})
	}
}

func TestImmediateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want errz.Code
	}{
		{"return", "return 1", errz.ErrNotInProgram},
		{"function", "function f(); end", errz.ErrNotInProgram},
		{"open block", "if 1; print 1", errz.ErrMissingEnd},
		{"print arity", "input 1", errz.ErrArgCount},
		{"unbalanced", "(1 + 2", errz.ErrParenMismatch},
		{"missing operand", "1 +", errz.ErrMissingValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImmediate(context.Background(), tt.src, Env{})
			require.Equal(t, tt.want, errz.CodeOf(err))
		})
	}
}

func TestForControlVariableDeclared(t *testing.T) {
	res, err := ParseImmediate(context.Background(), "for i, 1, 3; print i; end", Env{})
	require.Nil(t, err)
	require.Len(t, res.NewUsers, 1)
	toks := res.Code.Tokens
	require.True(t, toks[0].IsWord(token.For))
	require.Equal(t, token.Variable, toks[1].Kind)
	var endIdx int
	for i, tok := range toks {
		if tok.IsWord(token.End) {
			endIdx = i
		}
	}
	require.Equal(t, endIdx, toks[0].Link)
	require.Equal(t, 0, toks[endIdx].Link)
}

func TestEvalCode(t *testing.T) {
	prog := parseProgram(t, "var g = 2;")
	res, err := ParseEval(context.Background(), "g * 3", Env{Program: prog})
	require.Nil(t, err)
	toks := res.Code.Tokens
	require.Equal(t, token.Variable, toks[0].Kind)
	require.Equal(t, object.ScopeGlobal, toks[0].Scope)
	require.True(t, toks[3].IsTerminal(op.Semicolon))
	require.Equal(t, token.EndOfEval, toks[4].Kind)

	_, err = ParseEval(context.Background(), "print 1", Env{Program: prog})
	require.True(t, errz.Is(err, errz.ErrEvalCommand))
}

func TestLocalsVisibleThroughEnv(t *testing.T) {
	prog := parseProgram(t, "function f(a); local b; static c; end;")
	fn, _ := prog.Function("f")
	res, err := ParseImmediate(context.Background(), "a + b + c", Env{Program: prog, Func: fn})
	require.Nil(t, err)
	toks := res.Code.Tokens
	require.Equal(t, object.ScopeParam, toks[0].Scope)
	require.Equal(t, object.ScopeLocal, toks[2].Scope)
	require.Equal(t, 1, toks[2].Index)
	require.Equal(t, object.ScopeStatic, toks[4].Scope)
}

func TestArraySubscripts(t *testing.T) {
	prog := parseProgram(t, "var m(2, 2); function f(); return m(1, 2); end;")
	require.NotNil(t, prog)
	_, err := ParseProgram(context.Background(), "var s; function f(); return s(1); end;")
	require.True(t, errz.Is(err, errz.ErrArrayExpected))
	_, err = ParseProgram(context.Background(), "var m(2); function f(); return m(); end;")
	require.True(t, errz.Is(err, errz.ErrArrayDimCount))
}

func TestMaxDepth(t *testing.T) {
	_, err := ParseImmediate(context.Background(), "((((1))))", Env{}, WithMaxDepth(3))
	require.True(t, errz.Is(err, errz.ErrStatementTooLong))
}
