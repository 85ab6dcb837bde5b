// Package token defines the token records the runtime executes.
//
// Source text is turned into a Code arena once, by the parser. The runtime
// addresses tokens by index and never mutates them.
package token

import (
	"strings"

	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
)

// Kind is the type tag of a token.
type Kind uint8

const (
	// EndOfCode is the sentinel terminating every Code.
	EndOfCode Kind = iota
	ReservedWord
	InternalFunction
	ExternalFunction
	GenericName
	Constant
	Variable
	Terminal
	// EndOfEval terminates code parsed for eval().
	EndOfEval
)

func (k Kind) String() string {
	switch k {
	case EndOfCode:
		return "end of code"
	case ReservedWord:
		return "reserved word"
	case InternalFunction:
		return "built-in function"
	case ExternalFunction:
		return "user function"
	case GenericName:
		return "generic name"
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Terminal:
		return "terminal"
	case EndOfEval:
		return "end of eval"
	default:
		return "unknown"
	}
}

// NoLink marks a token without a jump target.
const NoLink = -1

// Token is one record of the token stream. Which fields are meaningful
// depends on Kind:
//   - ReservedWord: Index is a Word, Link the jump target (see Word)
//   - InternalFunction, ExternalFunction: Index into the function table
//   - Variable: Scope, Index into the table of that scope, Array
//   - Constant: Value
//   - GenericName: Name
//   - Terminal: Index is an op.Code, Role its resolved role
type Token struct {
	Kind  Kind
	Index int
	Role  op.Role
	Scope object.Scope
	Array bool
	Value object.Value
	Name  string
	Link  int
	Pos   int
}

// Op returns the terminal code of a Terminal token.
func (t *Token) Op() op.Code { return op.Code(t.Index) }

// Word returns the reserved word of a ReservedWord token.
func (t *Token) Word() Word { return Word(t.Index) }

// IsTerminal reports whether the token is the given terminal.
func (t *Token) IsTerminal(code op.Code) bool {
	return t.Kind == Terminal && op.Code(t.Index) == code
}

// IsWord reports whether the token is the given reserved word.
func (t *Token) IsWord(w Word) bool {
	return t.Kind == ReservedWord && Word(t.Index) == w
}

// Code is an immutable token arena. The last token is always EndOfCode or
// EndOfEval.
type Code struct {
	Name   string
	Source string
	Tokens []Token
}

var sentinel = Token{Kind: EndOfCode, Link: NoLink}

// Len returns the number of tokens, including the terminator.
func (c *Code) Len() int { return len(c.Tokens) }

// At returns the token at index i. Indexes past the end return the
// terminator so the dispatch loop never runs off the arena.
func (c *Code) At(i int) *Token {
	if i < 0 || i >= len(c.Tokens) {
		return &sentinel
	}
	return &c.Tokens[i]
}

// NextStatement returns the index of the token following the first
// semicolon at or after i.
func (c *Code) NextStatement(i int) int {
	for ; i < len(c.Tokens); i++ {
		t := &c.Tokens[i]
		if t.IsTerminal(op.Semicolon) {
			return i + 1
		}
		if t.Kind == EndOfCode || t.Kind == EndOfEval {
			return i
		}
	}
	return len(c.Tokens) - 1
}

// StatementText returns the source text of the statement starting at token
// i, including its semicolon.
func (c *Code) StatementText(i int) string {
	start := c.At(i)
	if start.Kind == EndOfCode || start.Kind == EndOfEval {
		return ""
	}
	end := c.NextStatement(i) - 1
	last := c.At(end)
	stop := len(c.Source)
	if last.IsTerminal(op.Semicolon) {
		stop = last.Pos + 1
	}
	if start.Pos > stop || stop > len(c.Source) {
		return ""
	}
	return strings.TrimSpace(c.Source[start.Pos:stop])
}
