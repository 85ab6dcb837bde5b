// Package lexer splits source text into lexemes for the parser.
package lexer

import (
	"strconv"
	"strings"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
)

// Kind of a lexeme.
type Kind uint8

const (
	EOF Kind = iota
	Ident
	Long
	Float
	String
	Terminal
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Long:
		return "long"
	case Float:
		return "float"
	case String:
		return "string"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Lexeme is one lexical unit. Literal holds the decoded text for strings
// and identifiers.
type Lexeme struct {
	Kind    Kind
	Literal string
	Pos     int
	Op      op.Code
	Long    int32
	Float   float32
}

// Lexer produces lexemes from an input string.
type Lexer struct {
	input string
	pos   int
}

// New returns a lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize lexes the whole input.
func Tokenize(input string) ([]Lexeme, error) {
	l := New(input)
	var out []Lexeme
	for {
		lx, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, lx)
		if lx.Kind == EOF {
			return out, nil
		}
	}
}

func (l *Lexer) errorAt(code errz.Code, pos int) *errz.Error {
	e := errz.New(code)
	e.Pos = pos
	e.Source = l.input
	return e
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// Next returns the next lexeme.
func (l *Lexer) Next() (Lexeme, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.input) {
		return Lexeme{Kind: EOF, Pos: l.pos}, nil
	}
	start := l.pos
	c := l.input[l.pos]
	switch {
	case isLetter(c):
		for l.pos < len(l.input) && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos])) {
			l.pos++
		}
		return Lexeme{Kind: Ident, Literal: l.input[start:l.pos], Pos: start}, nil
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.readNumber()
	case c == '"':
		return l.readString()
	}
	for n := 3; n >= 1; n-- {
		if l.pos+n > len(l.input) {
			continue
		}
		if code, ok := op.Lookup(l.input[l.pos : l.pos+n]); ok {
			l.pos += n
			return Lexeme{Kind: Terminal, Literal: code.String(), Op: code, Pos: start}, nil
		}
	}
	return Lexeme{}, l.errorAt(errz.ErrUnexpectedToken, start)
}

func (l *Lexer) readNumber() (Lexeme, error) {
	start := l.pos
	in := l.input
	if in[l.pos] == '0' && l.pos+1 < len(in) && (in[l.pos+1] == 'x' || in[l.pos+1] == 'X' || in[l.pos+1] == 'b' || in[l.pos+1] == 'B') {
		base := 16
		if in[l.pos+1] == 'b' || in[l.pos+1] == 'B' {
			base = 2
		}
		l.pos += 2
		digits := l.pos
		for l.pos < len(in) && isHexDigit(in[l.pos]) {
			l.pos++
		}
		v, err := strconv.ParseUint(in[digits:l.pos], base, 32)
		if err != nil {
			return Lexeme{}, l.errorAt(errz.ErrInvalidNumber, start)
		}
		return Lexeme{Kind: Long, Literal: in[start:l.pos], Long: int32(uint32(v)), Pos: start}, nil
	}
	isFloat := false
	for l.pos < len(in) && isDigit(in[l.pos]) {
		l.pos++
	}
	if l.pos < len(in) && in[l.pos] == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(in) && isDigit(in[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(in) && (in[l.pos] == 'e' || in[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(in) && (in[l.pos] == '+' || in[l.pos] == '-') {
			l.pos++
		}
		exp := l.pos
		for l.pos < len(in) && isDigit(in[l.pos]) {
			l.pos++
		}
		if exp == l.pos {
			return Lexeme{}, l.errorAt(errz.ErrInvalidNumber, start)
		}
	}
	if l.pos < len(in) && isLetter(in[l.pos]) {
		return Lexeme{}, l.errorAt(errz.ErrInvalidNumber, start)
	}
	lit := in[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(lit, 32)
		if err != nil {
			return Lexeme{}, l.errorAt(errz.ErrInvalidNumber, start)
		}
		return Lexeme{Kind: Float, Literal: lit, Float: float32(f), Pos: start}, nil
	}
	v, err := strconv.ParseInt(lit, 10, 32)
	if err != nil {
		return Lexeme{}, l.errorAt(errz.ErrInvalidNumber, start)
	}
	return Lexeme{Kind: Long, Literal: lit, Long: int32(v), Pos: start}, nil
}

func (l *Lexer) readString() (Lexeme, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '"':
			l.pos++
			return Lexeme{Kind: String, Literal: b.String(), Pos: start}, nil
		case '\n':
			return Lexeme{}, l.errorAt(errz.ErrUnterminatedString, start)
		case '\\':
			if l.pos+1 >= len(l.input) {
				return Lexeme{}, l.errorAt(errz.ErrUnterminatedString, start)
			}
			l.pos++
			switch e := l.input[l.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '"':
				b.WriteByte(e)
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Lexeme{}, l.errorAt(errz.ErrUnterminatedString, start)
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
