// Package op defines the terminal tokens (operators and punctuation) and the
// priorities the evaluation stack uses to reduce expressions.
package op

// Code identifies a terminal.
type Code uint8

const (
	Invalid Code = iota

	// Punctuation
	LeftParen
	RightParen
	Comma
	Semicolon

	// Assignment
	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	AndAssign
	OrAssign
	XorAssign
	ShlAssign
	ShrAssign

	// Logical, bitwise, comparison, arithmetic
	Or
	And
	BitOr
	BitXor
	BitAnd
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Shl
	Shr
	Plus
	Minus
	Mul
	Div
	Mod
	Pow
	Not
	Complement
	Incr
	Decr
)

// Role is the position an operator takes relative to its operand(s).
type Role uint8

const (
	NoRole Role = iota
	Prefix
	Infix
	Postfix
)

func (r Role) String() string {
	switch r {
	case Prefix:
		return "prefix"
	case Infix:
		return "infix"
	case Postfix:
		return "postfix"
	default:
		return ""
	}
}

// Flags qualify an operator.
type Flags uint8

const (
	// RightToLeft infix operators do not reduce when the next operator has
	// the same priority.
	RightToLeft Flags = 1 << iota
	// IntOnly operators require long operands.
	IntOnly
	// Assigns operators store their result into the left operand.
	Assigns
)

// Priorities, higher binds tighter. Zero means the role is not allowed.
const (
	PrioAssign     = 2
	PrioOr         = 3
	PrioAnd        = 4
	PrioBitOr      = 5
	PrioBitXor     = 6
	PrioBitAnd     = 7
	PrioEquality   = 8
	PrioRelational = 9
	PrioShift      = 10
	PrioAdditive   = 11
	PrioProduct    = 12
	PrioUnary      = 13
	PrioPower      = 14
	PrioPostfix    = 15
)

// Info describes a terminal.
type Info struct {
	Code    Code
	Symbol  string
	Prefix  int
	Infix   int
	Postfix int
	Flags   Flags
	// Base is the arithmetic operator of a compound assignment.
	Base Code
}

// IsOperator reports whether the terminal is an operator rather than
// punctuation.
func (i Info) IsOperator() bool {
	return i.Prefix > 0 || i.Infix > 0 || i.Postfix > 0
}

// Has reports whether the operator carries the given flags.
func (i Info) Has(f Flags) bool { return i.Flags&f == f }

// Priority returns the priority of the operator in the given role.
func (i Info) Priority(r Role) int {
	switch r {
	case Prefix:
		return i.Prefix
	case Infix:
		return i.Infix
	case Postfix:
		return i.Postfix
	default:
		return 0
	}
}

// IsRightToLeft reports whether ties in the given role should not reduce.
// Prefix operators always associate right to left.
func (i Info) IsRightToLeft(r Role) bool {
	if r == Prefix {
		return true
	}
	return i.Has(RightToLeft)
}

var infos = make([]Info, 64)

var bySymbol = map[string]Code{}

func init() {
	type opInfo struct {
		code    Code
		symbol  string
		prefix  int
		infix   int
		postfix int
		flags   Flags
		base    Code
	}
	ops := []opInfo{
		{LeftParen, "(", 0, 0, 0, 0, Invalid},
		{RightParen, ")", 0, 0, 0, 0, Invalid},
		{Comma, ",", 0, 0, 0, 0, Invalid},
		{Semicolon, ";", 0, 0, 0, 0, Invalid},
		{Assign, "=", 0, PrioAssign, 0, RightToLeft | Assigns, Invalid},
		{AddAssign, "+=", 0, PrioAssign, 0, RightToLeft | Assigns, Plus},
		{SubAssign, "-=", 0, PrioAssign, 0, RightToLeft | Assigns, Minus},
		{MulAssign, "*=", 0, PrioAssign, 0, RightToLeft | Assigns, Mul},
		{DivAssign, "/=", 0, PrioAssign, 0, RightToLeft | Assigns, Div},
		{ModAssign, "%=", 0, PrioAssign, 0, RightToLeft | Assigns | IntOnly, Mod},
		{AndAssign, "&=", 0, PrioAssign, 0, RightToLeft | Assigns | IntOnly, BitAnd},
		{OrAssign, "|=", 0, PrioAssign, 0, RightToLeft | Assigns | IntOnly, BitOr},
		{XorAssign, "^=", 0, PrioAssign, 0, RightToLeft | Assigns | IntOnly, BitXor},
		{ShlAssign, "<<=", 0, PrioAssign, 0, RightToLeft | Assigns | IntOnly, Shl},
		{ShrAssign, ">>=", 0, PrioAssign, 0, RightToLeft | Assigns | IntOnly, Shr},
		{Or, "||", 0, PrioOr, 0, 0, Invalid},
		{And, "&&", 0, PrioAnd, 0, 0, Invalid},
		{BitOr, "|", 0, PrioBitOr, 0, IntOnly, Invalid},
		{BitXor, "^", 0, PrioBitXor, 0, IntOnly, Invalid},
		{BitAnd, "&", 0, PrioBitAnd, 0, IntOnly, Invalid},
		{Eq, "==", 0, PrioEquality, 0, 0, Invalid},
		{NotEq, "!=", 0, PrioEquality, 0, 0, Invalid},
		{Lt, "<", 0, PrioRelational, 0, 0, Invalid},
		{LtEq, "<=", 0, PrioRelational, 0, 0, Invalid},
		{Gt, ">", 0, PrioRelational, 0, 0, Invalid},
		{GtEq, ">=", 0, PrioRelational, 0, 0, Invalid},
		{Shl, "<<", 0, PrioShift, 0, IntOnly, Invalid},
		{Shr, ">>", 0, PrioShift, 0, IntOnly, Invalid},
		{Plus, "+", PrioUnary, PrioAdditive, 0, 0, Invalid},
		{Minus, "-", PrioUnary, PrioAdditive, 0, 0, Invalid},
		{Mul, "*", 0, PrioProduct, 0, 0, Invalid},
		{Div, "/", 0, PrioProduct, 0, 0, Invalid},
		{Mod, "%", 0, PrioProduct, 0, IntOnly, Invalid},
		{Pow, "**", 0, PrioPower, 0, RightToLeft, Invalid},
		{Not, "!", PrioUnary, 0, 0, 0, Invalid},
		{Complement, "~", PrioUnary, 0, 0, IntOnly, Invalid},
		{Incr, "++", PrioUnary, 0, PrioPostfix, Assigns, Plus},
		{Decr, "--", PrioUnary, 0, PrioPostfix, Assigns, Minus},
	}
	for _, o := range ops {
		infos[o.code] = Info{
			Code:    o.code,
			Symbol:  o.symbol,
			Prefix:  o.prefix,
			Infix:   o.infix,
			Postfix: o.postfix,
			Flags:   o.flags,
			Base:    o.base,
		}
		bySymbol[o.symbol] = o.code
	}
}

// GetInfo returns information about the given terminal.
func GetInfo(code Code) Info {
	return infos[code]
}

// Lookup returns the terminal with the given symbol.
func Lookup(symbol string) (Code, bool) {
	code, ok := bySymbol[symbol]
	return code, ok
}

func (c Code) String() string {
	return infos[c].Symbol
}
