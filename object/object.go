// Package object provides the value, variable, array and function types the
// runtime operates on.
//
// A Value is a small tagged union holding a long (int32), a float (float32)
// or a string. The empty string is the zero string: it never counts as an
// allocation anywhere in the runtime.
package object

import (
	"strconv"
	"strings"
)

// Type of a value.
type Type uint8

// Type constants. The numeric values are what the type() built-in reports.
const (
	INVALID Type = iota
	LONG
	FLOAT
	STRING
)

// MaxStringLength is the length strings are clipped to when they are stored
// into variables or produced by concatenation.
const MaxStringLength = 255

func (t Type) String() string {
	switch t {
	case LONG:
		return "long"
	case FLOAT:
		return "float"
	case STRING:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a long, float or string.
type Value struct {
	Type Type
	L    int32
	F    float32
	S    string
}

// NewLong returns a long value.
func NewLong(v int32) Value { return Value{Type: LONG, L: v} }

// NewFloat returns a float value.
func NewFloat(v float32) Value { return Value{Type: FLOAT, F: v} }

// NewString returns a string value.
func NewString(s string) Value { return Value{Type: STRING, S: s} }

// NewBool returns the long 1 or 0.
func NewBool(b bool) Value {
	if b {
		return NewLong(1)
	}
	return NewLong(0)
}

// Zero is the value of a variable that was declared without initialiser.
var Zero = NewLong(0)

func (v Value) IsNumeric() bool { return v.Type == LONG || v.Type == FLOAT }

func (v Value) IsString() bool { return v.Type == STRING }

// HasHeap reports whether the value carries a non-empty string. Only those
// are counted by the object lifecycle tracker.
func (v Value) HasHeap() bool { return v.Type == STRING && v.S != "" }

// AsFloat returns the numeric value as a float.
func (v Value) AsFloat() float32 {
	if v.Type == LONG {
		return float32(v.L)
	}
	return v.F
}

// AsLong returns the numeric value as a long, truncating floats.
func (v Value) AsLong() int32 {
	if v.Type == FLOAT {
		return int32(v.F)
	}
	return v.L
}

// IsTrue reports whether a numeric value is non-zero.
func (v Value) IsTrue() bool {
	switch v.Type {
	case LONG:
		return v.L != 0
	case FLOAT:
		return v.F != 0
	default:
		return v.S != ""
	}
}

// Equals reports whether both values have the same type and content.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case LONG:
		return v.L == other.L
	case FLOAT:
		return v.F == other.F
	default:
		return v.S == other.S
	}
}

// Inspect returns the printed representation of the value.
func (v Value) Inspect() string {
	switch v.Type {
	case LONG:
		return strconv.FormatInt(int64(v.L), 10)
	case FLOAT:
		return FormatFloat(v.F)
	case STRING:
		return v.S
	default:
		return "<invalid>"
	}
}

// Quoted is like Inspect but renders strings as double quoted literals.
func (v Value) Quoted() string {
	if v.Type == STRING {
		return strconv.Quote(v.S)
	}
	return v.Inspect()
}

func (v Value) String() string {
	return v.Quoted()
}

// FormatFloat formats a float so it never reads like a long.
func FormatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// Clip truncates a string to MaxStringLength bytes.
func Clip(s string) string {
	if len(s) > MaxStringLength {
		return s[:MaxStringLength]
	}
	return s
}
