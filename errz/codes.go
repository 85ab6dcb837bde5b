package errz

import "fmt"

// Code is the closed result taxonomy returned by every execution entry
// point. Codes are organized by category:
//   - 0: OK
//   - 1xxx: parse errors
//   - 3xxx: runtime errors
//   - 9xxx: events (not errors)
type Code int

const OK Code = 0

// EventThreshold is the first code that denotes an event rather than an error.
const EventThreshold Code = 9000

// Parse errors (1xxx)
const (
	ErrSyntax Code = 1001 + iota
	ErrUnexpectedToken
	ErrUnterminatedString
	ErrInvalidNumber
	ErrUnknownName
	ErrVariableRedeclared
	ErrFunctionRedefined
	ErrBlockMismatch
	ErrMissingEnd
	ErrNotInProgram
	ErrNotInFunction
	ErrOnlyImmediate
	ErrOnlyProgramTopLevel
	ErrBreakOutsideLoop
	ErrConstantExpected
	ErrParenMismatch
	ErrEvalCommand
	ErrTooManyParams
	ErrUndefinedFunction
	ErrStatementTooLong
)

// Runtime errors (3xxx)
const (
	ErrArgCount Code = 3001 + iota
	ErrNumberExpected
	ErrStringExpected
	ErrIntegerExpected
	ErrArgRange
	ErrIncompatibleTypes
	ErrDivByZero
	ErrOverflow
	ErrUnderflow
	ErrUndefinedResult
	ErrShiftRange
	ErrArrayBounds
	ErrSubscriptNotInteger
	ErrArrayDimCount
	ErrArrayDimSize
	ErrArrayTypeMismatch
	ErrArrayExpected
	ErrScalarExpected
	ErrVariableExpected
	ErrVariableNotDeclared
	ErrAssignToConstant
	ErrEvalStackOverflow
	ErrFlowStackOverflow
	ErrEvalParse
	ErrEvalResult
	ErrControlVarType
	ErrNoProgramStopped
	ErrCannotSkip
	ErrProgramSuspended
	ErrUnknownCallback
	ErrCallback
	ErrFileIO
	ErrFileNotOpen
	ErrTooManyFiles
	ErrNoMatchingBlock
	ErrMissingValue
	ErrInternal
)

// Events (9xxx)
const (
	EventStopped Code = EventThreshold + iota
	EventAbort
	EventQuit
	EventKill
	EventLoadProgram
)

var codeDescriptions = map[Code]string{
	OK: "ok",

	ErrSyntax:              "invalid syntax",
	ErrUnexpectedToken:     "unexpected token",
	ErrUnterminatedString:  "unterminated string literal",
	ErrInvalidNumber:       "invalid number literal",
	ErrUnknownName:         "unknown name",
	ErrVariableRedeclared:  "variable already declared",
	ErrFunctionRedefined:   "function already defined",
	ErrBlockMismatch:       "block command out of place",
	ErrMissingEnd:          "missing end",
	ErrNotInProgram:        "only allowed in a program",
	ErrNotInFunction:       "only allowed inside a function",
	ErrOnlyImmediate:       "only allowed in immediate mode",
	ErrOnlyProgramTopLevel: "only declarations allowed outside functions",
	ErrBreakOutsideLoop:    "break or continue outside a loop",
	ErrConstantExpected:    "constant expected",
	ErrParenMismatch:       "unbalanced parentheses",
	ErrEvalCommand:         "commands are not allowed in eval()",
	ErrTooManyParams:       "too many parameters or locals",
	ErrUndefinedFunction:   "function not defined",
	ErrStatementTooLong:    "statement too long",

	ErrArgCount:            "wrong number of arguments",
	ErrNumberExpected:      "number expected",
	ErrStringExpected:      "string expected",
	ErrIntegerExpected:     "integer expected",
	ErrArgRange:            "argument out of range",
	ErrIncompatibleTypes:   "incompatible operand types",
	ErrDivByZero:           "division by zero",
	ErrOverflow:            "overflow",
	ErrUnderflow:           "underflow",
	ErrUndefinedResult:     "undefined result",
	ErrShiftRange:          "shift amount out of range",
	ErrArrayBounds:         "array subscript out of bounds",
	ErrSubscriptNotInteger: "array subscript must be an integer",
	ErrArrayDimCount:       "wrong number of array dimensions",
	ErrArrayDimSize:        "invalid array dimension",
	ErrArrayTypeMismatch:   "value type does not match array type",
	ErrArrayExpected:       "array expected",
	ErrScalarExpected:      "scalar expected",
	ErrVariableExpected:    "variable expected",
	ErrVariableNotDeclared: "variable not declared",
	ErrAssignToConstant:    "cannot change a constant",
	ErrEvalStackOverflow:   "evaluation stack overflow",
	ErrFlowStackOverflow:   "too many nested calls or blocks",
	ErrEvalParse:           "eval() parse error",
	ErrEvalResult:          "eval() must produce one value",
	ErrControlVarType:      "loop control variable type changed",
	ErrNoProgramStopped:    "no program stopped",
	ErrCannotSkip:          "cannot skip this statement",
	ErrProgramSuspended:    "not allowed while a program is stopped",
	ErrUnknownCallback:     "unknown callback alias",
	ErrCallback:            "callback failed",
	ErrFileIO:              "file I/O error",
	ErrFileNotOpen:         "file not open",
	ErrTooManyFiles:        "too many open files",
	ErrNoMatchingBlock:     "no matching block",
	ErrMissingValue:        "missing value",
	ErrInternal:            "internal error",

	EventStopped:     "stopped",
	EventAbort:       "aborted",
	EventQuit:        "quit",
	EventKill:        "killed",
	EventLoadProgram: "program load requested",
}

// Description returns the short description for a code.
func (c Code) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the code as "E3007".
func (c Code) String() string {
	return fmt.Sprintf("E%04d", int(c))
}

// IsEvent reports whether the code is an event rather than an error.
func (c Code) IsEvent() bool { return c >= EventThreshold }

// Category returns the code category based on its range.
func (c Code) Category() string {
	switch {
	case c == OK:
		return "ok"
	case c < 2000:
		return "parse"
	case c < 4000:
		return "runtime"
	case c.IsEvent():
		return "event"
	default:
		return "unknown"
	}
}
