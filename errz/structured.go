// Package errz defines the result codes and structured errors returned by
// the parser and the runtime.
package errz

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a result code with the location of the token that produced it.
type Error struct {
	Code    Code
	Message string
	// Pos is a byte offset into Source, or -1 when unknown.
	Pos    int
	Source string
	// Origin names the code the error happened in: "immediate", "eval" or
	// the name of a program function.
	Origin string
	Stack  []string
	Cause  error
}

// New creates an error with the given code and no location.
func New(code Code) *Error {
	return &Error{Code: code, Pos: -1}
}

// Newf creates an error with a formatted detail message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Pos: -1, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code and cause.
func Wrap(code Code, cause error) *Error {
	e := New(code)
	e.Cause = cause
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Code.Description()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if line, col, _ := e.Location(); line > 0 {
		return fmt.Sprintf("%s %s (%d:%d)", e.Code, msg, line, col)
	}
	return fmt.Sprintf("%s %s", e.Code, msg)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsEvent reports whether the error is an event.
func (e *Error) IsEvent() bool { return e.Code.IsEvent() }

// At attaches a location if the error does not have one yet.
func (e *Error) At(pos int, source, origin string) *Error {
	if e.Pos < 0 && e.Source == "" {
		e.Pos = pos
		e.Source = source
		e.Origin = origin
	}
	return e
}

// Location returns the 1-based line and column of Pos and the text of that
// line. The line is 0 when the error has no location.
func (e *Error) Location() (line, col int, text string) {
	if e.Pos < 0 || e.Pos > len(e.Source) {
		return 0, 0, ""
	}
	start := strings.LastIndexByte(e.Source[:e.Pos], '\n') + 1
	end := strings.IndexByte(e.Source[e.Pos:], '\n')
	if end < 0 {
		end = len(e.Source)
	} else {
		end += e.Pos
	}
	line = strings.Count(e.Source[:start], "\n") + 1
	return line, e.Pos - start + 1, e.Source[start:end]
}

// CodeOf returns the code carried by err: OK for nil, ErrInternal for
// errors that did not come from this package.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// IsEvent reports whether err carries an event code.
func IsEvent(err error) bool {
	return CodeOf(err).IsEvent()
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
