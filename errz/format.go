package errz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders errors for the console: a header, the offending
// statement and a caret under the failing token.
type Formatter struct {
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorError  = color.New(color.FgRed, color.Bold)
	colorCode   = color.New(color.FgHiBlack)
	colorPipe   = color.New(color.FgHiBlack)
	colorCaret  = color.New(color.FgHiRed)
	colorOrigin = color.New(color.FgCyan)
	colorEvent  = color.New(color.FgYellow)
)

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// Format renders err. Events render as a single status line.
func (f *Formatter) Format(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return f.paint(colorError, "error") + ": " + err.Error() + "\n"
	}
	var b strings.Builder
	if e.IsEvent() {
		b.WriteString(f.paint(colorEvent, "** "+e.Code.Description()+" **"))
		if e.Message != "" {
			b.WriteString(" " + e.Message)
		}
		b.WriteString("\n")
		return b.String()
	}
	label := e.Code.Category() + " error"
	b.WriteString(f.paint(colorError, label))
	b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", e.Code)))
	b.WriteString(": ")
	b.WriteString(e.Code.Description())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	b.WriteString("\n")

	line, col, text := e.Location()
	if line > 0 {
		if e.Origin != "" {
			b.WriteString(f.paint(colorOrigin, fmt.Sprintf("  --> %s:%d:%d", e.Origin, line, col)))
			b.WriteString("\n")
		}
		b.WriteString(f.paint(colorPipe, "   | "))
		b.WriteString(text)
		b.WriteString("\n")
		b.WriteString(f.paint(colorPipe, "   | "))
		b.WriteString(caretPadding(text, col))
		b.WriteString(f.paint(colorCaret, "^"))
		b.WriteString("\n")
	}
	for _, fn := range e.Stack {
		b.WriteString(f.paint(colorPipe, "   = "))
		b.WriteString("called from " + fn)
		b.WriteString("\n")
	}
	return b.String()
}

// caretPadding keeps tabs so the caret lines up under tabbed source.
func caretPadding(text string, col int) string {
	var b strings.Builder
	for i := 0; i < col-1 && i < len(text); i++ {
		if text[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
