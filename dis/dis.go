// Package dis lists the token stream of parsed code: one row per token with
// its kind, what it resolves to and its jump link.
package dis

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Herwig9820/Justina-interpreter-sub002/internal/table"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/parser"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/fatih/color"
)

// Instruction describes one token.
type Instruction struct {
	Index      int
	Kind       token.Kind
	Name       string
	Link       int
	Annotation string
	Constant   *object.Value
}

// Disassemble describes every token of the program's code.
func Disassemble(prog *parser.Program) []Instruction {
	code := prog.Code
	instructions := make([]Instruction, 0, code.Len())
	for i := 0; i < code.Len(); i++ {
		t := code.At(i)
		instr := Instruction{Index: i, Kind: t.Kind, Link: t.Link}
		switch t.Kind {
		case token.ReservedWord:
			instr.Name = t.Word().String()
		case token.InternalFunction:
			instr.Name = token.Builtins[t.Index].Name
		case token.ExternalFunction:
			instr.Name = functionName(prog, t.Index)
		case token.GenericName:
			instr.Name = t.Name
		case token.Constant:
			v := t.Value
			instr.Constant = &v
		case token.Variable:
			instr.Name = variableName(prog, i, t)
			instr.Annotation = t.Scope.String()
			if t.Array {
				instr.Annotation += " array"
			}
		case token.Terminal:
			instr.Name = t.Op().String()
			instr.Annotation = t.Role.String()
		case token.EndOfCode, token.EndOfEval:
			instr.Name = t.Kind.String()
		}
		if fn := enclosing(prog, i); fn != nil && instr.Annotation == "" && t.Kind == token.ReservedWord {
			instr.Annotation = fn.Name
		}
		instructions = append(instructions, instr)
	}
	return instructions
}

func functionName(prog *parser.Program, index int) string {
	if index < 0 || index >= len(prog.Functions) {
		return fmt.Sprintf("function_%d", index)
	}
	return prog.Functions[index].Name
}

func enclosing(prog *parser.Program, i int) *object.Function {
	for _, fn := range prog.Functions {
		if i >= fn.Start && i <= fn.End {
			return fn
		}
	}
	return nil
}

func variableName(prog *parser.Program, i int, t *token.Token) string {
	var vars []*object.Variable
	switch t.Scope {
	case object.ScopeGlobal:
		vars = prog.Globals
	case object.ScopeStatic:
		vars = prog.Statics
	case object.ScopeLocal, object.ScopeParam, object.ScopeParamRef:
		if fn := enclosing(prog, i); fn != nil && t.Index < fn.LocalCount() {
			return fn.LocalName(t.Index)
		}
	}
	if t.Index >= 0 && t.Index < len(vars) {
		return vars[t.Index].Name
	}
	return fmt.Sprintf("%s_%d", t.Scope, t.Index)
}

var (
	colorWord     = color.New(color.Bold)
	colorLong     = color.New(color.FgYellow)
	colorString   = color.New(color.FgGreen)
	colorFunction = color.New(color.FgMagenta)
	colorInfo     = color.New(color.FgHiCyan)
)

// Print writes the instructions as a table.
func Print(instructions []Instruction, writer io.Writer) error {
	var lines [][]string
	for _, instr := range instructions {
		link := ""
		if instr.Link != token.NoLink && instr.Kind == token.ReservedWord {
			link = strconv.Itoa(instr.Link)
		}
		var name, info string
		switch {
		case instr.Constant != nil:
			c := *instr.Constant
			q := c.Quoted()
			if len(q) > 40 {
				q = q[:37] + "..."
			}
			if c.IsString() {
				name = colorString.Sprint(q)
			} else {
				name = colorLong.Sprint(q)
			}
			info = c.Type.String()
		case instr.Kind == token.ReservedWord:
			name = colorWord.Sprint(instr.Name)
			info = instr.Annotation
		case instr.Kind == token.ExternalFunction || instr.Kind == token.InternalFunction:
			name = colorFunction.Sprint(instr.Name)
		default:
			name = instr.Name
			if instr.Annotation != "" {
				info = colorInfo.Sprint(instr.Annotation)
			}
		}
		lines = append(lines, []string{strconv.Itoa(instr.Index), instr.Kind.String(), name, link, info})
	}

	return table.NewTable(writer).
		WithHeader([]string{"INDEX", "KIND", "TOKEN", "LINK", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}
