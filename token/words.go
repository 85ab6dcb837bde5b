package token

// Word identifies a reserved word.
type Word int

const (
	WordInvalid Word = iota
	Program
	Var
	Const
	Function
	Local
	Static
	Delete
	If
	ElseIf
	Else
	While
	For
	End
	Break
	Continue
	Return
	Print
	Write
	Input
	Pause
	Halt
	Stop
	Go
	Step
	StepOver
	StepOut
	StepOutOfBlock
	StepToBlockEnd
	Skip
	Abort
	Quit
	Load
	ClearProg
	ClearAll
)

// WordFlags describe where a reserved word may appear and how it runs.
type WordFlags uint16

const (
	// CompileOnly statements are fully handled by the parser. The runtime
	// skips them by jumping to the token after their semicolon.
	CompileOnly WordFlags = 1 << iota
	// ImmediateOnly statements are rejected inside programs.
	ImmediateOnly
	// ProgramOnly statements are rejected in immediate mode.
	ProgramOnly
	// TopLevel statements may appear outside functions in a program.
	TopLevel
	// Block statements open, continue or close a block.
	Block
	// Debug statements drive the debugger.
	Debug
	// GenericArgs statements take bare names instead of expressions.
	GenericArgs
)

// WordInfo describes one reserved word.
type WordInfo struct {
	Name    string
	Flags   WordFlags
	MinArgs int
	MaxArgs int
}

var words = map[Word]WordInfo{
	Program:        {"program", CompileOnly | ProgramOnly | TopLevel, 0, 0},
	Var:            {"var", CompileOnly | TopLevel, 0, 0},
	Const:          {"const", CompileOnly | TopLevel, 0, 0},
	Function:       {"function", CompileOnly | ProgramOnly | TopLevel | Block, 0, 0},
	Local:          {"local", CompileOnly | ProgramOnly, 0, 0},
	Static:         {"static", CompileOnly | ProgramOnly, 0, 0},
	Delete:         {"delete", ImmediateOnly | GenericArgs, 1, 16},
	If:             {"if", Block, 1, 1},
	ElseIf:         {"elseif", Block, 1, 1},
	Else:           {"else", Block, 0, 0},
	While:          {"while", Block, 1, 1},
	For:            {"for", Block, 3, 4},
	End:            {"end", Block, 0, 0},
	Break:          {"break", 0, 0, 0},
	Continue:       {"continue", 0, 0, 0},
	Return:         {"return", ProgramOnly, 0, 1},
	Print:          {"print", 0, 0, 16},
	Write:          {"write", 0, 0, 16},
	Input:          {"input", 0, 2, 2},
	Pause:          {"pause", 0, 1, 1},
	Halt:           {"halt", 0, 0, 0},
	Stop:           {"stop", Debug, 0, 0},
	Go:             {"go", ImmediateOnly | Debug, 0, 0},
	Step:           {"step", ImmediateOnly | Debug, 0, 0},
	StepOver:       {"step over", ImmediateOnly | Debug, 0, 0},
	StepOut:        {"step out", ImmediateOnly | Debug, 0, 0},
	StepOutOfBlock: {"step out of block", ImmediateOnly | Debug, 0, 0},
	StepToBlockEnd: {"step to block end", ImmediateOnly | Debug, 0, 0},
	Skip:           {"skip", ImmediateOnly | Debug, 0, 0},
	Abort:          {"abort", ImmediateOnly | Debug, 0, 0},
	Quit:           {"quit", ImmediateOnly, 0, 0},
	Load:           {"load", ImmediateOnly, 0, 1},
	ClearProg:      {"clearProg", ImmediateOnly, 0, 0},
	ClearAll:       {"clearAll", ImmediateOnly, 0, 0},
}

var wordsByName = func() map[string]Word {
	m := make(map[string]Word, len(words))
	for w, info := range words {
		m[info.Name] = w
	}
	return m
}()

// Info returns the description of a reserved word.
func (w Word) Info() WordInfo { return words[w] }

func (w Word) String() string { return words[w].Name }

// Has reports whether the word carries all the given flags.
func (w Word) Has(flags WordFlags) bool { return words[w].Flags&flags == flags }

// LookupWord returns the reserved word with the given (possibly multi-word)
// name.
func LookupWord(name string) (Word, bool) {
	w, ok := wordsByName[name]
	return w, ok
}
