package object

// Param is one declared function parameter.
type Param struct {
	Name       string
	IsArray    bool
	HasDefault bool
	Default    Value
}

// Local is one local variable declared inside a function body.
type Local struct {
	Name    string
	IsArray bool
	Dims    []int
	Init    Value
}

// Function is a user function definition. Start and End index the program
// code: Start is the first token of the body and End is the function's
// closing "end" token.
type Function struct {
	Name      string
	Index     int
	MinParams int
	Params    []Param
	Locals    []Local
	Statics   []int
	Start     int
	End       int
}

// LocalCount returns the number of frame slots a call needs.
func (f *Function) LocalCount() int {
	return len(f.Params) + len(f.Locals)
}

// LocalName returns the name of frame slot i.
func (f *Function) LocalName(i int) string {
	if i < len(f.Params) {
		return f.Params[i].Name
	}
	return f.Locals[i-len(f.Params)].Name
}

// LocalIsArray reports whether frame slot i holds an array.
func (f *Function) LocalIsArray(i int) bool {
	if i < len(f.Params) {
		return f.Params[i].IsArray
	}
	return f.Locals[i-len(f.Params)].IsArray
}
