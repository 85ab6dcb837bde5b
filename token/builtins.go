package token

// BuiltinInfo describes the argument counts of a built-in function. The
// implementations live with the runtime; the parser only needs names and
// arity.
type BuiltinInfo struct {
	Name    string
	MinArgs int
	MaxArgs int
}

// Builtins is the table of built-in functions. A token's Index for an
// InternalFunction points into this table.
var Builtins = []BuiltinInfo{
	// math
	{"sqrt", 1, 1}, {"sin", 1, 1}, {"cos", 1, 1}, {"tan", 1, 1}, {"atan", 1, 1},
	{"exp", 1, 1}, {"ln", 1, 1}, {"log10", 1, 1}, {"abs", 1, 1}, {"round", 1, 1},
	{"floor", 1, 1}, {"ceil", 1, 1}, {"min", 2, 2}, {"max", 2, 2}, {"pow", 2, 2},
	// casts and introspection
	{"int", 1, 1}, {"float", 1, 1}, {"str", 1, 1}, {"val", 1, 1}, {"type", 1, 1},
	{"sysVal", 1, 1}, {"last", 0, 1}, {"dims", 1, 1}, {"ubound", 2, 2},
	// strings
	{"len", 1, 1}, {"left", 2, 2}, {"right", 2, 2}, {"mid", 2, 3}, {"asc", 1, 2},
	{"char", 1, 1}, {"upper", 1, 1}, {"lower", 1, 1}, {"trim", 1, 1},
	{"find", 2, 3}, {"repeat", 2, 2},
	// bits and bytes
	{"bit", 2, 2}, {"bitSet", 2, 2}, {"bitClear", 2, 2}, {"bitWrite", 3, 3},
	{"byteRead", 2, 2},
	// console and time
	{"millis", 0, 0}, {"available", 0, 0}, {"read", 0, 0},
	// files
	{"open", 1, 2}, {"close", 1, 1}, {"readLine", 1, 1}, {"writeLine", 2, 2},
	{"eof", 1, 1}, {"seek", 2, 2}, {"flush", 1, 1}, {"exists", 1, 1},
	{"mkdir", 1, 1}, {"rmdir", 1, 1}, {"remove", 1, 1}, {"listDir", 1, 1},
	// evaluation and native callbacks
	{"eval", 1, 1}, {"cb", 1, 9},
}

var builtinsByName = func() map[string]int {
	m := make(map[string]int, len(Builtins))
	for i, b := range Builtins {
		m[b.Name] = i
	}
	return m
}()

// LookupBuiltin returns the index of the named built-in function.
func LookupBuiltin(name string) (int, bool) {
	i, ok := builtinsByName[name]
	return i, ok
}
