package vm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
	"github.com/Herwig9820/Justina-interpreter-sub002/tracker"
)

// builtinFunc implements a built-in function. Arity has been checked
// against token.Builtins; args are operand slots so functions taking
// arrays or variables can see them.
type builtinFunc func(m *Machine, args []slot) (object.Value, error)

var builtinImpls = map[string]builtinFunc{
	"sqrt":  mathFunc(math.Sqrt),
	"sin":   mathFunc(math.Sin),
	"cos":   mathFunc(math.Cos),
	"tan":   mathFunc(math.Tan),
	"atan":  mathFunc(math.Atan),
	"exp":   mathFunc(math.Exp),
	"ln":    mathFunc(math.Log),
	"log10": mathFunc(math.Log10),
	"abs":   absFunc,
	"round": roundFunc(math.Round),
	"floor": roundFunc(math.Floor),
	"ceil":  roundFunc(math.Ceil),
	"min":   extremeFunc(-1),
	"max":   extremeFunc(1),
	"pow":   powFunc,

	"int":    intFunc,
	"float":  floatFunc,
	"str":    strFunc,
	"val":    valFunc,
	"type":   typeFunc,
	"sysVal": sysValFunc,
	"last":   lastFunc,
	"dims":   dimsFunc,
	"ubound": uboundFunc,

	"len":    lenFunc,
	"left":   leftFunc,
	"right":  rightFunc,
	"mid":    midFunc,
	"asc":    ascFunc,
	"char":   charFunc,
	"upper":  stringFunc(strings.ToUpper),
	"lower":  stringFunc(strings.ToLower),
	"trim":   stringFunc(strings.TrimSpace),
	"find":   findFunc,
	"repeat": repeatFunc,

	"bit":      bitFunc,
	"bitSet":   bitChangeFunc(true),
	"bitClear": bitChangeFunc(false),
	"bitWrite": bitWriteFunc,
	"byteRead": byteReadFunc,

	"millis":    millisFunc,
	"available": availableFunc,
	"read":      readFunc,

	"open":      openFunc,
	"close":     closeFunc,
	"readLine":  readLineFunc,
	"writeLine": writeLineFunc,
	"eof":       eofFunc,
	"seek":      seekFunc,
	"flush":     flushFunc,
	"exists":    existsFunc,
	"mkdir":     pathFunc(func(m *Machine, p string) error { return m.files.Mkdir(p) }),
	"rmdir":     pathFunc(func(m *Machine, p string) error { return m.files.Rmdir(p) }),
	"remove":    pathFunc(func(m *Machine, p string) error { return m.files.Remove(p) }),
	"listDir":   listDirFunc,

	"cb": callbackFunc,
}

var (
	builtinTable []builtinFunc
	evalBuiltin  int
)

func init() {
	evalBuiltin, _ = token.LookupBuiltin("eval")
	builtinTable = make([]builtinFunc, len(token.Builtins))
	for i, b := range token.Builtins {
		if i == evalBuiltin {
			continue
		}
		fn, ok := builtinImpls[b.Name]
		if !ok {
			panic(fmt.Sprintf("vm: no implementation for built-in %q", b.Name))
		}
		builtinTable[i] = fn
	}
}

// callBuiltin runs the built-in whose marker slot is at marker and
// replaces the call with its result.
func (m *Machine) callBuiltin(marker, argc int) error {
	call := m.stack[marker]
	if call.index == evalBuiltin {
		return m.startEval(marker, argc)
	}
	info := token.Builtins[call.index]
	if argc < info.MinArgs || argc > info.MaxArgs {
		return m.errorAt(errz.Newf(errz.ErrArgCount, "%s takes %d to %d arguments", info.Name, info.MinArgs, info.MaxArgs), call.tok)
	}
	v, err := builtinTable[call.index](m, m.stack[marker+1:])
	if err != nil {
		return m.errorAt(err, call.tok)
	}
	if v.Type == object.STRING {
		v.S = object.Clip(v.S)
	}
	m.truncate(marker)
	if err := m.pushValue(v, call.tok); err != nil {
		return err
	}
	return m.reduce()
}

func (m *Machine) numberArg(s slot) (object.Value, error) {
	v, err := m.value(s)
	if err != nil {
		return v, err
	}
	return v, requireNumeric(v)
}

func (m *Machine) longArg(s slot) (int32, error) {
	v, err := m.numberArg(s)
	if err != nil {
		return 0, err
	}
	return v.AsLong(), nil
}

func (m *Machine) stringArg(s slot) (string, error) {
	v, err := m.value(s)
	if err != nil {
		return "", err
	}
	if !v.IsString() {
		return "", errz.New(errz.ErrStringExpected)
	}
	return v.S, nil
}

func arrayArg(s slot) (*object.Array, error) {
	if s.kind != slotVar || !s.ref.IsWholeArray() {
		return nil, errz.New(errz.ErrArrayExpected)
	}
	return s.ref.Var.Array, nil
}

func mathFunc(fn func(float64) float64) builtinFunc {
	return func(m *Machine, args []slot) (object.Value, error) {
		v, err := m.numberArg(args[0])
		if err != nil {
			return v, err
		}
		return checkFloat(fn(float64(v.AsFloat())))
	}
}

func absFunc(m *Machine, args []slot) (object.Value, error) {
	v, err := m.numberArg(args[0])
	if err != nil {
		return v, err
	}
	if v.Type == object.LONG {
		if v.L < 0 {
			return checkLong(-int64(v.L))
		}
		return v, nil
	}
	return object.NewFloat(float32(math.Abs(float64(v.F)))), nil
}

func roundFunc(fn func(float64) float64) builtinFunc {
	return func(m *Machine, args []slot) (object.Value, error) {
		v, err := m.numberArg(args[0])
		if err != nil || v.Type == object.LONG {
			return v, err
		}
		return object.NewFloat(float32(fn(float64(v.F)))), nil
	}
}

// extremeFunc returns min (sign -1) or max (sign 1). Two longs give a
// long, anything else a float.
func extremeFunc(sign int) builtinFunc {
	return func(m *Machine, args []slot) (object.Value, error) {
		a, err := m.numberArg(args[0])
		if err != nil {
			return a, err
		}
		b, err := m.numberArg(args[1])
		if err != nil {
			return b, err
		}
		if a.Type == object.LONG && b.Type == object.LONG {
			if (sign > 0) == (a.L > b.L) {
				return a, nil
			}
			return b, nil
		}
		x, y := a.AsFloat(), b.AsFloat()
		if (sign > 0) == (x > y) {
			return object.NewFloat(x), nil
		}
		return object.NewFloat(y), nil
	}
}

func powFunc(m *Machine, args []slot) (object.Value, error) {
	a, err := m.numberArg(args[0])
	if err != nil {
		return a, err
	}
	b, err := m.numberArg(args[1])
	if err != nil {
		return b, err
	}
	return checkFloat(math.Pow(float64(a.AsFloat()), float64(b.AsFloat())))
}

func intFunc(m *Machine, args []slot) (object.Value, error) {
	v, err := m.numberArg(args[0])
	if err != nil || v.Type == object.LONG {
		return v, err
	}
	f := math.Trunc(float64(v.F))
	if f > math.MaxInt32 || f < math.MinInt32 {
		return object.Value{}, errz.New(errz.ErrOverflow)
	}
	return object.NewLong(int32(f)), nil
}

func floatFunc(m *Machine, args []slot) (object.Value, error) {
	v, err := m.numberArg(args[0])
	if err != nil {
		return v, err
	}
	return object.NewFloat(v.AsFloat()), nil
}

func strFunc(m *Machine, args []slot) (object.Value, error) {
	v, err := m.value(args[0])
	if err != nil {
		return v, err
	}
	return object.NewString(v.Inspect()), nil
}

// valFunc parses a number: decimal, hexadecimal (0x) or binary (0b)
// integers, else a float.
func valFunc(m *Machine, args []slot) (object.Value, error) {
	s, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 0, 32); err == nil {
		return object.NewLong(int32(n)), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return object.Value{}, errz.Newf(errz.ErrNumberExpected, "%q is not a number", s)
	}
	return checkFloat(f)
}

func typeFunc(m *Machine, args []slot) (object.Value, error) {
	if arr, err := arrayArg(args[0]); err == nil {
		return object.NewLong(int32(arr.Elem)), nil
	}
	v, err := m.value(args[0])
	if err != nil {
		return v, err
	}
	return object.NewLong(int32(v.Type)), nil
}

// sysValFunc exposes runtime state: 0 evaluation stack depth, 1 flow stack
// depth, 2 call depth, 3 stopped programs, 4 tracker errors and 10 plus a
// tracker category its counter.
func sysValFunc(m *Machine, args []slot) (object.Value, error) {
	n, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	switch {
	case n == 0:
		return object.NewLong(int32(len(m.stack))), nil
	case n == 1:
		return object.NewLong(int32(len(m.flow))), nil
	case n == 2:
		return object.NewLong(int32(m.callDepth())), nil
	case n == 3:
		return object.NewLong(int32(m.suspendedCount())), nil
	case n == 4:
		return object.NewLong(int32(m.tracker.Errors())), nil
	case n >= 10 && n < 10+int32(tracker.NumCategories):
		return object.NewLong(int32(m.tracker.Count(tracker.Category(n - 10)))), nil
	}
	return object.Value{}, errz.New(errz.ErrArgRange)
}

func lastFunc(m *Machine, args []slot) (object.Value, error) {
	n := int32(1)
	if len(args) > 0 {
		var err error
		if n, err = m.longArg(args[0]); err != nil {
			return object.Value{}, err
		}
	}
	v, ok := m.last.get(int(n))
	if !ok {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	return v, nil
}

func dimsFunc(m *Machine, args []slot) (object.Value, error) {
	arr, err := arrayArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	return object.NewLong(int32(arr.NDims)), nil
}

func uboundFunc(m *Machine, args []slot) (object.Value, error) {
	arr, err := arrayArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	d, err := m.longArg(args[1])
	if err != nil {
		return object.Value{}, err
	}
	if d < 1 || int(d) > arr.NDims {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	return object.NewLong(int32(arr.Dims[d-1])), nil
}

func lenFunc(m *Machine, args []slot) (object.Value, error) {
	s, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	return object.NewLong(int32(len(s))), nil
}

// stringCount returns a string argument and a non-negative count.
func (m *Machine) stringCount(args []slot) (string, int, error) {
	s, err := m.stringArg(args[0])
	if err != nil {
		return "", 0, err
	}
	n, err := m.longArg(args[1])
	if err != nil {
		return "", 0, err
	}
	if n < 0 {
		return "", 0, errz.New(errz.ErrArgRange)
	}
	return s, int(n), nil
}

func leftFunc(m *Machine, args []slot) (object.Value, error) {
	s, n, err := m.stringCount(args)
	if err != nil {
		return object.Value{}, err
	}
	return object.NewString(s[:min(n, len(s))]), nil
}

func rightFunc(m *Machine, args []slot) (object.Value, error) {
	s, n, err := m.stringCount(args)
	if err != nil {
		return object.Value{}, err
	}
	return object.NewString(s[len(s)-min(n, len(s)):]), nil
}

// midFunc returns n characters from the 1-based position start, or the
// rest of the string without n.
func midFunc(m *Machine, args []slot) (object.Value, error) {
	s, start, err := m.stringCount(args)
	if err != nil {
		return object.Value{}, err
	}
	if start < 1 {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	if start > len(s) {
		return object.NewString(""), nil
	}
	rest := s[start-1:]
	if len(args) > 2 {
		n, err := m.longArg(args[2])
		if err != nil {
			return object.Value{}, err
		}
		if n < 0 {
			return object.Value{}, errz.New(errz.ErrArgRange)
		}
		rest = rest[:min(int(n), len(rest))]
	}
	return object.NewString(rest), nil
}

func ascFunc(m *Machine, args []slot) (object.Value, error) {
	s, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	pos := int32(1)
	if len(args) > 1 {
		if pos, err = m.longArg(args[1]); err != nil {
			return object.Value{}, err
		}
	}
	if pos < 1 || int(pos) > len(s) {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	return object.NewLong(int32(s[pos-1])), nil
}

func charFunc(m *Machine, args []slot) (object.Value, error) {
	n, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	if n < 1 || n > 255 {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	return object.NewString(string([]byte{byte(n)})), nil
}

func stringFunc(fn func(string) string) builtinFunc {
	return func(m *Machine, args []slot) (object.Value, error) {
		s, err := m.stringArg(args[0])
		if err != nil {
			return object.Value{}, err
		}
		return object.NewString(fn(s)), nil
	}
}

// findFunc returns the 1-based position of sub in s, searching from the
// optional start position, or 0.
func findFunc(m *Machine, args []slot) (object.Value, error) {
	s, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	sub, err := m.stringArg(args[1])
	if err != nil {
		return object.Value{}, err
	}
	start := int32(1)
	if len(args) > 2 {
		if start, err = m.longArg(args[2]); err != nil {
			return object.Value{}, err
		}
	}
	if start < 1 {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	if int(start) > len(s)+1 {
		return object.NewLong(0), nil
	}
	i := strings.Index(s[start-1:], sub)
	if i < 0 {
		return object.NewLong(0), nil
	}
	return object.NewLong(int32(i) + start), nil
}

func repeatFunc(m *Machine, args []slot) (object.Value, error) {
	s, n, err := m.stringCount(args)
	if err != nil {
		return object.Value{}, err
	}
	if len(s) > 0 && n > object.MaxStringLength {
		n = object.MaxStringLength/len(s) + 1
	}
	return object.NewString(object.Clip(strings.Repeat(s, n))), nil
}

func (m *Machine) bitArgs(args []slot, limit int32) (int32, int32, error) {
	v, err := m.value(args[0])
	if err != nil {
		return 0, 0, err
	}
	n, err := m.value(args[1])
	if err != nil {
		return 0, 0, err
	}
	if err := requireLong(v, n); err != nil {
		return 0, 0, err
	}
	if n.L < 0 || n.L > limit {
		return 0, 0, errz.New(errz.ErrArgRange)
	}
	return v.L, n.L, nil
}

func bitFunc(m *Machine, args []slot) (object.Value, error) {
	v, n, err := m.bitArgs(args, 31)
	if err != nil {
		return object.Value{}, err
	}
	return object.NewLong((v >> n) & 1), nil
}

func setBit(v, n int32, on bool) int32 {
	if on {
		return v | 1<<n
	}
	return v &^ (1 << n)
}

func bitChangeFunc(on bool) builtinFunc {
	return func(m *Machine, args []slot) (object.Value, error) {
		v, n, err := m.bitArgs(args, 31)
		if err != nil {
			return object.Value{}, err
		}
		return object.NewLong(setBit(v, n, on)), nil
	}
}

// bitWriteFunc sets or clears a bit of a variable in place and returns the
// new value.
func bitWriteFunc(m *Machine, args []slot) (object.Value, error) {
	if args[0].kind != slotVar {
		return object.Value{}, errz.New(errz.ErrVariableExpected)
	}
	v, n, err := m.bitArgs(args, 31)
	if err != nil {
		return object.Value{}, err
	}
	b, err := m.numberArg(args[2])
	if err != nil {
		return object.Value{}, err
	}
	res := object.NewLong(setBit(v, n, b.IsTrue()))
	if err := m.store(args[0], res); err != nil {
		return object.Value{}, err
	}
	return res, nil
}

func byteReadFunc(m *Machine, args []slot) (object.Value, error) {
	v, n, err := m.bitArgs(args, 3)
	if err != nil {
		return object.Value{}, err
	}
	return object.NewLong((v >> (8 * n)) & 0xff), nil
}

func millisFunc(m *Machine, args []slot) (object.Value, error) {
	return object.NewLong(int32(time.Since(m.start).Milliseconds())), nil
}

func availableFunc(m *Machine, args []slot) (object.Value, error) {
	return object.NewLong(int32(m.console.Available())), nil
}

// readFunc returns the next console byte, or -1 when none is waiting.
func readFunc(m *Machine, args []slot) (object.Value, error) {
	c, err := m.console.ReadByte()
	if err != nil {
		return object.NewLong(-1), nil
	}
	return object.NewLong(int32(c)), nil
}

func openFunc(m *Machine, args []slot) (object.Value, error) {
	path, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	mode := int32(1)
	if len(args) > 1 {
		if mode, err = m.longArg(args[1]); err != nil {
			return object.Value{}, err
		}
	}
	h, err := m.files.Open(path, int(mode))
	if err != nil {
		return object.Value{}, err
	}
	return object.NewLong(int32(h)), nil
}

func closeFunc(m *Machine, args []slot) (object.Value, error) {
	h, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	return object.Zero, m.files.Close(int(h))
}

// readLineFunc reads the next line of an open file. At the end of the
// file it returns an empty string; eof() tells the two apart.
func readLineFunc(m *Machine, args []slot) (object.Value, error) {
	h, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	line, err := m.files.ReadLine(int(h))
	if errors.Is(err, io.EOF) {
		return object.NewString(""), nil
	}
	if err != nil {
		return object.Value{}, err
	}
	return object.NewString(line), nil
}

func writeLineFunc(m *Machine, args []slot) (object.Value, error) {
	h, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	v, err := m.value(args[1])
	if err != nil {
		return object.Value{}, err
	}
	return object.Zero, m.files.WriteLine(int(h), v.Inspect())
}

func eofFunc(m *Machine, args []slot) (object.Value, error) {
	h, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	eof, err := m.files.EOF(int(h))
	if err != nil {
		return object.Value{}, err
	}
	return object.NewBool(eof), nil
}

func seekFunc(m *Machine, args []slot) (object.Value, error) {
	h, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	pos, err := m.longArg(args[1])
	if err != nil {
		return object.Value{}, err
	}
	if pos < 0 {
		return object.Value{}, errz.New(errz.ErrArgRange)
	}
	return object.Zero, m.files.Seek(int(h), int64(pos))
}

func flushFunc(m *Machine, args []slot) (object.Value, error) {
	h, err := m.longArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	return object.Zero, m.files.Flush(int(h))
}

func existsFunc(m *Machine, args []slot) (object.Value, error) {
	path, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	return object.NewBool(m.files.Exists(path)), nil
}

func pathFunc(fn func(m *Machine, path string) error) builtinFunc {
	return func(m *Machine, args []slot) (object.Value, error) {
		path, err := m.stringArg(args[0])
		if err != nil {
			return object.Value{}, err
		}
		return object.Zero, fn(m, path)
	}
}

func listDirFunc(m *Machine, args []slot) (object.Value, error) {
	path, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	names, err := m.files.ListDir(path)
	if err != nil {
		return object.Value{}, err
	}
	return object.NewString(strings.Join(names, " ")), nil
}

// callbackFunc calls a native function registered under an alias. The
// arguments are passed as copies; changes the callback makes to copies of
// variables are written back, provided they keep string or numeric
// nature.
func callbackFunc(m *Machine, args []slot) (object.Value, error) {
	alias, err := m.stringArg(args[0])
	if err != nil {
		return object.Value{}, err
	}
	fn, ok := m.natives.Lookup(alias)
	if !ok {
		return object.Value{}, errz.Newf(errz.ErrUnknownCallback, "no callback %q", alias)
	}
	rest := args[1:]
	vals := make([]object.Value, len(rest))
	ptrs := make([]*object.Value, len(rest))
	for i, s := range rest {
		if vals[i], err = m.value(s); err != nil {
			return object.Value{}, err
		}
		ptrs[i] = &vals[i]
	}
	if err := fn(ptrs); err != nil {
		return object.Value{}, errz.Wrap(errz.ErrCallback, err)
	}
	for i, s := range rest {
		if s.kind != slotVar || s.constant {
			continue
		}
		old, nv := s.ref.Load(), vals[i]
		if nv.Equals(old) {
			continue
		}
		if nv.IsString() != old.IsString() || !(nv.IsString() || nv.IsNumeric()) {
			return object.Value{}, errz.Newf(errz.ErrCallback, "callback %q changed the type of argument %d", alias, i+1)
		}
		if err := m.store(s, nv); err != nil {
			return object.Value{}, err
		}
	}
	return object.Zero, nil
}
