package vm

import (
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
	"github.com/Herwig9820/Justina-interpreter-sub002/token"
)

type slotKind uint8

const (
	// slotValue is an owned value: a parsed constant or an intermediate
	// result.
	slotValue slotKind = iota
	// slotVar references a scalar variable, an array element or a whole
	// array.
	slotVar
	// slotArray is an array variable waiting for its subscripts.
	slotArray
	// slotFunc is a function name waiting for its argument list.
	slotFunc
	// slotOp is an operator or a left parenthesis.
	slotOp
	// slotName is a generic name, consumed by commands.
	slotName
)

// slot is one entry of the evaluation stack.
type slot struct {
	kind     slotKind
	val      object.Value
	ref      object.Ref
	constant bool
	op       op.Code
	role     op.Role
	fnKind   token.Kind
	index    int
	name     string
	// tok is the token that pushed the slot, for error positions.
	tok int
}

type activationKind uint8

const (
	actImmediate activationKind = iota
	actFunction
	actEval
)

// pending is a reserved word waiting for its statement's semicolon.
type pending struct {
	word token.Word
	tok  int
	base int
}

// activation is the context of one running piece of code: an immediate
// line, a function call or an eval() string.
type activation struct {
	kind   activationKind
	code   *token.Code
	ip     int
	fn     *object.Function
	locals []*object.Variable
	// baseline is the evaluation stack depth the activation owns from.
	// For calls and eval() it is the index of the call's marker slot, so
	// the result lands where the call expression was.
	baseline int
	// blockBase is the flow stack depth at entry; block frames above it
	// belong to this activation.
	blockBase int
	// callTok is the token of the call in the caller's code.
	callTok   int
	cmd       *pending
	suspended bool
}

func (a *activation) name() string {
	switch a.kind {
	case actFunction:
		return a.fn.Name
	case actEval:
		return "eval"
	default:
		return "immediate"
	}
}

// block is an open if, while or for block.
type block struct {
	word  token.Word
	start int

	withinIteration bool
	breakRequested  bool
	lastTestFailed  bool

	ctrl     object.Ref
	ctrlType object.Type
	final    object.Value
	step     object.Value
}

// flowEntry is one flow control stack entry: a saved activation or an open
// block. Exactly one field is set.
type flowEntry struct {
	act *activation
	blk *block
}
