package object

// Scope of a variable.
type Scope uint8

const (
	ScopeGlobal Scope = iota
	ScopeStatic
	ScopeUser
	ScopeLocal
	ScopeParam
	ScopeParamRef
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeStatic:
		return "static"
	case ScopeUser:
		return "user"
	case ScopeLocal:
		return "local"
	case ScopeParam:
		return "parameter"
	case ScopeParamRef:
		return "reference"
	default:
		return "unknown"
	}
}

// IsFrameScope reports whether storage of this scope lives in a call frame.
func (s Scope) IsFrameScope() bool {
	return s == ScopeLocal || s == ScopeParam || s == ScopeParamRef
}

// Variable is one named storage cell. Array variables keep their elements in
// Array; by-reference parameters keep the referent in Target and own nothing.
type Variable struct {
	Name   string
	Scope  Scope
	Const  bool
	Value  Value
	Array  *Array
	Target *Ref
}

// NewVariable returns a scalar variable holding the given value.
func NewVariable(name string, scope Scope, value Value) *Variable {
	return &Variable{Name: name, Scope: scope, Value: value}
}

// IsArray reports whether the variable (or its referent) is an array.
func (v *Variable) IsArray() bool {
	if v.Target != nil {
		return v.Target.Var.Array != nil && v.Target.Elem < 0
	}
	return v.Array != nil
}

// Ref returns a reference to the variable, looking through by-reference
// parameter bindings.
func (v *Variable) Ref() Ref {
	if v.Target != nil {
		return *v.Target
	}
	return Ref{Var: v, Elem: -1}
}

// Ref points at a scalar variable, a whole array, or one array element. Var
// is never a by-reference parameter itself.
type Ref struct {
	Var  *Variable
	Elem int
}

// IsElement reports whether the reference addresses an array element.
func (r Ref) IsElement() bool { return r.Elem >= 0 }

// IsWholeArray reports whether the reference addresses an array as a whole.
func (r Ref) IsWholeArray() bool { return r.Elem < 0 && r.Var.Array != nil }

// Load returns the referenced value.
func (r Ref) Load() Value {
	if r.Elem >= 0 {
		return r.Var.Array.Elems[r.Elem]
	}
	return r.Var.Value
}

// Scope returns the scope of the storage that owns the referenced value.
func (r Ref) Scope() Scope { return r.Var.Scope }
