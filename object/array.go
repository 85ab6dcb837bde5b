package object

import "github.com/Herwig9820/Justina-interpreter-sub002/errz"

const (
	// MaxArrayDims is the maximum number of array dimensions.
	MaxArrayDims = 3
	// MaxDimSize is the maximum size of one array dimension.
	MaxDimSize = 255
	// MaxArrayElements bounds the total element count of one array.
	MaxArrayElements = 1000
)

// Array is fixed-size storage of up to three dimensions. All elements share
// one type, fixed when the array is created.
type Array struct {
	Dims  [MaxArrayDims]int
	NDims int
	Elem  Type
	Elems []Value
}

// NewArray creates an array with every element set to init. A float zero is
// used when init is invalid.
func NewArray(dims []int, init Value) (*Array, error) {
	if len(dims) == 0 || len(dims) > MaxArrayDims {
		return nil, errz.New(errz.ErrArrayDimCount)
	}
	if init.Type == INVALID {
		init = NewFloat(0)
	}
	a := &Array{NDims: len(dims), Elem: init.Type}
	count := 1
	for i, d := range dims {
		if d < 1 || d > MaxDimSize {
			return nil, errz.New(errz.ErrArrayDimSize)
		}
		a.Dims[i] = d
		count *= d
	}
	if count > MaxArrayElements {
		return nil, errz.New(errz.ErrArrayDimSize)
	}
	a.Elems = make([]Value, count)
	for i := range a.Elems {
		a.Elems[i] = init
	}
	return a, nil
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Elems) }

// Offset maps 1-based subscripts to an element offset.
func (a *Array) Offset(subs []int) (int, error) {
	if len(subs) != a.NDims {
		return 0, errz.New(errz.ErrArrayDimCount)
	}
	offset := 0
	for i, s := range subs {
		if s < 1 || s > a.Dims[i] {
			return 0, errz.New(errz.ErrArrayBounds)
		}
		offset = offset*a.Dims[i] + (s - 1)
	}
	return offset, nil
}

// Cast converts a value to the array's element type. Numeric values cast
// freely between long and float; strings and numbers never mix.
func (a *Array) Cast(v Value) (Value, error) {
	if v.Type == a.Elem {
		return v, nil
	}
	if a.Elem == STRING || v.Type == STRING {
		return Value{}, errz.New(errz.ErrArrayTypeMismatch)
	}
	if a.Elem == LONG {
		return NewLong(v.AsLong()), nil
	}
	return NewFloat(v.AsFloat()), nil
}

// HeapCount returns how many elements carry a non-empty string.
func (a *Array) HeapCount() int {
	if a.Elem != STRING {
		return 0
	}
	n := 0
	for _, e := range a.Elems {
		if e.HasHeap() {
			n++
		}
	}
	return n
}
