package object

import (
	"strings"
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		input   Value
		inspect string
		quoted  string
	}{
		{NewLong(-3), "-3", "-3"},
		{NewFloat(3), "3.0", "3.0"},
		{NewFloat(2.5), "2.5", "2.5"},
		{NewFloat(1e20), "1e+20", "1e+20"},
		{NewString("foo"), "foo", `"foo"`},
		{NewString(""), "", `""`},
		{Value{}, "<invalid>", "<invalid>"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.inspect, tt.input.Inspect())
		require.Equal(t, tt.quoted, tt.input.Quoted())
	}
}

func TestConversions(t *testing.T) {
	require.Equal(t, float32(4), NewLong(4).AsFloat())
	require.Equal(t, int32(-2), NewFloat(-2.9).AsLong())
	require.True(t, NewFloat(0.1).IsTrue())
	require.False(t, NewLong(0).IsTrue())
	require.True(t, NewLong(1).IsNumeric())
	require.False(t, NewString("1").IsNumeric())
	require.Equal(t, NewLong(1), NewBool(true))
	require.Equal(t, NewLong(0), NewBool(false))
}

func TestEquals(t *testing.T) {
	require.True(t, NewLong(1).Equals(NewLong(1)))
	require.False(t, NewLong(1).Equals(NewFloat(1)))
	require.True(t, NewString("a").Equals(NewString("a")))
	require.False(t, NewString("a").Equals(NewString("b")))
}

func TestEmptyStringHasNoHeap(t *testing.T) {
	require.False(t, NewString("").HasHeap())
	require.True(t, NewString("x").HasHeap())
	require.False(t, NewLong(7).HasHeap())
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", 300)
	require.Len(t, Clip(long), MaxStringLength)
	require.Equal(t, "abc", Clip("abc"))
}

func TestArrayLayout(t *testing.T) {
	a, err := NewArray([]int{2, 3}, NewLong(5))
	require.Nil(t, err)
	require.Equal(t, 6, a.Len())
	require.Equal(t, LONG, a.Elem)

	offset, err := a.Offset([]int{1, 1})
	require.Nil(t, err)
	require.Equal(t, 0, offset)
	offset, err = a.Offset([]int{2, 3})
	require.Nil(t, err)
	require.Equal(t, 5, offset)
	offset, err = a.Offset([]int{2, 1})
	require.Nil(t, err)
	require.Equal(t, 3, offset)

	_, err = a.Offset([]int{3, 1})
	require.True(t, errz.Is(err, errz.ErrArrayBounds))
	_, err = a.Offset([]int{0, 1})
	require.True(t, errz.Is(err, errz.ErrArrayBounds))
	_, err = a.Offset([]int{1})
	require.True(t, errz.Is(err, errz.ErrArrayDimCount))
}

func TestArrayLimits(t *testing.T) {
	a, err := NewArray([]int{4}, Value{})
	require.Nil(t, err)
	require.Equal(t, FLOAT, a.Elem)

	_, err = NewArray(nil, Zero)
	require.True(t, errz.Is(err, errz.ErrArrayDimCount))
	_, err = NewArray([]int{1, 1, 1, 1}, Zero)
	require.True(t, errz.Is(err, errz.ErrArrayDimCount))
	_, err = NewArray([]int{256}, Zero)
	require.True(t, errz.Is(err, errz.ErrArrayDimSize))
	_, err = NewArray([]int{100, 100}, Zero)
	require.True(t, errz.Is(err, errz.ErrArrayDimSize))
}

func TestArrayCast(t *testing.T) {
	longs, _ := NewArray([]int{1}, NewLong(0))
	v, err := longs.Cast(NewFloat(2.7))
	require.Nil(t, err)
	require.Equal(t, NewLong(2), v)

	floats, _ := NewArray([]int{1}, NewFloat(0))
	v, err = floats.Cast(NewLong(2))
	require.Nil(t, err)
	require.Equal(t, NewFloat(2), v)

	_, err = floats.Cast(NewString("x"))
	require.True(t, errz.Is(err, errz.ErrArrayTypeMismatch))

	strs, _ := NewArray([]int{3}, NewString(""))
	_, err = strs.Cast(NewLong(1))
	require.True(t, errz.Is(err, errz.ErrArrayTypeMismatch))
	require.Equal(t, 0, strs.HeapCount())
	strs.Elems[1] = NewString("a")
	require.Equal(t, 1, strs.HeapCount())
}

func TestReferences(t *testing.T) {
	arr, _ := NewArray([]int{3}, NewLong(0))
	v := &Variable{Name: "a", Scope: ScopeGlobal, Array: arr}
	require.True(t, v.IsArray())
	ref := v.Ref()
	require.True(t, ref.IsWholeArray())
	require.False(t, ref.IsElement())

	elem := Ref{Var: v, Elem: 2}
	arr.Elems[2] = NewLong(9)
	require.Equal(t, NewLong(9), elem.Load())

	param := &Variable{Name: "p", Scope: ScopeParamRef, Target: &elem}
	require.False(t, param.IsArray())
	require.Equal(t, elem, param.Ref())
	require.Equal(t, ScopeGlobal, param.Ref().Scope())

	whole := v.Ref()
	byRef := &Variable{Name: "q", Scope: ScopeParamRef, Target: &whole}
	require.True(t, byRef.IsArray())
	require.True(t, ScopeParamRef.IsFrameScope())
	require.False(t, ScopeUser.IsFrameScope())
}

func TestFunctionSlots(t *testing.T) {
	fn := &Function{
		Name:   "f",
		Params: []Param{{Name: "x"}, {Name: "y", IsArray: true}},
		Locals: []Local{{Name: "t", IsArray: true, Dims: []int{2}}, {Name: "u"}},
	}
	require.Equal(t, 4, fn.LocalCount())
	require.Equal(t, "y", fn.LocalName(1))
	require.Equal(t, "t", fn.LocalName(2))
	require.True(t, fn.LocalIsArray(1))
	require.True(t, fn.LocalIsArray(2))
	require.False(t, fn.LocalIsArray(3))
}
