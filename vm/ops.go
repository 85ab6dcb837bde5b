package vm

import (
	"math"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/op"
)

const smallestNormal32 = 1.1754943508222875e-38

// checkFloat classifies a float result.
func checkFloat(f float64) (object.Value, error) {
	switch {
	case math.IsNaN(f):
		return object.Value{}, errz.New(errz.ErrUndefinedResult)
	case math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32:
		return object.Value{}, errz.New(errz.ErrOverflow)
	case f != 0 && math.Abs(f) < smallestNormal32:
		return object.Value{}, errz.New(errz.ErrUnderflow)
	}
	return object.NewFloat(float32(f)), nil
}

func checkLong(n int64) (object.Value, error) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return object.Value{}, errz.New(errz.ErrOverflow)
	}
	return object.NewLong(int32(n)), nil
}

func requireNumeric(vs ...object.Value) error {
	for _, v := range vs {
		if !v.IsNumeric() {
			return errz.New(errz.ErrNumberExpected)
		}
	}
	return nil
}

func requireLong(vs ...object.Value) error {
	if err := requireNumeric(vs...); err != nil {
		return err
	}
	for _, v := range vs {
		if v.Type != object.LONG {
			return errz.New(errz.ErrIntegerExpected)
		}
	}
	return nil
}

// unaryOp computes a prefix operator or the new value of an increment or
// decrement.
func unaryOp(code op.Code, v object.Value) (object.Value, error) {
	info := op.GetInfo(code)
	if err := requireNumeric(v); err != nil {
		return object.Value{}, err
	}
	if info.Has(op.IntOnly) {
		if err := requireLong(v); err != nil {
			return object.Value{}, err
		}
	}
	switch code {
	case op.Plus:
		return v, nil
	case op.Minus:
		if v.Type == object.LONG {
			return checkLong(-int64(v.L))
		}
		return object.NewFloat(-v.F), nil
	case op.Not:
		return object.NewBool(!v.IsTrue()), nil
	case op.Complement:
		return object.NewLong(^v.L), nil
	case op.Incr, op.Decr:
		delta := int64(1)
		if code == op.Decr {
			delta = -1
		}
		if v.Type == object.LONG {
			return checkLong(int64(v.L) + delta)
		}
		return checkFloat(float64(v.F) + float64(delta))
	}
	return object.Value{}, errz.Newf(errz.ErrInternal, "unknown prefix operator %s", code)
}

// binaryOp computes an infix operator. Compound assignments compute their
// base operator; plain assignment yields b unchanged.
func binaryOp(code op.Code, a, b object.Value) (object.Value, error) {
	if code == op.Assign {
		return b, nil
	}
	if base := op.GetInfo(code).Base; base != op.Invalid {
		code = base
	}
	info := op.GetInfo(code)
	switch code {
	case op.Plus:
		if a.IsString() && b.IsString() {
			return object.NewString(object.Clip(a.S + b.S)), nil
		}
	}
	if a.IsString() || b.IsString() {
		if a.IsString() != b.IsString() {
			return object.Value{}, errz.New(errz.ErrIncompatibleTypes)
		}
		return object.Value{}, errz.New(errz.ErrNumberExpected)
	}
	switch code {
	case op.Eq, op.NotEq, op.Lt, op.LtEq, op.Gt, op.GtEq:
		return compare(code, a, b)
	}
	if info.Has(op.IntOnly) {
		if err := requireLong(a, b); err != nil {
			return object.Value{}, err
		}
		return longOp(code, a.L, b.L)
	}
	switch code {
	case op.And:
		return object.NewBool(a.IsTrue() && b.IsTrue()), nil
	case op.Or:
		return object.NewBool(a.IsTrue() || b.IsTrue()), nil
	case op.Pow:
		return floatOp(code, float64(a.AsFloat()), float64(b.AsFloat()))
	}
	if a.Type == object.LONG && b.Type == object.LONG {
		return longOp(code, a.L, b.L)
	}
	return floatOp(code, float64(a.AsFloat()), float64(b.AsFloat()))
}

func compare(code op.Code, a, b object.Value) (object.Value, error) {
	if err := requireNumeric(a, b); err != nil {
		return object.Value{}, err
	}
	var c int
	if a.Type == object.LONG && b.Type == object.LONG {
		c = cmp(int64(a.L), int64(b.L))
	} else {
		x, y := a.AsFloat(), b.AsFloat()
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	}
	switch code {
	case op.Eq:
		return object.NewBool(c == 0), nil
	case op.NotEq:
		return object.NewBool(c != 0), nil
	case op.Lt:
		return object.NewBool(c < 0), nil
	case op.LtEq:
		return object.NewBool(c <= 0), nil
	case op.Gt:
		return object.NewBool(c > 0), nil
	default:
		return object.NewBool(c >= 0), nil
	}
}

func cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func longOp(code op.Code, a, b int32) (object.Value, error) {
	x, y := int64(a), int64(b)
	switch code {
	case op.Plus:
		return checkLong(x + y)
	case op.Minus:
		return checkLong(x - y)
	case op.Mul:
		return checkLong(x * y)
	case op.Div:
		if y == 0 {
			return object.Value{}, errz.New(errz.ErrDivByZero)
		}
		return checkLong(x / y)
	case op.Mod:
		if y == 0 {
			return object.Value{}, errz.New(errz.ErrDivByZero)
		}
		return object.NewLong(int32(x % y)), nil
	case op.BitAnd:
		return object.NewLong(a & b), nil
	case op.BitOr:
		return object.NewLong(a | b), nil
	case op.BitXor:
		return object.NewLong(a ^ b), nil
	case op.Shl, op.Shr:
		if b < 0 || b > 31 {
			return object.Value{}, errz.New(errz.ErrShiftRange)
		}
		if code == op.Shl {
			return object.NewLong(a << uint(b)), nil
		}
		return object.NewLong(a >> uint(b)), nil
	}
	return object.Value{}, errz.Newf(errz.ErrInternal, "unknown operator %s", code)
}

func floatOp(code op.Code, x, y float64) (object.Value, error) {
	switch code {
	case op.Plus:
		return checkFloat(x + y)
	case op.Minus:
		return checkFloat(x - y)
	case op.Mul:
		return checkFloat(x * y)
	case op.Div:
		if y == 0 {
			return object.Value{}, errz.New(errz.ErrDivByZero)
		}
		return checkFloat(x / y)
	case op.Pow:
		return checkFloat(math.Pow(x, y))
	}
	return object.Value{}, errz.Newf(errz.ErrInternal, "unknown operator %s", code)
}
