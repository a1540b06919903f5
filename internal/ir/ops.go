package ir

import (
	"errors"
	"fmt"
	"math"
)

// BinaryOp names a strict binary operation over wire values.
// The same kernels back host-side folding and per-cycle primitives.
type BinaryOp string

const (
	OpAdd BinaryOp = "add"
	OpSub BinaryOp = "sub"
	OpMul BinaryOp = "mul"
	OpDiv BinaryOp = "div"
	OpMin BinaryOp = "min"
	OpMax BinaryOp = "max"
	OpLt  BinaryOp = "lt"
	OpLe  BinaryOp = "le"
	OpGt  BinaryOp = "gt"
	OpGe  BinaryOp = "ge"
	OpEq  BinaryOp = "eq"
	OpNe  BinaryOp = "ne"
	OpAnd BinaryOp = "and"
	OpOr  BinaryOp = "or"
)

// UnaryOp names a strict unary operation over wire values.
type UnaryOp string

const (
	OpNeg      UnaryOp = "neg"
	OpAbs      UnaryOp = "abs"
	OpNot      UnaryOp = "not"
	OpToDouble UnaryOp = "todouble"
)

// BinaryOps lists every BinaryOp in declaration order.
var BinaryOps = []BinaryOp{OpAdd, OpSub, OpMul, OpDiv, OpMin, OpMax, OpLt, OpLe, OpGt, OpGe, OpEq, OpNe, OpAnd, OpOr}

// UnaryOps lists every UnaryOp in declaration order.
var UnaryOps = []UnaryOp{OpNeg, OpAbs, OpNot, OpToDouble}

// ErrDivisionByZero is returned by integer division with a zero divisor.
// Double division never returns it (IEEE-754 yields inf or nan).
var ErrDivisionByZero = errors.New("integer division by zero")

func (op BinaryOp) arithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMin, OpMax:
		return true
	}
	return false
}

func (op BinaryOp) ordering() bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// BinaryResultKind returns the result kind of op applied to operands of
// kinds a and b, or an error if the operands are not accepted.
// Operands must share a kind; mixed int/double arithmetic needs an explicit
// todouble.
func BinaryResultKind(op BinaryOp, a, b Kind) (Kind, error) {
	if a != b {
		return KindInvalid, fmt.Errorf("%s: operand kinds differ (%s, %s)", op, a, b)
	}
	switch {
	case op.arithmetic():
		if a != KindInt && a != KindDouble {
			return KindInvalid, fmt.Errorf("%s: want int or double operands, got %s", op, a)
		}
		return a, nil
	case op.ordering():
		if a != KindInt && a != KindDouble {
			return KindInvalid, fmt.Errorf("%s: want int or double operands, got %s", op, a)
		}
		return KindBool, nil
	case op == OpEq || op == OpNe:
		return KindBool, nil
	case op == OpAnd || op == OpOr:
		if a != KindBool {
			return KindInvalid, fmt.Errorf("%s: want bool operands, got %s", op, a)
		}
		return KindBool, nil
	default:
		return KindInvalid, fmt.Errorf("unknown binary op %q", op)
	}
}

// ApplyBinary evaluates op on two present values.
func ApplyBinary(op BinaryOp, a, b Value) (Value, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: missing operand", op)
	}
	if _, err := BinaryResultKind(op, a.Kind(), b.Kind()); err != nil {
		return nil, err
	}
	switch op {
	case OpEq:
		return Bool(equalIEEE(a, b)), nil
	case OpNe:
		return Bool(!equalIEEE(a, b)), nil
	case OpAnd:
		return Bool(bool(a.(Bool)) && bool(b.(Bool))), nil
	case OpOr:
		return Bool(bool(a.(Bool)) || bool(b.(Bool))), nil
	}
	switch av := a.(type) {
	case Int:
		return applyInt(op, av, b.(Int))
	case Double:
		return applyDouble(op, float64(av), float64(b.(Double)))
	}
	return nil, fmt.Errorf("%s: unsupported operand kind %s", op, a.Kind())
}

// equalIEEE is Equal except that doubles compare numerically: NaN differs
// from everything and -0 equals +0.
func equalIEEE(a, b Value) bool {
	if ad, ok := a.(Double); ok {
		bd, ok := b.(Double)
		return ok && float64(ad) == float64(bd)
	}
	if aa, ok := a.(Array); ok {
		ba, ok := b.(Array)
		if !ok || len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !equalIEEE(aa[i], ba[i]) {
				return false
			}
		}
		return true
	}
	return Equal(a, b)
}

func applyInt(op BinaryOp, a, b Int) (Value, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return a / b, nil
	case OpMin:
		return min(a, b), nil
	case OpMax:
		return max(a, b), nil
	case OpLt:
		return Bool(a < b), nil
	case OpLe:
		return Bool(a <= b), nil
	case OpGt:
		return Bool(a > b), nil
	case OpGe:
		return Bool(a >= b), nil
	}
	return nil, fmt.Errorf("unknown int op %q", op)
}

func applyDouble(op BinaryOp, a, b float64) (Value, error) {
	switch op {
	case OpAdd:
		return Double(a + b), nil
	case OpSub:
		return Double(a - b), nil
	case OpMul:
		return Double(a * b), nil
	case OpDiv:
		return Double(a / b), nil
	case OpMin:
		return Double(math.Min(a, b)), nil
	case OpMax:
		return Double(math.Max(a, b)), nil
	case OpLt:
		return Bool(a < b), nil
	case OpLe:
		return Bool(a <= b), nil
	case OpGt:
		return Bool(a > b), nil
	case OpGe:
		return Bool(a >= b), nil
	}
	return nil, fmt.Errorf("unknown double op %q", op)
}

// UnaryResultKind returns the result kind of op applied to kind a.
func UnaryResultKind(op UnaryOp, a Kind) (Kind, error) {
	switch op {
	case OpNeg, OpAbs:
		if a != KindInt && a != KindDouble {
			return KindInvalid, fmt.Errorf("%s: want int or double operand, got %s", op, a)
		}
		return a, nil
	case OpNot:
		if a != KindBool {
			return KindInvalid, fmt.Errorf("%s: want bool operand, got %s", op, a)
		}
		return KindBool, nil
	case OpToDouble:
		if a != KindInt && a != KindDouble {
			return KindInvalid, fmt.Errorf("%s: want int or double operand, got %s", op, a)
		}
		return KindDouble, nil
	default:
		return KindInvalid, fmt.Errorf("unknown unary op %q", op)
	}
}

// ApplyUnary evaluates op on a present value.
func ApplyUnary(op UnaryOp, a Value) (Value, error) {
	if a == nil {
		return nil, fmt.Errorf("%s: missing operand", op)
	}
	if _, err := UnaryResultKind(op, a.Kind()); err != nil {
		return nil, err
	}
	switch av := a.(type) {
	case Bool:
		return !av, nil
	case Int:
		switch op {
		case OpNeg:
			return -av, nil
		case OpAbs:
			if av < 0 {
				return -av, nil
			}
			return av, nil
		case OpToDouble:
			return Double(av), nil
		}
	case Double:
		switch op {
		case OpNeg:
			return -av, nil
		case OpAbs:
			return Double(math.Abs(float64(av))), nil
		case OpToDouble:
			return av, nil
		}
	}
	return nil, fmt.Errorf("%s: unsupported operand kind %s", op, a.Kind())
}
