package eval

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"adana/internal/value"
)

// repeatArray cycles elements n times: "array * n" repeats the whole
// array n times, the same string-like repetition "string" * n gets,
// rather than broadcasting a scalar multiply over each element.
func repeatArray(elements []value.Primitive, n int) *value.Array {
	out := make([]value.Primitive, 0, len(elements)*n)
	for i := 0; i < n; i++ {
		out = append(out, elements...)
	}
	return &value.Array{Elements: out}
}

func negate(p value.Primitive) (value.Primitive, error) {
	p = value.Deref(p)
	switch v := p.(type) {
	case value.U8:
		return value.NewInt(-int64(v)), nil
	case value.I8:
		return value.I8(-v), nil
	case value.Int:
		return value.Int{V: new(big.Int).Neg(v.V)}, nil
	case value.Double:
		return value.Double(-v), nil
	}
	return value.ErrorVal{Msg: fmt.Sprintf("cannot negate %s", p.TypeName())}, nil
}

func bitNot(p value.Primitive) (value.Primitive, error) {
	p = value.Deref(p)
	i, ok := toBigInt(p)
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("cannot apply ~ to %s", p.TypeName())}, nil
	}
	// ~x == -(x+1), two's complement bitwise not for arbitrary precision.
	r := new(big.Int).Not(i)
	return value.Int{V: r}, nil
}

func asFloat(p value.Primitive) (float64, bool) {
	switch v := p.(type) {
	case value.U8:
		return float64(v), true
	case value.I8:
		return float64(v), true
	case value.Double:
		return float64(v), true
	case value.Int:
		f := new(big.Float).SetInt(v.V)
		r, _ := f.Float64()
		return r, true
	}
	return 0, false
}

func toBigInt(p value.Primitive) (*big.Int, bool) {
	switch v := p.(type) {
	case value.U8:
		return big.NewInt(int64(v)), true
	case value.I8:
		return big.NewInt(int64(v)), true
	case value.Int:
		return v.V, true
	case value.Bool:
		if v {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	}
	return nil, false
}

// applyBinaryOp implements the operator semantics table: numeric
// widening, partial-order comparison, and the integer bitwise lattice
// (bools promote to 0/1).
func applyBinaryOp(op value.Op, left, right value.Primitive) (value.Primitive, error) {
	left, right = value.Deref(left), value.Deref(right)

	switch op {
	case value.OpEq:
		return value.Bool(value.Equals(left, right)), nil
	case value.OpNeq:
		return value.Bool(!value.Equals(left, right)), nil
	case value.OpGe, value.OpLe, value.OpGt, value.OpLt:
		c, err := value.Compare(left, right)
		if err != nil {
			return value.ErrorVal{Msg: err.Error()}, nil
		}
		switch op {
		case value.OpGe:
			return value.Bool(c >= 0), nil
		case value.OpLe:
			return value.Bool(c <= 0), nil
		case value.OpGt:
			return value.Bool(c > 0), nil
		default:
			return value.Bool(c < 0), nil
		}
	case value.OpAdd:
		if ls, ok := left.(value.String); ok {
			return value.String(string(ls) + value.ToStringValue(right)), nil
		}
		if la, ok := left.(*value.Array); ok {
			return &value.Array{Elements: append(append([]value.Primitive{}, la.Elements...), right)}, nil
		}
		return arith(op, left, right)
	case value.OpMul:
		if ls, ok := left.(value.String); ok {
			n, ok := toBigInt(right)
			if !ok || n.Sign() < 0 {
				return value.ErrorVal{Msg: fmt.Sprintf("cannot repeat a string by %s", right.TypeName())}, nil
			}
			return value.String(strings.Repeat(string(ls), int(n.Int64()))), nil
		}
		if la, ok := left.(*value.Array); ok {
			n, ok := toBigInt(right)
			if !ok || n.Sign() < 0 {
				return value.ErrorVal{Msg: fmt.Sprintf("cannot repeat an array by %s", right.TypeName())}, nil
			}
			return repeatArray(la.Elements, int(n.Int64())), nil
		}
		return arith(op, left, right)
	case value.OpSub, value.OpMod, value.OpDiv, value.OpPow:
		return arith(op, left, right)
	case value.OpBitAnd, value.OpBitOr, value.OpBitXor, value.OpShl, value.OpShr:
		return bitwise(op, left, right)
	}
	return value.ErrorVal{Msg: fmt.Sprintf("unsupported operator %q", op)}, nil
}

func bitwise(op value.Op, left, right value.Primitive) (value.Primitive, error) {
	li, lok := toBigInt(left)
	ri, rok := toBigInt(right)
	if !lok || !rok {
		return value.ErrorVal{Msg: fmt.Sprintf("operator %q requires integers, got %s and %s", op, left.TypeName(), right.TypeName())}, nil
	}
	r := new(big.Int)
	switch op {
	case value.OpBitAnd:
		r.And(li, ri)
	case value.OpBitOr:
		r.Or(li, ri)
	case value.OpBitXor:
		r.Xor(li, ri)
	case value.OpShl:
		r.Lsh(li, uint(ri.Uint64()))
	case value.OpShr:
		r.Rsh(li, uint(ri.Uint64()))
	}
	return narrowInt(r, left, right), nil
}

// narrowInt keeps the result in U8 when both operands were U8 and the
// bitwise result still fits ("U8 op U8 stays U8 when it cannot
// overflow (bitwise)"); otherwise it widens to Int.
func narrowInt(r *big.Int, left, right value.Primitive) value.Primitive {
	_, lu8 := left.(value.U8)
	_, ru8 := right.(value.U8)
	if lu8 && ru8 && r.IsInt64() && r.Int64() >= 0 && r.Int64() <= 255 {
		return value.U8(r.Int64())
	}
	return value.Int{V: r}
}

func isFloaty(p value.Primitive) bool {
	_, ok := p.(value.Double)
	return ok
}

func arith(op value.Op, left, right value.Primitive) (value.Primitive, error) {
	if isFloaty(left) || isFloaty(right) {
		lf, lok := asFloat(left)
		rf, rok := asFloat(right)
		if !lok || !rok {
			return value.ErrorVal{Msg: fmt.Sprintf("operator %q requires numbers, got %s and %s", op, left.TypeName(), right.TypeName())}, nil
		}
		return value.Double(floatOp(op, lf, rf)), nil
	}

	li, lok := toBigInt(left)
	ri, rok := toBigInt(right)
	if !lok || !rok {
		return value.ErrorVal{Msg: fmt.Sprintf("operator %q requires numbers, got %s and %s", op, left.TypeName(), right.TypeName())}, nil
	}

	switch op {
	case value.OpDiv:
		if ri.Sign() == 0 {
			if li.Sign() <= 0 {
				return value.Double(math.NaN()), nil
			}
			return value.Double(math.Inf(1)), nil
		}
		q, rem := new(big.Int).QuoRem(li, ri, new(big.Int))
		if rem.Sign() == 0 {
			return narrowArith(q, left, right), nil
		}
		lf, _ := asFloat(left)
		rf, _ := asFloat(right)
		return value.Double(lf / rf), nil
	case value.OpMod:
		if ri.Sign() == 0 {
			return value.ErrorVal{Msg: "modulo by zero"}, nil
		}
		return narrowArith(new(big.Int).Rem(li, ri), left, right), nil
	case value.OpPow:
		if ri.Sign() < 0 {
			lf, _ := asFloat(left)
			rf, _ := asFloat(right)
			return value.Double(math.Pow(lf, rf)), nil
		}
		return narrowArith(new(big.Int).Exp(li, ri, nil), left, right), nil
	}

	r := new(big.Int)
	switch op {
	case value.OpAdd:
		r.Add(li, ri)
	case value.OpSub:
		r.Sub(li, ri)
	case value.OpMul:
		r.Mul(li, ri)
	}
	return narrowArith(r, left, right), nil
}

// narrowArith always widens integer arithmetic results to Int
// ("widens to Int for arithmetic"); only bitwise ops stay narrow.
// left/right are accepted for symmetry with narrowInt even though
// arithmetic never keeps U8/I8.
func narrowArith(r *big.Int, _, _ value.Primitive) value.Primitive {
	return value.Int{V: r}
}

func floatOp(op value.Op, l, r float64) float64 {
	switch op {
	case value.OpAdd:
		return l + r
	case value.OpSub:
		return l - r
	case value.OpMul:
		return l * r
	case value.OpDiv:
		return l / r
	case value.OpMod:
		return math.Mod(l, r)
	case value.OpPow:
		return math.Pow(l, r)
	}
	return math.NaN()
}
