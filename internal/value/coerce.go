package value

import (
	"fmt"
	"math/big"
	"strconv"
)

// Equals compares two primitives, dereferencing Ref transparently.
// Two refs to the same cell are always equal even for cyclic data,
// since the cell identity check short-circuits recursion.
func Equals(a, b Primitive) bool {
	ra, aIsRef := a.(Ref)
	rb, bIsRef := b.(Ref)
	if aIsRef && bIsRef && ra.Cell == rb.Cell {
		return true
	}
	a, b = Deref(a), Deref(b)

	switch av := a.(type) {
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Struct:
		bv, ok := b.(*Struct)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for _, k := range av.Keys {
			bval, ok := bv.Get(k)
			if !ok || !Equals(av.Values[k], bval) {
				return false
			}
		}
		return true
	case Null:
		_, ok := b.(Null)
		return ok
	}

	if isNumeric(a) && isNumeric(b) {
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			return af == bf
		}
	}
	return a == b
}

func isNumeric(p Primitive) bool {
	switch p.(type) {
	case U8, I8, Int, Double:
		return true
	}
	return false
}

func asFloat(p Primitive) (float64, bool) {
	switch v := p.(type) {
	case U8:
		return float64(v), true
	case I8:
		return float64(v), true
	case Double:
		return float64(v), true
	case Int:
		f := new(big.Float).SetInt(v.V)
		r, _ := f.Float64()
		return r, true
	}
	return 0, false
}

func asBigInt(p Primitive) (*big.Int, bool) {
	switch v := p.(type) {
	case U8:
		return big.NewInt(int64(v)), true
	case I8:
		return big.NewInt(int64(v)), true
	case Int:
		return v.V, true
	}
	return nil, false
}

// Compare returns -1/0/1 for a<b/a==b/a>b, or an error for
// uncomparable combinations: only numeric, string, and bool pairs have
// a well-defined order, everything else is uncomparable.
func Compare(a, b Primitive) (int, error) {
	a, b = Deref(a), Deref(b)
	if isNumeric(a) && isNumeric(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if as, ok := a.(String); ok {
		if bs, ok := b.(String); ok {
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if ab, ok := a.(Bool); ok {
		if bb, ok := b.(Bool); ok {
			if ab == bb {
				return 0, nil
			}
			if !bool(ab) && bool(bb) {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, MakeError("cannot compare %s with %s", a.TypeName(), b.TypeName())
}

// ToStringValue renders a primitive the way println/to_string do.
func ToStringValue(p Primitive) string {
	p = Deref(p)
	switch v := p.(type) {
	case U8:
		return strconv.FormatUint(uint64(v), 10)
	case I8:
		return strconv.FormatInt(int64(v), 10)
	case Int:
		return v.V.String()
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(v))
	case Null:
		return "null"
	case String:
		return string(v)
	case *Array:
		s := "["
		for i, e := range v.Elements {
			if i > 0 {
				s += ", "
			}
			s += ToStringValue(e)
		}
		return s + "]"
	case *Struct:
		s := "{"
		for i, k := range v.Keys {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("%s: %s", k, ToStringValue(v.Values[k]))
		}
		return s + "}"
	case *Function:
		return "<function>"
	case ErrorVal:
		return "error: " + v.Msg
	case Unit:
		return "()"
	case *NativeLibrary:
		return fmt.Sprintf("<native_library %s>", v.Path)
	case *NativeFunction:
		return fmt.Sprintf("<native_function %s>", v.Name)
	default:
		return fmt.Sprintf("%v", p)
	}
}

// ToBool coerces a primitive the way to_bool/condition-checks do.
func ToBool(p Primitive) (bool, error) {
	p = Deref(p)
	switch v := p.(type) {
	case Bool:
		return bool(v), nil
	case String:
		b, err := strconv.ParseBool(string(v))
		if err != nil {
			return false, MakeError("cannot convert %q to bool", string(v))
		}
		return b, nil
	default:
		return false, MakeError("cannot convert %s to bool", p.TypeName())
	}
}
