package eval

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"adana/internal/parser"
	"adana/internal/value"
)

// evalBuiltin dispatches the fixed set of built-in functions.
// Arguments are evaluated left to right in the caller's scope before
// dispatch, same as a user function call.
func (ev *Evaluator) evalBuiltin(t value.BuiltInFunctionCall, env *value.Environment) (value.Primitive, error) {
	args := make([]value.Primitive, 0, len(t.Args))
	for _, a := range t.Args {
		p, err := ev.evalV(a, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(p) {
			return p, nil
		}
		args = append(args, value.Deref(p))
	}

	switch t.Name {
	case "sqrt", "abs", "log", "ln", "sin", "cos", "tan":
		return mathFn(t.Name, args)

	case "to_int":
		return toInt(arg(args, 0))
	case "to_double":
		return toDouble(arg(args, 0))
	case "to_bool":
		b, err := value.ToBool(arg(args, 0))
		if err != nil {
			return value.ErrorVal{Msg: err.Error()}, nil
		}
		return value.Bool(b), nil
	case "to_string":
		return value.String(value.ToStringValue(arg(args, 0))), nil
	case "to_hex":
		return toHex(arg(args, 0))
	case "to_binary":
		return toBinary(arg(args, 0))

	case "length":
		return lengthOf(arg(args, 0))
	case "type_of":
		return value.String(arg(args, 0).TypeName()), nil

	case "is_u8", "is_i8", "is_int", "is_double", "is_bool", "is_string",
		"is_array", "is_struct", "is_function", "is_null", "is_error":
		return value.Bool(isType(strings.TrimPrefix(t.Name, "is_"), arg(args, 0))), nil

	case "round":
		n := 2
		if len(args) > 1 {
			if i, ok := asInt(args[1]); ok {
				n = i
			}
		}
		return roundTo(arg(args, 0), n)
	case "floor":
		return roundFn(arg(args, 0), math.Floor)
	case "ceil":
		return roundFn(arg(args, 0), math.Ceil)

	case "to_upper":
		return value.String(strings.ToUpper(string(stringArg(args, 0)))), nil
	case "to_lower":
		return value.String(strings.ToLower(string(stringArg(args, 0)))), nil
	case "capitalize":
		s := string(stringArg(args, 0))
		if s == "" {
			return value.String(s), nil
		}
		return value.String(strings.ToUpper(s[:1]) + s[1:]), nil

	case "replace":
		if len(args) != 3 {
			return value.ErrorVal{Msg: "replace(haystack, pattern, replacement) takes 3 arguments"}, nil
		}
		return value.String(replaceFirst(string(stringArg(args, 0)), string(stringArg(args, 1)), string(stringArg(args, 2)))), nil
	case "replace_all":
		if len(args) != 3 {
			return value.ErrorVal{Msg: "replace_all(haystack, pattern, replacement) takes 3 arguments"}, nil
		}
		return value.String(strings.ReplaceAll(string(stringArg(args, 0)), string(stringArg(args, 1)), string(stringArg(args, 2)))), nil

	case "match":
		return regexMatch(string(stringArg(args, 0)), string(stringArg(args, 1)))
	case "is_match":
		re, err := regexp.Compile(string(stringArg(args, 1)))
		if err != nil {
			return value.ErrorVal{Msg: err.Error()}, nil
		}
		return value.Bool(re.MatchString(string(stringArg(args, 0)))), nil

	case "println":
		fmt.Fprintln(ev.Stdout, joinArgs(args))
		return value.Unit{}, nil
	case "print":
		fmt.Fprint(ev.Stdout, joinArgs(args))
		return value.Unit{}, nil

	case "eval":
		src := string(stringArg(args, 0))
		stmts, err := parser.Parse(src)
		if err != nil {
			return value.ErrorVal{Msg: err.Error()}, nil
		}
		return ev.Run(stmts, env)

	case "include":
		return ev.RunInclude(string(stringArg(args, 0)), env)

	case "require":
		if ev.Loader == nil {
			return value.ErrorVal{Msg: "cannot use lib loading in this context"}, nil
		}
		lib, err := ev.Loader.Load(string(stringArg(args, 0)))
		if err != nil {
			return value.ErrorVal{Msg: err.Error()}, nil
		}
		return lib, nil

	case "jsonify":
		return jsonify(arg(args, 0))
	case "parse_json":
		return parseJSON(string(stringArg(args, 0)))

	case "make_error":
		return value.ErrorVal{Msg: string(stringArg(args, 0))}, nil
	}

	return value.ErrorVal{Msg: fmt.Sprintf("unknown built-in %q", t.Name)}, nil
}

func arg(args []value.Primitive, i int) value.Primitive {
	if i < len(args) {
		return args[i]
	}
	return value.Null{}
}

func stringArg(args []value.Primitive, i int) value.String {
	p := arg(args, i)
	if s, ok := p.(value.String); ok {
		return s
	}
	return value.String(value.ToStringValue(p))
}

func joinArgs(args []value.Primitive) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.ToStringValue(a)
	}
	return strings.Join(parts, " ")
}

func mathFn(name string, args []value.Primitive) (value.Primitive, error) {
	f, ok := asFloat(arg(args, 0))
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("%s requires a numeric argument", name)}, nil
	}
	switch name {
	case "sqrt":
		return value.Double(math.Sqrt(f)), nil
	case "abs":
		return value.Double(math.Abs(f)), nil
	case "log":
		return value.Double(math.Log10(f)), nil
	case "ln":
		return value.Double(math.Log(f)), nil
	case "sin":
		return value.Double(math.Sin(f)), nil
	case "cos":
		return value.Double(math.Cos(f)), nil
	case "tan":
		return value.Double(math.Tan(f)), nil
	}
	return nil, fmt.Errorf("unreachable math builtin %q", name)
}

func toInt(p value.Primitive) (value.Primitive, error) {
	switch v := p.(type) {
	case value.Int, value.U8, value.I8:
		return v, nil
	case value.Double:
		i, _ := big.NewFloat(float64(v)).Int(nil)
		return value.Int{V: i}, nil
	case value.Bool:
		if v {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	case value.String:
		i := value.NewInt(0)
		if _, ok := i.V.SetString(strings.TrimSpace(string(v)), 10); !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("cannot convert %q to int", string(v))}, nil
		}
		return i, nil
	}
	return value.ErrorVal{Msg: fmt.Sprintf("cannot convert %s to int", p.TypeName())}, nil
}

func toDouble(p value.Primitive) (value.Primitive, error) {
	if f, ok := asFloat(p); ok {
		return value.Double(f), nil
	}
	if s, ok := p.(value.String); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if err != nil {
			return value.ErrorVal{Msg: fmt.Sprintf("cannot convert %q to double", string(s))}, nil
		}
		return value.Double(f), nil
	}
	return value.ErrorVal{Msg: fmt.Sprintf("cannot convert %s to double", p.TypeName())}, nil
}

// toHex/toBinary deliberately error on Double, per DESIGN.md's Open
// Question resolution: each formatter is format-specific, not a
// generic numeric formatter.
func toHex(p value.Primitive) (value.Primitive, error) {
	i, ok := toBigInt(p)
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("to_hex requires an integer, got %s", p.TypeName())}, nil
	}
	return value.String("0x" + i.Text(16)), nil
}

func toBinary(p value.Primitive) (value.Primitive, error) {
	i, ok := toBigInt(p)
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("to_binary requires an integer, got %s", p.TypeName())}, nil
	}
	return value.String("0b" + i.Text(2)), nil
}

func lengthOf(p value.Primitive) (value.Primitive, error) {
	switch v := p.(type) {
	case *value.Array:
		return value.NewInt(int64(len(v.Elements))), nil
	case *value.Struct:
		return value.NewInt(int64(len(v.Keys))), nil
	case value.String:
		return value.NewInt(int64(len(string(v)))), nil
	}
	return value.ErrorVal{Msg: fmt.Sprintf("length is not defined for %s", p.TypeName())}, nil
}

func isType(name string, p value.Primitive) bool {
	switch name {
	case "u8":
		_, ok := p.(value.U8)
		return ok
	case "i8":
		_, ok := p.(value.I8)
		return ok
	case "int":
		_, ok := p.(value.Int)
		return ok
	case "double":
		_, ok := p.(value.Double)
		return ok
	case "bool":
		_, ok := p.(value.Bool)
		return ok
	case "string":
		_, ok := p.(value.String)
		return ok
	case "array":
		_, ok := p.(*value.Array)
		return ok
	case "struct":
		_, ok := p.(*value.Struct)
		return ok
	case "function":
		_, ok := p.(*value.Function)
		return ok
	case "null":
		_, ok := p.(value.Null)
		return ok
	case "error":
		_, ok := p.(value.ErrorVal)
		return ok
	}
	return false
}

func roundTo(p value.Primitive, n int) (value.Primitive, error) {
	f, ok := asFloat(p)
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("round requires a numeric argument, got %s", p.TypeName())}, nil
	}
	mult := math.Pow(10, float64(n))
	return value.Double(math.Round(f*mult) / mult), nil
}

func roundFn(p value.Primitive, fn func(float64) float64) (value.Primitive, error) {
	f, ok := asFloat(p)
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("expected a numeric argument, got %s", p.TypeName())}, nil
	}
	return value.Double(fn(f)), nil
}

// regexMatch: no capture groups yields an array of full-match
// strings; with capture groups, an array of
// [full_match, group1, group2, ...] arrays.
func regexMatch(haystack, pattern string) (value.Primitive, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	groups := re.NumSubexp()
	matches := re.FindAllStringSubmatch(haystack, -1)
	out := &value.Array{}
	for _, m := range matches {
		if groups == 0 {
			out.Elements = append(out.Elements, value.String(m[0]))
			continue
		}
		inner := &value.Array{}
		for _, g := range m {
			inner.Elements = append(inner.Elements, value.String(g))
		}
		out.Elements = append(out.Elements, inner)
	}
	return out, nil
}
