// Package eval is the tree-walking evaluator: it computes a
// value.Primitive from an astbuild.Node tree against a mutable
// value.Environment.
package eval

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"adana/internal/astbuild"
	"adana/internal/parser"
	"adana/internal/value"
)

// NativeLoader abstracts the dynamic-library FFI facility so eval
// does not need to import internal/nativelib directly (avoids an
// import cycle with the Compiler callback, and lets sandboxed builds
// swap in a no-op loader).
type NativeLoader interface {
	Load(path string) (*value.NativeLibrary, error)
}

type Evaluator struct {
	Cwd    string
	Stdout io.Writer
	Loader NativeLoader
}

func New(loader NativeLoader) *Evaluator {
	cwd, _ := os.Getwd()
	return &Evaluator{Cwd: cwd, Stdout: os.Stdout, Loader: loader}
}

// Run parses nothing itself — it evaluates an already-parsed
// statement list (the parser's output) against env, returning the
// last statement's value (a block's value is its final statement's
// value).
func (ev *Evaluator) Run(stmts []value.Value, env *value.Environment) (value.Primitive, error) {
	var last value.Primitive = value.Unit{}
	for _, stmt := range stmts {
		res, err := ev.evalV(stmt, env)
		if err != nil {
			return nil, err
		}
		if _, ok := res.(value.ErrorVal); ok {
			return res, nil
		}
		if _, ok := res.(value.EarlyReturn); ok {
			return res, nil
		}
		if _, ok := res.(value.NoReturn); ok {
			return res, nil
		}
		last = res
	}
	return last, nil
}

// runBlock runs a statement list in a fresh shallow-cloned scope, the
// way if/while/for bodies enter a new nested scope on each run.
func (ev *Evaluator) runBlock(stmts []value.Value, env *value.Environment) (value.Primitive, error) {
	return ev.Run(stmts, env.Clone())
}

func (ev *Evaluator) evalV(v value.Value, env *value.Environment) (value.Primitive, error) {
	node, err := astbuild.Build(v)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return value.Unit{}, nil
	}
	return ev.Eval(node, env)
}

// Eval walks a single Node.
func (ev *Evaluator) Eval(node *astbuild.Node, env *value.Environment) (value.Primitive, error) {
	switch node.Kind {
	case astbuild.NodeBinary:
		return ev.evalBinary(node, env)
	case astbuild.NodeUnary:
		return ev.evalUnary(node, env)
	default:
		return ev.evalLeaf(node.Leaf, env)
	}
}

func (ev *Evaluator) evalUnary(node *astbuild.Node, env *value.Environment) (value.Primitive, error) {
	operand, err := ev.Eval(node.Operand, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(operand) {
		return operand, nil
	}
	switch node.Op {
	case value.OpSub:
		return negate(operand)
	case value.OpNot:
		b, err := value.ToBool(operand)
		if err != nil {
			return value.ErrorVal{Msg: err.Error()}, nil
		}
		return value.Bool(!b), nil
	case value.OpBitNot:
		return bitNot(operand)
	}
	return value.ErrorVal{Msg: fmt.Sprintf("unknown unary operator %q", node.Op)}, nil
}

func isControlCarrier(p value.Primitive) bool {
	switch p.(type) {
	case value.ErrorVal, value.EarlyReturn, value.NoReturn:
		return true
	}
	return false
}

func (ev *Evaluator) evalBinary(node *astbuild.Node, env *value.Environment) (value.Primitive, error) {
	left, err := ev.Eval(node.Left, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(left) {
		return left, nil
	}

	// Short-circuit boolean operators never evaluate the right side
	// unless needed.
	if node.Op == value.OpAnd || node.Op == value.OpOr {
		lb, ok := value.Deref(left).(value.Bool)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("%s operand must be bool, got %s", node.Op, value.Deref(left).TypeName())}, nil
		}
		if node.Op == value.OpAnd && !bool(lb) {
			return value.Bool(false), nil
		}
		if node.Op == value.OpOr && bool(lb) {
			return value.Bool(true), nil
		}
		right, err := ev.Eval(node.Right, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(right) {
			return right, nil
		}
		rb, ok := value.Deref(right).(value.Bool)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("%s operand must be bool, got %s", node.Op, value.Deref(right).TypeName())}, nil
		}
		return value.Bool(rb), nil
	}

	right, err := ev.Eval(node.Right, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(right) {
		return right, nil
	}
	return applyBinaryOp(node.Op, left, right)
}

// evalLeaf dispatches on the concrete syntactic Value kind. This is
// where most of the evaluator's bulk lives: control flow, name
// resolution/assignment, calls, and literal construction.
func (ev *Evaluator) evalLeaf(v value.Value, env *value.Environment) (value.Primitive, error) {
	switch t := v.(type) {
	case value.U8Lit:
		return value.U8(t.V), nil
	case value.I8Lit:
		return value.I8(t.V), nil
	case value.IntLit:
		i := value.NewInt(0)
		i.V.SetString(t.V, 10)
		return i, nil
	case value.DecimalLit:
		return value.Double(t.V), nil
	case value.BoolLit:
		return value.Bool(t.V), nil
	case value.StringLit:
		return value.String(t.V), nil
	case value.NullLit:
		return value.Null{}, nil
	case value.NoOp:
		return value.Unit{}, nil
	case value.Break:
		return value.NoReturn{}, nil
	case value.Const:
		return evalConst(t.Name)
	case value.FStringLit:
		return ev.evalFString(t, env)

	case value.Variable:
		cell, ok := env.Get(t.Name)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("variable %q not found", t.Name)}, nil
		}
		return value.Clone(cell.Get()), nil
	case value.VariableNegate:
		cell, ok := env.Get(t.Name)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("variable %q not found", t.Name)}, nil
		}
		return negate(value.Clone(cell.Get()))
	case value.VariableRef:
		cell, ok := env.Get(t.Name)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("variable %q not found", t.Name)}, nil
		}
		return value.Ref{Cell: cell}, nil
	case value.VariableUnused:
		return value.Unit{}, nil

	case value.VariableExpr:
		return ev.evalAssign(t, env)

	case value.ArrayLit:
		elems := make([]value.Primitive, 0, len(t.Elements))
		for _, e := range t.Elements {
			p, err := ev.evalV(e, env)
			if err != nil {
				return nil, err
			}
			if isControlCarrier(p) {
				return p, nil
			}
			elems = append(elems, p)
		}
		return &value.Array{Elements: elems}, nil

	case value.RangeLit:
		items, err := ev.materializeRange(t, env)
		if err != nil {
			return nil, err
		}
		return &value.Array{Elements: items}, nil

	case value.StructLit:
		s := value.NewStruct()
		for i, k := range t.Keys {
			p, err := ev.evalV(t.Values[i], env)
			if err != nil {
				return nil, err
			}
			if isControlCarrier(p) {
				return p, nil
			}
			s.Set(k, p)
		}
		return s, nil

	case value.MultiDepthAccess:
		return ev.evalAccess(t, env)

	case value.FunctionLit:
		return &value.Function{Params: t.Params, Body: t.Body}, nil

	case value.FunctionCall:
		return ev.evalCall(t.Function, t.Args, env)

	case value.BuiltInFunctionCall:
		return ev.evalBuiltin(t, env)

	case value.IfExpr:
		return ev.evalIf(t, env)
	case value.WhileExpr:
		return ev.evalWhile(t, env)
	case value.ForeachExpr:
		return ev.evalForeach(t, env)

	case value.EarlyReturn:
		if t.Expr == nil {
			return value.EarlyReturn{Inner: value.Unit{}}, nil
		}
		inner, err := ev.evalV(t.Expr, env)
		if err != nil {
			return nil, err
		}
		if er, ok := inner.(value.ErrorVal); ok {
			return er, nil
		}
		return value.EarlyReturn{Inner: inner}, nil

	case value.Drop:
		return ev.evalDrop(t, env)

	case value.BlockParen:
		return ev.Run(t.Seq, env.Clone())
	case value.Expression:
		node, err := astbuild.BuildSeq(t.Seq)
		if err != nil {
			return nil, err
		}
		return ev.Eval(node, env)
	}
	return nil, fmt.Errorf("eval: unhandled value kind %T", v)
}

func evalConst(name string) (value.Primitive, error) {
	switch name {
	case "pi":
		return value.Double(3.14159265358979323846), nil
	case "tau":
		return value.Double(2 * 3.14159265358979323846), nil
	case "e":
		return value.Double(2.71828182845904523536), nil
	}
	return nil, fmt.Errorf("unknown constant %q", name)
}

func (ev *Evaluator) evalIf(t value.IfExpr, env *value.Environment) (value.Primitive, error) {
	cond, err := ev.evalV(t.Cond, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(cond) {
		return cond, nil
	}
	b, ok := value.Deref(cond).(value.Bool)
	if !ok {
		return value.ErrorVal{Msg: fmt.Sprintf("if condition must be bool, got %s", value.Deref(cond).TypeName())}, nil
	}
	if bool(b) {
		return ev.runBlock(t.Then, env)
	}
	if t.Else != nil {
		return ev.runBlock(t.Else, env)
	}
	return value.Unit{}, nil
}

func (ev *Evaluator) evalWhile(t value.WhileExpr, env *value.Environment) (value.Primitive, error) {
	var result value.Primitive = value.Unit{}
	for {
		cond, err := ev.evalV(t.Cond, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(cond) {
			return cond, nil
		}
		b, ok := value.Deref(cond).(value.Bool)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("while condition must be bool, got %s", value.Deref(cond).TypeName())}, nil
		}
		if !bool(b) {
			break
		}
		res, err := ev.runBlock(t.Body, env)
		if err != nil {
			return nil, err
		}
		switch res.(type) {
		case value.NoReturn:
			return result, nil
		case value.EarlyReturn, value.ErrorVal:
			return res, nil
		}
		result = res
	}
	return result, nil
}

func (ev *Evaluator) evalForeach(t value.ForeachExpr, env *value.Environment) (value.Primitive, error) {
	iter, err := ev.evalV(t.Iter, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(iter) {
		return iter, nil
	}
	items, err := iterate(value.Deref(iter))
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	var result value.Primitive = value.Unit{}
	for i, item := range items {
		scope := env.Clone()
		if t.ValueName != "_" && t.ValueName != "" {
			scope.Declare(t.ValueName, item)
		}
		if t.IndexName != "" && t.IndexName != "_" {
			scope.Declare(t.IndexName, value.NewInt(int64(i)))
		}
		res, err := ev.Run(t.Body, scope)
		if err != nil {
			return nil, err
		}
		switch res.(type) {
		case value.NoReturn:
			return result, nil
		case value.EarlyReturn, value.ErrorVal:
			return res, nil
		}
		result = res
	}
	return result, nil
}

// iterate expands array/struct/string/range primitives into the
// element sequence a for-loop walks.
func iterate(p value.Primitive) ([]value.Primitive, error) {
	switch v := p.(type) {
	case *value.Array:
		return v.Elements, nil
	case *value.Struct:
		out := make([]value.Primitive, len(v.Keys))
		for i, k := range v.Keys {
			s := value.NewStruct()
			s.Set("key", value.String(k))
			s.Set("value", v.Values[k])
			out[i] = s
		}
		return out, nil
	case value.String:
		out := make([]value.Primitive, 0, len(v))
		for _, r := range string(v) {
			out = append(out, value.String(string(r)))
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot iterate over %s", p.TypeName())
}

func (ev *Evaluator) evalDrop(t value.Drop, env *value.Environment) (value.Primitive, error) {
	for _, target := range t.Targets {
		switch tt := target.(type) {
		case value.Variable:
			env.Drop(tt.Name)
		case value.MultiDepthAccess:
			if err := ev.dropAccess(tt, env); err != nil {
				return value.ErrorVal{Msg: err.Error()}, nil
			}
		default:
			return value.ErrorVal{Msg: "drop target must be a variable or access path"}, nil
		}
	}
	return value.Unit{}, nil
}

func (ev *Evaluator) evalFString(t value.FStringLit, env *value.Environment) (value.Primitive, error) {
	out := t.Template
	for _, h := range t.Holes {
		p, err := ev.evalV(h.Expr, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(p) {
			return p, nil
		}
		out = replaceFirst(out, h.Raw, value.ToStringValue(p))
	}
	return value.String(out), nil
}

func replaceFirst(s, old, new string) string {
	i := indexOf(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// RunInclude implements the include(path) built-in's cwd-juggling
// contract: run the file's statements in the current scope with cwd
// temporarily set to the file's parent directory.
func (ev *Evaluator) RunInclude(path string, env *value.Environment) (value.Primitive, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(ev.Cwd, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	stmts, err := parser.Parse(string(data))
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	prevCwd := ev.Cwd
	ev.Cwd = filepath.Dir(full)
	defer func() { ev.Cwd = prevCwd }()
	return ev.Run(stmts, env)
}
