package eval

import (
	"fmt"

	"adana/internal/value"
)

// evalCall evaluates the callee expression and argument list in the
// caller's scope, then dispatches the call.
func (ev *Evaluator) evalCall(fnExpr value.Value, argExprs []value.Value, env *value.Environment) (value.Primitive, error) {
	fn, err := ev.evalV(fnExpr, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(fn) {
		return fn, nil
	}
	args := make([]value.Primitive, 0, len(argExprs))
	for _, a := range argExprs {
		p, err := ev.evalV(a, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(p) {
			return p, nil
		}
		args = append(args, p)
	}
	return ev.applyFunction(fn, args, env)
}

// applyFunction dispatches an already-evaluated callee against
// already-evaluated arguments: a user Function gets a fresh
// CallableScope with each parameter bound to a fresh cell holding its
// argument (late
// binding — names inside the body resolve at call time against this
// scope); a NativeFunction dispatches through the Compiler callback
// contract.
func (ev *Evaluator) applyFunction(fn value.Primitive, args []value.Primitive, env *value.Environment) (value.Primitive, error) {
	switch f := fn.(type) {
	case *value.Function:
		if len(f.Params) != len(args) {
			return value.ErrorVal{Msg: fmt.Sprintf("expected %d argument(s), got %d", len(f.Params), len(args))}, nil
		}
		scope := env.CallableScope()
		for i, p := range f.Params {
			switch pt := p.(type) {
			case value.Variable:
				scope.Bind(pt.Name, value.NewCell(args[i]))
			case value.VariableUnused:
				// binding intentionally discarded
			default:
				return value.ErrorVal{Msg: "invalid function parameter form"}, nil
			}
		}
		res, err := ev.Run(f.Body, scope)
		if err != nil {
			return nil, err
		}
		if er, ok := res.(value.EarlyReturn); ok {
			return er.Inner, nil
		}
		return res, nil

	case *value.NativeFunction:
		if ev.Loader == nil {
			return value.ErrorVal{Msg: "cannot use lib loading in this context"}, nil
		}
		compile := func(v value.Value, extra map[string]value.Primitive) (value.Primitive, error) {
			scope := env.Clone()
			for k, val := range extra {
				scope.Declare(k, val)
			}
			return ev.evalV(v, scope)
		}
		return f.Symbol(args, compile)

	case *value.NativeLibrary:
		return value.ErrorVal{Msg: "a native library is not callable, call one of its functions instead"}, nil

	default:
		return value.ErrorVal{Msg: fmt.Sprintf("%s is not callable", fn.TypeName())}, nil
	}
}
