package eval

import (
	"fmt"

	"golang.org/x/exp/slices"

	"adana/internal/value"
)

// liveRoot returns the actual stored primitive for a MultiDepthAccess's
// root, not a defensive copy: a bare variable root hands back the
// cell's live contents directly so subsequent field/index steps (read
// or write) observe and mutate the same Array/Struct the environment
// holds, so a chained read-modify-write (e.g. `a[0].b = 1`) mutates
// the real value instead of a throwaway copy.
func (ev *Evaluator) liveRoot(root value.Value, env *value.Environment) (value.Primitive, error) {
	if v, ok := root.(value.Variable); ok {
		cell, ok := env.Get(v.Name)
		if !ok {
			return nil, fmt.Errorf("variable %q not found", v.Name)
		}
		return cell.Get(), nil
	}
	return ev.evalV(root, env)
}

func (ev *Evaluator) evalAccess(t value.MultiDepthAccess, env *value.Environment) (value.Primitive, error) {
	cur, err := ev.liveRoot(t.Root, env)
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	if isControlCarrier(cur) {
		return cur, nil
	}
	for _, k := range t.Keys {
		cur, err = ev.applyKey(cur, k, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(cur) {
			return cur, nil
		}
	}
	return cur, nil
}

func (ev *Evaluator) applyKey(cur value.Primitive, k value.AccessKey, env *value.Environment) (value.Primitive, error) {
	cur = value.Deref(cur)
	switch {
	case k.IsCall:
		args := make([]value.Primitive, 0, len(k.Call))
		for _, a := range k.Call {
			p, err := ev.evalV(a, env)
			if err != nil {
				return nil, err
			}
			if isControlCarrier(p) {
				return p, nil
			}
			args = append(args, p)
		}
		return ev.applyFunction(cur, args, env)
	case k.Field != "":
		switch c := cur.(type) {
		case *value.Struct:
			p, ok := c.Get(k.Field)
			if !ok {
				return value.ErrorVal{Msg: fmt.Sprintf("struct has no field %q", k.Field)}, nil
			}
			return p, nil
		case *value.NativeLibrary:
			sym, err := c.Handle.Lookup(k.Field)
			if err != nil {
				return value.ErrorVal{Msg: err.Error()}, nil
			}
			return &value.NativeFunction{Name: k.Field, Lib: c, Symbol: sym}, nil
		}
		return value.ErrorVal{Msg: fmt.Sprintf("cannot access field %q on %s", k.Field, cur.TypeName())}, nil
	case k.Index != nil:
		idx, err := ev.evalV(k.Index, env)
		if err != nil {
			return nil, err
		}
		if isControlCarrier(idx) {
			return idx, nil
		}
		return indexInto(cur, value.Deref(idx))
	}
	return value.ErrorVal{Msg: "empty access key"}, nil
}

func asInt(p value.Primitive) (int, bool) {
	i, ok := toBigInt(p)
	if !ok {
		return 0, false
	}
	return int(i.Int64()), true
}

func indexInto(cur, idx value.Primitive) (value.Primitive, error) {
	switch c := cur.(type) {
	case *value.Array:
		i, ok := asInt(idx)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("array index must be an integer, got %s", idx.TypeName())}, nil
		}
		if i < 0 {
			i += len(c.Elements)
		}
		if i < 0 || i >= len(c.Elements) {
			return value.ErrorVal{Msg: "index out of range"}, nil
		}
		return c.Elements[i], nil
	case *value.Struct:
		s, ok := idx.(value.String)
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("struct index must be a string, got %s", idx.TypeName())}, nil
		}
		p, ok := c.Get(string(s))
		if !ok {
			return value.ErrorVal{Msg: fmt.Sprintf("struct has no field %q", string(s))}, nil
		}
		return p, nil
	case value.String:
		i, ok := asInt(idx)
		if !ok {
			return value.ErrorVal{Msg: "string index must be an integer"}, nil
		}
		runes := []rune(string(c))
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return value.ErrorVal{Msg: "index out of range"}, nil
		}
		return value.String(string(runes[i])), nil
	}
	return value.ErrorVal{Msg: fmt.Sprintf("cannot index into %s", cur.TypeName())}, nil
}

// evalAssign implements assignment: a plain name rebinds its cell; a
// MultiDepthAccess target walks the chain,
// creating missing intermediate struct keys but erroring on a missing
// array index, and rejects any write whose path runs through a call
// (the Open Question resolved in DESIGN.md).
func (ev *Evaluator) evalAssign(t value.VariableExpr, env *value.Environment) (value.Primitive, error) {
	val, err := ev.evalV(t.Expr, env)
	if err != nil {
		return nil, err
	}
	if isControlCarrier(val) {
		return val, nil
	}
	if t.Target == nil {
		env.Assign(t.Name, val)
		return val, nil
	}
	mda, ok := t.Target.(value.MultiDepthAccess)
	if !ok {
		return value.ErrorVal{Msg: "invalid assignment target"}, nil
	}
	if err := ev.assignAccess(mda, env, val); err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	return val, nil
}

func (ev *Evaluator) assignAccess(t value.MultiDepthAccess, env *value.Environment, val value.Primitive) error {
	if len(t.Keys) == 0 {
		return fmt.Errorf("invalid assignment target")
	}
	cur, err := ev.liveRoot(t.Root, env)
	if err != nil {
		return err
	}
	for _, k := range t.Keys[:len(t.Keys)-1] {
		if k.IsCall {
			return fmt.Errorf("cannot assign through a call expression")
		}
		next, err := ev.stepForWrite(cur, k, env)
		if err != nil {
			return err
		}
		cur = next
	}

	last := t.Keys[len(t.Keys)-1]
	if last.IsCall {
		return fmt.Errorf("cannot assign to a function call result")
	}
	if last.Field != "" {
		s, ok := value.Deref(cur).(*value.Struct)
		if !ok {
			return fmt.Errorf("cannot set field %q on %s", last.Field, value.Deref(cur).TypeName())
		}
		s.Set(last.Field, val)
		return nil
	}
	idxP, err := ev.evalV(last.Index, env)
	if err != nil {
		return err
	}
	if ce, ok := idxP.(value.ErrorVal); ok {
		return fmt.Errorf(ce.Msg)
	}
	idxP = value.Deref(idxP)
	switch c := value.Deref(cur).(type) {
	case *value.Array:
		i, ok := asInt(idxP)
		if !ok {
			return fmt.Errorf("array index must be an integer")
		}
		if i < 0 {
			i += len(c.Elements)
		}
		if i < 0 || i >= len(c.Elements) {
			return fmt.Errorf("index out of range")
		}
		c.Elements[i] = val
		return nil
	case *value.Struct:
		s, ok := idxP.(value.String)
		if !ok {
			return fmt.Errorf("struct index must be a string")
		}
		c.Set(string(s), val)
		return nil
	}
	return fmt.Errorf("cannot index into %s", value.Deref(cur).TypeName())
}

// stepForWrite descends one key for an in-progress write: a missing
// struct field along the path is created (as an empty struct), a
// missing array index errors instead.
func (ev *Evaluator) stepForWrite(cur value.Primitive, k value.AccessKey, env *value.Environment) (value.Primitive, error) {
	cur = value.Deref(cur)
	if k.Field != "" {
		s, ok := cur.(*value.Struct)
		if !ok {
			return nil, fmt.Errorf("cannot access field %q on %s", k.Field, cur.TypeName())
		}
		p, ok := s.Get(k.Field)
		if !ok {
			fresh := value.NewStruct()
			s.Set(k.Field, fresh)
			return fresh, nil
		}
		return p, nil
	}
	idxP, err := ev.evalV(k.Index, env)
	if err != nil {
		return nil, err
	}
	if ce, ok := idxP.(value.ErrorVal); ok {
		return nil, fmt.Errorf(ce.Msg)
	}
	p, err := indexInto(cur, value.Deref(idxP))
	if err != nil {
		return nil, err
	}
	if ce, ok := p.(value.ErrorVal); ok {
		return nil, fmt.Errorf(ce.Msg)
	}
	return p, nil
}

func (ev *Evaluator) dropAccess(t value.MultiDepthAccess, env *value.Environment) error {
	if len(t.Keys) == 0 {
		return fmt.Errorf("invalid drop target")
	}
	cur, err := ev.liveRoot(t.Root, env)
	if err != nil {
		return err
	}
	for _, k := range t.Keys[:len(t.Keys)-1] {
		if k.IsCall {
			return fmt.Errorf("cannot drop through a call expression")
		}
		next, err := ev.stepForWrite(cur, k, env)
		if err != nil {
			return err
		}
		cur = next
	}
	last := t.Keys[len(t.Keys)-1]
	if last.IsCall {
		return fmt.Errorf("cannot drop a function call result")
	}
	cur = value.Deref(cur)
	if last.Field != "" {
		s, ok := cur.(*value.Struct)
		if !ok {
			return fmt.Errorf("cannot drop field %q on %s", last.Field, cur.TypeName())
		}
		s.Delete(last.Field)
		return nil
	}
	idxP, err := ev.evalV(last.Index, env)
	if err != nil {
		return err
	}
	idxP = value.Deref(idxP)
	switch c := cur.(type) {
	case *value.Array:
		i, ok := asInt(idxP)
		if !ok {
			return fmt.Errorf("array index must be an integer")
		}
		if i < 0 {
			i += len(c.Elements)
		}
		if i < 0 || i >= len(c.Elements) {
			return fmt.Errorf("index out of range")
		}
		c.Elements = slices.Delete(c.Elements, i, i+1)
		return nil
	case *value.Struct:
		s, ok := idxP.(value.String)
		if !ok {
			return fmt.Errorf("struct index must be a string")
		}
		c.Delete(string(s))
		return nil
	}
	return fmt.Errorf("cannot drop an index on %s", cur.TypeName())
}

// materializeRange expands a RangeLit into its element sequence; both
// endpoints must evaluate to integers, and `..=` includes the upper
// bound where `..` excludes it.
func (ev *Evaluator) materializeRange(t value.RangeLit, env *value.Environment) ([]value.Primitive, error) {
	fromP, err := ev.evalV(t.From, env)
	if err != nil {
		return nil, err
	}
	toP, err := ev.evalV(t.To, env)
	if err != nil {
		return nil, err
	}
	from, ok := asInt(value.Deref(fromP))
	if !ok {
		return nil, fmt.Errorf("range endpoints must be integers")
	}
	to, ok := asInt(value.Deref(toP))
	if !ok {
		return nil, fmt.Errorf("range endpoints must be integers")
	}
	if t.Inclusive {
		to++
	}
	if to < from {
		return nil, nil
	}
	out := make([]value.Primitive, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, value.NewInt(int64(i)))
	}
	return out, nil
}
