package value

import (
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/exp/slices"
)

// Primitive is the runtime value the evaluator computes. Unlike Value
// it carries actual data, and may hold a Ref to a shared, interior
// mutable cell.
type Primitive interface {
	isPrimitive()
	TypeName() string
}

type (
	U8     uint8
	I8     int8
	Int    struct{ V *big.Int }
	Double float64
	Bool   bool
	Null   struct{}
	String string

	Array struct{ Elements []Primitive }

	// Struct is an ordered key -> value map: Keys records insertion
	// order, Values is the lookup table.
	Struct struct {
		Keys   []string
		Values map[string]Primitive
	}

	// Function stores its parameter and body Value forms verbatim:
	// names inside the body resolve against the caller's scope at call
	// time, not at definition time, so it binds late rather than
	// closing over values up front.
	Function struct {
		Params []Value
		Body   []Value
	}

	ErrorVal struct{ Msg string }

	Unit        struct{}
	NoReturn    struct{}
	EarlyReturn struct{ Inner Primitive }

	// NativeHandle abstracts a loaded shared object so this package does
	// not need to import the plugin loader (internal/nativelib
	// implements it).
	NativeHandle interface {
		Path() string
		Lookup(symbol string) (NativeSymbol, error)
	}
	// NativeSymbol is a loaded native function's call contract:
	// (args, compiler-callback) -> (Primitive, error). Compiler lets a
	// native function ask the engine to evaluate a Value back against
	// an extended scope.
	NativeSymbol func(args []Primitive, compile Compiler) (Primitive, error)

	NativeLibrary struct {
		ID     string
		Path   string
		Handle NativeHandle
	}
	NativeFunction struct {
		ID     string
		Name   string
		Lib    *NativeLibrary
		Symbol NativeSymbol
	}

	// Ref is a Primitive pointing at a shared, interior-mutable Cell.
	Ref struct{ Cell *Cell }
)

// Compiler lets native code call back into the script engine.
type Compiler func(v Value, extra map[string]Primitive) (Primitive, error)

// Cell is the shared, interior-mutable storage unit for one Primitive.
// Reads take the read lock; writes take the write lock. No lock is
// ever held across a call back into the evaluator.
type Cell struct {
	mu  sync.RWMutex
	val Primitive
}

func NewCell(p Primitive) *Cell { return &Cell{val: p} }

func (c *Cell) Get() Primitive {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Cell) Set(p Primitive) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = p
}

func (U8) isPrimitive()             {}
func (I8) isPrimitive()             {}
func (Int) isPrimitive()            {}
func (Double) isPrimitive()         {}
func (Bool) isPrimitive()           {}
func (Null) isPrimitive()           {}
func (String) isPrimitive()         {}
func (*Array) isPrimitive()         {}
func (*Struct) isPrimitive()        {}
func (*Function) isPrimitive()      {}
func (ErrorVal) isPrimitive()       {}
func (Unit) isPrimitive()           {}
func (NoReturn) isPrimitive()       {}
func (EarlyReturn) isPrimitive()    {}
func (*NativeLibrary) isPrimitive() {}
func (*NativeFunction) isPrimitive(){}
func (Ref) isPrimitive()            {}

func (U8) TypeName() string             { return "u8" }
func (I8) TypeName() string             { return "i8" }
func (Int) TypeName() string            { return "int" }
func (Double) TypeName() string         { return "double" }
func (Bool) TypeName() string           { return "bool" }
func (Null) TypeName() string           { return "null" }
func (String) TypeName() string         { return "string" }
func (*Array) TypeName() string         { return "array" }
func (*Struct) TypeName() string        { return "struct" }
func (*Function) TypeName() string      { return "function" }
func (ErrorVal) TypeName() string       { return "error" }
func (Unit) TypeName() string           { return "unit" }
func (NoReturn) TypeName() string       { return "no_return" }
func (EarlyReturn) TypeName() string    { return "early_return" }
func (*NativeLibrary) TypeName() string { return "native_library" }
func (*NativeFunction) TypeName() string{ return "native_function" }
func (Ref) TypeName() string            { return "ref" }

func NewInt(i int64) Int { return Int{V: big.NewInt(i)} }

// Deref follows a Ref to the cell's current contents; a non-Ref
// Primitive is returned unchanged. It follows exactly one level: if
// the cell itself holds a Ref (x = &y stores one), that inner Ref is
// returned as is.
func Deref(p Primitive) Primitive {
	if r, ok := p.(Ref); ok {
		return r.Cell.Get()
	}
	return p
}

// Clone returns a shallow, independent copy of p: arrays/structs get
// new backing slices/maps (so in-place mutation of the copy does not
// touch the original), but Ref cells inside are shared verbatim —
// that sharing is the whole point of Ref.
func Clone(p Primitive) Primitive {
	switch v := p.(type) {
	case *Array:
		return &Array{Elements: slices.Clone(v.Elements)}
	case *Struct:
		nv := make(map[string]Primitive, len(v.Values))
		for k, val := range v.Values {
			nv[k] = val
		}
		return &Struct{Keys: slices.Clone(v.Keys), Values: nv}
	case *Function:
		return &Function{Params: v.Params, Body: v.Body}
	default:
		return p
	}
}

func (s *Struct) Get(key string) (Primitive, bool) {
	p, ok := s.Values[key]
	return p, ok
}

func (s *Struct) Set(key string, p Primitive) {
	if _, exists := s.Values[key]; !exists {
		s.Keys = append(s.Keys, key)
	}
	s.Values[key] = p
}

func (s *Struct) Delete(key string) {
	if _, exists := s.Values[key]; !exists {
		return
	}
	delete(s.Values, key)
	if i := slices.Index(s.Keys, key); i >= 0 {
		s.Keys = slices.Delete(s.Keys, i, i+1)
	}
}

func NewStruct() *Struct {
	return &Struct{Values: make(map[string]Primitive)}
}

func (p Unit) String() string  { return "()" }
func (e ErrorVal) Error() string { return e.Msg }

func MakeError(format string, args ...interface{}) ErrorVal {
	return ErrorVal{Msg: fmt.Sprintf(format, args...)}
}
