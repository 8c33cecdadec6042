package value

// Environment is the single ordered mapping identifier -> shared cell
// that backs scoping. Scope entry clones the Environment: the cell
// pointers are copied (so writes through a cell are visible to both
// parent and child) but the name list/index is a fresh copy, so a
// name declared only in the child never leaks to the parent.
type Environment struct {
	order []string
	cells map[string]*Cell
}

func NewEnvironment() *Environment {
	return &Environment{cells: make(map[string]*Cell)}
}

func (e *Environment) Get(name string) (*Cell, bool) {
	c, ok := e.cells[name]
	return c, ok
}

// Declare binds name to a fresh cell holding p, overwriting any
// existing binding's cell (the old cell, if shared via Ref elsewhere,
// is left untouched and still reachable through those Refs).
func (e *Environment) Declare(name string, p Primitive) *Cell {
	if _, exists := e.cells[name]; !exists {
		e.order = append(e.order, name)
	}
	c := NewCell(p)
	e.cells[name] = c
	return c
}

// Bind inserts an existing cell under name (used by CallableScope to
// share a callable's cell, and for function parameter binding, where
// the caller passes a fresh cell holding the argument).
func (e *Environment) Bind(name string, c *Cell) {
	if _, exists := e.cells[name]; !exists {
		e.order = append(e.order, name)
	}
	e.cells[name] = c
}

// Assign replaces name's cell contents in place if it exists,
// otherwise declares a fresh binding. Assigning a Ref pointing at the
// cell it would be stored in is a no-op: letting it through would
// make the cell hold a Ref to itself, and Deref never expects to
// chase a Ref back into the cell it started from.
func (e *Environment) Assign(name string, p Primitive) {
	if c, ok := e.cells[name]; ok {
		if r, ok := p.(Ref); ok && r.Cell == c {
			return
		}
		c.Set(p)
		return
	}
	e.Declare(name, p)
}

// Drop removes name from the environment. It does not affect the
// cell's contents or any other binding/Ref reaching the same cell.
func (e *Environment) Drop(name string) {
	if _, ok := e.cells[name]; !ok {
		return
	}
	delete(e.cells, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Names returns bound identifiers in insertion order.
func (e *Environment) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Clone returns a new Environment sharing all current cells: a
// shallow clone, so writes through an inherited binding stay visible
// to the parent scope while new declarations stay local to the child.
func (e *Environment) Clone() *Environment {
	n := &Environment{
		order: append([]string(nil), e.order...),
		cells: make(map[string]*Cell, len(e.cells)),
	}
	for k, v := range e.cells {
		n.cells[k] = v
	}
	return n
}

// CallableScope returns a fresh Environment carrying only bindings
// whose current value is a Function, NativeLibrary or NativeFunction
// — the "lexical functions, not arbitrary data" rule function calls
// use to build their body's base scope.
func (e *Environment) CallableScope() *Environment {
	n := NewEnvironment()
	for _, name := range e.order {
		cell := e.cells[name]
		switch cell.Get().(type) {
		case *Function, *NativeLibrary, *NativeFunction:
			n.Bind(name, cell)
		}
	}
	return n
}
