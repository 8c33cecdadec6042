package store

import "adana/internal/value"

// DefaultTree is the implicit tree selected when the caller has never
// issued a "use" and no tree has been opened yet.
const DefaultTree = "__adana_default"

// InMemoryDb is an ordered map of tree name -> Tree, plus the default
// tree name and an optional current-tree pointer: the persisted
// layout that gets gob-encoded to disk. It is not safe for concurrent
// use on its own; FileDb wraps it with a mutex and the
// write-notification path.
type InMemoryDb struct {
	TreeOrder   []string
	Trees       map[string]*Tree
	DefaultTree string
	CurrentTree string // "" means "use DefaultTree"
}

// NewInMemoryDb returns a store with one open tree, DefaultTree.
func NewInMemoryDb() *InMemoryDb {
	db := &InMemoryDb{
		Trees:       make(map[string]*Tree),
		DefaultTree: DefaultTree,
	}
	db.OpenTree(DefaultTree)
	return db
}

func (db *InMemoryDb) currentTreeName() string {
	if db.CurrentTree != "" {
		return db.CurrentTree
	}
	return db.DefaultTree
}

func (db *InMemoryDb) current() *Tree {
	return db.Trees[db.currentTreeName()]
}

// OpenTree makes tree_name the current tree, creating it if absent.
// Returns true if this actually changed the current tree (mirrors the
// original's "does the caller need to notify the writer" signal).
func (db *InMemoryDb) OpenTree(treeName string) bool {
	if db.CurrentTree == treeName {
		return false
	}
	if _, ok := db.Trees[treeName]; !ok {
		db.Trees[treeName] = newTree()
		db.TreeOrder = append(db.TreeOrder, treeName)
	}
	db.CurrentTree = treeName
	return true
}

func (db *InMemoryDb) TreeNames() []string {
	out := make([]string, len(db.TreeOrder))
	copy(out, db.TreeOrder)
	return out
}

// DropTree removes tree_name entirely; dropping the default tree
// clears it instead of removing it, since the store always needs a
// default to fall back to.
func (db *InMemoryDb) DropTree(treeName string) bool {
	if treeName == db.DefaultTree {
		return db.ClearTree(treeName)
	}
	if db.CurrentTree == treeName {
		db.CurrentTree = ""
	}
	if _, ok := db.Trees[treeName]; !ok {
		return false
	}
	delete(db.Trees, treeName)
	for i, name := range db.TreeOrder {
		if name == treeName {
			db.TreeOrder = append(db.TreeOrder[:i], db.TreeOrder[i+1:]...)
			break
		}
	}
	return true
}

func (db *InMemoryDb) ClearTree(treeName string) bool {
	t, ok := db.Trees[treeName]
	if !ok {
		return false
	}
	t.clear()
	return true
}

// MergeTrees extends dest with source's entries, leaving source intact.
func (db *InMemoryDb) MergeTrees(source, dest string) bool {
	src, ok := db.Trees[source]
	if !ok {
		return false
	}
	d, ok := db.Trees[dest]
	if !ok {
		return false
	}
	d.extend(src.listAll())
	return true
}

func (db *InMemoryDb) MergeCurrentTreeWith(source string) bool {
	current := db.currentTreeName()
	if current == source {
		return false
	}
	return db.MergeTrees(source, current)
}

func (db *InMemoryDb) Read(k string) (value.Primitive, bool) {
	t := db.current()
	if t == nil {
		return nil, false
	}
	return t.read(k)
}

func (db *InMemoryDb) Insert(k string, v value.Primitive) (value.Primitive, bool) {
	t := db.current()
	if t == nil {
		return nil, false
	}
	return t.insert(k, v)
}

func (db *InMemoryDb) Remove(k string) (value.Primitive, bool) {
	t := db.current()
	if t == nil {
		return nil, false
	}
	return t.remove(k)
}

func (db *InMemoryDb) Clear() {
	if t := db.current(); t != nil {
		t.clear()
	}
}

func (db *InMemoryDb) Contains(k string) bool {
	t := db.current()
	return t != nil && t.contains(k)
}

func (db *InMemoryDb) Len() int {
	t := db.current()
	if t == nil {
		return 0
	}
	return t.len()
}

func (db *InMemoryDb) Keys() []string {
	t := db.current()
	if t == nil {
		return nil
	}
	return t.keys()
}

func (db *InMemoryDb) ListAll() []KV {
	t := db.current()
	if t == nil {
		return nil
	}
	return t.listAll()
}

// ApplyBatch applies every op in b to the current tree, in order.
func (db *InMemoryDb) ApplyBatch(b *Batch) bool {
	t := db.current()
	if t == nil {
		return false
	}
	for _, op := range b.Ops {
		switch op.Kind {
		case BatchInsert:
			t.insert(op.Key, op.Val)
		case BatchDelete:
			t.remove(op.Key)
		}
	}
	return true
}

// ApplyTree gives consumer transient mutable access to the named
// tree; whatever it returns becomes ApplyTree's result.
func (db *InMemoryDb) ApplyTree(treeName string, consumer func(*Tree) (value.Primitive, bool)) (value.Primitive, bool) {
	t, ok := db.Trees[treeName]
	if !ok {
		return nil, false
	}
	return consumer(t)
}
