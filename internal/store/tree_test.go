package store

import (
	"testing"

	"adana/internal/value"
)

func TestTreeInsertOrderAndRemove(t *testing.T) {
	tr := newTree()
	tr.insert("a", value.String("1"))
	tr.insert("b", value.String("2"))
	tr.insert("c", value.String("3"))

	if got := tr.keys(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected key order: %v", got)
	}

	if _, existed := tr.remove("b"); !existed {
		t.Fatalf("expected b to exist")
	}
	if got := tr.keys(); len(got) != 2 || got[1] != "c" {
		t.Fatalf("remove did not preserve order: %v", got)
	}
	if tr.contains("b") {
		t.Fatalf("b should be gone")
	}
}

func TestTreeInsertOverwriteKeepsPosition(t *testing.T) {
	tr := newTree()
	tr.insert("a", value.String("1"))
	tr.insert("b", value.String("2"))
	old, existed := tr.insert("a", value.String("99"))
	if !existed || old != value.String("1") {
		t.Fatalf("expected overwrite to report old value, got %v %v", old, existed)
	}
	if got := tr.keys(); len(got) != 2 || got[0] != "a" {
		t.Fatalf("overwrite should not move the key: %v", got)
	}
}

func TestTreeListAllAndExtend(t *testing.T) {
	tr := newTree()
	tr.insert("x", value.String("1"))
	other := newTree()
	other.insert("y", value.String("2"))
	other.insert("x", value.String("overwritten"))

	tr.extend(other.listAll())
	if len(tr.ListAll()) != 2 {
		t.Fatalf("expected 2 entries after extend, got %d", len(tr.ListAll()))
	}
	v, _ := tr.read("x")
	if v != value.String("overwritten") {
		t.Fatalf("extend should overwrite shared keys, got %v", v)
	}
}

func TestTreeClear(t *testing.T) {
	tr := newTree()
	tr.insert("a", value.String("1"))
	tr.clear()
	if tr.len() != 0 || len(tr.keys()) != 0 {
		t.Fatalf("clear left residue: %+v", tr)
	}
}
