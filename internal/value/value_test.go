package value

import (
	"math/big"
	"testing"
)

func TestEqualsDereferencesRef(t *testing.T) {
	cell := NewCell(String("hi"))
	r1 := Ref{Cell: cell}
	r2 := Ref{Cell: cell}
	if !Equals(r1, r2) {
		t.Fatalf("two refs to the same cell should be equal")
	}
	if !Equals(r1, String("hi")) {
		t.Fatalf("a ref should compare equal to its dereferenced contents")
	}
}

func TestEqualsNumericCrossType(t *testing.T) {
	if !Equals(U8(5), Int{V: big.NewInt(5)}) {
		t.Fatalf("U8(5) should equal Int(5)")
	}
	if Equals(U8(5), Double(5.5)) {
		t.Fatalf("U8(5) should not equal Double(5.5)")
	}
}

func TestEqualsArraysAndStructs(t *testing.T) {
	a := &Array{Elements: []Primitive{U8(1), String("x")}}
	b := &Array{Elements: []Primitive{U8(1), String("x")}}
	if !Equals(a, b) {
		t.Fatalf("structurally equal arrays should compare equal")
	}

	s1 := NewStruct()
	s1.Set("a", U8(1))
	s2 := NewStruct()
	s2.Set("a", U8(1))
	if !Equals(s1, s2) {
		t.Fatalf("structurally equal structs should compare equal")
	}
}

func TestCompareUncomparableTypesErrors(t *testing.T) {
	_, err := Compare(String("a"), U8(1))
	if err == nil {
		t.Fatalf("expected an error comparing a string with a number")
	}
}

func TestCompareOrdering(t *testing.T) {
	c, err := Compare(U8(1), U8(2))
	if err != nil || c != -1 {
		t.Fatalf("expected -1, got %d, %v", c, err)
	}
	c, err = Compare(String("b"), String("a"))
	if err != nil || c != 1 {
		t.Fatalf("expected 1, got %d, %v", c, err)
	}
}

func TestToStringValueFormatsCompositesRecursively(t *testing.T) {
	arr := &Array{Elements: []Primitive{U8(1), String("x")}}
	if got := ToStringValue(arr); got != "[1, x]" {
		t.Fatalf("unexpected array rendering: %q", got)
	}

	s := NewStruct()
	s.Set("a", U8(1))
	if got := ToStringValue(s); got != "{a: 1}" {
		t.Fatalf("unexpected struct rendering: %q", got)
	}
}

func TestToBoolCoercion(t *testing.T) {
	b, err := ToBool(String("true"))
	if err != nil || !b {
		t.Fatalf("expected true, got %v, %v", b, err)
	}
	if _, err := ToBool(U8(1)); err == nil {
		t.Fatalf("expected an error converting a number to bool")
	}
}

func TestAssignSelfReferentialRefIsNoop(t *testing.T) {
	env := NewEnvironment()
	env.Declare("x", U8(1))
	cell, _ := env.Get("x")

	env.Assign("x", Ref{Cell: cell})

	got, ok := env.Get("x")
	if !ok || got != cell {
		t.Fatalf("assigning a ref to x's own cell must not replace the binding")
	}
	if got.Get() != U8(1) {
		t.Fatalf("assigning a ref to x's own cell must not change its contents, got %#v", got.Get())
	}
}

func TestAssignRefToAnotherCellStillWorks(t *testing.T) {
	env := NewEnvironment()
	env.Declare("x", U8(1))
	env.Declare("y", U8(2))
	yCell, _ := env.Get("y")

	env.Assign("x", Ref{Cell: yCell})

	xCell, _ := env.Get("x")
	if Deref(xCell.Get()) != U8(2) {
		t.Fatalf("assigning a ref to a different cell should still take effect")
	}
}

func TestEnvironmentCloneSharesCellsNotBindings(t *testing.T) {
	parent := NewEnvironment()
	parent.Declare("x", U8(1))

	child := parent.Clone()
	child.Declare("y", U8(2))

	if _, ok := parent.Get("y"); ok {
		t.Fatalf("a name declared only in the child must not leak to the parent")
	}

	cell, ok := child.Get("x")
	if !ok {
		t.Fatalf("child should see the parent's binding")
	}
	cell.Set(U8(99))
	parentCell, _ := parent.Get("x")
	if parentCell.Get() != U8(99) {
		t.Fatalf("writing through a shared cell should be visible to the parent")
	}
}

func TestEnvironmentDropDoesNotAffectCell(t *testing.T) {
	env := NewEnvironment()
	cell := env.Declare("x", U8(1))
	ref := Ref{Cell: cell}

	env.Drop("x")
	if _, ok := env.Get("x"); ok {
		t.Fatalf("x should be gone after Drop")
	}
	if Deref(ref) != U8(1) {
		t.Fatalf("dropping a name must not affect a cell still reachable via Ref")
	}
}

func TestCallableScopeFiltersToCallables(t *testing.T) {
	env := NewEnvironment()
	env.Declare("data", U8(1))
	env.Declare("fn", &Function{})

	scope := env.CallableScope()
	if _, ok := scope.Get("data"); ok {
		t.Fatalf("non-callable bindings must not appear in the callable scope")
	}
	if _, ok := scope.Get("fn"); !ok {
		t.Fatalf("function bindings must appear in the callable scope")
	}
}
