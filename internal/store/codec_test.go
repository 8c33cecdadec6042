package store

import (
	"math/big"
	"testing"

	"adana/internal/value"

	"github.com/kr/pretty"
)

func TestWireValueRoundTrip(t *testing.T) {
	arr := &value.Array{Elements: []value.Primitive{value.Int{V: big.NewInt(42)}, value.String("nested")}}
	s := value.NewStruct()
	s.Set("name", value.String("ada"))
	s.Set("tags", arr)

	cases := []value.Primitive{
		value.U8(7),
		value.I8(-7),
		value.Int{V: big.NewInt(123456789)},
		value.Double(3.5),
		value.Bool(true),
		value.Null{},
		value.String("hello"),
		arr,
		s,
	}

	for _, c := range cases {
		w, err := toWire(c)
		if err != nil {
			t.Fatalf("toWire(%v): %v", c, err)
		}
		got, err := fromWire(w)
		if err != nil {
			t.Fatalf("fromWire: %v", err)
		}
		if diff := pretty.Diff(c, got); len(diff) != 0 {
			t.Fatalf("round trip mismatch for %v: %v", c, diff)
		}
	}
}

func TestToWireRejectsUnpersistable(t *testing.T) {
	fn := &value.Function{}
	if _, err := toWire(fn); err == nil {
		t.Fatalf("expected an error persisting a function value")
	}
}

func TestEncodeDecodeDbRoundTrip(t *testing.T) {
	db := NewInMemoryDb()
	db.Insert("a", value.String("1"))
	db.OpenTree("other")
	db.Insert("b", value.Int{V: big.NewInt(99)})

	data, err := encodeDb(db)
	if err != nil {
		t.Fatalf("encodeDb: %v", err)
	}
	decoded := decodeDb(data)

	if decoded.CurrentTree != db.CurrentTree {
		t.Fatalf("current tree mismatch: %s vs %s", decoded.CurrentTree, db.CurrentTree)
	}
	v, ok := decoded.Trees["other"].read("b")
	if !ok {
		t.Fatalf("expected key b in restored 'other' tree")
	}
	if pretty.Sprint(v) != pretty.Sprint(value.Int{V: big.NewInt(99)}) {
		t.Fatalf("unexpected restored value: %v", v)
	}
}

func TestDecodeDbOnGarbageReturnsEmpty(t *testing.T) {
	db := decodeDb([]byte("not a valid gob stream"))
	if db == nil {
		t.Fatalf("decodeDb should never return nil")
	}
	if db.Len() != 0 {
		t.Fatalf("garbage input should decode to an empty store")
	}
}
