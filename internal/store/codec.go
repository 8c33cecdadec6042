package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/big"

	"adana/internal/value"
)

// wireValue is the on-disk shape of a value.Primitive: gob cannot
// encode the Primitive interface directly without a concrete,
// registered type for every implementation, and Function/
// NativeLibrary/NativeFunction/Ref carry state (unevaluated Value
// forms, loaded plugin handles, mutexes) that has no durable
// representation. A Kind tag plus one populated field per case is the
// same explicit-conversion approach internal/eval/json.go uses for
// jsonify/parse_json, applied to a binary codec instead of JSON.
type wireValue struct {
	Kind     string
	U8       uint8
	I8       int8
	IntText  string // big.Int decimal text
	Double   float64
	Bool     bool
	Str      string
	Elements []wireValue
	Keys     []string
	Fields   []wireValue
}

func toWire(p value.Primitive) (wireValue, error) {
	p = value.Deref(p)
	switch v := p.(type) {
	case value.U8:
		return wireValue{Kind: "u8", U8: uint8(v)}, nil
	case value.I8:
		return wireValue{Kind: "i8", I8: int8(v)}, nil
	case value.Int:
		return wireValue{Kind: "int", IntText: v.V.String()}, nil
	case value.Double:
		return wireValue{Kind: "double", Double: float64(v)}, nil
	case value.Bool:
		return wireValue{Kind: "bool", Bool: bool(v)}, nil
	case value.Null:
		return wireValue{Kind: "null"}, nil
	case value.String:
		return wireValue{Kind: "string", Str: string(v)}, nil
	case *value.Array:
		elems := make([]wireValue, len(v.Elements))
		for i, e := range v.Elements {
			w, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			elems[i] = w
		}
		return wireValue{Kind: "array", Elements: elems}, nil
	case *value.Struct:
		fields := make([]wireValue, len(v.Keys))
		for i, k := range v.Keys {
			w, err := toWire(v.Values[k])
			if err != nil {
				return wireValue{}, err
			}
			fields[i] = w
		}
		return wireValue{Kind: "struct", Keys: append([]string{}, v.Keys...), Fields: fields}, nil
	default:
		return wireValue{}, fmt.Errorf("store: cannot persist a %s value", p.TypeName())
	}
}

func fromWire(w wireValue) (value.Primitive, error) {
	switch w.Kind {
	case "u8":
		return value.U8(w.U8), nil
	case "i8":
		return value.I8(w.I8), nil
	case "int":
		n, ok := new(big.Int).SetString(w.IntText, 10)
		if !ok {
			return nil, fmt.Errorf("store: malformed int %q", w.IntText)
		}
		return value.Int{V: n}, nil
	case "double":
		return value.Double(w.Double), nil
	case "bool":
		return value.Bool(w.Bool), nil
	case "null":
		return value.Null{}, nil
	case "string":
		return value.String(w.Str), nil
	case "array":
		elems := make([]value.Primitive, len(w.Elements))
		for i, e := range w.Elements {
			p, err := fromWire(e)
			if err != nil {
				return nil, err
			}
			elems[i] = p
		}
		return &value.Array{Elements: elems}, nil
	case "struct":
		s := value.NewStruct()
		for i, k := range w.Keys {
			p, err := fromWire(w.Fields[i])
			if err != nil {
				return nil, err
			}
			s.Set(k, p)
		}
		return s, nil
	}
	return nil, fmt.Errorf("store: unknown wire kind %q", w.Kind)
}

// wireTree/wireDb are the gob-encoded forms of Tree/InMemoryDb.
type wireTree struct {
	Keys   []string
	Values []wireValue
}

type wireDb struct {
	TreeOrder   []string
	TreeNames   []string
	Trees       []wireTree
	DefaultTree string
	CurrentTree string
}

// encodeDb serializes db into the lock file's byte buffer.
func encodeDb(db *InMemoryDb) ([]byte, error) {
	w := wireDb{
		TreeOrder:   db.TreeOrder,
		DefaultTree: db.DefaultTree,
		CurrentTree: db.CurrentTree,
	}
	for _, name := range db.TreeOrder {
		t := db.Trees[name]
		vals := make([]wireValue, len(t.Keys))
		for i, k := range t.Keys {
			wv, err := toWire(t.Values[k])
			if err != nil {
				return nil, err
			}
			vals[i] = wv
		}
		w.TreeNames = append(w.TreeNames, name)
		w.Trees = append(w.Trees, wireTree{Keys: append([]string{}, t.Keys...), Values: vals})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeDb deserializes the data file's bytes. A malformed or empty
// buffer is treated as "first use": an empty, fresh InMemoryDb rather
// than a decode error.
func decodeDb(data []byte) *InMemoryDb {
	var w wireDb
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return NewInMemoryDb()
	}

	db := &InMemoryDb{
		TreeOrder:   w.TreeOrder,
		Trees:       make(map[string]*Tree),
		DefaultTree: w.DefaultTree,
		CurrentTree: w.CurrentTree,
	}
	if db.DefaultTree == "" {
		db.DefaultTree = DefaultTree
	}
	for i, name := range w.TreeNames {
		t := newTree()
		wt := w.Trees[i]
		for j, k := range wt.Keys {
			p, err := fromWire(wt.Values[j])
			if err != nil {
				return NewInMemoryDb()
			}
			t.insert(k, p)
		}
		db.Trees[name] = t
	}
	if _, ok := db.Trees[db.DefaultTree]; !ok {
		db.Trees[db.DefaultTree] = newTree()
		db.TreeOrder = append(db.TreeOrder, db.DefaultTree)
	}
	return db
}
