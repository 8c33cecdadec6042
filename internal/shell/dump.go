package shell

import (
	"encoding/json"
	"fmt"

	"adana/internal/store"
	"adana/internal/value"
)

// treeJSON is one tree's backup/dump representation: a name plus its
// flat key -> string-value map.
type treeJSON struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values"`
}

func (s *Shell) dumpJSON(name string) (string, error) {
	if name != "" {
		if !containsTree(s.Db.TreeNames(), name) {
			return "", fmt.Errorf("tree %q doesn't exist", name)
		}
		tj, err := treeToJSON(s.Db, name)
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(tj, "", "  ")
		return string(out), err
	}

	var all []treeJSON
	for _, n := range s.Db.TreeNames() {
		tj, err := treeToJSON(s.Db, n)
		if err != nil {
			return "", err
		}
		all = append(all, tj)
	}
	out, err := json.MarshalIndent(all, "", "  ")
	return string(out), err
}

func treeToJSON(db *store.Db, name string) (treeJSON, error) {
	values := make(map[string]string)
	db.ApplyTree(name, func(t *store.Tree) (value.Primitive, bool) {
		for _, kv := range t.ListAll() {
			values[kv.Key] = value.ToStringValue(kv.Value)
		}
		return nil, true
	})
	return treeJSON{Name: name, Values: values}, nil
}

func restoreJSON(db *store.Db, data string) error {
	var trees []treeJSON
	if err := json.Unmarshal([]byte(data), &trees); err != nil {
		return err
	}
	for _, t := range trees {
		db.OpenTree(t.Name)
		b := &store.Batch{}
		for k, v := range t.Values {
			b.Insert(k, value.String(v))
		}
		db.ApplyBatch(b)
	}
	return nil
}

func containsTree(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
