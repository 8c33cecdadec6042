package store

import "adana/internal/value"

// BatchOpKind distinguishes the two operations a Batch can carry.
type BatchOpKind int

const (
	BatchInsert BatchOpKind = iota
	BatchDelete
)

// BatchOp is one operation inside a Batch: Insert carries Val, Delete
// ignores it.
type BatchOp struct {
	Kind BatchOpKind
	Key  string
	Val  value.Primitive
}

// Batch is an ordered list of insert/delete operations applied
// atomically by InMemoryDb.ApplyBatch.
type Batch struct {
	Ops []BatchOp
}

func (b *Batch) Insert(k string, v value.Primitive) *Batch {
	b.Ops = append(b.Ops, BatchOp{Kind: BatchInsert, Key: k, Val: v})
	return b
}

func (b *Batch) Delete(k string) *Batch {
	b.Ops = append(b.Ops, BatchOp{Kind: BatchDelete, Key: k})
	return b
}
