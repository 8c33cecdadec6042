// Package astbuild implements the operator-precedence pass: it turns a
// flat, precedence-unresolved value.Expression/value.BlockParen
// sequence into a Node tree shaped by operator precedence. It is the
// smallest of the four stages and has exactly one job: resolve
// precedence and rewrite unary minus. Everything else (control flow,
// function literals, struct/array literals, ...) passes through as an
// opaque Leaf for internal/eval to interpret.
package astbuild

import (
	"fmt"

	"adana/internal/value"
)

type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeUnary
	NodeBinary
)

// Node is a precedence-resolved expression tree.
type Node struct {
	Kind  NodeKind
	Op    value.Op
	Left  *Node // binary only
	Right *Node // binary only
	Operand *Node // unary only
	Leaf  value.Value // leaf only
}

// Build converts a single value.Value into a Node, resolving
// precedence if v is an Expression or BlockParen; anything else
// becomes a leaf directly.
func Build(v value.Value) (*Node, error) {
	switch t := v.(type) {
	case value.Expression:
		return buildSeq(t.Seq)
	case value.BlockParen:
		return buildSeq(t.Seq)
	default:
		return &Node{Kind: NodeLeaf, Leaf: v}, nil
	}
}

// BuildSeq is the exported entry point for a raw statement/operand
// sequence (used by internal/eval when a value.Expression reaches it
// as a leaf; function bodies go through Build one statement at a time).
func BuildSeq(seq []value.Value) (*Node, error) {
	return buildSeq(seq)
}

// item is buildSeq's internal working unit: either a raw operator
// token, a raw unresolved operand, or an already-resolved sub-Node
// produced by the unary-minus rewrite (see below).
type item struct {
	isOp bool
	op   value.Op
	raw  value.Value
	node *Node
}

func toItems(seq []value.Value) []item {
	items := make([]item, len(seq))
	for i, v := range seq {
		if o, ok := v.(value.Operation); ok {
			items[i] = item{isOp: true, op: o.Op}
		} else {
			items[i] = item{raw: v}
		}
	}
	return items
}

func (it item) toNode() (*Node, error) {
	if it.node != nil {
		return it.node, nil
	}
	return Build(it.raw)
}

func buildSeq(seq []value.Value) (*Node, error) {
	if len(seq) == 0 {
		return nil, nil
	}
	if len(seq) == 1 {
		return Build(seq[0])
	}
	return buildItems(toItems(seq))
}

func buildItems(items []item) (*Node, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) == 1 {
		return items[0].toNode()
	}

	op, idx := findSplit(items)
	if idx < 0 {
		return nil, fmt.Errorf("astbuild: no operator found in a %d-element sequence", len(items))
	}
	left := items[:idx]
	right := items[idx+1:]

	// Unary-minus rewrite: a '-' split whose left half ends in another
	// operator isn't a binary subtraction at all — it's a unary minus
	// bound to the first element of the right half. Fold it in and
	// reprocess the combined sequence.
	if op == value.OpSub && len(left) > 0 && left[len(left)-1].isOp {
		if len(right) == 0 {
			return nil, fmt.Errorf("astbuild: dangling '-' with nothing to negate")
		}
		operand, err := right[0].toNode()
		if err != nil {
			return nil, err
		}
		negated := &Node{Kind: NodeUnary, Op: value.OpSub, Operand: operand}
		merged := make([]item, 0, len(left)+1+len(right)-1)
		merged = append(merged, left...)
		merged = append(merged, item{node: negated})
		merged = append(merged, right[1:]...)
		return buildItems(merged)
	}

	if len(left) == 0 {
		if op != value.OpSub && !op.IsUnary() {
			return nil, fmt.Errorf("astbuild: operator %q has no left operand", op)
		}
		rightNode, err := buildItems(right)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: op, Operand: rightNode}, nil
	}

	leftNode, err := buildItems(left)
	if err != nil {
		return nil, err
	}
	rightNode, err := buildItems(right)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: NodeBinary, Op: op, Left: leftNode, Right: rightNode}, nil
}

// findSplit scans value.Precedence lowest-first; for the first
// operator that occurs anywhere in items, it returns the rightmost
// occurrence.
func findSplit(items []item) (value.Op, int) {
	for _, op := range value.Precedence {
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].isOp && items[i].op == op {
				return op, i
			}
		}
	}
	return "", -1
}
