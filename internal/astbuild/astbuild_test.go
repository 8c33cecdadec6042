package astbuild

import (
	"testing"

	"adana/internal/value"
)

func op(o value.Op) value.Value { return value.Operation{Op: o} }

func TestBuildLeafPassesThrough(t *testing.T) {
	n, err := Build(value.U8Lit{V: 5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Kind != NodeLeaf {
		t.Fatalf("expected a leaf node, got %#v", n)
	}
	if n.Leaf != (value.U8Lit{V: 5}) {
		t.Fatalf("unexpected leaf value: %#v", n.Leaf)
	}
}

func TestBuildResolvesMulBeforeAdd(t *testing.T) {
	// 1 + 2 * 3
	seq := value.Expression{Seq: []value.Value{
		value.U8Lit{V: 1}, op(value.OpAdd), value.U8Lit{V: 2}, op(value.OpMul), value.U8Lit{V: 3},
	}}
	n, err := Build(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Kind != NodeBinary || n.Op != value.OpAdd {
		t.Fatalf("expected top-level '+', got %#v", n)
	}
	if n.Right.Kind != NodeBinary || n.Right.Op != value.OpMul {
		t.Fatalf("expected '*' nested under '+', got %#v", n.Right)
	}
	if n.Left.Kind != NodeLeaf || n.Left.Leaf != (value.U8Lit{V: 1}) {
		t.Fatalf("unexpected left leaf: %#v", n.Left)
	}
}

func TestBuildParenBlockBehavesLikeExpression(t *testing.T) {
	seq := value.BlockParen{Seq: []value.Value{
		value.U8Lit{V: 1}, op(value.OpAdd), value.U8Lit{V: 2},
	}}
	n, err := Build(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Kind != NodeBinary || n.Op != value.OpAdd {
		t.Fatalf("expected a '+' node from a paren block, got %#v", n)
	}
}

func TestBuildRewritesUnaryMinusAfterOperator(t *testing.T) {
	// 4 * -2
	seq := value.Expression{Seq: []value.Value{
		value.U8Lit{V: 4}, op(value.OpMul), op(value.OpSub), value.U8Lit{V: 2},
	}}
	n, err := Build(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Kind != NodeBinary || n.Op != value.OpMul {
		t.Fatalf("expected top-level '*', got %#v", n)
	}
	if n.Right.Kind != NodeUnary || n.Right.Op != value.OpSub {
		t.Fatalf("expected a unary '-' on the right of '*', got %#v", n.Right)
	}
	if n.Right.Operand.Leaf != (value.U8Lit{V: 2}) {
		t.Fatalf("unexpected negated operand: %#v", n.Right.Operand)
	}
}

func TestBuildLeadingUnaryNot(t *testing.T) {
	seq := value.Expression{Seq: []value.Value{op(value.OpNot), value.BoolLit{V: true}}}
	n, err := Build(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Kind != NodeUnary || n.Op != value.OpNot {
		t.Fatalf("expected a unary '!' node, got %#v", n)
	}
	if n.Operand.Leaf != (value.BoolLit{V: true}) {
		t.Fatalf("unexpected operand: %#v", n.Operand)
	}
}

func TestBuildSeqMatchesBuildOnExpression(t *testing.T) {
	seq := []value.Value{value.U8Lit{V: 1}, op(value.OpAdd), value.U8Lit{V: 2}}
	viaBuild, err := Build(value.Expression{Seq: seq})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	viaBuildSeq, err := BuildSeq(seq)
	if err != nil {
		t.Fatalf("buildseq: %v", err)
	}
	if viaBuild.Op != viaBuildSeq.Op || viaBuild.Kind != viaBuildSeq.Kind {
		t.Fatalf("Build and BuildSeq disagree: %#v vs %#v", viaBuild, viaBuildSeq)
	}
}

func TestBuildEmptySeqReturnsNil(t *testing.T) {
	n, err := BuildSeq(nil)
	if err != nil {
		t.Fatalf("buildseq: %v", err)
	}
	if n != nil {
		t.Fatalf("expected a nil node for an empty sequence, got %#v", n)
	}
}

func TestBuildDanglingMinusErrors(t *testing.T) {
	// "1 * -" : a trailing unary minus with nothing to negate.
	seq := value.Expression{Seq: []value.Value{
		value.U8Lit{V: 1}, op(value.OpMul), op(value.OpSub),
	}}
	if _, err := Build(seq); err == nil {
		t.Fatalf("expected an error for a dangling '-'")
	}
}
