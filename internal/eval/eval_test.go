package eval_test

import (
	"math"
	"math/big"
	"testing"

	"adana/internal/eval"
	"adana/internal/nativelib"
	"adana/internal/parser"
	"adana/internal/value"
)

func run(t *testing.T, src string) value.Primitive {
	t.Helper()
	stmts, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	ev := eval.New(nativelib.New())
	result, err := ev.Run(stmts, value.NewEnvironment())
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	if e, ok := result.(value.ErrorVal); ok {
		t.Fatalf("run %q produced a script error: %s", src, e.Msg)
	}
	return result
}

func requireInt(t *testing.T, p value.Primitive, want int64) {
	t.Helper()
	i, ok := p.(value.Int)
	if !ok || i.V.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("expected Int(%d), got %#v", want, p)
	}
}

// U8+U8 arithmetic always widens to Int (see DESIGN.md's Open
// Question decisions), so the loop counter ends up Int(5), not U8(5).
func TestWhileLoopCountsToFive(t *testing.T) {
	got := run(t, "x = 0; while (x < 5) { x = x + 1 }; x")
	requireInt(t, got, 5)
}

func TestRecursiveFactorial(t *testing.T) {
	got := run(t, `fact = (n) => { if (n<=1) {1} else {n*fact(n-1)} }
fact(6)`)
	requireInt(t, got, 720)
}

func TestStructFieldAndFStringConcat(t *testing.T) {
	got := run(t, `p = struct{a:1, b:"x"}; p.b + """${p.a}"""`)
	if got != value.String("x1") {
		t.Fatalf("expected \"x1\", got %#v", got)
	}
}

func TestFStringInterpolation(t *testing.T) {
	got := run(t, `n="world"; """hi ${n}!"""`)
	if got != value.String("hi world!") {
		t.Fatalf("expected \"hi world!\", got %#v", got)
	}
}

func TestBitwiseOr(t *testing.T) {
	got := run(t, "127 | 135")
	if got != value.U8(255) {
		t.Fatalf("expected U8(255), got %#v", got)
	}
}

func TestBitwiseAndOnNegative(t *testing.T) {
	got := run(t, "-1 & 1")
	requireInt(t, got, 1)
}

func TestBitwiseNot(t *testing.T) {
	got := run(t, "~127")
	requireInt(t, got, -128)
}

func TestRangeIterationSumsToTen(t *testing.T) {
	got := run(t, "s=0; for n in 1..=4 { s = s+n }; s")
	requireInt(t, got, 10)
}

func TestArrayLengthGrowsByOneOnAppend(t *testing.T) {
	got := run(t, `a = [1, 2, 3]; length(a + 4)`)
	requireInt(t, got, 4)
}

func TestStringRepeatLengthIsMultiplicative(t *testing.T) {
	got := run(t, `length("ab" * 3)`)
	requireInt(t, got, 6)
}

func TestStringRepeatValue(t *testing.T) {
	got := run(t, `"ab" * 3`)
	if got != value.String("ababab") {
		t.Fatalf("expected \"ababab\", got %#v", got)
	}
}

func TestArrayRepeatCycles(t *testing.T) {
	got := run(t, `length([1, 2] * 2)`)
	requireInt(t, got, 4)
}

func TestDivideByZeroPositiveDividendIsPositiveInfinity(t *testing.T) {
	got := run(t, `5 / 0`)
	d, ok := got.(value.Double)
	if !ok || !math.IsInf(float64(d), 1) {
		t.Fatalf("expected +Inf, got %#v", got)
	}
}

func TestDivideByZeroNegativeDividendIsNaN(t *testing.T) {
	got := run(t, `-5 / 0`)
	d, ok := got.(value.Double)
	if !ok || !math.IsNaN(float64(d)) {
		t.Fatalf("expected NaN, got %#v", got)
	}
}

func TestDivideZeroByZeroIsNaN(t *testing.T) {
	got := run(t, `0 / 0`)
	d, ok := got.(value.Double)
	if !ok || !math.IsNaN(float64(d)) {
		t.Fatalf("expected NaN, got %#v", got)
	}
}

// A struct field holding a Function is callable through the same
// field-then-call access chain as any other value; there is no
// implicit receiver, so the call only sees its own arguments, not the
// struct it was read from (see DESIGN.md's CallableScope note).
func TestStructFieldHoldingFunctionIsCallable(t *testing.T) {
	got := run(t, `p = struct{greet: (n) => { n + 1 }}; p.greet(4)`)
	requireInt(t, got, 5)
}
