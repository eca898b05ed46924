// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package eval

import (
	"context"
	"testing"

	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/expr"
	"github.com/grailbio/remoteflow/remotecontext"
	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

func mustEval(t *testing.T, ev *Evaluator, x *expr.Expr) values.SchemaAndValue {
	t.Helper()
	sv, err := ev.EvalDynamic(context.Background(), remotecontext.New(), x, nil)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return sv
}

func TestLiteral(t *testing.T) {
	ev := New(Options{})
	sv := mustEval(t, ev, expr.Literal(values.Int(42), schema.Int))
	got, err := sv.Value.Int32()
	if err != nil || got != 42 {
		t.Errorf("got %d, %v; want 42, nil", got, err)
	}
}

func TestApplyAddsOne(t *testing.T) {
	ev := New(Options{})
	fresh := func() string { return "x" }
	fn := expr.BuildFn(fresh, func(input *expr.Expr) *expr.Expr {
		return expr.Add(expr.NumericInt, input, expr.Literal(values.Int(1), schema.Int))
	})
	app := expr.Apply(fn, expr.Literal(values.Int(41), schema.Int))
	sv := mustEval(t, ev, app)
	got, err := sv.Value.Int32()
	if err != nil || got != 42 {
		t.Errorf("got %d, %v; want 42, nil", got, err)
	}
}

func TestDivisionByZeroIsArithmeticError(t *testing.T) {
	ev := New(Options{})
	x := expr.Div(expr.NumericInt, expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(0), schema.Int))
	_, err := ev.EvalDynamic(context.Background(), remotecontext.New(), x, nil)
	if !errors.Is(errors.ArithmeticError, err) {
		t.Errorf("got %v, want an ArithmeticError", err)
	}
}

func TestModNumericComputesRemainder(t *testing.T) {
	ev := New(Options{})
	x := expr.ModInt(expr.NumericInt, expr.Literal(values.Int(10), schema.Int), expr.Literal(values.Int(3), schema.Int))
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 1 {
		t.Errorf("got %d, want 1 (10 mod 3)", got)
	}
}

func TestAndShortCircuits(t *testing.T) {
	ev := New(Options{})
	poison := expr.Div(expr.NumericInt, expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(0), schema.Int))
	x := expr.And(expr.Literal(values.Bool(false), schema.Bool), poison)
	sv, err := ev.EvalDynamic(context.Background(), remotecontext.New(), x, nil)
	if err != nil {
		t.Fatalf("expected short-circuit to avoid the division error, got %v", err)
	}
	b, _ := sv.Value.Bool()
	if b {
		t.Errorf("got true, want false")
	}
}

func TestOrShortCircuits(t *testing.T) {
	ev := New(Options{})
	poison := expr.Div(expr.NumericInt, expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(0), schema.Int))
	x := expr.Or(expr.Literal(values.Bool(true), schema.Bool), poison)
	sv, err := ev.EvalDynamic(context.Background(), remotecontext.New(), x, nil)
	if err != nil {
		t.Fatalf("expected short-circuit to avoid the division error, got %v", err)
	}
	b, _ := sv.Value.Bool()
	if !b {
		t.Errorf("got false, want true")
	}
}

func TestBranchOnlyEvaluatesTakenArm(t *testing.T) {
	ev := New(Options{})
	poison := expr.Div(expr.NumericInt, expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(0), schema.Int))
	x := expr.Branch(expr.Literal(values.Bool(true), schema.Bool), expr.Literal(values.Int(7), schema.Int), poison)
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestVariableUnbound(t *testing.T) {
	ev := New(Options{})
	_, err := ev.EvalDynamic(context.Background(), remotecontext.New(), expr.Variable("nope"), nil)
	if !errors.Is(errors.Unbound, err) {
		t.Errorf("got %v, want Unbound", err)
	}
}

func TestTupleAccessOutOfRange(t *testing.T) {
	ev := New(Options{})
	tup := expr.Tuple(expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(2), schema.Int))
	_, err := ev.EvalDynamic(context.Background(), remotecontext.New(), expr.TupleAccess(tup, 5), nil)
	if !errors.Is(errors.IndexOutOfRange, err) {
		t.Errorf("got %v, want IndexOutOfRange", err)
	}
}

func TestIterateCountsDownToZero(t *testing.T) {
	ev := New(Options{})
	fresh := func() string { return "n" }
	step := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Sub(expr.NumericInt, n, expr.Literal(values.Int(1), schema.Int))
	})
	pred := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Not(expr.Equal(schema.Int, n, expr.Literal(values.Int(0), schema.Int)))
	})
	x := expr.Iterate(expr.Literal(values.Int(5), schema.Int), step, pred)
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestIterateRunsZeroTimesWhenPredIsFalse(t *testing.T) {
	ev := New(Options{})
	fresh := func() string { return "n" }
	poison := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Div(expr.NumericInt, expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(0), schema.Int))
	})
	never := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Literal(values.Bool(false), schema.Bool)
	})
	x := expr.Iterate(expr.Literal(values.Int(5), schema.Int), poison, never)
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 5 {
		t.Errorf("got %d, want 5 (step must never run)", got)
	}
}

// TestIterateCountsUpToTen covers the mandatory testable property:
// Iterate(Literal(0), fn(x=>Add(x,1)), fn(x=>LessThanEqual(x,9))) => 10.
func TestIterateCountsUpToTen(t *testing.T) {
	ev := New(Options{})
	fresh := func() string { return "x" }
	step := expr.BuildFn(fresh, func(x *expr.Expr) *expr.Expr {
		return expr.Add(expr.NumericInt, x, expr.Literal(values.Int(1), schema.Int))
	})
	pred := expr.BuildFn(fresh, func(x *expr.Expr) *expr.Expr {
		return expr.LessThanEqual(schema.Int, x, expr.Literal(values.Int(9), schema.Int))
	})
	x := expr.Iterate(expr.Literal(values.Int(0), schema.Int), step, pred)
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestIterateRespectsMaxIterations(t *testing.T) {
	ev := New(Options{MaxIterations: 3})
	fresh := func() string { return "n" }
	step := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Add(expr.NumericInt, n, expr.Literal(values.Int(1), schema.Int))
	})
	pred := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Literal(values.Bool(true), schema.Bool)
	})
	x := expr.Iterate(expr.Literal(values.Int(0), schema.Int), step, pred)
	_, err := ev.EvalDynamic(context.Background(), remotecontext.New(), x, nil)
	if !errors.Is(errors.IterationDiverged, err) {
		t.Errorf("got %v, want IterationDiverged", err)
	}
}

func TestIterateUnboundedByDefault(t *testing.T) {
	ev := New(Options{})
	fresh := func() string { return "n" }
	step := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.Add(expr.NumericInt, n, expr.Literal(values.Int(1), schema.Int))
	})
	pred := expr.BuildFn(fresh, func(n *expr.Expr) *expr.Expr {
		return expr.LessThanEqual(schema.Int, n, expr.Literal(values.Int(10000), schema.Int))
	})
	x := expr.Iterate(expr.Literal(values.Int(0), schema.Int), step, pred)
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 10001 {
		t.Errorf("got %d, want 10001", got)
	}
}

func TestFoldOptionBranches(t *testing.T) {
	ev := New(Options{})
	fresh := func() string { return "v" }
	doubled := expr.BuildFn(fresh, func(v *expr.Expr) *expr.Expr {
		return expr.Mul(expr.NumericInt, v, expr.Literal(values.Int(2), schema.Int))
	})
	some := expr.Some(expr.Literal(values.Int(21), schema.Int), schema.Int)
	x := expr.FoldOption(some, expr.Literal(values.Int(-1), schema.Int), doubled)
	sv := mustEval(t, ev, x)
	got, _ := sv.Value.Int32()
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestTryCatchesEvaluationFailure(t *testing.T) {
	ev := New(Options{})
	poison := expr.Div(expr.NumericInt, expr.Literal(values.Int(1), schema.Int), expr.Literal(values.Int(0), schema.Int))
	x := expr.Try(poison)
	sv := mustEval(t, ev, x)
	if sv.Value.Kind != values.Left {
		t.Fatalf("expected a Left(Throwable), got kind %v", sv.Value.Kind)
	}
}

func TestLazyMemoizesWithinOneEvaluation(t *testing.T) {
	ev := New(Options{})
	calls := 0
	lazy := expr.Lazy(func() *expr.Expr {
		calls++
		return expr.Literal(values.Int(9), schema.Int)
	})
	wrapped := expr.Add(expr.NumericInt, lazy, expr.Literal(values.Int(0), schema.Int))
	sv := mustEval(t, ev, wrapped)
	got, _ := sv.Value.Int32()
	if got != 9 {
		t.Errorf("got %d, want 9", got)
	}
	if calls != 1 {
		t.Errorf("expected thunk to run exactly once, ran %d times", calls)
	}
}

func TestEvalNarrowsToHostInt32(t *testing.T) {
	ev := New(Options{})
	got, err := Eval[int32](ev, context.Background(), remotecontext.New(), expr.Literal(values.Int(5), schema.Int), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestEvalAllRunsConcurrently(t *testing.T) {
	ev := New(Options{})
	rc := remotecontext.NewAtomic()
	xs := []*expr.Expr{
		expr.Literal(values.Int(1), schema.Int),
		expr.Literal(values.Int(2), schema.Int),
		expr.Literal(values.Int(3), schema.Int),
	}
	results, err := ev.EvalAll(context.Background(), rc, xs, nil)
	if err != nil {
		t.Fatal(err)
	}
	sum := int32(0)
	for _, r := range results {
		n, _ := r.Value.Int32()
		sum += n
	}
	if sum != 6 {
		t.Errorf("got sum %d, want 6", sum)
	}
}

func TestLengthOfSequenceAndString(t *testing.T) {
	ev := New(Options{})
	seq := expr.Literal(values.NewSequence(values.Int(1), values.Int(2), values.Int(3)), schema.Sequence(schema.Int))
	sv := mustEval(t, ev, expr.Length(seq))
	got, _ := sv.Value.Int32()
	if got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	str := expr.Literal(values.String("hello"), schema.String)
	sv = mustEval(t, ev, expr.Length(str))
	got, _ = sv.Value.Int32()
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}
