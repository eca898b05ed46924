// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package expr

import (
	"testing"

	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

func TestKindStringRoundTrip(t *testing.T) {
	for k := KindLiteral; k < maxKind; k++ {
		name := k.String()
		if name == "Error" {
			t.Fatalf("kind %d has no case name", k)
		}
		got, ok := KindByName(name)
		if !ok || got != k {
			t.Errorf("KindByName(%q) = %v, %v; want %v, true", name, got, ok, k)
		}
	}
}

func TestTupleSchemaRightNests(t *testing.T) {
	e := Tuple(Literal(values.Int(1), schema.Int), Literal(values.String("a"), schema.String), Literal(values.Bool(true), schema.Bool))
	s := e.Schema(nil)
	if s.Arity() != 3 {
		t.Fatalf("got arity %d, want 3", s.Arity())
	}
	want := schema.Pair(schema.Int, schema.Pair(schema.String, schema.Bool))
	if !s.Equal(want) {
		t.Errorf("got %v, want %v", s, want)
	}
}

func TestApplySchemaSubstitutesInputType(t *testing.T) {
	fresh := func() string { return "x" }
	fn := BuildFn(fresh, func(input *Expr) *Expr {
		return Add(NumericInt, input, Literal(values.Int(1), schema.Int))
	})
	app := Apply(fn, Literal(values.Int(41), schema.Int))
	if got := app.Schema(nil); !got.Equal(schema.Int) {
		t.Errorf("got %v, want int", got)
	}
}

func TestBranchSchemaRequiresAgreement(t *testing.T) {
	b := Branch(Literal(values.Bool(true), schema.Bool),
		Literal(values.Int(1), schema.Int),
		Literal(values.Int(2), schema.Int))
	if got := b.Schema(nil); !got.Equal(schema.Int) {
		t.Errorf("got %v, want int", got)
	}
	mismatched := Branch(Literal(values.Bool(true), schema.Bool),
		Literal(values.Int(1), schema.Int),
		Literal(values.String("x"), schema.String))
	if got := mismatched.Schema(nil); got.Kind != schema.FailKind {
		t.Errorf("expected Fail schema for mismatched branch arms, got %v", got)
	}
}

func TestEitherSchemas(t *testing.T) {
	l := EitherL(Literal(values.Int(1), schema.Int), schema.String)
	if got, want := l.Schema(nil), schema.Either(schema.Int, schema.String); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	swapped := SwapEither(l)
	if got, want := swapped.Schema(nil), schema.Either(schema.String, schema.Int); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLazyForceIsMemoized(t *testing.T) {
	calls := 0
	e := Lazy(func() *Expr {
		calls++
		return Literal(values.Int(1), schema.Int)
	})
	first := e.Force()
	second := e.Force()
	if first != second {
		t.Errorf("expected Force to return the same node on repeated calls")
	}
	if calls != 1 {
		t.Errorf("expected thunk to run exactly once, ran %d times", calls)
	}
}

func TestIsClosed(t *testing.T) {
	open := Variable("x")
	if open.IsClosed(nil) {
		t.Errorf("expected unbound variable to be open")
	}
	fn := EvaluatedFunction(Variable("x"), Variable("x"))
	if !fn.IsClosed(nil) {
		t.Errorf("expected function body to be closed by its own input")
	}
}

func TestDigestStableAndDistinguishesOperands(t *testing.T) {
	a := Add(NumericInt, Literal(values.Int(1), schema.Int), Literal(values.Int(2), schema.Int))
	b := Add(NumericInt, Literal(values.Int(1), schema.Int), Literal(values.Int(2), schema.Int))
	c := Add(NumericInt, Literal(values.Int(1), schema.Int), Literal(values.Int(3), schema.Int))
	if a.Digest() != b.Digest() {
		t.Errorf("expected structurally identical expressions to digest equal")
	}
	if a.Digest() == c.Digest() {
		t.Errorf("expected expressions with different operands to digest differently")
	}
}

func TestTupleAccessSchema(t *testing.T) {
	tup := Tuple(Literal(values.Int(1), schema.Int), Literal(values.String("a"), schema.String))
	if got := TupleAccess(tup, 1).Schema(nil); !got.Equal(schema.String) {
		t.Errorf("got %v, want string", got)
	}
	if got := TupleAccess(tup, 5).Schema(nil); got.Kind != schema.FailKind {
		t.Errorf("expected out-of-range access to yield a Fail schema, got %v", got)
	}
}
