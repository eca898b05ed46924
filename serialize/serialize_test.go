// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package serialize

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/grailbio/remoteflow/expr"
	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

func buildSample() *expr.Expr {
	fresh := func() string { return "x" }
	fn := expr.BuildFn(fresh, func(input *expr.Expr) *expr.Expr {
		return expr.Add(expr.NumericInt, input, expr.Literal(values.Int(1), schema.Int))
	})
	return expr.Apply(fn, expr.Literal(values.Int(41), schema.Int))
}

func TestJSONRoundTrip(t *testing.T) {
	e := buildSample()
	b, err := MarshalJSON(e)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Digest() != e.Digest() {
		t.Errorf("round-tripped expression digests differently: got %v, want %v", got.Digest(), e.Digest())
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	e := buildSample()
	b, err := MarshalYAML(e)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalYAML(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Digest() != e.Digest() {
		t.Errorf("round-tripped expression digests differently: got %v, want %v", got.Digest(), e.Digest())
	}
}

func TestTupleRoundTrip(t *testing.T) {
	e := expr.Tuple(
		expr.Literal(values.Int(1), schema.Int),
		expr.Literal(values.String("a"), schema.String),
		expr.Literal(values.Bool(true), schema.Bool),
	)
	b, err := MarshalJSON(e)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Elems) != 3 {
		t.Fatalf("got %d elems, want 3", len(got.Elems))
	}
	if got.Digest() != e.Digest() {
		t.Errorf("round-tripped tuple digests differently")
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	s := schema.Record("Point", &schema.Field{Name: "x", T: schema.Int}, &schema.Field{Name: "y", T: schema.Int})
	b, err := MarshalSchemaJSON(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalSchemaJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("round-tripped schema differs (-want +got):\n%s", diff)
	}
}

func TestFlowCannotBeReconstructed(t *testing.T) {
	e := expr.Literal(values.Int(1), schema.Int)
	b, err := MarshalJSON(e)
	if err != nil {
		t.Fatal(err)
	}
	a := ExprToAST(e)
	a.Case = "Flow"
	a.FlowDigest = "deadbeef"
	_ = b
	if _, err := ASTToExpr(a); err == nil {
		t.Errorf("expected decoding a Flow case to fail")
	}
}
