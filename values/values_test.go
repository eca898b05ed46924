// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"testing"

	"github.com/grailbio/remoteflow/schema"
)

func TestEqual(t *testing.T) {
	for _, c := range []struct {
		v, w DynamicValue
		want bool
	}{
		{Int(1), Int(1), true},
		{Int(1), Int(2), false},
		{String("a"), String("a"), true},
		{String("a"), String("b"), false},
		{NewSome(Int(3)), NewSome(Int(3)), true},
		{NewSome(Int(3)), NewNone(), false},
		{NewNone(), NewNone(), true},
		{NewLeft(Int(1)), NewRight(Int(1)), false},
		{NewTuple(Int(1), String("a"), Bool(true)), NewTuple(Int(1), String("a"), Bool(true)), true},
		{NewTuple(Int(1), String("a"), Bool(true)), NewTuple(Int(1), String("a"), Bool(false)), false},
		{Double(1.0), Double(1.00), true},
	} {
		if got := Equal(c.v, c.w); got != c.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", c.v, c.w, got, c.want)
		}
	}
}

func TestLess(t *testing.T) {
	if !Less(Int(1), Int(2), schema.Int) {
		t.Errorf("expected 1 < 2")
	}
	if Less(Int(2), Int(1), schema.Int) {
		t.Errorf("expected 2 !< 1")
	}
	s := schema.Option(schema.Int)
	if !Less(NewNone(), NewSome(Int(0)), s) {
		t.Errorf("expected None < Some(0)")
	}
	e := schema.Either(schema.String, schema.Int)
	if !Less(NewLeft(String("z")), NewRight(Int(0)), e) {
		t.Errorf("expected Left < Right regardless of payload")
	}
	tupS := schema.TupleN(schema.Int, schema.String)
	if !Less(NewTuple(Int(1), String("a")), NewTuple(Int(1), String("b")), tupS) {
		t.Errorf("expected lexicographic tuple ordering")
	}
}

func TestWellFormed(t *testing.T) {
	s := schema.TupleN(schema.Int, schema.Option(schema.String))
	v := NewTuple(Int(1), NewSome(String("hi")))
	if !WellFormed(v, s) {
		t.Errorf("expected %v to be well-formed against %v", v, s)
	}
	bad := NewTuple(Int(1), Int(2))
	if WellFormed(bad, s) {
		t.Errorf("expected %v to not be well-formed against %v", bad, s)
	}
}

func TestDigestDeterministicUnderMapReordering(t *testing.T) {
	s := schema.Map(schema.String, schema.Int)
	m1 := NewMap(schema.String, MapEntry{String("a"), Int(1)}, MapEntry{String("b"), Int(2)})
	m2 := NewMap(schema.String, MapEntry{String("b"), Int(2)}, MapEntry{String("a"), Int(1)})
	if Digest(m1, s) != Digest(m2, s) {
		t.Errorf("expected map digest to be independent of construction order")
	}
}

func TestCoerceRoundTrip(t *testing.T) {
	v := Long(42)
	i, err := v.Int64()
	if err != nil {
		t.Fatal(err)
	}
	if i != 42 {
		t.Errorf("got %d, want 42", i)
	}
	if _, err := v.String(); err == nil {
		t.Errorf("expected coercing a Long to String to fail")
	}
}

func TestSprint(t *testing.T) {
	s := schema.TupleN(schema.Int, schema.String)
	v := NewTuple(Int(7), String("x"))
	if got, want := Sprint(v, s), `(7, "x")`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
