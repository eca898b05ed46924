// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package schema

import "testing"

func TestEqualIgnoresFieldPositionButNotNames(t *testing.T) {
	a := Record("Point", &Field{Name: "x", T: Int}, &Field{Name: "y", T: Int})
	b := Record("Point", &Field{Name: "x", T: Int}, &Field{Name: "y", T: Int})
	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	d := Record("Point", &Field{Name: "y", T: Int}, &Field{Name: "x", T: Int})
	if !a.Equal(d) {
		t.Errorf("expected %v to equal %v regardless of field order", a, d)
	}
	c := Record("Point", &Field{Name: "x", T: Int}, &Field{Name: "z", T: Int})
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestTupleNRightNesting(t *testing.T) {
	tup := TupleN(String, Int, Bool)
	if got, want := tup.Arity(), 3; got != want {
		t.Fatalf("got arity %d, want %d", got, want)
	}
	if !tup.Component(0).Equal(String) {
		t.Errorf("component 0: got %v, want string", tup.Component(0))
	}
	if !tup.Component(1).Equal(Int) {
		t.Errorf("component 1: got %v, want int", tup.Component(1))
	}
	if !tup.Component(2).Equal(Bool) {
		t.Errorf("component 2: got %v, want bool", tup.Component(2))
	}
	if !tup.Component(3).Equal(Fail("")) {
		t.Errorf("component 3 should be a Fail schema, got %v", tup.Component(3))
	}
	if got := Pair(String, Pair(Int, Bool)); !tup.Equal(got) {
		t.Errorf("TupleN(a,b,c) should be Pair(a, Pair(b, c)): got %v, want %v", tup, got)
	}
}

func TestTransformIgnoresNothingButFunctions(t *testing.T) {
	a := Transform(Long, "epoch-millis")
	b := Transform(Long, "epoch-millis")
	if !a.Equal(b) {
		t.Errorf("expected equal transforms with same name to be equal")
	}
	c := Transform(Long, "epoch-seconds")
	if a.Equal(c) {
		t.Errorf("transforms with different registered names must not be equal")
	}
}

func TestFailAlwaysEqual(t *testing.T) {
	if !Fail("boom").Equal(Fail("kaboom")) {
		t.Errorf("Fail schemas should compare equal regardless of message")
	}
}

func TestLessOrdersByKindThenPayload(t *testing.T) {
	if !Int.Less(String) {
		t.Errorf("expected int < string by kind ordering")
	}
	if Option(Int).Less(Option(Int)) {
		t.Errorf("equal schemas must not be Less than themselves")
	}
}
