// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package errors

import (
	"encoding/json"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := E("TupleAccess", "3", IndexOutOfRange)
	if got, want := err.Error(), "TupleAccess 3: index out of range"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestErrorChain(t *testing.T) {
	inner := E("getVariable", "$v_1", Unbound)
	outer := E("Apply", inner)
	if !Is(Unbound, outer) {
		t.Errorf("expected outer chain to contain Unbound")
	}
}

func TestErrorJSONRoundTrip(t *testing.T) {
	err := E("Div", ArithmeticError, New("division by zero"))
	b, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatal(jerr)
	}
	var round Error
	if jerr := json.Unmarshal(b, &round); jerr != nil {
		t.Fatal(jerr)
	}
	if round.Kind != ArithmeticError {
		t.Errorf("got kind %v, want %v", round.Kind, ArithmeticError)
	}
	if round.Op != "Div" {
		t.Errorf("got op %q, want Div", round.Op)
	}
}
