// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package remotecontext

import (
	"testing"

	"github.com/grailbio/remoteflow/values"
)

func TestGetSetVariable(t *testing.T) {
	rc := New()
	if _, ok := rc.GetVariable("$v_1"); ok {
		t.Fatalf("expected absent variable to not be found")
	}
	rc.SetVariable("$v_1", values.Int(42))
	v, ok := rc.GetVariable("$v_1")
	if !ok {
		t.Fatalf("expected $v_1 to be bound")
	}
	if got, _ := v.Int32(); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestFreshNameNeverRepeats(t *testing.T) {
	rc := New()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n := rc.FreshName()
		if seen[n] {
			t.Fatalf("FreshName produced a repeated name: %s", n)
		}
		seen[n] = true
	}
}

type memStore struct {
	data map[string]values.DynamicValue
}

func (m *memStore) Get(name string) (values.DynamicValue, bool, error) {
	v, ok := m.data[name]
	return v, ok, nil
}

func (m *memStore) Set(name string, v values.DynamicValue) error {
	if m.data == nil {
		m.data = make(map[string]values.DynamicValue)
	}
	m.data[name] = v
	return nil
}

func TestCachedContextDelegatesToStore(t *testing.T) {
	store := &memStore{}
	rc := NewCached(store, 16)
	rc.SetVariable("x", values.String("hello"))
	if _, ok := store.data["x"]; !ok {
		t.Fatalf("expected SetVariable to reach the backing store")
	}
	// A second context sharing the same store sees the binding even
	// though its own cache is cold.
	other := NewCached(store, 16)
	v, ok := other.GetVariable("x")
	if !ok {
		t.Fatalf("expected cold cache to fall through to the store")
	}
	s, _ := v.String()
	if s != "hello" {
		t.Errorf("got %q, want hello", s)
	}
}
