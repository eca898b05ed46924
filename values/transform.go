// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"sync"

	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/schema"
)

// TransformFunc is one half of a schema.Transform bijection: a
// function from a DynamicValue well-formed against the transform's
// inner schema to one well-formed against the transform's outer
// (semantic) schema, or vice versa.
type TransformFunc func(DynamicValue) (DynamicValue, error)

// Bijection is a registered pair of transform functions. Transform
// functions are never serialized (spec §3.1): only the registered
// name travels on the wire, and the receiving process re-resolves
// the pair from this registry.
type Bijection struct {
	To   TransformFunc
	From TransformFunc
}

var (
	transformMu  sync.RWMutex
	transformTab = make(map[string]Bijection)
)

// RegisterTransform registers the named bijection. It panics if the
// name is already registered, mirroring the closed, compile-time
// nature of the rest of the expression algebra's registries (e.g.
// the Numeric/Fractional instance enums).
func RegisterTransform(name string, b Bijection) {
	transformMu.Lock()
	defer transformMu.Unlock()
	if _, ok := transformTab[name]; ok {
		panic("values: transform " + name + " already registered")
	}
	transformTab[name] = b
}

// LookupTransform resolves a registered bijection by name.
func LookupTransform(name string) (Bijection, error) {
	transformMu.RLock()
	defer transformMu.RUnlock()
	b, ok := transformTab[name]
	if !ok {
		return Bijection{}, errors.E("LookupTransform", name, errors.BadShape,
			errors.Errorf("no transform registered under name %q", name))
	}
	return b, nil
}

// ApplyTransformTo converts a DynamicValue well-formed against
// t.Inner into one well-formed against t (t.Kind must be
// schema.TransformKind).
func ApplyTransformTo(v DynamicValue, t *schema.T) (DynamicValue, error) {
	b, err := LookupTransform(t.Name)
	if err != nil {
		return DynamicValue{}, err
	}
	return b.To(v)
}

// ApplyTransformFrom converts a DynamicValue well-formed against t
// back into one well-formed against t.Inner.
func ApplyTransformFrom(v DynamicValue, t *schema.T) (DynamicValue, error) {
	b, err := LookupTransform(t.Name)
	if err != nil {
		return DynamicValue{}, err
	}
	return b.From(v)
}
