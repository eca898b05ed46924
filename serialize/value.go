// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package serialize

import (
	"github.com/grailbio/remoteflow/values"
)

// ValueAST is the reified wire form of a values.DynamicValue.
type ValueAST struct {
	Kind    string           `json:"kind" yaml:"kind"`
	Tag     string           `json:"tag,omitempty" yaml:"tag,omitempty"`
	Bytes   []byte           `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	A       *ValueAST        `json:"a,omitempty" yaml:"a,omitempty"`
	B       *ValueAST        `json:"b,omitempty" yaml:"b,omitempty"`
	Elems   []*ValueAST      `json:"elems,omitempty" yaml:"elems,omitempty"`
	Entries []*EntryAST      `json:"entries,omitempty" yaml:"entries,omitempty"`
	Name    string           `json:"name,omitempty" yaml:"name,omitempty"`
	Fields  []*FieldValueAST `json:"fields,omitempty" yaml:"fields,omitempty"`
	Case    string           `json:"case,omitempty" yaml:"case,omitempty"`
	Payload *ValueAST        `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// EntryAST is one MapShape key-value entry in ValueAST form.
type EntryAST struct {
	Key   *ValueAST `json:"key" yaml:"key"`
	Value *ValueAST `json:"value" yaml:"value"`
}

// FieldValueAST is one RecordShape field in ValueAST form.
type FieldValueAST struct {
	Name  string    `json:"name" yaml:"name"`
	Value *ValueAST `json:"value" yaml:"value"`
}

var valueKindNames = map[values.Kind]string{
	values.Primitive:   "primitive",
	values.Some:        "some",
	values.None:        "none",
	values.Left:        "left",
	values.Right:       "right",
	values.Pair:        "pair",
	values.Sequence:    "sequence",
	values.MapShape:    "map",
	values.SetShape:    "set",
	values.RecordShape: "record",
	values.EnumShape:   "enum",
}

var valueKindByName = map[string]values.Kind{
	"primitive": values.Primitive,
	"some":      values.Some,
	"none":      values.None,
	"left":      values.Left,
	"right":     values.Right,
	"pair":      values.Pair,
	"sequence":  values.Sequence,
	"map":       values.MapShape,
	"set":       values.SetShape,
	"record":    values.RecordShape,
	"enum":      values.EnumShape,
}

// ValueToAST reifies v into its wire form.
func ValueToAST(v values.DynamicValue) *ValueAST {
	a := &ValueAST{Kind: valueKindNames[v.Kind], Name: v.Name, Case: v.Case}
	switch v.Kind {
	case values.Primitive:
		a.Tag = tagName(v.Tag)
		a.Bytes = v.Bytes
	case values.Some, values.Left, values.Right:
		a.A = ValueToAST(*v.A)
	case values.Pair:
		a.A = ValueToAST(*v.A)
		a.B = ValueToAST(*v.B)
	case values.Sequence, values.SetShape:
		for _, e := range v.Elems {
			a.Elems = append(a.Elems, ValueToAST(e))
		}
	case values.MapShape:
		for _, e := range v.Entries {
			a.Entries = append(a.Entries, &EntryAST{Key: ValueToAST(e.Key), Value: ValueToAST(e.Value)})
		}
	case values.RecordShape:
		for _, f := range v.Fields {
			a.Fields = append(a.Fields, &FieldValueAST{Name: f.Name, Value: ValueToAST(f.Value)})
		}
	case values.EnumShape:
		a.Payload = ValueToAST(*v.Payload)
	}
	return a
}

// ASTToValue reconstructs a values.DynamicValue from its wire form.
func ASTToValue(a *ValueAST) values.DynamicValue {
	if a == nil {
		return values.DynamicValue{}
	}
	k := valueKindByName[a.Kind]
	switch k {
	case values.Primitive:
		return values.DynamicValue{Kind: values.Primitive, Tag: tagKind(a.Tag), Bytes: a.Bytes}
	case values.Some:
		v := ASTToValue(a.A)
		return values.NewSome(v)
	case values.None:
		return values.NewNone()
	case values.Left:
		return values.NewLeft(ASTToValue(a.A))
	case values.Right:
		return values.NewRight(ASTToValue(a.A))
	case values.Pair:
		return values.NewPair(ASTToValue(a.A), ASTToValue(a.B))
	case values.Sequence:
		elems := make([]values.DynamicValue, len(a.Elems))
		for i, e := range a.Elems {
			elems[i] = ASTToValue(e)
		}
		return values.NewSequence(elems...)
	case values.SetShape:
		elems := make([]values.DynamicValue, len(a.Elems))
		for i, e := range a.Elems {
			elems[i] = ASTToValue(e)
		}
		return values.DynamicValue{Kind: values.SetShape, Elems: elems}
	case values.MapShape:
		entries := make([]values.MapEntry, len(a.Entries))
		for i, e := range a.Entries {
			entries[i] = values.MapEntry{Key: ASTToValue(e.Key), Value: ASTToValue(e.Value)}
		}
		return values.DynamicValue{Kind: values.MapShape, Entries: entries}
	case values.RecordShape:
		fields := make([]values.Field, len(a.Fields))
		for i, f := range a.Fields {
			fields[i] = values.Field{Name: f.Name, Value: ASTToValue(f.Value)}
		}
		return values.NewRecord(a.Name, fields...)
	case values.EnumShape:
		return values.NewEnum(a.Case, ASTToValue(a.Payload))
	default:
		return values.DynamicValue{}
	}
}
