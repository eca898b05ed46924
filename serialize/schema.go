// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package serialize implements the on-the-wire encoding of Expression
// trees and Schemas (spec §6.1): a tagged-sum JSON envelope
// {"case": Name, ...} keyed by the stable case names in package expr,
// plus a YAML sibling codec built on the same intermediate AST, in the
// manner of the teacher's dual JSON/YAML module-manifest codecs.
package serialize

import (
	"github.com/grailbio/remoteflow/schema"
)

// SchemaAST is the reified, directly (un)marshalable form of a
// schema.T. As with ExprAST, one generic struct serves every
// schema.Kind. A Transform is carried only by its inner schema and
// its registered name; its functions are never encoded.
type SchemaAST struct {
	Kind   string      `json:"kind" yaml:"kind"`
	Elem   *SchemaAST  `json:"elem,omitempty" yaml:"elem,omitempty"`
	Index  *SchemaAST  `json:"index,omitempty" yaml:"index,omitempty"`
	Left   *SchemaAST  `json:"left,omitempty" yaml:"left,omitempty"`
	Right  *SchemaAST  `json:"right,omitempty" yaml:"right,omitempty"`
	Fields []*FieldAST `json:"fields,omitempty" yaml:"fields,omitempty"`
	Name   string      `json:"name,omitempty" yaml:"name,omitempty"`
	Inner  *SchemaAST  `json:"inner,omitempty" yaml:"inner,omitempty"`
	Msg    string      `json:"msg,omitempty" yaml:"msg,omitempty"`
}

// FieldAST is a Tuple/Record/Enum field in SchemaAST form.
type FieldAST struct {
	Name string     `json:"name,omitempty" yaml:"name,omitempty"`
	Type *SchemaAST `json:"type" yaml:"type"`
}

// SchemaToAST reifies t into its wire form.
func SchemaToAST(t *schema.T) *SchemaAST {
	if t == nil {
		return nil
	}
	a := &SchemaAST{Kind: t.Kind.String(), Name: t.Name, Msg: t.Msg}
	a.Elem = SchemaToAST(t.Elem)
	a.Index = SchemaToAST(t.Index)
	a.Left = SchemaToAST(t.Left)
	a.Right = SchemaToAST(t.Right)
	a.Inner = SchemaToAST(t.Inner)
	for _, f := range t.Fields {
		a.Fields = append(a.Fields, &FieldAST{Name: f.Name, Type: SchemaToAST(f.T)})
	}
	return a
}

var schemaKindByName = map[string]schema.Kind{
	"fail": schema.FailKind, "unit": schema.UnitKind, "bool": schema.BoolKind,
	"byte": schema.ByteKind, "short": schema.ShortKind, "int": schema.IntKind,
	"long": schema.LongKind, "float": schema.FloatKind, "double": schema.DoubleKind,
	"bigdecimal": schema.BigDecimalKind, "char": schema.CharKind, "string": schema.StringKind,
	"instant": schema.InstantKind, "duration": schema.DurationKind, "chronounit": schema.ChronoUnitKind,
	"throwable": schema.ThrowableKind, "uri": schema.URIKind, "option": schema.OptionKind,
	"either": schema.EitherKind, "tuple": schema.TupleKind, "sequence": schema.SequenceKind,
	"map": schema.MapKind, "set": schema.SetKind, "record": schema.RecordKind,
	"enum": schema.EnumKind, "transform": schema.TransformKind,
}

// ASTToSchema reconstructs a schema.T from its wire form.
func ASTToSchema(a *SchemaAST) *schema.T {
	if a == nil {
		return nil
	}
	k, ok := schemaKindByName[a.Kind]
	if !ok {
		return schema.Fail("unrecognized schema kind " + a.Kind)
	}
	fields := make([]*schema.Field, len(a.Fields))
	for i, f := range a.Fields {
		fields[i] = &schema.Field{Name: f.Name, T: ASTToSchema(f.Type)}
	}
	switch k {
	case schema.FailKind:
		return schema.Fail(a.Msg)
	case schema.OptionKind:
		return schema.Option(ASTToSchema(a.Elem))
	case schema.EitherKind:
		return schema.Either(ASTToSchema(a.Left), ASTToSchema(a.Right))
	case schema.TupleKind:
		return &schema.T{Kind: schema.TupleKind, Fields: fields}
	case schema.SequenceKind:
		return schema.Sequence(ASTToSchema(a.Elem))
	case schema.MapKind:
		return schema.Map(ASTToSchema(a.Index), ASTToSchema(a.Elem))
	case schema.SetKind:
		return schema.Set(ASTToSchema(a.Elem))
	case schema.RecordKind:
		return schema.Record(a.Name, fields...)
	case schema.EnumKind:
		return schema.Enum(fields...)
	case schema.TransformKind:
		return schema.Transform(ASTToSchema(a.Inner), a.Name)
	default:
		return &schema.T{Kind: k}
	}
}
