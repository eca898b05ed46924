// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package schema contains data structures and algorithms for
// describing the shape of remote expression core values. A Schema
// describes a value structurally: which primitive it is, or how its
// composite shape is built out of other schemas. Schemas drive
// polymorphism (which tuple component, which numeric instance),
// equality, default ordering, and on-the-wire encoding of the values
// they describe.
//
// A Schema is one of:
//
//	unit bool byte short int long float double bigdecimal char string
//	instant duration chronounit throwable uri      a closed set of primitives
//	option<t>                                      the schema of an optional t
//	either<l, r>                                    the schema of a value that is either l or r
//	(t1, t2)                                        the schema of a right-nested pair (tuples of arity >2
//	                                                 are built by nesting: (t1, t2, t3) ≡ (t1, (t2, t3)))
//	[t]                                             the schema of a sequence of t
//	map[k]v                                         the schema of an association from k to v
//	set<t>                                          the schema of a set of t
//	record name{f1: t1, ..., fn: tn}                the schema of a named product
//	enum{c1: t1, ..., cn: tn}                       the schema of a tagged sum
//	transform<t, name>                              a semantic bijection layered on t, replayed by name
//	fail(msg)                                       the sentinel "no schema available"
//
// See package github.com/grailbio/remoteflow/values for the matching
// DynamicValue representation.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a schema's kind.
type Kind int

const (
	// FailKind is the sentinel "no schema available" kind.
	FailKind Kind = iota

	// Primitive kinds.
	UnitKind
	BoolKind
	ByteKind
	ShortKind
	IntKind
	LongKind
	FloatKind
	DoubleKind
	BigDecimalKind
	CharKind
	StringKind
	InstantKind
	DurationKind
	ChronoUnitKind
	ThrowableKind
	URIKind

	// Composite kinds.
	OptionKind
	EitherKind
	TupleKind
	SequenceKind
	MapKind
	SetKind
	RecordKind
	EnumKind
	TransformKind

	maxKind
)

var kindStrings = [maxKind]string{
	FailKind:       "fail",
	UnitKind:       "unit",
	BoolKind:       "bool",
	ByteKind:       "byte",
	ShortKind:      "short",
	IntKind:        "int",
	LongKind:       "long",
	FloatKind:      "float",
	DoubleKind:     "double",
	BigDecimalKind: "bigdecimal",
	CharKind:       "char",
	StringKind:     "string",
	InstantKind:    "instant",
	DurationKind:   "duration",
	ChronoUnitKind: "chronounit",
	ThrowableKind:  "throwable",
	URIKind:        "uri",
	OptionKind:     "option",
	EitherKind:     "either",
	TupleKind:      "tuple",
	SequenceKind:   "sequence",
	MapKind:        "map",
	SetKind:        "set",
	RecordKind:     "record",
	EnumKind:       "enum",
	TransformKind:  "transform",
}

func (k Kind) String() string {
	if k < 0 || k >= maxKind {
		return "unknown"
	}
	return kindStrings[k]
}

// IsPrimitive tells whether kind k is one of the closed set of
// primitive tags.
func (k Kind) IsPrimitive() bool {
	return k >= UnitKind && k <= URIKind
}

// A Field is a named, or positional, component of a Tuple, Record, or
// Enum schema.
type Field struct {
	// Name is the field's name. Empty for positional tuple fields.
	Name string
	T    *T
}

// Equal reports whether f is structurally equal to g.
func (f *Field) Equal(g *Field) bool {
	return f.Name == g.Name && f.T.Equal(g.T)
}

// A T is a remote expression core schema. The zero T is a FailKind
// schema with no message.
type T struct {
	// Kind is this schema's kind. See above.
	Kind Kind

	// Elem is the element schema for Option, Sequence, Set, and the
	// value schema for Map.
	Elem *T
	// Index is the key schema for Map.
	Index *T
	// Left and Right are the two sides of an Either schema.
	Left, Right *T

	// Fields holds Tuple positional fields (always length 2, the
	// canonical right-nested pair encoding) or Record/Enum named
	// fields.
	Fields []*Field

	// Name is the Record's name, or the registered bijection name for
	// a Transform schema.
	Name string
	// Inner is the wrapped schema for a Transform schema.
	Inner *T

	// Msg is the message carried by a Fail schema.
	Msg string
}

// Convenience values for primitive schemas.
var (
	Unit       = &T{Kind: UnitKind}
	Bool       = &T{Kind: BoolKind}
	Byte       = &T{Kind: ByteKind}
	Short      = &T{Kind: ShortKind}
	Int        = &T{Kind: IntKind}
	Long       = &T{Kind: LongKind}
	Float      = &T{Kind: FloatKind}
	Double     = &T{Kind: DoubleKind}
	BigDecimal = &T{Kind: BigDecimalKind}
	Char       = &T{Kind: CharKind}
	String     = &T{Kind: StringKind}
	Instant    = &T{Kind: InstantKind}
	Duration   = &T{Kind: DurationKind}
	ChronoUnit = &T{Kind: ChronoUnitKind}
	Throwable  = &T{Kind: ThrowableKind}
	URI        = &T{Kind: URIKind}
)

// Fail constructs the "no schema available" sentinel schema.
func Fail(msg string) *T {
	return &T{Kind: FailKind, Msg: msg}
}

// Option constructs the schema of an optional inner value.
func Option(inner *T) *T {
	return &T{Kind: OptionKind, Elem: inner}
}

// Either constructs the schema of a value that is either left or
// right.
func Either(left, right *T) *T {
	return &T{Kind: EitherKind, Left: left, Right: right}
}

// Pair constructs the schema of a 2-tuple (a, b). Larger tuples are
// built by right-nesting via TupleN.
func Pair(a, b *T) *T {
	return &T{Kind: TupleKind, Fields: []*Field{{T: a}, {T: b}}}
}

// TupleN constructs the canonical right-nested tuple schema for
// arity len(ts), 2 <= len(ts) <= 22: TupleN(a,b,c) == Pair(a,
// Pair(b, c)).
func TupleN(ts ...*T) *T {
	if len(ts) < 2 {
		panic("schema.TupleN: arity must be >= 2")
	}
	if len(ts) > 22 {
		panic("schema.TupleN: arity must be <= 22")
	}
	t := ts[len(ts)-1]
	for i := len(ts) - 2; i >= 0; i-- {
		t = Pair(ts[i], t)
	}
	return t
}

// Sequence constructs the schema of a sequence of elem.
func Sequence(elem *T) *T {
	return &T{Kind: SequenceKind, Elem: elem}
}

// Map constructs the schema of an association from index to elem.
func Map(index, elem *T) *T {
	return &T{Kind: MapKind, Index: index, Elem: elem}
}

// Set constructs the schema of a set of elem.
func Set(elem *T) *T {
	return &T{Kind: SetKind, Elem: elem}
}

// Record constructs a named-field product schema.
func Record(name string, fields ...*Field) *T {
	return &T{Kind: RecordKind, Name: name, Fields: fields}
}

// Enum constructs a tagged-sum schema from its cases.
func Enum(cases ...*Field) *T {
	return &T{Kind: EnumKind, Fields: cases}
}

// Transform wraps inner with a named, non-serialized bijection. The
// transform functions themselves are never carried by the schema;
// see the transform registry in package values (RegisterTransform,
// LookupTransform) for how receivers re-resolve them by name.
func Transform(inner *T, name string) *T {
	return &T{Kind: TransformKind, Inner: inner, Name: name}
}

// Unwrap strips any number of Transform layers, returning the
// innermost non-Transform schema.
func (t *T) Unwrap() *T {
	for t != nil && t.Kind == TransformKind {
		t = t.Inner
	}
	return t
}

// Field looks up a named field on a Record or Enum schema.
func (t *T) Field(name string) *T {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.T
		}
	}
	return Fail(fmt.Sprintf("field %q not found", name))
}

// Arity returns the number of positional fields in a right-nested
// tuple schema (2..22), or -1 if t is not a tuple.
func (t *T) Arity() int {
	t = t.Unwrap()
	if t.Kind != TupleKind {
		return -1
	}
	n := 0
	for t != nil && t.Kind == TupleKind {
		n++
		t = t.Fields[1].T
	}
	return n + 1
}

// Component returns the i'th (0-based) component schema of a
// right-nested tuple, descending and counting leaves left to right,
// or Fail if i is out of range.
func (t *T) Component(i int) *T {
	t = t.Unwrap()
	for {
		if t.Kind != TupleKind {
			return Fail(fmt.Sprintf("tuple index %d out of range", i))
		}
		if i == 0 {
			return t.Fields[0].T
		}
		rest := t.Fields[1].T
		if i == 1 && rest.Unwrap().Kind != TupleKind {
			return rest
		}
		i--
		t = rest.Unwrap()
	}
}

// FieldsString renders a parseable rendition of fields, used by
// String.
func FieldsString(fields []*Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			parts[i] = f.T.String()
		} else {
			parts[i] = f.Name + ": " + f.T.String()
		}
	}
	return strings.Join(parts, ", ")
}

// String renders a parseable version of schema t.
func (t *T) String() string {
	if t == nil {
		return "fail(<nil>)"
	}
	switch t.Kind {
	case FailKind:
		return fmt.Sprintf("fail(%s)", t.Msg)
	case OptionKind:
		return "option<" + t.Elem.String() + ">"
	case EitherKind:
		return "either<" + t.Left.String() + ", " + t.Right.String() + ">"
	case TupleKind:
		return "(" + FieldsString(t.Fields) + ")"
	case SequenceKind:
		return "[" + t.Elem.String() + "]"
	case MapKind:
		return "map[" + t.Index.String() + "]" + t.Elem.String()
	case SetKind:
		return "set<" + t.Elem.String() + ">"
	case RecordKind:
		return "record " + t.Name + "{" + FieldsString(t.Fields) + "}"
	case EnumKind:
		return "enum{" + FieldsString(t.Fields) + "}"
	case TransformKind:
		return "transform<" + t.Inner.String() + ", " + t.Name + ">"
	default:
		if t.Kind.IsPrimitive() {
			return t.Kind.String()
		}
		return "error"
	}
}

// Equal reports whether schema t is structurally equal to u: same
// shape and field/case names, ignoring the order of Record fields
// (Enum cases are compared in order), ignoring Transform functions (which
// aren't carried by the schema in the first place) but not ignoring
// the Transform's registered name.
func (t *T) Equal(u *T) bool {
	if t == nil || u == nil {
		return t == u
	}
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case FailKind:
		return true // Fail schemas compare equal regardless of message.
	case OptionKind, SequenceKind, SetKind:
		return t.Elem.Equal(u.Elem)
	case EitherKind:
		return t.Left.Equal(u.Left) && t.Right.Equal(u.Right)
	case MapKind:
		return t.Index.Equal(u.Index) && t.Elem.Equal(u.Elem)
	case TupleKind:
		return len(t.Fields) == len(u.Fields) &&
			t.Fields[0].T.Equal(u.Fields[0].T) && t.Fields[1].T.Equal(u.Fields[1].T)
	case RecordKind:
		if t.Name != u.Name || len(t.Fields) != len(u.Fields) {
			return false
		}
		for _, f := range t.Fields {
			found := false
			for _, g := range u.Fields {
				if f.Name == g.Name {
					found = f.T.Equal(g.T)
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case EnumKind:
		if len(t.Fields) != len(u.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(u.Fields[i]) {
				return false
			}
		}
		return true
	case TransformKind:
		return t.Name == u.Name && t.Inner.Equal(u.Inner)
	default:
		return true // equal-kind primitives are always equal
	}
}

// Less imposes the default total ordering over schemas of the same
// shape: lexicographic on tuples, by tag then payload on enums, by
// case index then payload on either/option. Schemas of differing
// kind are ordered by Kind. Less is only meaningful when comparing
// schemas that values are compared under; it does not itself compare
// values (see github.com/grailbio/remoteflow/values.Less for that).
func (t *T) Less(u *T) bool {
	t, u = t.Unwrap(), u.Unwrap()
	if t.Kind != u.Kind {
		return t.Kind < u.Kind
	}
	switch t.Kind {
	case OptionKind, SequenceKind, SetKind:
		return t.Elem.Less(u.Elem)
	case EitherKind:
		if !t.Left.Equal(u.Left) {
			return t.Left.Less(u.Left)
		}
		return t.Right.Less(u.Right)
	case MapKind:
		if !t.Index.Equal(u.Index) {
			return t.Index.Less(u.Index)
		}
		return t.Elem.Less(u.Elem)
	case TupleKind:
		if !t.Fields[0].T.Equal(u.Fields[0].T) {
			return t.Fields[0].T.Less(u.Fields[0].T)
		}
		return t.Fields[1].T.Less(u.Fields[1].T)
	case RecordKind, EnumKind:
		return recordLess(t, u)
	default:
		return false
	}
}

func recordLess(t, u *T) bool {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	for _, n := range names {
		tf, uf := t.Field(n), u.Field(n)
		if !tf.Equal(uf) {
			return tf.Less(uf)
		}
	}
	return false
}

// Copy returns a shallow copy of schema t.
func (t *T) Copy() *T {
	u := new(T)
	*u = *t
	if u.Fields != nil {
		u.Fields = make([]*Field, len(t.Fields))
		for i, f := range t.Fields {
			cp := *f
			u.Fields[i] = &cp
		}
	}
	return u
}
