// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package values defines DynamicValue, the schema-tagged, tree-shaped
// runtime value that is the evaluator's output carrier (spec §3.2),
// and SchemaAndValue, the uniform evaluation result and round-trip
// unit of serialization (spec §3.3).
//
// A DynamicValue mirrors the shape of a github.com/grailbio/remoteflow/schema.T:
// every composite schema kind has a matching DynamicValue kind, and a
// DynamicValue is well-formed against a schema iff its shape matches
// the schema recursively, after stripping Transform layers.
package values

import (
	"crypto" // The SHA-256 implementation is required for this package's Digester.
	_ "crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/base/digest"
	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/schema"
)

// Digester is the digester used to compute value digests.
var Digester = digest.Digester(crypto.SHA256)

// Kind is the kind of a DynamicValue's shape.
type Kind int

const (
	// Primitive holds an encoded primitive value tagged by a
	// schema.Kind (one of the closed primitive set).
	Primitive Kind = iota
	// Some and None are the two Option shapes.
	Some
	None
	// Left and Right are the two Either shapes.
	Left
	Right
	// Pair is the canonical right-nested 2-tuple shape; larger
	// tuples are pairs of pairs.
	Pair
	// Sequence is an ordered list of elements.
	Sequence
	// MapShape is an association of key-value entries.
	MapShape
	// SetShape is an unordered collection of distinct elements,
	// represented canonically in sorted-by-digest order.
	SetShape
	// RecordShape is a named-field product.
	RecordShape
	// EnumShape is a tagged sum: one case name plus its payload.
	EnumShape
)

// MapEntry is one key-value entry of a MapShape DynamicValue.
type MapEntry struct {
	Key   DynamicValue
	Value DynamicValue
}

// Field is one named field of a RecordShape DynamicValue.
type Field struct {
	Name  string
	Value DynamicValue
}

// DynamicValue is a schema-tagged, tree-shaped runtime value. The
// zero DynamicValue is a Primitive whose Tag is schema.FailKind, not
// the Unit primitive (that is the Unit variable).
type DynamicValue struct {
	Kind Kind

	// Primitive.
	Bytes []byte
	Tag   schema.Kind

	// Some/Left/Right/Pair first operand.
	A *DynamicValue
	// Pair second operand.
	B *DynamicValue

	// Sequence/SetShape.
	Elems []DynamicValue
	// MapShape.
	Entries []MapEntry

	// RecordShape.
	Name   string
	Fields []Field

	// EnumShape.
	Case    string
	Payload *DynamicValue
}

// SchemaAndValue is the pair (schema, value) returned by the
// evaluator: the uniform evaluation result (spec §3.3).
type SchemaAndValue struct {
	Schema *schema.T
	Value  DynamicValue
}

// Unit is the unit DynamicValue.
var Unit = DynamicValue{Kind: Primitive, Tag: schema.UnitKind}

// --- Constructors ---

// Bool constructs a Bool primitive DynamicValue.
func Bool(b bool) DynamicValue {
	by := []byte{0}
	if b {
		by[0] = 1
	}
	return DynamicValue{Kind: Primitive, Tag: schema.BoolKind, Bytes: by}
}

// Byte constructs a Byte primitive DynamicValue.
func Byte(b byte) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.ByteKind, Bytes: []byte{b}}
}

// Short constructs a Short primitive DynamicValue.
func Short(s int16) DynamicValue {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(s))
	return DynamicValue{Kind: Primitive, Tag: schema.ShortKind, Bytes: b[:]}
}

// Int constructs an Int (32-bit) primitive DynamicValue.
func Int(i int32) DynamicValue {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(i))
	return DynamicValue{Kind: Primitive, Tag: schema.IntKind, Bytes: b[:]}
}

// Long constructs a Long (64-bit) primitive DynamicValue.
func Long(i int64) DynamicValue {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return DynamicValue{Kind: Primitive, Tag: schema.LongKind, Bytes: b[:]}
}

// BigInt constructs a Long-tagged DynamicValue from an arbitrary
// precision integer, used by the BigInt numeric instance.
func BigInt(i *big.Int) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.LongKind, Bytes: []byte(i.String())}
}

// Float constructs a Float (32-bit) primitive DynamicValue.
func Float(f float32) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.FloatKind, Bytes: []byte(strconv.FormatFloat(float64(f), 'g', -1, 32))}
}

// Double constructs a Double (64-bit) primitive DynamicValue.
func Double(f float64) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.DoubleKind, Bytes: []byte(strconv.FormatFloat(f, 'g', -1, 64))}
}

// BigDecimal constructs a BigDecimal primitive DynamicValue from an
// arbitrary precision decimal rendered as a big.Float.
func BigDecimal(f *big.Float) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.BigDecimalKind, Bytes: []byte(f.Text('e', -1))}
}

// Char constructs a Char primitive DynamicValue.
func Char(r rune) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.CharKind, Bytes: []byte(string(r))}
}

// String constructs a String primitive DynamicValue.
func String(s string) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.StringKind, Bytes: []byte(s)}
}

// Instant constructs an Instant primitive DynamicValue from a Unix
// (seconds, nanoseconds) pair.
func Instant(sec int64, nsec int32) DynamicValue {
	var b [12]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(sec))
	binary.BigEndian.PutUint32(b[8:12], uint32(nsec))
	return DynamicValue{Kind: Primitive, Tag: schema.InstantKind, Bytes: b[:]}
}

// Duration constructs a Duration primitive DynamicValue from a
// (seconds, nanosecond-adjustment) pair.
func Duration(sec int64, nsec int32) DynamicValue {
	var b [12]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(sec))
	binary.BigEndian.PutUint32(b[8:12], uint32(nsec))
	return DynamicValue{Kind: Primitive, Tag: schema.DurationKind, Bytes: b[:]}
}

// ChronoUnit constructs a ChronoUnit primitive DynamicValue, e.g.
// "Seconds", "Days".
func ChronoUnit(unit string) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.ChronoUnitKind, Bytes: []byte(unit)}
}

// Throwable constructs a Throwable primitive DynamicValue carrying a
// rendered error message.
func Throwable(msg string) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.ThrowableKind, Bytes: []byte(msg)}
}

// URI constructs a URI primitive DynamicValue.
func URI(uri string) DynamicValue {
	return DynamicValue{Kind: Primitive, Tag: schema.URIKind, Bytes: []byte(uri)}
}

// NewSome wraps v in a Some DynamicValue.
func NewSome(v DynamicValue) DynamicValue {
	return DynamicValue{Kind: Some, A: &v}
}

// NewNone constructs a None DynamicValue.
func NewNone() DynamicValue {
	return DynamicValue{Kind: None}
}

// NewLeft wraps v in a Left DynamicValue.
func NewLeft(v DynamicValue) DynamicValue {
	return DynamicValue{Kind: Left, A: &v}
}

// NewRight wraps v in a Right DynamicValue.
func NewRight(v DynamicValue) DynamicValue {
	return DynamicValue{Kind: Right, A: &v}
}

// NewPair constructs the canonical right-nested 2-tuple shape.
func NewPair(a, b DynamicValue) DynamicValue {
	return DynamicValue{Kind: Pair, A: &a, B: &b}
}

// NewTuple constructs the canonical right-nested tuple DynamicValue
// for arity len(vs), mirroring schema.TupleN.
func NewTuple(vs ...DynamicValue) DynamicValue {
	if len(vs) < 2 {
		panic("values.NewTuple: arity must be >= 2")
	}
	v := vs[len(vs)-1]
	for i := len(vs) - 2; i >= 0; i-- {
		v = NewPair(vs[i], v)
	}
	return v
}

// NewSequence constructs a Sequence DynamicValue.
func NewSequence(elems ...DynamicValue) DynamicValue {
	return DynamicValue{Kind: Sequence, Elems: elems}
}

// NewSet constructs a SetShape DynamicValue in canonical
// sorted-by-digest order, given the element schema used to compute
// digests.
func NewSet(elemSchema *schema.T, elems ...DynamicValue) DynamicValue {
	cp := append([]DynamicValue(nil), elems...)
	sort.Slice(cp, func(i, j int) bool {
		return Digest(cp[i], elemSchema).Less(Digest(cp[j], elemSchema))
	})
	return DynamicValue{Kind: SetShape, Elems: cp}
}

// NewMap constructs a MapShape DynamicValue in canonical
// sorted-by-key-digest order.
func NewMap(keySchema *schema.T, entries ...MapEntry) DynamicValue {
	cp := append([]MapEntry(nil), entries...)
	sort.Slice(cp, func(i, j int) bool {
		return Digest(cp[i].Key, keySchema).Less(Digest(cp[j].Key, keySchema))
	})
	return DynamicValue{Kind: MapShape, Entries: cp}
}

// NewRecord constructs a RecordShape DynamicValue.
func NewRecord(name string, fields ...Field) DynamicValue {
	return DynamicValue{Kind: RecordShape, Name: name, Fields: fields}
}

// NewEnum constructs an EnumShape DynamicValue.
func NewEnum(caseName string, payload DynamicValue) DynamicValue {
	return DynamicValue{Kind: EnumShape, Case: caseName, Payload: &payload}
}

// --- Well-formedness / coercion ---

// WellFormed reports whether v's shape matches schema s recursively,
// after stripping Transform layers (spec §3.2).
func WellFormed(v DynamicValue, s *schema.T) bool {
	s = s.Unwrap()
	switch s.Kind {
	case schema.FailKind:
		return false
	case schema.OptionKind:
		switch v.Kind {
		case None:
			return true
		case Some:
			return WellFormed(*v.A, s.Elem)
		}
		return false
	case schema.EitherKind:
		switch v.Kind {
		case Left:
			return WellFormed(*v.A, s.Left)
		case Right:
			return WellFormed(*v.A, s.Right)
		}
		return false
	case schema.TupleKind:
		return v.Kind == Pair && WellFormed(*v.A, s.Fields[0].T) && WellFormed(*v.B, s.Fields[1].T)
	case schema.SequenceKind:
		if v.Kind != Sequence {
			return false
		}
		for _, e := range v.Elems {
			if !WellFormed(e, s.Elem) {
				return false
			}
		}
		return true
	case schema.SetKind:
		if v.Kind != SetShape {
			return false
		}
		for _, e := range v.Elems {
			if !WellFormed(e, s.Elem) {
				return false
			}
		}
		return true
	case schema.MapKind:
		if v.Kind != MapShape {
			return false
		}
		for _, e := range v.Entries {
			if !WellFormed(e.Key, s.Index) || !WellFormed(e.Value, s.Elem) {
				return false
			}
		}
		return true
	case schema.RecordKind:
		if v.Kind != RecordShape || v.Name != s.Name || len(v.Fields) != len(s.Fields) {
			return false
		}
		for _, sf := range s.Fields {
			found := false
			for _, vf := range v.Fields {
				if vf.Name == sf.Name {
					found = true
					if !WellFormed(vf.Value, sf.T) {
						return false
					}
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case schema.EnumKind:
		if v.Kind != EnumShape {
			return false
		}
		for _, c := range s.Fields {
			if c.Name == v.Case {
				return WellFormed(*v.Payload, c.T)
			}
		}
		return false
	default:
		return v.Kind == Primitive && v.Tag == s.Kind
	}
}

// CoerceError returns the BadShape error used whenever a
// DynamicValue does not match its carrying schema.
func CoerceError(op string, v DynamicValue, s *schema.T) error {
	return errors.E(op, errors.BadShape, errors.Errorf("value %+v does not match schema %v", v, s))
}

// String decodes a String primitive DynamicValue.
func (v DynamicValue) String() (string, error) {
	if v.Kind != Primitive || v.Tag != schema.StringKind {
		return "", CoerceError("String", v, schema.String)
	}
	return string(v.Bytes), nil
}

// Bool decodes a Bool primitive DynamicValue.
func (v DynamicValue) Bool() (bool, error) {
	if v.Kind != Primitive || v.Tag != schema.BoolKind || len(v.Bytes) != 1 {
		return false, CoerceError("Bool", v, schema.Bool)
	}
	return v.Bytes[0] != 0, nil
}

// Int32 decodes an Int primitive DynamicValue.
func (v DynamicValue) Int32() (int32, error) {
	if v.Kind != Primitive || v.Tag != schema.IntKind || len(v.Bytes) != 4 {
		return 0, CoerceError("Int32", v, schema.Int)
	}
	return int32(binary.BigEndian.Uint32(v.Bytes)), nil
}

// Int64 decodes a Long primitive DynamicValue.
func (v DynamicValue) Int64() (int64, error) {
	if v.Kind != Primitive || v.Tag != schema.LongKind {
		return 0, CoerceError("Int64", v, schema.Long)
	}
	if len(v.Bytes) == 8 {
		return int64(binary.BigEndian.Uint64(v.Bytes)), nil
	}
	i, ok := new(big.Int).SetString(string(v.Bytes), 10)
	if !ok {
		return 0, CoerceError("Int64", v, schema.Long)
	}
	return i.Int64(), nil
}

// BigInt decodes a Long-tagged DynamicValue as an arbitrary precision
// integer.
func (v DynamicValue) BigInt() (*big.Int, error) {
	if v.Kind != Primitive || v.Tag != schema.LongKind {
		return nil, CoerceError("BigInt", v, schema.Long)
	}
	if len(v.Bytes) == 8 {
		return big.NewInt(int64(binary.BigEndian.Uint64(v.Bytes))), nil
	}
	i, ok := new(big.Int).SetString(string(v.Bytes), 10)
	if !ok {
		return nil, CoerceError("BigInt", v, schema.Long)
	}
	return i, nil
}

// Float32 decodes a Float primitive DynamicValue.
func (v DynamicValue) Float32() (float32, error) {
	if v.Kind != Primitive || v.Tag != schema.FloatKind {
		return 0, CoerceError("Float32", v, schema.Float)
	}
	f, err := strconv.ParseFloat(string(v.Bytes), 32)
	if err != nil {
		return 0, CoerceError("Float32", v, schema.Float)
	}
	return float32(f), nil
}

// Float64 decodes a Double primitive DynamicValue.
func (v DynamicValue) Float64() (float64, error) {
	if v.Kind != Primitive || v.Tag != schema.DoubleKind {
		return 0, CoerceError("Float64", v, schema.Double)
	}
	f, err := strconv.ParseFloat(string(v.Bytes), 64)
	if err != nil {
		return 0, CoerceError("Float64", v, schema.Double)
	}
	return f, nil
}

// BigFloat decodes a BigDecimal primitive DynamicValue.
func (v DynamicValue) BigFloat() (*big.Float, error) {
	if v.Kind != Primitive || v.Tag != schema.BigDecimalKind {
		return nil, CoerceError("BigFloat", v, schema.BigDecimal)
	}
	f, _, err := big.ParseFloat(string(v.Bytes), 10, 200, big.ToNearestEven)
	if err != nil {
		return nil, CoerceError("BigFloat", v, schema.BigDecimal)
	}
	return f, nil
}

// InstantParts decodes an Instant primitive DynamicValue into
// (epoch-seconds, nanosecond-of-second).
func (v DynamicValue) InstantParts() (int64, int32, error) {
	if v.Kind != Primitive || v.Tag != schema.InstantKind || len(v.Bytes) != 12 {
		return 0, 0, CoerceError("InstantParts", v, schema.Instant)
	}
	return int64(binary.BigEndian.Uint64(v.Bytes[0:8])), int32(binary.BigEndian.Uint32(v.Bytes[8:12])), nil
}

// DurationParts decodes a Duration primitive DynamicValue into
// (seconds, nanosecond-adjustment).
func (v DynamicValue) DurationParts() (int64, int32, error) {
	if v.Kind != Primitive || v.Tag != schema.DurationKind || len(v.Bytes) != 12 {
		return 0, 0, CoerceError("DurationParts", v, schema.Duration)
	}
	return int64(binary.BigEndian.Uint64(v.Bytes[0:8])), int32(binary.BigEndian.Uint32(v.Bytes[8:12])), nil
}

// AsDuration decodes a Duration primitive DynamicValue as a
// time.Duration, losing sub-nanosecond-adjustment precision beyond
// what time.Duration can represent (same caveat as time.Duration
// itself).
func (v DynamicValue) AsDuration() (time.Duration, error) {
	sec, nsec, err := v.DurationParts()
	if err != nil {
		return 0, err
	}
	return time.Duration(sec)*time.Second + time.Duration(nsec)*time.Nanosecond, nil
}

// AsTime decodes an Instant primitive DynamicValue as a time.Time in
// UTC.
func (v DynamicValue) AsTime() (time.Time, error) {
	sec, nsec, err := v.InstantParts()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, int64(nsec)).UTC(), nil
}

// Pair decodes a Pair DynamicValue into its two components.
func (v DynamicValue) Pair() (DynamicValue, DynamicValue, error) {
	if v.Kind != Pair {
		return DynamicValue{}, DynamicValue{}, CoerceError("Pair", v, schema.Pair(schema.Fail(""), schema.Fail("")))
	}
	return *v.A, *v.B, nil
}

// --- Equality and ordering ---

// Equal tells whether values v and w are structurally equal.
func Equal(v, w DynamicValue) bool {
	if v.Kind != w.Kind {
		return false
	}
	switch v.Kind {
	case Primitive:
		return v.Tag == w.Tag && equalPrimitiveBytes(v, w)
	case None:
		return true
	case Some, Left, Right:
		return Equal(*v.A, *w.A)
	case Pair:
		return Equal(*v.A, *w.A) && Equal(*v.B, *w.B)
	case Sequence:
		if len(v.Elems) != len(w.Elems) {
			return false
		}
		for i := range v.Elems {
			if !Equal(v.Elems[i], w.Elems[i]) {
				return false
			}
		}
		return true
	case SetShape:
		if len(v.Elems) != len(w.Elems) {
			return false
		}
		for i := range v.Elems {
			if !Equal(v.Elems[i], w.Elems[i]) {
				return false
			}
		}
		return true
	case MapShape:
		if len(v.Entries) != len(w.Entries) {
			return false
		}
		for i := range v.Entries {
			if !Equal(v.Entries[i].Key, w.Entries[i].Key) || !Equal(v.Entries[i].Value, w.Entries[i].Value) {
				return false
			}
		}
		return true
	case RecordShape:
		if v.Name != w.Name || len(v.Fields) != len(w.Fields) {
			return false
		}
		wf := w.FieldMap()
		for _, f := range v.Fields {
			if other, ok := wf[f.Name]; !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	case EnumShape:
		return v.Case == w.Case && Equal(*v.Payload, *w.Payload)
	default:
		return false
	}
}

func equalPrimitiveBytes(v, w DynamicValue) bool {
	// Float/double/bigdecimal compare by parsed value, not byte
	// representation, so that "1" and "1.0" (both legal renderings)
	// are considered equal.
	switch v.Tag {
	case schema.FloatKind, schema.DoubleKind, schema.BigDecimalKind:
		vf, _, verr := big.ParseFloat(string(v.Bytes), 10, 200, big.ToNearestEven)
		wf, _, werr := big.ParseFloat(string(w.Bytes), 10, 200, big.ToNearestEven)
		if verr != nil || werr != nil {
			return string(v.Bytes) == string(w.Bytes)
		}
		return vf.Cmp(wf) == 0
	default:
		return string(v.Bytes) == string(w.Bytes)
	}
}

// FieldMap returns a RecordShape DynamicValue's fields as a map.
func (v DynamicValue) FieldMap() map[string]DynamicValue {
	m := make(map[string]DynamicValue, len(v.Fields))
	for _, f := range v.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// Less tells whether value v is less than w under schema s's default
// ordering (spec §3.1): lexicographic on tuples, by tag then payload
// on enums, by case index then payload on either/option.
func Less(v, w DynamicValue, s *schema.T) bool {
	s = s.Unwrap()
	switch s.Kind {
	case schema.OptionKind:
		if v.Kind == None {
			return w.Kind == Some
		}
		if w.Kind == None {
			return false
		}
		return Less(*v.A, *w.A, s.Elem)
	case schema.EitherKind:
		if v.Kind == Left && w.Kind == Right {
			return true
		}
		if v.Kind == Right && w.Kind == Left {
			return false
		}
		if v.Kind == Left {
			return Less(*v.A, *w.A, s.Left)
		}
		return Less(*v.A, *w.A, s.Right)
	case schema.TupleKind:
		if !Equal(*v.A, *w.A) {
			return Less(*v.A, *w.A, s.Fields[0].T)
		}
		return Less(*v.B, *w.B, s.Fields[1].T)
	case schema.SequenceKind:
		if len(v.Elems) != len(w.Elems) {
			return len(v.Elems) < len(w.Elems)
		}
		for i := range v.Elems {
			if !Equal(v.Elems[i], w.Elems[i]) {
				return Less(v.Elems[i], w.Elems[i], s.Elem)
			}
		}
		return false
	case schema.SetKind:
		if len(v.Elems) != len(w.Elems) {
			return len(v.Elems) < len(w.Elems)
		}
		for i := range v.Elems {
			if !Equal(v.Elems[i], w.Elems[i]) {
				return Less(v.Elems[i], w.Elems[i], s.Elem)
			}
		}
		return false
	case schema.MapKind:
		if len(v.Entries) != len(w.Entries) {
			return len(v.Entries) < len(w.Entries)
		}
		for i := range v.Entries {
			if !Equal(v.Entries[i].Key, w.Entries[i].Key) {
				return Less(v.Entries[i].Key, w.Entries[i].Key, s.Index)
			}
			if !Equal(v.Entries[i].Value, w.Entries[i].Value) {
				return Less(v.Entries[i].Value, w.Entries[i].Value, s.Elem)
			}
		}
		return false
	case schema.RecordKind:
		names := fieldNames(s)
		vf, wf := v.FieldMap(), w.FieldMap()
		for _, n := range names {
			if !Equal(vf[n], wf[n]) {
				return Less(vf[n], wf[n], s.Field(n))
			}
		}
		return false
	case schema.EnumKind:
		vi, wi := caseIndex(s, v.Case), caseIndex(s, w.Case)
		if vi != wi {
			return vi < wi
		}
		return Less(*v.Payload, *w.Payload, s.Field(v.Case))
	default:
		return lessPrimitive(v, w)
	}
}

func fieldNames(s *schema.T) []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

func caseIndex(s *schema.T, name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func lessPrimitive(v, w DynamicValue) bool {
	switch v.Tag {
	case schema.BoolKind:
		vb, _ := v.Bool()
		wb, _ := w.Bool()
		return !vb && wb
	case schema.FloatKind, schema.DoubleKind, schema.BigDecimalKind:
		vf, _, _ := big.ParseFloat(string(v.Bytes), 10, 200, big.ToNearestEven)
		wf, _, _ := big.ParseFloat(string(w.Bytes), 10, 200, big.ToNearestEven)
		if vf == nil || wf == nil {
			return string(v.Bytes) < string(w.Bytes)
		}
		return vf.Cmp(wf) < 0
	case schema.ByteKind, schema.ShortKind, schema.IntKind, schema.LongKind:
		vi, _ := v.BigInt()
		wi, _ := w.BigInt()
		if vi == nil || wi == nil {
			return string(v.Bytes) < string(w.Bytes)
		}
		return vi.Cmp(wi) < 0
	default:
		return string(v.Bytes) < string(w.Bytes)
	}
}

// --- Pretty printing ---

// Sprint returns a pretty-printed version of value v with schema s.
func Sprint(v DynamicValue, s *schema.T) string {
	s = s.Unwrap()
	switch v.Kind {
	case Primitive:
		return sprintPrimitive(v)
	case None:
		return "None"
	case Some:
		return "Some(" + Sprint(*v.A, s.Elem) + ")"
	case Left:
		return "Left(" + Sprint(*v.A, s.Left) + ")"
	case Right:
		return "Right(" + Sprint(*v.A, s.Right) + ")"
	case Pair:
		return "(" + Sprint(*v.A, s.Fields[0].T) + ", " + Sprint(*v.B, s.Fields[1].T) + ")"
	case Sequence:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = Sprint(e, s.Elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case SetShape:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = Sprint(e, s.Elem)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case MapShape:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = Sprint(e.Key, s.Index) + ": " + Sprint(e.Value, s.Elem)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case RecordShape:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, Sprint(f.Value, s.Field(f.Name)))
		}
		return fmt.Sprintf("%s{%s}", v.Name, strings.Join(parts, ", "))
	case EnumShape:
		return fmt.Sprintf("%s(%s)", v.Case, Sprint(*v.Payload, s.Field(v.Case)))
	default:
		return "<?>"
	}
}

func sprintPrimitive(v DynamicValue) string {
	switch v.Tag {
	case schema.UnitKind:
		return "()"
	case schema.StringKind, schema.CharKind, schema.ChronoUnitKind, schema.ThrowableKind, schema.URIKind:
		return fmt.Sprintf("%q", string(v.Bytes))
	case schema.BoolKind:
		b, _ := v.Bool()
		if b {
			return "true"
		}
		return "false"
	case schema.InstantKind:
		sec, nsec, _ := v.InstantParts()
		return fmt.Sprintf("instant(%d, %d)", sec, nsec)
	case schema.DurationKind:
		sec, nsec, _ := v.DurationParts()
		return fmt.Sprintf("duration(%d, %d)", sec, nsec)
	case schema.IntKind:
		i, _ := v.Int32()
		return strconv.FormatInt(int64(i), 10)
	case schema.LongKind:
		if i, err := v.BigInt(); err == nil {
			return i.String()
		}
		return string(v.Bytes)
	default:
		return string(v.Bytes)
	}
}

// --- Digesting ---

func must(n int, err error) {
	if err != nil {
		panic(err)
	}
}

func writeLength(w io.Writer, n int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	must(w.Write(b[:]))
}

// Digest computes the digest for value v given schema s.
func Digest(v DynamicValue, s *schema.T) digest.Digest {
	w := Digester.NewWriter()
	WriteDigest(w, v, s)
	return w.Digest()
}

// WriteDigest writes digest material for value v (given schema s)
// into writer w. Sequences, maps and sets are all digested in their
// stored entry order; maps and sets built with NewMap and NewSet are
// stored sorted, which makes their digests independent of
// construction order.
func WriteDigest(w io.Writer, v DynamicValue, s *schema.T) {
	s = s.Unwrap()
	must(w.Write([]byte{byte(s.Kind)}))
	switch v.Kind {
	case Primitive:
		must(w.Write(v.Bytes))
	case None:
	case Some, Left, Right:
		inner := s.Elem
		if v.Kind == Left {
			inner = s.Left
		} else if v.Kind == Right {
			inner = s.Right
		}
		WriteDigest(w, *v.A, inner)
	case Pair:
		WriteDigest(w, *v.A, s.Fields[0].T)
		WriteDigest(w, *v.B, s.Fields[1].T)
	case Sequence:
		writeLength(w, len(v.Elems))
		for _, e := range v.Elems {
			WriteDigest(w, e, s.Elem)
		}
	case SetShape:
		writeLength(w, len(v.Elems))
		for _, e := range v.Elems {
			WriteDigest(w, e, s.Elem)
		}
	case MapShape:
		writeLength(w, len(v.Entries))
		for _, e := range v.Entries {
			WriteDigest(w, e.Key, s.Index)
			WriteDigest(w, e.Value, s.Elem)
		}
	case RecordShape:
		names := fieldNames(s)
		writeLength(w, len(names))
		fm := v.FieldMap()
		for _, n := range names {
			must(io.WriteString(w, n))
			WriteDigest(w, fm[n], s.Field(n))
		}
	case EnumShape:
		must(io.WriteString(w, v.Case))
		WriteDigest(w, *v.Payload, s.Field(v.Case))
	}
}
