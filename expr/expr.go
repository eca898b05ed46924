// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package expr implements the Expression algebra: the tagged variant
// of operators over primitive and composite values described in
// spec §3.4 and enumerated in full in spec §4.2. An Expression is an
// immutable, serializable tree built exclusively through the
// constructor functions in this package (spec §6.2) — never parsed
// from concrete syntax, and never holding host-language code.
//
// The single Expr struct tags every variant with a Kind and carries
// exactly the operand/constant/schema fields that variant needs, in
// the same spirit as github.com/grailbio/reflow/syntax's Expr
// (one struct, one Kind enum, fields shared across kinds) and
// github.com/grailbio/reflow/flow's Flow (one struct, one Op enum,
// digested and debug-printed uniformly regardless of Op). Evaluation
// itself lives in the sibling eval package, which type-switches on
// Kind; Expr has no dependency on eval, so the tree can be built,
// digested, and serialized without ever evaluating it.
package expr

import (
	"crypto"
	_ "crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/digest"

	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

// Digester is the digester used to content-address Expression nodes.
var Digester = digest.Digester(crypto.SHA256)

// Kind identifies an Expression variant. Case names used for
// serialization are given in parens; they are stable and the set of
// Kinds is closed (spec §6.1 "Compatibility").
type Kind int

const (
	KindError Kind = iota // zero value; never constructed deliberately

	// Leaves.
	KindLiteral  // "Literal"
	KindIgnore   // "Ignore"
	KindVariable // "Variable"
	KindNested   // "Nested"

	// Binding.
	KindEvaluatedFunction // "EvaluatedFunction"
	KindApply             // "Apply"

	// Numeric family (generated names "<Op>Numeric").
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindPow
	KindNeg
	KindRoot
	KindLog
	KindModInt
	KindAbs
	KindMin
	KindMax
	KindFloor
	KindCeil
	KindRound

	// Fractional family.
	KindSin
	KindAsin
	KindAtan

	// Boolean.
	KindAnd
	KindOr
	KindNot

	// Comparison.
	KindEqual
	KindLessThanEqual

	// Control.
	KindBranch

	// Iteration.
	KindIterate

	// Either.
	KindEitherL
	KindEitherR
	KindFlatMapEither
	KindFoldEither
	KindSwapEither

	// Option.
	KindSome0
	KindFoldOption
	KindZipOption
	KindOptionContains

	// Try.
	KindTry

	// Tuples.
	KindTuple // arity carried in len(Elems), 2..22
	KindTupleAccess

	// Lists.
	KindCons
	KindUnCons
	KindFold

	// Time.
	KindInstantFromLong
	KindInstantFromLongs
	KindInstantFromMilli
	KindInstantFromString
	KindInstantToTuple
	KindInstantPlusDuration
	KindInstantMinusDuration
	KindInstantTruncate
	KindDurationFromString
	KindDurationBetweenInstants
	KindDurationFromBigDecimal
	KindDurationFromLong
	KindDurationFromLongs
	KindDurationFromAmount
	KindDurationToLongs
	KindDurationToLong
	KindDurationPlus
	KindDurationMinus

	// Strings.
	KindLength

	// Laziness.
	KindLazy

	// Meta.
	KindFlow

	maxKind
)

var kindNames = [maxKind]string{
	KindLiteral:                 "Literal",
	KindIgnore:                  "Ignore",
	KindVariable:                "Variable",
	KindNested:                  "Nested",
	KindEvaluatedFunction:       "EvaluatedFunction",
	KindApply:                   "Apply",
	KindAdd:                     "AddNumeric",
	KindSub:                     "SubNumeric",
	KindMul:                     "MulNumeric",
	KindDiv:                     "DivNumeric",
	KindPow:                     "PowNumeric",
	KindNeg:                     "NegNumeric",
	KindRoot:                    "RootNumeric",
	KindLog:                     "LogNumeric",
	KindModInt:                  "ModNumeric",
	KindAbs:                     "AbsNumeric",
	KindMin:                     "MinNumeric",
	KindMax:                     "MaxNumeric",
	KindFloor:                   "FloorNumeric",
	KindCeil:                    "CeilNumeric",
	KindRound:                   "RoundNumeric",
	KindSin:                     "SinFractional",
	KindAsin:                    "AsinFractional",
	KindAtan:                    "AtanFractional",
	KindAnd:                     "And",
	KindOr:                      "Or",
	KindNot:                     "Not",
	KindEqual:                   "Equal",
	KindLessThanEqual:           "LessThanEqual",
	KindBranch:                  "Branch",
	KindIterate:                 "Iterate",
	KindEitherL:                 "EitherL",
	KindEitherR:                 "EitherR",
	KindFlatMapEither:           "FlatMapEither",
	KindFoldEither:              "FoldEither",
	KindSwapEither:              "SwapEither",
	KindSome0:                   "Some",
	KindFoldOption:              "FoldOption",
	KindZipOption:               "ZipOption",
	KindOptionContains:          "OptionContains",
	KindTry:                     "Try",
	KindTuple:                   "Tuple",
	KindTupleAccess:             "TupleAccess",
	KindCons:                    "Cons",
	KindUnCons:                  "UnCons",
	KindFold:                    "Fold",
	KindInstantFromLong:         "InstantFromLong",
	KindInstantFromLongs:        "InstantFromLongs",
	KindInstantFromMilli:        "InstantFromMilli",
	KindInstantFromString:       "InstantFromString",
	KindInstantToTuple:          "InstantToTuple",
	KindInstantPlusDuration:     "InstantPlusDuration",
	KindInstantMinusDuration:    "InstantMinusDuration",
	KindInstantTruncate:         "InstantTruncate",
	KindDurationFromString:      "DurationFromString",
	KindDurationBetweenInstants: "DurationBetweenInstants",
	KindDurationFromBigDecimal:  "DurationFromBigDecimal",
	KindDurationFromLong:        "DurationFromLong",
	KindDurationFromLongs:       "DurationFromLongs",
	KindDurationFromAmount:      "DurationFromAmount",
	KindDurationToLongs:         "DurationToLongs",
	KindDurationToLong:          "DurationToLong",
	KindDurationPlus:            "DurationPlus",
	KindDurationMinus:           "DurationMinus",
	KindLength:                  "Length",
	KindLazy:                    "Lazy",
	KindFlow:                    "Flow",
}

// String returns the stable case name for kind k (spec §6.1).
func (k Kind) String() string {
	if k <= KindError || k >= maxKind {
		return "Error"
	}
	return kindNames[k]
}

// KindByName resolves a stable case name back to its Kind, for the
// serialize package's decoder. It returns (KindError, false) for an
// unrecognized name.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindError, false
}

// Numeric is the closed enum of numeric instances parameterizing the
// numeric family (spec §4.2 "Numeric family").
type Numeric int

const (
	NumericInt Numeric = iota
	NumericLong
	NumericShort
	NumericBigInt
	NumericFloat
	NumericDouble
	NumericBigDecimal
)

func (n Numeric) String() string {
	switch n {
	case NumericInt:
		return "Int"
	case NumericLong:
		return "Long"
	case NumericShort:
		return "Short"
	case NumericBigInt:
		return "BigInt"
	case NumericFloat:
		return "Float"
	case NumericDouble:
		return "Double"
	case NumericBigDecimal:
		return "BigDecimal"
	default:
		return "Unknown"
	}
}

// Fractional is the closed enum of fractional instances parameterizing
// the fractional family (spec §4.2 "Fractional family").
type Fractional int

const (
	FractionalFloat Fractional = iota
	FractionalDouble
	FractionalBigDecimal
)

func (f Fractional) String() string {
	switch f {
	case FractionalFloat:
		return "Float"
	case FractionalDouble:
		return "Double"
	case FractionalBigDecimal:
		return "BigDecimal"
	default:
		return "Unknown"
	}
}

// Flow is the interface through which the orchestrator's flow values
// are lifted into the core as opaque data (spec §1, §4.2 "Meta"). The
// core never interprets a Flow payload; it only digests and carries
// it.
type Flow interface {
	Digest() digest.Digest
}

// Func is a host builder function used only at construction time to
// produce an EvaluatedFunction's body (spec §3.5, §6.2 "fn"). It is
// never stored on an Expr and never serialized: by the time an
// EvaluatedFunction exists, its body has already been captured as a
// plain Expression tree.
type Func func(input *Expr) *Expr

// Expr is a node in the expression algebra's tree. Every
// operand/constant field is optional; which are populated is
// determined entirely by Kind. Expr trees are immutable once
// constructed (spec §3.6): operators never mutate Expr, and
// subexpressions are shared by reference, not deep-copied.
type Expr struct {
	Kind Kind

	// Cond/Left/Right are the primary operands, shared across many
	// Kinds: Cond for Branch's condition, Left/Right for binary
	// operators, Left alone for unary operators and for Iterate's
	// initial value.
	Cond, Left, Right *Expr

	// Elems holds Tuple's N operands (2..22) in construction order;
	// the resulting schema/value fold right-nested (schema.TupleN,
	// values.NewTuple), but this field preserves the original arity for
	// serialization (the case name is "Tuple" for every arity).
	Elems []*Expr

	// Fn and FnAlt are function-valued operands: Apply's function,
	// FlatMapEither/FoldOption/FoldEither/Fold's step or body
	// functions, and Iterate's step (Fn) and pred (FnAlt). Which role
	// each plays is documented per constructor.
	Fn, FnAlt *Expr

	// Input is the bound variable of an EvaluatedFunction.
	Input *Expr

	// Name carries a Variable's identifier, or the ChronoUnit name of
	// InstantTruncate, DurationFromLong, DurationFromAmount and
	// DurationToLong. Set per constructor; see individual doc comments.
	Name string

	// Index is TupleAccess's 0-based index.
	Index int

	// NumericInstance/FractionalInstance select the instance for the
	// Numeric/Fractional families.
	NumericInstance    Numeric
	FractionalInstance Fractional

	// Dyn/DynSchema hold a Literal's value and schema.
	Dyn       values.DynamicValue
	DynSchema *schema.T

	// SchemaHint and SchemaHint2 carry auxiliary schema information
	// needed at evaluation without evaluating: EitherL's rightSchema,
	// EitherR's leftSchema, FlatMapEither's aSchema/cSchema, Some's
	// wrapped schema annotation.
	SchemaHint, SchemaHint2 *schema.T

	// FlowPayload carries a Nested sub-expression (KindNested) or an
	// opaque orchestrator Flow value (KindFlow).
	NestedExpr  *Expr
	FlowPayload Flow

	// thunk is Lazy's deferred constructor; never serialized (serialize
	// forces a Lazy node and encodes its body, so a decoded tree holds
	// no Lazy nodes).
	thunk func() *Expr

	digestOnce sync.Once
	digest     digest.Digest
}

// IsClosed reports whether every variable referenced by e is bound by
// a surrounding EvaluatedFunction in the tree or present in bound
// (the set of names the caller guarantees the evaluating RemoteContext
// will supply). This mirrors spec §3.4's closed-ness invariant; it is
// a static check, not required for evaluation to proceed (an open
// expression simply fails Unbound at evaluation time instead).
func (e *Expr) IsClosed(bound map[string]bool) bool {
	if e == nil {
		return true
	}
	switch e.Kind {
	case KindVariable:
		return bound[e.Name]
	case KindEvaluatedFunction:
		inner := map[string]bool{e.Input.Name: true}
		for k := range bound {
			inner[k] = true
		}
		return e.Right.IsClosed(inner)
	}
	for _, child := range e.children() {
		if !child.IsClosed(bound) {
			return false
		}
	}
	return true
}

func (e *Expr) children() []*Expr {
	var cs []*Expr
	for _, c := range []*Expr{e.Cond, e.Left, e.Right, e.Fn, e.FnAlt, e.Input, e.NestedExpr} {
		if c != nil {
			cs = append(cs, c)
		}
	}
	cs = append(cs, e.Elems...)
	return cs
}

// Force returns the materialized expression: for a KindLazy node it
// invokes the deferred thunk (exactly once, per spec §9, the result
// is cached on the node itself so repeated Force calls within or
// across evaluations of the same tree observe the same identity); for
// any other Kind it returns e unchanged.
func (e *Expr) Force() *Expr {
	if e.Kind != KindLazy {
		return e
	}
	if e.Left == nil {
		e.Left = e.thunk()
	}
	return e.Left
}

// Digest returns the content digest of expression e, computed
// structurally over its Kind and fields (mirrors
// github.com/grailbio/reflow/flow's Flow.Digest/WriteDigest).
func (e *Expr) Digest() digest.Digest {
	e.digestOnce.Do(func() {
		w := Digester.NewWriter()
		e.WriteDigest(w)
		e.digest = w.Digest()
	})
	return e.digest
}

func writeLen(w io.Writer, n int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	_, _ = w.Write(b[:])
}

// WriteDigest writes e's digest material into w.
func (e *Expr) WriteDigest(w io.Writer) {
	if e == nil {
		_, _ = io.WriteString(w, "<nil>")
		return
	}
	_, _ = io.WriteString(w, e.Kind.String())
	switch e.Kind {
	case KindLiteral:
		values.WriteDigest(w, e.Dyn, e.DynSchema)
		return
	case KindVariable:
		_, _ = io.WriteString(w, e.Name)
		return
	case KindLazy:
		// A Lazy node's identity is the node itself (its address), not
		// its (possibly not-yet-materialized) body, so two distinct Lazy
		// nodes never collide merely because they'd eventually produce
		// equal bodies.
		_, _ = fmt.Fprintf(w, "lazy%p", e)
		return
	}
	if e.NumericInstance != 0 || e.Kind >= KindAdd && e.Kind <= KindRound {
		_, _ = io.WriteString(w, e.NumericInstance.String())
	}
	if e.Kind >= KindSin && e.Kind <= KindAtan {
		_, _ = io.WriteString(w, e.FractionalInstance.String())
	}
	if e.Name != "" {
		_, _ = io.WriteString(w, e.Name)
	}
	if e.Index != 0 {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(e.Index))
		_, _ = w.Write(b[:])
	}
	for _, c := range []*Expr{e.Cond, e.Left, e.Right, e.Fn, e.FnAlt, e.Input, e.NestedExpr} {
		if c != nil {
			c.WriteDigest(w)
		}
	}
	if len(e.Elems) > 0 {
		writeLen(w, len(e.Elems))
		for _, el := range e.Elems {
			el.WriteDigest(w)
		}
	}
	if e.FlowPayload != nil {
		digest.WriteDigest(w, e.FlowPayload.Digest())
	}
}
