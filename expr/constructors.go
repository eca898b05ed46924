// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package expr

import (
	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

// Literal lifts a concrete DynamicValue into the tree (spec §4.2
// "Literal").
func Literal(v values.DynamicValue, s *schema.T) *Expr {
	return &Expr{Kind: KindLiteral, Dyn: v, DynSchema: s}
}

// Ignore evaluates inner for effect and discards its result, yielding
// unit.
func Ignore(inner *Expr) *Expr {
	return &Expr{Kind: KindIgnore, Left: inner}
}

// Variable references the binding named name in the evaluating
// RemoteContext (spec §4.2 "Variable").
func Variable(name string) *Expr {
	return &Expr{Kind: KindVariable, Name: name}
}

// Nested marks a subtree boundary; it evaluates to inner's value
// unchanged and exists only to scope digesting/debugging.
func Nested(inner *Expr) *Expr {
	return &Expr{Kind: KindNested, NestedExpr: inner}
}

// EvaluatedFunction constructs a closed, serializable function value
// whose body is the already-compiled expression tree body, closing
// over input (spec §3.5, §6.2).
func EvaluatedFunction(input *Expr, body *Expr) *Expr {
	if input.Kind != KindVariable {
		panic("expr.EvaluatedFunction: input must be a Variable")
	}
	return &Expr{Kind: KindEvaluatedFunction, Input: input, Right: body}
}

// BuildFn builds an EvaluatedFunction by compiling build against a freshly
// named Variable, the host-side construction helper described in
// spec §6.2. fresh is typically a RemoteContext's FreshName.
func BuildFn(fresh func() string, build Func) *Expr {
	v := Variable(fresh())
	return EvaluatedFunction(v, build(v))
}

// Apply invokes function fn with argument arg.
func Apply(fn, arg *Expr) *Expr {
	return &Expr{Kind: KindApply, Fn: fn, Left: arg}
}

func numeric(k Kind, inst Numeric, left, right *Expr) *Expr {
	return &Expr{Kind: k, NumericInstance: inst, Left: left, Right: right}
}

// Add constructs a numeric addition over the given instance.
func Add(inst Numeric, left, right *Expr) *Expr { return numeric(KindAdd, inst, left, right) }

// Sub constructs a numeric subtraction over the given instance.
func Sub(inst Numeric, left, right *Expr) *Expr { return numeric(KindSub, inst, left, right) }

// Mul constructs a numeric multiplication over the given instance.
func Mul(inst Numeric, left, right *Expr) *Expr { return numeric(KindMul, inst, left, right) }

// Div constructs a numeric division over the given instance.
func Div(inst Numeric, left, right *Expr) *Expr { return numeric(KindDiv, inst, left, right) }

// Pow constructs base raised to exponent over the given instance.
func Pow(inst Numeric, base, exponent *Expr) *Expr { return numeric(KindPow, inst, base, exponent) }

// Neg constructs numeric negation.
func Neg(inst Numeric, x *Expr) *Expr { return numeric(KindNeg, inst, x, nil) }

// Root constructs the nth root of x over the given instance.
func Root(inst Numeric, x, n *Expr) *Expr { return numeric(KindRoot, inst, x, n) }

// Log constructs the logarithm of x base b over the given instance.
func Log(inst Numeric, x, b *Expr) *Expr { return numeric(KindLog, inst, x, b) }

// ModInt constructs integer modulus.
func ModInt(inst Numeric, left, right *Expr) *Expr { return numeric(KindModInt, inst, left, right) }

// Abs constructs numeric absolute value.
func Abs(inst Numeric, x *Expr) *Expr { return numeric(KindAbs, inst, x, nil) }

// Min constructs the numeric minimum of left and right.
func Min(inst Numeric, left, right *Expr) *Expr { return numeric(KindMin, inst, left, right) }

// Max constructs the numeric maximum of left and right.
func Max(inst Numeric, left, right *Expr) *Expr { return numeric(KindMax, inst, left, right) }

// Floor constructs the numeric floor of x.
func Floor(inst Numeric, x *Expr) *Expr { return numeric(KindFloor, inst, x, nil) }

// Ceil constructs the numeric ceiling of x.
func Ceil(inst Numeric, x *Expr) *Expr { return numeric(KindCeil, inst, x, nil) }

// Round constructs numeric rounding of x.
func Round(inst Numeric, x *Expr) *Expr { return numeric(KindRound, inst, x, nil) }

func fractional(k Kind, inst Fractional, x *Expr) *Expr {
	return &Expr{Kind: k, FractionalInstance: inst, Left: x}
}

// Sin constructs the sine of x over the given fractional instance.
func Sin(inst Fractional, x *Expr) *Expr { return fractional(KindSin, inst, x) }

// Asin constructs the arcsine of x over the given fractional instance.
func Asin(inst Fractional, x *Expr) *Expr { return fractional(KindAsin, inst, x) }

// Atan constructs the arctangent of x over the given fractional
// instance.
func Atan(inst Fractional, x *Expr) *Expr { return fractional(KindAtan, inst, x) }

// And short-circuits: right is only evaluated if left evaluates true.
func And(left, right *Expr) *Expr { return &Expr{Kind: KindAnd, Left: left, Right: right} }

// Or short-circuits: right is only evaluated if left evaluates false.
func Or(left, right *Expr) *Expr { return &Expr{Kind: KindOr, Left: left, Right: right} }

// Not negates a boolean expression.
func Not(x *Expr) *Expr { return &Expr{Kind: KindNot, Left: x} }

// Equal tests structural equality of left and right, both evaluated
// against schema s.
func Equal(s *schema.T, left, right *Expr) *Expr {
	return &Expr{Kind: KindEqual, DynSchema: s, Left: left, Right: right}
}

// LessThanEqual tests the default total order of left and right, both
// evaluated against schema s.
func LessThanEqual(s *schema.T, left, right *Expr) *Expr {
	return &Expr{Kind: KindLessThanEqual, DynSchema: s, Left: left, Right: right}
}

// Branch evaluates cond; if true it evaluates and returns then,
// otherwise els. The unevaluated branch is never touched.
func Branch(cond, then, els *Expr) *Expr {
	return &Expr{Kind: KindBranch, Cond: cond, Left: then, Right: els}
}

// Iterate evaluates to the result of: x <- init; while pred(x) { x <-
// step(x) }; x. pred is consulted before every application of step,
// including the first; the loop may run zero times. The evaluator
// bounds the number of step applications only when configured to do
// so (spec §4.2, §4.3).
func Iterate(init, step, pred *Expr) *Expr {
	return &Expr{Kind: KindIterate, Left: init, Fn: step, FnAlt: pred}
}

// EitherL constructs the left case of an either value, annotated with
// the right side's schema so the full either schema is known without
// evaluating.
func EitherL(value *Expr, rightSchema *schema.T) *Expr {
	return &Expr{Kind: KindEitherL, Left: value, SchemaHint: rightSchema}
}

// EitherR constructs the right case of an either value, annotated
// with the left side's schema.
func EitherR(value *Expr, leftSchema *schema.T) *Expr {
	return &Expr{Kind: KindEitherR, Left: value, SchemaHint: leftSchema}
}

// FlatMapEither applies fn to the right case of either, leaving a
// left case untouched. fn itself returns an either value, whose left
// schema must equal either's (aSchema); cSchema is fn's right-case
// result schema, needed to know the result schema without evaluating.
func FlatMapEither(either, fn *Expr, aSchema, cSchema *schema.T) *Expr {
	return &Expr{Kind: KindFlatMapEither, Left: either, Fn: fn, SchemaHint: aSchema, SchemaHint2: cSchema}
}

// FoldEither evaluates onLeft or onRight depending on either's case.
func FoldEither(either, onLeft, onRight *Expr) *Expr {
	return &Expr{Kind: KindFoldEither, Left: either, Fn: onLeft, FnAlt: onRight}
}

// SwapEither exchanges either's left and right cases.
func SwapEither(either *Expr) *Expr { return &Expr{Kind: KindSwapEither, Left: either} }

// Some wraps value in an option, annotated with value's schema.
func Some(value *Expr, s *schema.T) *Expr {
	return &Expr{Kind: KindSome0, Left: value, SchemaHint: s}
}

// FoldOption evaluates ifNone if opt is absent, or applies ifSome to
// opt's value otherwise.
func FoldOption(opt, ifNone, ifSome *Expr) *Expr {
	return &Expr{Kind: KindFoldOption, Left: opt, Fn: ifNone, FnAlt: ifSome}
}

// ZipOption combines two options into an option of their pair,
// present only if both are present.
func ZipOption(a, b *Expr) *Expr { return &Expr{Kind: KindZipOption, Left: a, Right: b} }

// OptionContains tests whether opt is present and equal to value,
// compared against the inner schema s.
func OptionContains(s *schema.T, opt, value *Expr) *Expr {
	return &Expr{Kind: KindOptionContains, DynSchema: s, Left: opt, Right: value}
}

// Try evaluates inner, converting any evaluation error into a left
// Throwable carrying the error's message rather than propagating it,
// and the successful result into a right value.
func Try(inner *Expr) *Expr { return &Expr{Kind: KindTry, Left: inner} }

// Tuple constructs a fixed-arity tuple of 2 to 22 components. Its
// schema/value representation is a right-nested pair; the serialized
// case name is "Tuple" for every arity, and the arity is carried by
// the number of serialized elements.
func Tuple(elems ...*Expr) *Expr {
	if len(elems) < 2 || len(elems) > 22 {
		panic("expr.Tuple: arity must be between 2 and 22")
	}
	return &Expr{Kind: KindTuple, Elems: elems}
}

// TupleAccess projects the i'th (0-based) component of a tuple.
func TupleAccess(tuple *Expr, i int) *Expr {
	return &Expr{Kind: KindTupleAccess, Left: tuple, Index: i}
}

// Cons prepends head to tail, a sequence.
func Cons(head, tail *Expr) *Expr { return &Expr{Kind: KindCons, Left: head, Right: tail} }

// UnCons splits seq into Option<(head, tail)>, absent if seq is
// empty.
func UnCons(seq *Expr) *Expr { return &Expr{Kind: KindUnCons, Left: seq} }

// Fold reduces seq left to right starting from init, applying step to
// (accumulator, element) pairs.
func Fold(seq, init, step *Expr) *Expr {
	return &Expr{Kind: KindFold, Left: seq, Right: init, Fn: step}
}

// InstantFromLong constructs an instant from epoch seconds.
func InstantFromLong(seconds *Expr) *Expr { return &Expr{Kind: KindInstantFromLong, Left: seconds} }

// InstantFromLongs constructs an instant from epoch seconds and a
// nanosecond adjustment.
func InstantFromLongs(seconds, nanos *Expr) *Expr {
	return &Expr{Kind: KindInstantFromLongs, Left: seconds, Right: nanos}
}

// InstantFromMilli constructs an instant from an epoch millisecond
// count.
func InstantFromMilli(millis *Expr) *Expr { return &Expr{Kind: KindInstantFromMilli, Left: millis} }

// InstantFromString parses an instant from its ISO-8601 string form.
func InstantFromString(s *Expr) *Expr { return &Expr{Kind: KindInstantFromString, Left: s} }

// InstantToTuple decomposes an instant into (seconds, nanos).
func InstantToTuple(instant *Expr) *Expr { return &Expr{Kind: KindInstantToTuple, Left: instant} }

// InstantPlusDuration adds a duration to an instant.
func InstantPlusDuration(instant, d *Expr) *Expr {
	return &Expr{Kind: KindInstantPlusDuration, Left: instant, Right: d}
}

// InstantMinusDuration subtracts a duration from an instant.
func InstantMinusDuration(instant, d *Expr) *Expr {
	return &Expr{Kind: KindInstantMinusDuration, Left: instant, Right: d}
}

// InstantTruncate truncates instant to the given chrono unit
// (spec §4.2 "InstantTruncate").
func InstantTruncate(instant *Expr, unit string) *Expr {
	return &Expr{Kind: KindInstantTruncate, Left: instant, Name: unit}
}

// DurationFromString parses a duration from a Go duration string such
// as "1h2m3s" (time.ParseDuration syntax). ISO-8601 duration strings
// such as "PT1H" are not accepted and fail with a ParseError.
func DurationFromString(s *Expr) *Expr { return &Expr{Kind: KindDurationFromString, Left: s} }

// DurationBetweenInstants computes the duration from start to end.
func DurationBetweenInstants(start, end *Expr) *Expr {
	return &Expr{Kind: KindDurationBetweenInstants, Left: start, Right: end}
}

// DurationFromBigDecimal constructs a duration from a fractional
// seconds count.
func DurationFromBigDecimal(seconds *Expr) *Expr {
	return &Expr{Kind: KindDurationFromBigDecimal, Left: seconds}
}

// DurationFromLong constructs a duration of the given count of unit.
func DurationFromLong(count *Expr, unit string) *Expr {
	return &Expr{Kind: KindDurationFromLong, Left: count, Name: unit}
}

// DurationFromLongs constructs a duration from whole seconds and a
// nanosecond adjustment.
func DurationFromLongs(seconds, nanos *Expr) *Expr {
	return &Expr{Kind: KindDurationFromLongs, Left: seconds, Right: nanos}
}

// DurationFromAmount constructs a duration from a floating amount of
// unit.
func DurationFromAmount(amount *Expr, unit string) *Expr {
	return &Expr{Kind: KindDurationFromAmount, Left: amount, Name: unit}
}

// DurationToLongs decomposes a duration into (seconds, nanos).
func DurationToLongs(d *Expr) *Expr { return &Expr{Kind: KindDurationToLongs, Left: d} }

// DurationToLong converts a duration to a whole count of unit,
// truncating.
func DurationToLong(d *Expr, unit string) *Expr {
	return &Expr{Kind: KindDurationToLong, Left: d, Name: unit}
}

// DurationPlus adds two durations.
func DurationPlus(a, b *Expr) *Expr { return &Expr{Kind: KindDurationPlus, Left: a, Right: b} }

// DurationMinus subtracts duration b from a.
func DurationMinus(a, b *Expr) *Expr { return &Expr{Kind: KindDurationMinus, Left: a, Right: b} }

// Length computes the length of a string or sequence expression.
func Length(x *Expr) *Expr { return &Expr{Kind: KindLength, Left: x} }

// Lazy defers constructing its body until first forced, memoizing the
// result thereafter (spec §4.2 "Lazy", §9). build is invoked at most
// once.
func Lazy(build func() *Expr) *Expr {
	return &Expr{Kind: KindLazy, thunk: build}
}

// LiftFlow lifts an opaque orchestrator flow value into the tree as a
// Flow node (spec §1, §4.2 "Flow"). The core treats payload as opaque
// data: it is digested and carried but never interpreted.
func LiftFlow(payload Flow) *Expr {
	return &Expr{Kind: KindFlow, FlowPayload: payload}
}
