// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package expr

import (
	"fmt"

	"github.com/grailbio/remoteflow/schema"
)

// Tenv maps a closed expression's free variable names to their
// schemas, sufficient to compute e's result schema without
// evaluating it (spec §4.2 "schema(e)").
type Tenv map[string]*schema.T

func numericSchema(inst Numeric) *schema.T {
	switch inst {
	case NumericInt:
		return schema.Int
	case NumericLong:
		return schema.Long
	case NumericShort:
		return schema.Short
	case NumericBigInt:
		return schema.Long
	case NumericFloat:
		return schema.Float
	case NumericDouble:
		return schema.Double
	case NumericBigDecimal:
		return schema.BigDecimal
	default:
		return schema.Fail(fmt.Sprintf("unknown numeric instance %v", inst))
	}
}

func fractionalSchema(inst Fractional) *schema.T {
	switch inst {
	case FractionalFloat:
		return schema.Float
	case FractionalDouble:
		return schema.Double
	case FractionalBigDecimal:
		return schema.BigDecimal
	default:
		return schema.Fail(fmt.Sprintf("unknown fractional instance %v", inst))
	}
}

// Schema computes e's result schema against the free-variable
// environment env, without evaluating e. It returns a FailKind schema
// (never an error) when the result schema genuinely depends on a
// runtime value the algebra does not annotate statically (e.g. a
// Branch whose two arms disagree, malformed input); callers that need
// a hard failure should treat a FailKind result as one.
func (e *Expr) Schema(env Tenv) *schema.T {
	if e == nil {
		return schema.Fail("nil expression")
	}
	switch e.Kind {
	case KindLiteral:
		return e.DynSchema
	case KindIgnore:
		return schema.Unit
	case KindVariable:
		if s, ok := env[e.Name]; ok {
			return s
		}
		return schema.Fail("unbound variable " + e.Name)
	case KindNested:
		return e.NestedExpr.Schema(env)
	case KindEvaluatedFunction:
		return schema.Fail("function values have no schema")
	case KindApply:
		inner := Tenv{}
		for k, v := range env {
			inner[k] = v
		}
		if e.Fn.Kind == KindEvaluatedFunction {
			inner[e.Fn.Input.Name] = e.Left.Schema(env)
			return e.Fn.Right.Schema(inner)
		}
		return schema.Fail("Apply target is not a function")
	case KindAdd, KindSub, KindMul, KindDiv, KindPow, KindMin, KindMax, KindModInt:
		return numericSchema(e.NumericInstance)
	case KindNeg, KindAbs, KindFloor, KindCeil, KindRound:
		return numericSchema(e.NumericInstance)
	case KindRoot, KindLog:
		return numericSchema(e.NumericInstance)
	case KindSin, KindAsin, KindAtan:
		return fractionalSchema(e.FractionalInstance)
	case KindAnd, KindOr, KindNot, KindEqual, KindLessThanEqual, KindOptionContains:
		return schema.Bool
	case KindBranch:
		ts, es := e.Left.Schema(env), e.Right.Schema(env)
		if ts.Equal(es) {
			return ts
		}
		return schema.Fail("Branch arms disagree in schema")
	case KindIterate:
		if e.Fn.Kind != KindEvaluatedFunction || e.FnAlt.Kind != KindEvaluatedFunction {
			return schema.Fail("Iterate step and pred must be functions")
		}
		initS := e.Left.Schema(env)
		stepInner := Tenv{}
		for k, v := range env {
			stepInner[k] = v
		}
		stepInner[e.Fn.Input.Name] = initS
		stepS := e.Fn.Right.Schema(stepInner)
		if !stepS.Equal(initS) {
			return schema.Fail("Iterate step must return the same schema as its argument")
		}
		predInner := Tenv{}
		for k, v := range env {
			predInner[k] = v
		}
		predInner[e.FnAlt.Input.Name] = initS
		predS := e.FnAlt.Right.Schema(predInner)
		if !predS.Equal(schema.Bool) {
			return schema.Fail("Iterate pred must return Bool")
		}
		return initS
	case KindEitherL:
		return schema.Either(e.Left.Schema(env), e.SchemaHint)
	case KindEitherR:
		return schema.Either(e.SchemaHint, e.Left.Schema(env))
	case KindFlatMapEither:
		eitherS := e.Left.Schema(env)
		if eitherS.Kind != schema.EitherKind {
			return schema.Fail("FlatMapEither target is not an either")
		}
		return schema.Either(e.SchemaHint, e.SchemaHint2)
	case KindFoldEither:
		if e.Fn.Kind != KindEvaluatedFunction || e.FnAlt.Kind != KindEvaluatedFunction {
			return schema.Fail("FoldEither arms must be functions")
		}
		eitherS := e.Left.Schema(env)
		if eitherS.Kind != schema.EitherKind {
			return schema.Fail("FoldEither target is not an either")
		}
		leftInner := Tenv{}
		for k, v := range env {
			leftInner[k] = v
		}
		leftInner[e.Fn.Input.Name] = eitherS.Left
		a := e.Fn.Right.Schema(leftInner)
		rightInner := Tenv{}
		for k, v := range env {
			rightInner[k] = v
		}
		rightInner[e.FnAlt.Input.Name] = eitherS.Right
		b := e.FnAlt.Right.Schema(rightInner)
		if a.Equal(b) {
			return a
		}
		return schema.Fail("FoldEither arms disagree in schema")
	case KindSwapEither:
		s := e.Left.Schema(env)
		if s.Kind != schema.EitherKind {
			return schema.Fail("SwapEither target is not an either")
		}
		return schema.Either(s.Right, s.Left)
	case KindSome0:
		return schema.Option(e.SchemaHint)
	case KindFoldOption:
		a := e.Fn.Schema(env)
		if e.FnAlt.Kind == KindEvaluatedFunction {
			inner := Tenv{}
			for k, v := range env {
				inner[k] = v
			}
			optS := e.Left.Schema(env)
			if optS.Kind == schema.OptionKind {
				inner[e.FnAlt.Input.Name] = optS.Elem
			}
			b := e.FnAlt.Right.Schema(inner)
			if a.Equal(b) {
				return a
			}
			return schema.Fail("FoldOption arms disagree in schema")
		}
		return a
	case KindZipOption:
		a, b := e.Left.Schema(env), e.Right.Schema(env)
		if a.Kind != schema.OptionKind || b.Kind != schema.OptionKind {
			return schema.Fail("ZipOption operands must be options")
		}
		return schema.Option(schema.Pair(a.Elem, b.Elem))
	case KindTry:
		return schema.Either(schema.Throwable, e.Left.Schema(env))
	case KindTuple:
		ss := make([]*schema.T, len(e.Elems))
		for i, el := range e.Elems {
			ss[i] = el.Schema(env)
		}
		return schema.TupleN(ss...)
	case KindTupleAccess:
		return e.Left.Schema(env).Component(e.Index)
	case KindCons:
		return schema.Sequence(e.Left.Schema(env))
	case KindUnCons:
		seqS := e.Left.Schema(env)
		if seqS.Kind != schema.SequenceKind {
			return schema.Fail("UnCons target is not a sequence")
		}
		return schema.Option(schema.Pair(seqS.Elem, seqS))
	case KindFold:
		return e.Right.Schema(env)
	case KindInstantFromLong, KindInstantFromLongs, KindInstantFromMilli, KindInstantFromString,
		KindInstantPlusDuration, KindInstantMinusDuration, KindInstantTruncate:
		return schema.Instant
	case KindInstantToTuple:
		return schema.Pair(schema.Long, schema.Int)
	case KindDurationFromString, KindDurationBetweenInstants, KindDurationFromBigDecimal,
		KindDurationFromLong, KindDurationFromLongs, KindDurationFromAmount,
		KindDurationPlus, KindDurationMinus:
		return schema.Duration
	case KindDurationToLongs:
		return schema.Pair(schema.Long, schema.Int)
	case KindDurationToLong:
		return schema.Long
	case KindLength:
		return schema.Int
	case KindLazy:
		return e.Force().Schema(env)
	case KindFlow:
		return schema.Fail("Flow payload has no schema in the core")
	default:
		return schema.Fail(fmt.Sprintf("no schema rule for kind %v", e.Kind))
	}
}
