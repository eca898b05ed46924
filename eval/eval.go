// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package eval implements the evaluator: the single recursive
// function that walks an expr.Expr tree and produces a
// values.SchemaAndValue, against the bindings held in a
// remotecontext.Context (spec §4.3). Evaluation is left-to-right and
// strict except where the algebra itself demands short-circuiting
// (And, Or, Branch, FoldEither, FoldOption), deterministic given its
// inputs, and cancel-safe via context.Context.
//
// The evaluator is structured the way the teacher's flow package
// structures its own single big eval switch (flow/eval.go): one
// function, one type switch on the node's tag, recursing into
// operands before combining their results.
package eval

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/expr"
	"github.com/grailbio/remoteflow/log"
	"github.com/grailbio/remoteflow/remotecontext"
	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
	"golang.org/x/sync/errgroup"
)

// Options configures an Evaluator.
type Options struct {
	// MaxIterations bounds the number of times an Iterate expression
	// may apply its step function before evaluation fails with
	// errors.IterationDiverged, guarding against a non-terminating
	// predicate. The default is unbounded (spec §4.2 "Iterate"): a
	// bound is enforced only when MaxIterations is set to a positive
	// value.
	MaxIterations int
}

// Evaluator evaluates expr.Expr trees. The zero Evaluator is usable
// with default options.
type Evaluator struct {
	Opts Options
}

// New constructs an Evaluator with the given options. MaxIterations
// of zero (or unset) leaves Iterate unbounded.
func New(opts Options) *Evaluator {
	return &Evaluator{Opts: opts}
}

// EvalDynamic evaluates x to a values.SchemaAndValue against rc,
// under the free-variable type environment env (which may be nil for
// a closed expression with no externally bound free variables).
func (ev *Evaluator) EvalDynamic(ctx context.Context, rc remotecontext.Context, x *expr.Expr, env expr.Tenv) (values.SchemaAndValue, error) {
	if env == nil {
		env = expr.Tenv{}
	}
	s := &evalState{
		ev:   ev,
		ctx:  ctx,
		rc:   rc,
		env:  env,
		memo: make(map[*expr.Expr]values.SchemaAndValue),
	}
	return s.eval(x)
}

// EvalAll evaluates xs concurrently, one goroutine per expression, and
// returns their results in the corresponding order, using
// golang.org/x/sync/errgroup to fail fast on the first error and
// propagate cancellation to the others (spec §4.3 "Concurrent batch
// evaluation"). rc must be safe for concurrent use (remotecontext.NewAtomic
// or remotecontext.NewCached); a plain remotecontext.New is not.
func (ev *Evaluator) EvalAll(ctx context.Context, rc remotecontext.Context, xs []*expr.Expr, env expr.Tenv) ([]values.SchemaAndValue, error) {
	results := make([]values.SchemaAndValue, len(xs))
	g, gctx := errgroup.WithContext(ctx)
	for i, x := range xs {
		i, x := i, x
		g.Go(func() error {
			sv, err := ev.EvalDynamic(gctx, rc, x, env)
			if err != nil {
				return err
			}
			results[i] = sv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Eval evaluates x and narrows its result to the host type A. Only a
// fixed set of host types are supported; an unsupported A yields a
// TypeMismatch error (spec §6 "eval<A>").
func Eval[A any](ev *Evaluator, ctx context.Context, rc remotecontext.Context, x *expr.Expr, env expr.Tenv) (A, error) {
	var zero A
	sv, err := ev.EvalDynamic(ctx, rc, x, env)
	if err != nil {
		return zero, err
	}
	return narrow[A](sv)
}

func narrow[A any](sv values.SchemaAndValue) (A, error) {
	var zero A
	switch p := any(&zero).(type) {
	case *values.DynamicValue:
		*p = sv.Value
		return zero, nil
	case *values.SchemaAndValue:
		*p = sv
		return zero, nil
	case *bool:
		v, err := sv.Value.Bool()
		*p = v
		return zero, err
	case *int32:
		v, err := sv.Value.Int32()
		*p = v
		return zero, err
	case *int64:
		v, err := sv.Value.Int64()
		*p = v
		return zero, err
	case *float32:
		v, err := sv.Value.Float32()
		*p = v
		return zero, err
	case *float64:
		v, err := sv.Value.Float64()
		*p = v
		return zero, err
	case *string:
		v, err := sv.Value.String()
		*p = v
		return zero, err
	case *time.Time:
		v, err := sv.Value.AsTime()
		*p = v
		return zero, err
	case *time.Duration:
		v, err := sv.Value.AsDuration()
		*p = v
		return zero, err
	default:
		return zero, errors.E("Eval", errors.TypeMismatch, errors.Errorf("no narrowing defined for %T", zero))
	}
}

// evalState carries the per-call context threaded through recursive
// evaluation: the type environment built up as EvaluatedFunction
// arguments are bound, and the Lazy memoization table (spec §9: a
// Lazy node's body is materialized and evaluated at most once per
// evaluation).
type evalState struct {
	ev   *Evaluator
	ctx  context.Context
	rc   remotecontext.Context
	env  expr.Tenv
	memo map[*expr.Expr]values.SchemaAndValue
}

func (s *evalState) withBinding(name string, sch *schema.T) *evalState {
	next := make(expr.Tenv, len(s.env)+1)
	for k, v := range s.env {
		next[k] = v
	}
	next[name] = sch
	return &evalState{ev: s.ev, ctx: s.ctx, rc: s.rc, env: next, memo: s.memo}
}

func (s *evalState) checkCanceled() error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return nil
	}
}

// apply binds fn's input to arg and evaluates fn's body, failing if
// fn is not an EvaluatedFunction.
func (s *evalState) apply(fn *expr.Expr, arg values.SchemaAndValue) (values.SchemaAndValue, error) {
	if fn.Kind != expr.KindEvaluatedFunction {
		return values.SchemaAndValue{}, errors.E("Apply", errors.TypeMismatch, errors.Errorf("target is not a function"))
	}
	s.rc.SetVariable(fn.Input.Name, arg.Value)
	return s.withBinding(fn.Input.Name, arg.Schema).eval(fn.Right)
}

func (s *evalState) eval(x *expr.Expr) (values.SchemaAndValue, error) {
	if err := s.checkCanceled(); err != nil {
		return values.SchemaAndValue{}, err
	}
	switch x.Kind {
	case expr.KindLiteral:
		return values.SchemaAndValue{Schema: x.DynSchema, Value: x.Dyn}, nil

	case expr.KindIgnore:
		if _, err := s.eval(x.Left); err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Unit, Value: values.Unit}, nil

	case expr.KindVariable:
		v, ok := s.rc.GetVariable(x.Name)
		if !ok {
			return values.SchemaAndValue{}, errors.E("Variable", x.Name, errors.Unbound)
		}
		sch, ok := s.env[x.Name]
		if !ok {
			sch = schema.Fail("no static schema available for " + x.Name)
		}
		return values.SchemaAndValue{Schema: sch, Value: v}, nil

	case expr.KindNested:
		return s.eval(x.NestedExpr)

	case expr.KindEvaluatedFunction:
		return values.SchemaAndValue{}, errors.E("EvaluatedFunction", errors.TypeMismatch,
			errors.Errorf("a function value cannot be evaluated directly; apply it"))

	case expr.KindApply:
		arg, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return s.apply(x.Fn, arg)

	case expr.KindAdd, expr.KindSub, expr.KindMul, expr.KindDiv, expr.KindMin, expr.KindMax, expr.KindModInt:
		return s.evalBinaryNumeric(x)

	case expr.KindPow, expr.KindRoot, expr.KindLog:
		return s.evalBinaryNumeric(x)

	case expr.KindNeg, expr.KindAbs, expr.KindFloor, expr.KindCeil, expr.KindRound:
		return s.evalUnaryNumeric(x)

	case expr.KindSin, expr.KindAsin, expr.KindAtan:
		return s.evalFractional(x)

	case expr.KindAnd:
		l, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		lb, err := l.Value.Bool()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if !lb {
			return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(false)}, nil
		}
		return s.eval(x.Right)

	case expr.KindOr:
		l, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		lb, err := l.Value.Bool()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if lb {
			return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(true)}, nil
		}
		return s.eval(x.Right)

	case expr.KindNot:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		b, err := v.Value.Bool()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(!b)}, nil

	case expr.KindEqual:
		l, r, err := s.evalPair(x.Left, x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(values.Equal(l.Value, r.Value))}, nil

	case expr.KindLessThanEqual:
		l, r, err := s.evalPair(x.Left, x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		le := !values.Less(r.Value, l.Value, x.DynSchema)
		return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(le)}, nil

	case expr.KindBranch:
		cond, err := s.eval(x.Cond)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		b, err := cond.Value.Bool()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if b {
			return s.eval(x.Left)
		}
		return s.eval(x.Right)

	case expr.KindIterate:
		return s.evalIterate(x)

	case expr.KindEitherL:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Either(v.Schema, x.SchemaHint), Value: values.NewLeft(v.Value)}, nil

	case expr.KindEitherR:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Either(x.SchemaHint, v.Schema), Value: values.NewRight(v.Value)}, nil

	case expr.KindFlatMapEither:
		return s.evalFlatMapEither(x)

	case expr.KindFoldEither:
		either, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		switch either.Value.Kind {
		case values.Left:
			return s.apply(x.Fn, values.SchemaAndValue{Schema: either.Schema.Left, Value: *either.Value.A})
		case values.Right:
			return s.apply(x.FnAlt, values.SchemaAndValue{Schema: either.Schema.Right, Value: *either.Value.A})
		default:
			return values.SchemaAndValue{}, values.CoerceError("FoldEither", either.Value, either.Schema)
		}

	case expr.KindSwapEither:
		either, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		swappedSchema := schema.Either(either.Schema.Right, either.Schema.Left)
		switch either.Value.Kind {
		case values.Left:
			return values.SchemaAndValue{Schema: swappedSchema, Value: values.NewRight(*either.Value.A)}, nil
		case values.Right:
			return values.SchemaAndValue{Schema: swappedSchema, Value: values.NewLeft(*either.Value.A)}, nil
		default:
			return values.SchemaAndValue{}, values.CoerceError("SwapEither", either.Value, either.Schema)
		}

	case expr.KindSome0:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Option(v.Schema), Value: values.NewSome(v.Value)}, nil

	case expr.KindFoldOption:
		opt, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		switch opt.Value.Kind {
		case values.None:
			return s.eval(x.Fn)
		case values.Some:
			return s.apply(x.FnAlt, values.SchemaAndValue{Schema: opt.Schema.Elem, Value: *opt.Value.A})
		default:
			return values.SchemaAndValue{}, values.CoerceError("FoldOption", opt.Value, opt.Schema)
		}

	case expr.KindZipOption:
		return s.evalZipOption(x)

	case expr.KindOptionContains:
		opt, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if opt.Value.Kind != values.Some {
			return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(false)}, nil
		}
		want, err := s.eval(x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Bool, Value: values.Bool(values.Equal(*opt.Value.A, want.Value))}, nil

	case expr.KindTry:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{
				Schema: schema.Either(schema.Throwable, x.Left.Schema(s.env)),
				Value:  values.NewLeft(values.Throwable(err.Error())),
			}, nil
		}
		return values.SchemaAndValue{Schema: schema.Either(schema.Throwable, v.Schema), Value: values.NewRight(v.Value)}, nil

	case expr.KindTuple:
		return s.evalTuple(x)

	case expr.KindTupleAccess:
		return s.evalTupleAccess(x)

	case expr.KindCons:
		head, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		tail, err := s.eval(x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		elems := append([]values.DynamicValue{head.Value}, tail.Value.Elems...)
		return values.SchemaAndValue{Schema: tail.Schema, Value: values.NewSequence(elems...)}, nil

	case expr.KindUnCons:
		seq, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if len(seq.Value.Elems) == 0 {
			return values.SchemaAndValue{Schema: schema.Option(schema.Pair(seq.Schema.Elem, seq.Schema)), Value: values.NewNone()}, nil
		}
		head, rest := seq.Value.Elems[0], seq.Value.Elems[1:]
		pair := values.NewPair(head, values.NewSequence(rest...))
		return values.SchemaAndValue{Schema: schema.Option(schema.Pair(seq.Schema.Elem, seq.Schema)), Value: values.NewSome(pair)}, nil

	case expr.KindFold:
		return s.evalFold(x)

	case expr.KindInstantFromLong, expr.KindInstantFromLongs, expr.KindInstantFromMilli, expr.KindInstantFromString,
		expr.KindInstantToTuple, expr.KindInstantPlusDuration, expr.KindInstantMinusDuration, expr.KindInstantTruncate:
		return s.evalInstant(x)

	case expr.KindDurationFromString, expr.KindDurationBetweenInstants, expr.KindDurationFromBigDecimal,
		expr.KindDurationFromLong, expr.KindDurationFromLongs, expr.KindDurationFromAmount,
		expr.KindDurationToLongs, expr.KindDurationToLong, expr.KindDurationPlus, expr.KindDurationMinus:
		return s.evalDuration(x)

	case expr.KindLength:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if v.Value.Kind == values.Sequence {
			return values.SchemaAndValue{Schema: schema.Int, Value: values.Int(int32(len(v.Value.Elems)))}, nil
		}
		str, err := v.Value.String()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Int, Value: values.Int(int32(len([]rune(str))))}, nil

	case expr.KindLazy:
		if cached, ok := s.memo[x]; ok {
			return cached, nil
		}
		result, err := s.eval(x.Force())
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		s.memo[x] = result
		return result, nil

	case expr.KindFlow:
		log.Debugf("eval: encountered opaque flow node %v; the core does not interpret it", x.FlowPayload.Digest())
		return values.SchemaAndValue{}, errors.E("Flow", errors.EvaluationFailed,
			errors.Errorf("an opaque flow node cannot be evaluated by the core directly"))

	default:
		return values.SchemaAndValue{}, errors.E("eval", errors.EvaluationFailed, errors.Errorf("unhandled kind %v", x.Kind))
	}
}

func (s *evalState) evalPair(l, r *expr.Expr) (values.SchemaAndValue, values.SchemaAndValue, error) {
	lv, err := s.eval(l)
	if err != nil {
		return values.SchemaAndValue{}, values.SchemaAndValue{}, err
	}
	rv, err := s.eval(r)
	if err != nil {
		return values.SchemaAndValue{}, values.SchemaAndValue{}, err
	}
	return lv, rv, nil
}

func (s *evalState) evalBinaryNumeric(x *expr.Expr) (values.SchemaAndValue, error) {
	l, r, err := s.evalPair(x.Left, x.Right)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	a, err := decodeNumeric(x.NumericInstance, l.Value)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	b, err := decodeNumeric(x.NumericInstance, r.Value)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	var result numeric
	switch x.Kind {
	case expr.KindAdd:
		result = addNumeric(a, b)
	case expr.KindSub:
		result = subNumeric(a, b)
	case expr.KindMul:
		result = mulNumeric(a, b)
	case expr.KindDiv:
		result, err = divNumeric(a, b)
	case expr.KindModInt:
		result, err = modNumeric(a, b)
	case expr.KindMin:
		result = minNumeric(a, b)
	case expr.KindMax:
		result = maxNumeric(a, b)
	case expr.KindPow:
		result, err = powNumeric(a, b)
	case expr.KindRoot:
		result, err = rootNumeric(a, b)
	case expr.KindLog:
		result, err = logNumeric(a, b)
	}
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	return values.SchemaAndValue{Schema: x.Schema(s.env), Value: encodeNumeric(result)}, nil
}

func (s *evalState) evalUnaryNumeric(x *expr.Expr) (values.SchemaAndValue, error) {
	v, err := s.eval(x.Left)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	a, err := decodeNumeric(x.NumericInstance, v.Value)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	var result numeric
	switch x.Kind {
	case expr.KindNeg:
		result = negNumeric(a)
	case expr.KindAbs:
		result = absNumeric(a)
	case expr.KindFloor:
		result = floorNumeric(a)
	case expr.KindCeil:
		result = ceilNumeric(a)
	case expr.KindRound:
		result = roundNumeric(a)
	}
	return values.SchemaAndValue{Schema: x.Schema(s.env), Value: encodeNumeric(result)}, nil
}

func (s *evalState) evalFractional(x *expr.Expr) (values.SchemaAndValue, error) {
	v, err := s.eval(x.Left)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	f, err := decodeFractional(x.FractionalInstance, v.Value)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	fv, _ := f.Float64()
	var r float64
	switch x.Kind {
	case expr.KindSin:
		r = math.Sin(fv)
	case expr.KindAsin:
		if fv < -1 || fv > 1 {
			return values.SchemaAndValue{}, errors.E("Asin", errors.ArithmeticError, errors.Errorf("arcsine is undefined outside [-1, 1]"))
		}
		r = math.Asin(fv)
	case expr.KindAtan:
		r = math.Atan(fv)
	}
	return values.SchemaAndValue{Schema: x.Schema(s.env), Value: encodeFractional(x.FractionalInstance, big.NewFloat(r))}, nil
}

// evalIterate computes x <- init; while pred(x) { x <- step(x) }; x.
// pred is consulted before every application of step, including the
// first, so the loop may run zero times.
func (s *evalState) evalIterate(x *expr.Expr) (values.SchemaAndValue, error) {
	cur, err := s.eval(x.Left)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	for i := 0; ; i++ {
		tested, err := s.apply(x.FnAlt, cur)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		cont, err := tested.Value.Bool()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if !cont {
			return cur, nil
		}
		if s.ev.Opts.MaxIterations > 0 && i >= s.ev.Opts.MaxIterations {
			return values.SchemaAndValue{}, errors.E("Iterate", errors.IterationDiverged,
				errors.Errorf("exceeded MaxIterations (%d) without predicate becoming false", s.ev.Opts.MaxIterations))
		}
		cur, err = s.apply(x.Fn, cur)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if err := s.checkCanceled(); err != nil {
			return values.SchemaAndValue{}, err
		}
	}
}

func (s *evalState) evalFlatMapEither(x *expr.Expr) (values.SchemaAndValue, error) {
	either, err := s.eval(x.Left)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	resultSchema := schema.Either(x.SchemaHint, x.SchemaHint2)
	switch either.Value.Kind {
	case values.Left:
		return values.SchemaAndValue{Schema: resultSchema, Value: values.NewLeft(*either.Value.A)}, nil
	case values.Right:
		return s.apply(x.Fn, values.SchemaAndValue{Schema: either.Schema.Right, Value: *either.Value.A})
	default:
		return values.SchemaAndValue{}, values.CoerceError("FlatMapEither", either.Value, either.Schema)
	}
}

func (s *evalState) evalZipOption(x *expr.Expr) (values.SchemaAndValue, error) {
	a, b, err := s.evalPair(x.Left, x.Right)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	resultSchema := schema.Option(schema.Pair(a.Schema.Elem, b.Schema.Elem))
	if a.Value.Kind != values.Some || b.Value.Kind != values.Some {
		return values.SchemaAndValue{Schema: resultSchema, Value: values.NewNone()}, nil
	}
	return values.SchemaAndValue{Schema: resultSchema, Value: values.NewSome(values.NewPair(*a.Value.A, *b.Value.A))}, nil
}

func (s *evalState) evalTuple(x *expr.Expr) (values.SchemaAndValue, error) {
	vals := make([]values.DynamicValue, len(x.Elems))
	schemas := make([]*schema.T, len(x.Elems))
	for i, el := range x.Elems {
		v, err := s.eval(el)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		vals[i] = v.Value
		schemas[i] = v.Schema
	}
	return values.SchemaAndValue{Schema: schema.TupleN(schemas...), Value: values.NewTuple(vals...)}, nil
}

func (s *evalState) evalTupleAccess(x *expr.Expr) (values.SchemaAndValue, error) {
	tup, err := s.eval(x.Left)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	v, sch := tup.Value, tup.Schema
	for i := 0; ; i++ {
		if v.Kind != values.Pair {
			return values.SchemaAndValue{}, errors.E("TupleAccess", fmt.Sprintf("%d", x.Index), errors.IndexOutOfRange)
		}
		if i == x.Index {
			return values.SchemaAndValue{Schema: sch.Fields[0].T, Value: *v.A}, nil
		}
		if i+1 == x.Index && v.B.Kind != values.Pair {
			return values.SchemaAndValue{Schema: sch.Fields[1].T, Value: *v.B}, nil
		}
		v, sch = *v.B, sch.Fields[1].T
	}
}

func (s *evalState) evalFold(x *expr.Expr) (values.SchemaAndValue, error) {
	seq, err := s.eval(x.Left)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	acc, err := s.eval(x.Right)
	if err != nil {
		return values.SchemaAndValue{}, err
	}
	for _, el := range seq.Value.Elems {
		step := values.SchemaAndValue{
			Schema: schema.Pair(acc.Schema, seq.Schema.Elem),
			Value:  values.NewPair(acc.Value, el),
		}
		acc, err = s.apply(x.Fn, step)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if err := s.checkCanceled(); err != nil {
			return values.SchemaAndValue{}, err
		}
	}
	return acc, nil
}
