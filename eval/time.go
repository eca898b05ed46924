// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package eval

import (
	"time"

	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/expr"
	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

// chronoUnitDuration resolves a ChronoUnit literal's name to the
// time.Duration it represents, for the fixed set of units the core
// supports. Calendar-variable units (weeks, months, years) are
// deliberately excluded: their length depends on a timezone/calendar
// the core does not carry, consistent with the rest of the algebra
// working over plain instant/duration offsets.
func chronoUnitDuration(name string) (time.Duration, error) {
	switch name {
	case "Nanos":
		return time.Nanosecond, nil
	case "Micros":
		return time.Microsecond, nil
	case "Millis":
		return time.Millisecond, nil
	case "Seconds":
		return time.Second, nil
	case "Minutes":
		return time.Minute, nil
	case "Hours":
		return time.Hour, nil
	case "HalfDays":
		return 12 * time.Hour, nil
	case "Days":
		return 24 * time.Hour, nil
	default:
		return 0, errors.E("ChronoUnit", name, errors.ParseError, errors.Errorf("unrecognized chrono unit %q", name))
	}
}

func (s *evalState) evalInstant(x *expr.Expr) (values.SchemaAndValue, error) {
	switch x.Kind {
	case expr.KindInstantFromLong:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		sec, err := v.Value.Int64()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Instant, Value: values.Instant(sec, 0)}, nil

	case expr.KindInstantFromLongs:
		sec, nsec, err := s.evalSecondsNanos(x.Left, x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Instant, Value: values.Instant(sec, nsec)}, nil

	case expr.KindInstantFromMilli:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		ms, err := v.Value.Int64()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		sec := ms / 1000
		nsec := int32((ms % 1000) * int64(time.Millisecond))
		return values.SchemaAndValue{Schema: schema.Instant, Value: values.Instant(sec, nsec)}, nil

	case expr.KindInstantFromString:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		str, err := v.Value.String()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		t, perr := time.Parse(time.RFC3339Nano, str)
		if perr != nil {
			return values.SchemaAndValue{}, errors.E("InstantFromString", errors.ParseError, perr)
		}
		return values.SchemaAndValue{Schema: schema.Instant, Value: values.Instant(t.Unix(), int32(t.Nanosecond()))}, nil

	case expr.KindInstantToTuple:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		sec, nsec, err := v.Value.InstantParts()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{
			Schema: schema.Pair(schema.Long, schema.Int),
			Value:  values.NewPair(values.Long(sec), values.Int(nsec)),
		}, nil

	case expr.KindInstantPlusDuration, expr.KindInstantMinusDuration:
		instV, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		durV, err := s.eval(x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		t, err := instV.Value.AsTime()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		d, err := durV.Value.AsDuration()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if x.Kind == expr.KindInstantMinusDuration {
			d = -d
		}
		t = t.Add(d)
		return values.SchemaAndValue{Schema: schema.Instant, Value: values.Instant(t.Unix(), int32(t.Nanosecond()))}, nil

	case expr.KindInstantTruncate:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		unit, err := chronoUnitDuration(x.Name)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		t, err := v.Value.AsTime()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		t = t.Truncate(unit)
		return values.SchemaAndValue{Schema: schema.Instant, Value: values.Instant(t.Unix(), int32(t.Nanosecond()))}, nil

	default:
		return values.SchemaAndValue{}, errors.E("evalInstant", errors.EvaluationFailed, errors.Errorf("unhandled kind %v", x.Kind))
	}
}

func (s *evalState) evalSecondsNanos(secExpr, nsecExpr *expr.Expr) (int64, int32, error) {
	secV, err := s.eval(secExpr)
	if err != nil {
		return 0, 0, err
	}
	sec, err := secV.Value.Int64()
	if err != nil {
		return 0, 0, err
	}
	nsecV, err := s.eval(nsecExpr)
	if err != nil {
		return 0, 0, err
	}
	nsec, err := nsecV.Value.Int32()
	if err != nil {
		return 0, 0, err
	}
	return sec, nsec, nil
}

func (s *evalState) evalDuration(x *expr.Expr) (values.SchemaAndValue, error) {
	switch x.Kind {
	case expr.KindDurationFromString:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		str, err := v.Value.String()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		d, perr := time.ParseDuration(str)
		if perr != nil {
			return values.SchemaAndValue{}, errors.E("DurationFromString", errors.ParseError, perr)
		}
		return values.SchemaAndValue{Schema: schema.Duration, Value: durationValue(d)}, nil

	case expr.KindDurationBetweenInstants:
		startV, endV, err := s.evalPair(x.Left, x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		start, err := startV.Value.AsTime()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		end, err := endV.Value.AsTime()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Duration, Value: durationValue(end.Sub(start))}, nil

	case expr.KindDurationFromBigDecimal:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		f, err := v.Value.BigFloat()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		secs, _ := f.Float64()
		return values.SchemaAndValue{Schema: schema.Duration, Value: durationValue(time.Duration(secs * float64(time.Second)))}, nil

	case expr.KindDurationFromLong:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		count, err := v.Value.Int64()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		unit, err := chronoUnitDuration(x.Name)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Duration, Value: durationValue(time.Duration(count) * unit)}, nil

	case expr.KindDurationFromLongs:
		sec, nsec, err := s.evalSecondsNanos(x.Left, x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Duration, Value: values.Duration(sec, nsec)}, nil

	case expr.KindDurationFromAmount:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		amount, err := v.Value.Float64()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		unit, err := chronoUnitDuration(x.Name)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Duration, Value: durationValue(time.Duration(amount * float64(unit)))}, nil

	case expr.KindDurationToLongs:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		sec, nsec, err := v.Value.DurationParts()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{
			Schema: schema.Pair(schema.Long, schema.Int),
			Value:  values.NewPair(values.Long(sec), values.Int(nsec)),
		}, nil

	case expr.KindDurationToLong:
		v, err := s.eval(x.Left)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		d, err := v.Value.AsDuration()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		unit, err := chronoUnitDuration(x.Name)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		return values.SchemaAndValue{Schema: schema.Long, Value: values.Long(int64(d / unit))}, nil

	case expr.KindDurationPlus, expr.KindDurationMinus:
		a, b, err := s.evalPair(x.Left, x.Right)
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		da, err := a.Value.AsDuration()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		db, err := b.Value.AsDuration()
		if err != nil {
			return values.SchemaAndValue{}, err
		}
		if x.Kind == expr.KindDurationMinus {
			db = -db
		}
		return values.SchemaAndValue{Schema: schema.Duration, Value: durationValue(da + db)}, nil

	default:
		return values.SchemaAndValue{}, errors.E("evalDuration", errors.EvaluationFailed, errors.Errorf("unhandled kind %v", x.Kind))
	}
}

func durationValue(d time.Duration) values.DynamicValue {
	sec := int64(d / time.Second)
	nsec := int32(d % time.Second)
	return values.Duration(sec, nsec)
}
