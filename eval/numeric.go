// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package eval

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/expr"
	"github.com/grailbio/remoteflow/internal/bigutil"
	"github.com/grailbio/remoteflow/schema"
	"github.com/grailbio/remoteflow/values"
)

// numeric is a decoded operand of the Numeric family, kept in the
// representation native to its instance: integral instances (Int,
// Long, Short, BigInt) are held in i; fractional instances (Float,
// Double, BigDecimal) are held in f.
type numeric struct {
	inst expr.Numeric
	i    *big.Int
	f    *big.Float
}

func isIntInstance(inst expr.Numeric) bool {
	switch inst {
	case expr.NumericInt, expr.NumericLong, expr.NumericShort, expr.NumericBigInt:
		return true
	}
	return false
}

func decodeNumeric(inst expr.Numeric, v values.DynamicValue) (numeric, error) {
	switch inst {
	case expr.NumericShort:
		if v.Kind != values.Primitive || v.Tag != schema.ShortKind || len(v.Bytes) != 2 {
			return numeric{}, values.CoerceError("Short", v, schema.Short)
		}
		return numeric{inst: inst, i: big.NewInt(int64(int16(binary.BigEndian.Uint16(v.Bytes))))}, nil
	case expr.NumericInt:
		n, err := v.Int32()
		if err != nil {
			return numeric{}, err
		}
		return numeric{inst: inst, i: big.NewInt(int64(n))}, nil
	case expr.NumericLong, expr.NumericBigInt:
		bi, err := v.BigInt()
		if err != nil {
			return numeric{}, err
		}
		return numeric{inst: inst, i: bi}, nil
	case expr.NumericFloat:
		f, err := v.Float32()
		if err != nil {
			return numeric{}, err
		}
		return numeric{inst: inst, f: big.NewFloat(float64(f))}, nil
	case expr.NumericDouble:
		f, err := v.Float64()
		if err != nil {
			return numeric{}, err
		}
		return numeric{inst: inst, f: big.NewFloat(f)}, nil
	case expr.NumericBigDecimal:
		f, err := v.BigFloat()
		if err != nil {
			return numeric{}, err
		}
		return numeric{inst: inst, f: f}, nil
	default:
		return numeric{}, errors.E("decodeNumeric", errors.BadShape, errors.Errorf("unknown numeric instance %v", inst))
	}
}

func encodeNumeric(n numeric) values.DynamicValue {
	switch n.inst {
	case expr.NumericShort:
		return values.Short(int16(n.i.Int64()))
	case expr.NumericInt:
		return values.Int(int32(n.i.Int64()))
	case expr.NumericLong:
		return values.Long(n.i.Int64())
	case expr.NumericBigInt:
		return values.BigInt(n.i)
	case expr.NumericFloat:
		f, _ := n.f.Float32()
		return values.Float(f)
	case expr.NumericDouble:
		f, _ := n.f.Float64()
		return values.Double(f)
	case expr.NumericBigDecimal:
		return values.BigDecimal(n.f)
	default:
		return values.Unit
	}
}

func toFloatBig(n numeric) *big.Float {
	if n.f != nil {
		return n.f
	}
	return new(big.Float).SetInt(n.i)
}

func fromFloatBig(inst expr.Numeric, f *big.Float) numeric {
	if isIntInstance(inst) {
		i, _ := f.Int(nil)
		return numeric{inst: inst, i: i}
	}
	return numeric{inst: inst, f: f}
}

func addNumeric(a, b numeric) numeric {
	if isIntInstance(a.inst) {
		return numeric{inst: a.inst, i: new(big.Int).Add(a.i, b.i)}
	}
	return numeric{inst: a.inst, f: new(big.Float).Add(a.f, b.f)}
}

func subNumeric(a, b numeric) numeric {
	if isIntInstance(a.inst) {
		return numeric{inst: a.inst, i: new(big.Int).Sub(a.i, b.i)}
	}
	return numeric{inst: a.inst, f: new(big.Float).Sub(a.f, b.f)}
}

func mulNumeric(a, b numeric) numeric {
	if isIntInstance(a.inst) {
		return numeric{inst: a.inst, i: new(big.Int).Mul(a.i, b.i)}
	}
	return numeric{inst: a.inst, f: new(big.Float).Mul(a.f, b.f)}
}

func divNumeric(a, b numeric) (numeric, error) {
	if isIntInstance(a.inst) {
		q, err := bigutil.QuoBigInt(a.i, b.i)
		if err != nil {
			return numeric{}, err
		}
		return numeric{inst: a.inst, i: q}, nil
	}
	q, err := bigutil.QuoBigFloat(a.f, b.f)
	if err != nil {
		return numeric{}, err
	}
	return numeric{inst: a.inst, f: q}, nil
}

func modNumeric(a, b numeric) (numeric, error) {
	r, err := bigutil.ModBigInt(a.i, b.i)
	if err != nil {
		return numeric{}, err
	}
	return numeric{inst: a.inst, i: r}, nil
}

func negNumeric(a numeric) numeric {
	if isIntInstance(a.inst) {
		return numeric{inst: a.inst, i: new(big.Int).Neg(a.i)}
	}
	return numeric{inst: a.inst, f: new(big.Float).Neg(a.f)}
}

func absNumeric(a numeric) numeric {
	if isIntInstance(a.inst) {
		return numeric{inst: a.inst, i: new(big.Int).Abs(a.i)}
	}
	return numeric{inst: a.inst, f: new(big.Float).Abs(a.f)}
}

func cmpNumeric(a, b numeric) int {
	if isIntInstance(a.inst) {
		return a.i.Cmp(b.i)
	}
	return a.f.Cmp(b.f)
}

func minNumeric(a, b numeric) numeric {
	if cmpNumeric(a, b) <= 0 {
		return a
	}
	return b
}

func maxNumeric(a, b numeric) numeric {
	if cmpNumeric(a, b) >= 0 {
		return a
	}
	return b
}

func roundingNumeric(a numeric, op string, f func(float64) float64) numeric {
	if isIntInstance(a.inst) {
		return a
	}
	x, _ := a.f.Float64()
	return numeric{inst: a.inst, f: big.NewFloat(f(x))}
}

func floorNumeric(a numeric) numeric { return roundingNumeric(a, "Floor", math.Floor) }
func ceilNumeric(a numeric) numeric  { return roundingNumeric(a, "Ceil", math.Ceil) }
func roundNumeric(a numeric) numeric { return roundingNumeric(a, "Round", math.Round) }

func rootNumeric(a, n numeric) (numeric, error) {
	r, err := bigutil.RootBig(toFloatBig(a), toFloatBig(n))
	if err != nil {
		return numeric{}, err
	}
	return fromFloatBig(a.inst, r), nil
}

func logNumeric(a, base numeric) (numeric, error) {
	r, err := bigutil.LogBig(toFloatBig(a), toFloatBig(base))
	if err != nil {
		return numeric{}, err
	}
	return fromFloatBig(a.inst, r), nil
}

func powNumeric(a, b numeric) (numeric, error) {
	r, err := bigutil.PowBig(toFloatBig(a), toFloatBig(b))
	if err != nil {
		return numeric{}, err
	}
	return fromFloatBig(a.inst, r), nil
}

// decodeFractional/encodeFractional box the Fractional family
// (Sin/Asin/Atan), which is strictly float-shaped, in *big.Float.
func decodeFractional(inst expr.Fractional, v values.DynamicValue) (*big.Float, error) {
	switch inst {
	case expr.FractionalFloat:
		f, err := v.Float32()
		if err != nil {
			return nil, err
		}
		return big.NewFloat(float64(f)), nil
	case expr.FractionalDouble:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return big.NewFloat(f), nil
	case expr.FractionalBigDecimal:
		return v.BigFloat()
	default:
		return nil, errors.E("decodeFractional", errors.BadShape, errors.Errorf("unknown fractional instance %v", inst))
	}
}

func encodeFractional(inst expr.Fractional, f *big.Float) values.DynamicValue {
	switch inst {
	case expr.FractionalFloat:
		v, _ := f.Float32()
		return values.Float(v)
	case expr.FractionalDouble:
		v, _ := f.Float64()
		return values.Double(v)
	case expr.FractionalBigDecimal:
		return values.BigDecimal(f)
	default:
		return values.Unit
	}
}
