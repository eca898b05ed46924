// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package serialize

import (
	"github.com/grailbio/remoteflow/errors"
	"github.com/grailbio/remoteflow/expr"
)

// ExprAST is the tagged-sum wire form of an expr.Expr: one generic
// struct carrying every operand slot any Kind might use, with "case"
// holding the stable name from expr.Kind.String() (spec §6.1). Fields
// irrelevant to a given case are simply omitted on the wire.
type ExprAST struct {
	Case string `json:"case" yaml:"case"`

	Cond   *ExprAST   `json:"cond,omitempty" yaml:"cond,omitempty"`
	Left   *ExprAST   `json:"left,omitempty" yaml:"left,omitempty"`
	Right  *ExprAST   `json:"right,omitempty" yaml:"right,omitempty"`
	Elems  []*ExprAST `json:"elems,omitempty" yaml:"elems,omitempty"`
	Fn     *ExprAST   `json:"fn,omitempty" yaml:"fn,omitempty"`
	FnAlt  *ExprAST   `json:"fnAlt,omitempty" yaml:"fnAlt,omitempty"` // second function operand: FoldEither/FoldOption's alternate arm, Iterate's pred
	Input  *ExprAST   `json:"input,omitempty" yaml:"input,omitempty"`
	Nested *ExprAST   `json:"nested,omitempty" yaml:"nested,omitempty"`

	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Index int    `json:"index,omitempty" yaml:"index,omitempty"`

	Numeric    string `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Fractional string `json:"fractional,omitempty" yaml:"fractional,omitempty"`

	Value       *ValueAST  `json:"value,omitempty" yaml:"value,omitempty"`
	ValueSchema *SchemaAST `json:"valueSchema,omitempty" yaml:"valueSchema,omitempty"`

	SchemaHint  *SchemaAST `json:"schemaHint,omitempty" yaml:"schemaHint,omitempty"`
	SchemaHint2 *SchemaAST `json:"schemaHint2,omitempty" yaml:"schemaHint2,omitempty"`

	// FlowDigest carries only the content digest of a Flow node's
	// opaque payload (spec §1, §4.2 "Flow"): the payload itself is
	// owned by the orchestrator, not the core, so it is not
	// reconstructible from the wire form alone. Decoding an ExprAST
	// whose case is "Flow" fails; hosts that need to carry Flow nodes
	// across the wire must do so above this package.
	FlowDigest string `json:"flowDigest,omitempty" yaml:"flowDigest,omitempty"`
}

var numericNames = map[expr.Numeric]string{
	expr.NumericInt: "Int", expr.NumericLong: "Long", expr.NumericShort: "Short",
	expr.NumericBigInt: "BigInt", expr.NumericFloat: "Float", expr.NumericDouble: "Double",
	expr.NumericBigDecimal: "BigDecimal",
}

var numericByName = map[string]expr.Numeric{}

var fractionalNames = map[expr.Fractional]string{
	expr.FractionalFloat: "Float", expr.FractionalDouble: "Double", expr.FractionalBigDecimal: "BigDecimal",
}

var fractionalByName = map[string]expr.Fractional{}

func init() {
	for k, n := range numericNames {
		numericByName[n] = k
	}
	for k, n := range fractionalNames {
		fractionalByName[n] = k
	}
}

// ExprToAST reifies e into its wire form. A Lazy node is forced and
// its materialized body is encoded in place: laziness is a
// construction/evaluation-time device (spec §9), not a wire concept.
func ExprToAST(e *expr.Expr) *ExprAST {
	if e == nil {
		return nil
	}
	e = e.Force()
	a := &ExprAST{
		Case:        e.Kind.String(),
		Cond:        ExprToAST(e.Cond),
		Left:        ExprToAST(e.Left),
		Right:       ExprToAST(e.Right),
		Fn:          ExprToAST(e.Fn),
		FnAlt:       ExprToAST(e.FnAlt),
		Input:       ExprToAST(e.Input),
		Nested:      ExprToAST(e.NestedExpr),
		Name:        e.Name,
		Index:       e.Index,
		SchemaHint:  SchemaToAST(e.SchemaHint),
		SchemaHint2: SchemaToAST(e.SchemaHint2),
	}
	for _, el := range e.Elems {
		a.Elems = append(a.Elems, ExprToAST(el))
	}
	if e.Kind == expr.KindLiteral {
		v := e.Dyn
		a.Value = ValueToAST(v)
		a.ValueSchema = SchemaToAST(e.DynSchema)
	}
	if n, ok := numericNames[e.NumericInstance]; ok && hasNumericInstance(e.Kind) {
		a.Numeric = n
	}
	if f, ok := fractionalNames[e.FractionalInstance]; ok && hasFractionalInstance(e.Kind) {
		a.Fractional = f
	}
	if e.Kind == expr.KindFlow {
		a.FlowDigest = e.FlowPayload.Digest().String()
	}
	return a
}

func hasNumericInstance(k expr.Kind) bool {
	switch k {
	case expr.KindAdd, expr.KindSub, expr.KindMul, expr.KindDiv, expr.KindPow, expr.KindNeg,
		expr.KindRoot, expr.KindLog, expr.KindModInt, expr.KindAbs, expr.KindMin, expr.KindMax,
		expr.KindFloor, expr.KindCeil, expr.KindRound:
		return true
	}
	return false
}

func hasFractionalInstance(k expr.Kind) bool {
	switch k {
	case expr.KindSin, expr.KindAsin, expr.KindAtan:
		return true
	}
	return false
}

// ASTToExpr reconstructs an expr.Expr from its wire form.
func ASTToExpr(a *ExprAST) (*expr.Expr, error) {
	if a == nil {
		return nil, nil
	}
	k, ok := expr.KindByName(a.Case)
	if !ok {
		return nil, errors.E("ASTToExpr", a.Case, errors.ParseError, errors.Errorf("unrecognized case name %q", a.Case))
	}
	if k == expr.KindFlow {
		return nil, errors.E("ASTToExpr", errors.ParseError,
			errors.Errorf("a Flow node cannot be reconstructed from its wire form alone"))
	}
	cond, err := ASTToExpr(a.Cond)
	if err != nil {
		return nil, err
	}
	left, err := ASTToExpr(a.Left)
	if err != nil {
		return nil, err
	}
	right, err := ASTToExpr(a.Right)
	if err != nil {
		return nil, err
	}
	fn, err := ASTToExpr(a.Fn)
	if err != nil {
		return nil, err
	}
	fnAlt, err := ASTToExpr(a.FnAlt)
	if err != nil {
		return nil, err
	}
	input, err := ASTToExpr(a.Input)
	if err != nil {
		return nil, err
	}
	nested, err := ASTToExpr(a.Nested)
	if err != nil {
		return nil, err
	}
	elems := make([]*expr.Expr, len(a.Elems))
	for i, el := range a.Elems {
		elems[i], err = ASTToExpr(el)
		if err != nil {
			return nil, err
		}
	}
	e := &expr.Expr{
		Kind:        k,
		Cond:        cond,
		Left:        left,
		Right:       right,
		Elems:       elems,
		Fn:          fn,
		FnAlt:       fnAlt,
		Input:       input,
		NestedExpr:  nested,
		Name:        a.Name,
		Index:       a.Index,
		SchemaHint:  ASTToSchema(a.SchemaHint),
		SchemaHint2: ASTToSchema(a.SchemaHint2),
	}
	if n, ok := numericByName[a.Numeric]; ok {
		e.NumericInstance = n
	}
	if f, ok := fractionalByName[a.Fractional]; ok {
		e.FractionalInstance = f
	}
	if k == expr.KindLiteral {
		e.Dyn = ASTToValue(a.Value)
		e.DynSchema = ASTToSchema(a.ValueSchema)
	}
	return e, nil
}
