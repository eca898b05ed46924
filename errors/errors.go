// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors provides the flat, stable, machine-readable error
// taxonomy used throughout the remote expression core. Each error is
// assigned a Kind and an operation with optional arguments; errors may
// be chained, and thus can be used to annotate an upstream error with
// the operator that produced it.
//
// Package errors provides functions Errorf and New as convenience
// constructors, so that callers need import only one error package.
package errors

import (
	"bytes"
	"encoding/json"
	goerrors "errors"
	"fmt"

	"github.com/grailbio/base/digest"
)

// Separator is inserted between chained errors while rendering.
var Separator = ":\n\t"

// Kind denotes the type of an evaluator error: Unbound, TypeMismatch,
// IndexOutOfRange, BadShape, ArithmeticError, ParseError, and the
// catch-all EvaluationFailed, plus IterationDiverged for an Iterate
// that exceeds a configured bound, and Other for unclassified errors.
type Kind int

const (
	// Other denotes an unknown error (used only for errors.New/Errorf
	// wrapping of third-party errors that don't fit the taxonomy).
	Other Kind = iota
	// Unbound indicates a variable was not found in the RemoteContext.
	Unbound
	// TypeMismatch indicates a schema did not match during narrowing,
	// comparison, or construction-time checking.
	TypeMismatch
	// IndexOutOfRange indicates an out-of-range tuple access or
	// similar indexing operation.
	IndexOutOfRange
	// BadShape indicates a DynamicValue did not match its carrying
	// schema: a construction bug or decoder bug.
	BadShape
	// ArithmeticError indicates divide-by-zero, disallowed overflow,
	// or a domain error in Log/Root/Pow.
	ArithmeticError
	// ParseError indicates an Instant.parse/Duration.parse failure.
	ParseError
	// EvaluationFailed is the catch-all, used only when none of the
	// above fits.
	EvaluationFailed
	// IterationDiverged indicates an Iterate expression ran past a
	// configured iteration bound without its predicate becoming false.
	IterationDiverged

	maxKind
)

// String renders a human-readable description of kind k.
func (k Kind) String() string {
	switch k {
	case Unbound:
		return "unbound variable"
	case TypeMismatch:
		return "type mismatch"
	case IndexOutOfRange:
		return "index out of range"
	case BadShape:
		return "value does not match its schema"
	case ArithmeticError:
		return "arithmetic error"
	case ParseError:
		return "parse error"
	case EvaluationFailed:
		return "evaluation failed"
	case IterationDiverged:
		return "iteration diverged"
	default:
		return "unknown error"
	}
}

var kind2string = [maxKind]string{
	Other:             "Other",
	Unbound:           "Unbound",
	TypeMismatch:      "TypeMismatch",
	IndexOutOfRange:   "IndexOutOfRange",
	BadShape:          "BadShape",
	ArithmeticError:   "ArithmeticError",
	ParseError:        "ParseError",
	EvaluationFailed:  "EvaluationFailed",
	IterationDiverged: "IterationDiverged",
}

var string2kind = map[string]Kind{
	"Other":             Other,
	"Unbound":           Unbound,
	"TypeMismatch":      TypeMismatch,
	"IndexOutOfRange":   IndexOutOfRange,
	"BadShape":          BadShape,
	"ArithmeticError":   ArithmeticError,
	"ParseError":        ParseError,
	"EvaluationFailed":  EvaluationFailed,
	"IterationDiverged": IterationDiverged,
}

// Error defines an evaluator error. It indicates an error associated
// with an operation (and arguments), and may wrap another error.
//
// Errors should be constructed by errors.E.
type Error struct {
	// Kind is the error's classification.
	Kind Kind
	// Op is a one-word description of the operator that errored
	// (e.g. "TupleAccess", "Div", "getVariable").
	Op string
	// Arg is an (optional) list of arguments to the operation.
	Arg []string
	// Err is this error's underlying error: this error is caused
	// by Err.
	Err error
}

// E is used to construct errors. E constructs errors from a set of
// arguments, each of which must be one of the following types:
//
//	string
//		The first string argument is taken as the error's Op; subsequent
//		arguments are taken as the error's Arg.
//	digest.Digest
//		Taken as an Arg.
//	Kind
//		Taken as the error's Kind.
//	error
//		Taken as the error's underlying error.
//
// If the underlying error is another *Error and no Kind was given,
// the Kind is inherited from it.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args")
	}
	e := new(Error)
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			if e.Op == "" {
				e.Op = arg
			} else {
				e.Arg = append(e.Arg, arg)
			}
		case digest.Digest:
			e.Arg = append(e.Arg, arg.String())
		case Kind:
			e.Kind = arg
		case *Error:
			cp := *arg
			e.Err = &cp
		case error:
			e.Err = arg
		default:
			return Errorf("errors.E: bad call with argument of type %T: %v", arg, arg)
		}
	}
	if e.Err == nil {
		return e
	}
	if prev, ok := e.Err.(*Error); ok {
		if prev.Kind == e.Kind {
			prev.Kind = Other
		} else if e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		}
		if prev.Op == "" && prev.Kind == Other {
			e.Err = prev.Err
		}
	}
	return e
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}

// Error renders this error and its chain of underlying errors,
// separated by Separator.
func (e *Error) Error() string {
	return e.ErrorSeparator(Separator)
}

// ErrorSeparator renders this error and its chain of underlying
// errors, separated by sep.
func (e *Error) ErrorSeparator(sep string) string {
	if e == nil {
		return "<nil>"
	}
	b := new(bytes.Buffer)
	if e.Op != "" {
		b.WriteString(e.Op)
		for _, a := range e.Arg {
			b.WriteString(" " + a)
		}
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if err, ok := e.Err.(*Error); ok {
			pad(b, sep)
			b.WriteString(err.ErrorSeparator(sep))
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	return b.String()
}

// Is reports whether err is an *Error of the given kind, anywhere in
// its chain.
func Is(kind Kind, err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Kind == kind {
		return true
	}
	return Is(kind, e.Err)
}

// Errorf is an alternate spelling of fmt.Errorf.
var Errorf = fmt.Errorf

// New is an alternate spelling of errors.New.
var New = goerrors.New

// Copy creates a shallow copy of Error e.
func (e *Error) Copy() *Error {
	f := new(Error)
	*f = *e
	return f
}

type jsonError struct {
	Op    string
	Arg   []string
	Kind  string
	Cause *jsonError `json:",omitempty"`
	Error string
}

func toJSON(err error) *jsonError {
	switch e := err.(type) {
	case *Error:
		j := &jsonError{Op: e.Op, Arg: e.Arg, Kind: kind2string[e.Kind]}
		if e.Err != nil {
			j.Cause = toJSON(e.Err)
		}
		return j
	default:
		return &jsonError{Error: err.Error()}
	}
}

func (j *jsonError) toError() error {
	if j == nil {
		return nil
	}
	if j.Error != "" && j.Op == "" && j.Kind == "" {
		return New(j.Error)
	}
	args := []interface{}{j.Op}
	for _, a := range j.Arg {
		args = append(args, a)
	}
	args = append(args, string2kind[j.Kind])
	if j.Cause != nil {
		args = append(args, j.Cause.toError())
	}
	return E(args...)
}

// MarshalJSON implements JSON marshalling for Error.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(e))
}

// UnmarshalJSON implements JSON unmarshalling for Error.
func (e *Error) UnmarshalJSON(b []byte) error {
	var j jsonError
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	err := j.toError()
	if ep, ok := err.(*Error); ok {
		*e = *ep
	}
	return nil
}
