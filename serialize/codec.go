// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package serialize

import (
	"encoding/json"

	"gopkg.in/yaml.v2"

	"github.com/grailbio/remoteflow/expr"
	"github.com/grailbio/remoteflow/schema"
)

// MarshalJSON encodes e as the tagged-sum JSON envelope described in
// spec §6.1.
func MarshalJSON(e *expr.Expr) ([]byte, error) {
	return json.Marshal(ExprToAST(e))
}

// UnmarshalJSON decodes an expr.Expr previously produced by
// MarshalJSON.
func UnmarshalJSON(b []byte) (*expr.Expr, error) {
	var a ExprAST
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return ASTToExpr(&a)
}

// MarshalYAML encodes e as the YAML sibling of MarshalJSON's envelope,
// in the manner of the teacher's dual JSON/YAML manifest codecs.
func MarshalYAML(e *expr.Expr) ([]byte, error) {
	return yaml.Marshal(ExprToAST(e))
}

// UnmarshalYAML decodes an expr.Expr previously produced by
// MarshalYAML.
func UnmarshalYAML(b []byte) (*expr.Expr, error) {
	var a ExprAST
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return ASTToExpr(&a)
}

// MarshalSchemaJSON encodes schema t as its JSON wire form.
func MarshalSchemaJSON(t *schema.T) ([]byte, error) {
	return json.Marshal(SchemaToAST(t))
}

// UnmarshalSchemaJSON decodes a schema.T previously produced by
// MarshalSchemaJSON.
func UnmarshalSchemaJSON(b []byte) (*schema.T, error) {
	var a SchemaAST
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return ASTToSchema(&a), nil
}
