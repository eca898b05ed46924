// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package serialize

import "github.com/grailbio/remoteflow/schema"

var primitiveTagNames = map[schema.Kind]string{
	schema.UnitKind: "unit", schema.BoolKind: "bool", schema.ByteKind: "byte",
	schema.ShortKind: "short", schema.IntKind: "int", schema.LongKind: "long",
	schema.FloatKind: "float", schema.DoubleKind: "double", schema.BigDecimalKind: "bigdecimal",
	schema.CharKind: "char", schema.StringKind: "string", schema.InstantKind: "instant",
	schema.DurationKind: "duration", schema.ChronoUnitKind: "chronounit",
	schema.ThrowableKind: "throwable", schema.URIKind: "uri",
}

var primitiveTagByName = map[string]schema.Kind{}

func init() {
	for k, n := range primitiveTagNames {
		primitiveTagByName[n] = k
	}
}

func tagName(k schema.Kind) string { return primitiveTagNames[k] }
func tagKind(n string) schema.Kind { return primitiveTagByName[n] }
