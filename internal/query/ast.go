// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Operator is a positive comparison operator. Negated forms (!=, not in,
// not like) are desugared to Not around the positive operator during parsing.
type Operator int

const (
	OpEq Operator = iota
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
	OpIn
)

func (op Operator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLike:
		return "like"
	case OpIn:
		return "in"
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

// Value is the right-hand side of a comparison: a single scalar (int64,
// float64 or string) or a list of scalars. Lists are only legal with OpIn.
type Value struct {
	Scalar any
	List   []any
	IsList bool
}

// Param is one bound query parameter. It is always transferred as its JSON
// text form; the generated SQL unwraps it with ::jsonb casts, so strings,
// numbers and arrays all ride on a single wire type.
type Param struct {
	V any
}

// Value implements driver.Valuer.
func (p Param) Value() (driver.Value, error) {
	return json.Marshal(p.V)
}

// Params is the positional parameter vector produced by compilation.
type Params []Param

// Expr is a node of the parsed expression tree.
type Expr interface {
	// lower appends the SQL form of the node. offset is the index of the
	// first $n placeholder the node may use; the return value is the offset
	// for the next sibling.
	lower(sql *[]byte, offset int, params *Params) int
}

// Comparison is `identifier op value`.
type Comparison struct {
	Identifier string
	Op         Operator
	Val        Value
}

// FullTextSearch matches the stored tsvector against a websearch query.
type FullTextSearch struct {
	Text string
}

// And, Or and Not combine sub-expressions; precedence is resolved by the
// parser, so the tree shape is authoritative.
type And struct{ LHS, RHS Expr }
type Or struct{ LHS, RHS Expr }
type Not struct{ Child Expr }
