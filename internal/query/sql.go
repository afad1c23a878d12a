// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"fmt"
)

// ParseError reports the 0-based character offset of the first unexpected
// token in a query expression.
type ParseError struct {
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed query at offset %d", e.Offset)
}

// ToSQL compiles a query expression into a boolean SQL fragment over the logs
// table columns (doc jsonb, search tsvector) plus the positional parameters
// the fragment binds. offset is the index of the first $n placeholder the
// fragment may use, which allows composing it into a larger statement.
//
// The empty expression compiles to "1 = 1" with no parameters.
func ToSQL(input string, offset int) (string, Params, error) {
	if input == "" {
		return "1 = 1", nil, nil
	}
	expr, err := Parse(input)
	if err != nil {
		return "", nil, err
	}
	sql, params := Lower(expr, offset)
	return sql, params, nil
}

// Lower renders an expression tree to SQL starting at the given parameter
// offset. Compilation is pure: the same tree and offset always produce the
// same fragment and parameter vector.
func Lower(expr Expr, offset int) (string, Params) {
	var sql []byte
	var params Params
	expr.lower(&sql, offset, &params)
	return string(sql), params
}

// IdentifierPrimitive compiles a bare identifier to its text-valued getter
// `doc ->> ($n::jsonb #>> '{}')`, used where SQL needs a comparable scalar.
func IdentifierPrimitive(input string, offset int) (string, Params, error) {
	if err := validIdentifier(input); err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("doc ->> ($%d::jsonb #>> '{}')", offset)
	return sql, Params{{V: input}}, nil
}

// IdentifierJSON compiles a bare identifier to its jsonb-valued getter
// `doc -> ($n::jsonb #>> '{}')`.
func IdentifierJSON(input string, offset int) (string, Params, error) {
	if err := validIdentifier(input); err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("doc -> ($%d::jsonb #>> '{}')", offset)
	return sql, Params{{V: input}}, nil
}

func validIdentifier(input string) error {
	lex := newLexer(input)
	tok, err := lex.next()
	if err != nil {
		return err
	}
	if tok.Kind != TokenIdent {
		return &ParseError{Offset: tok.Offset}
	}
	end, err := lex.next()
	if err != nil {
		return err
	}
	if end.Kind != TokenEOF {
		return &ParseError{Offset: end.Offset}
	}
	return nil
}

func (c *Comparison) lower(sql *[]byte, offset int, params *Params) int {
	*params = append(*params, Param{V: c.Identifier})

	var lhs, rhs, sym string
	switch c.Op {
	case OpEq:
		// Containment keeps the comparison jsonb-typed on both sides so it
		// works for strings and numbers alike.
		lhs = fmt.Sprintf("doc -> ($%d::jsonb #>> '{}')", offset)
		rhs = fmt.Sprintf("$%d", offset+1)
		sym = "@>"
	case OpLt, OpLe, OpGt, OpGe:
		lhs = fmt.Sprintf("to_number_or_null(doc ->> ($%d::jsonb #>> '{}'))", offset)
		rhs = fmt.Sprintf("($%d::jsonb #>> '{}')::numeric", offset+1)
		sym = c.Op.String()
	case OpLike:
		lhs = fmt.Sprintf("doc ->> ($%d::jsonb #>> '{}')", offset)
		rhs = fmt.Sprintf("$%d::jsonb #>> '{}'", offset+1)
		sym = "LIKE"
	case OpIn:
		lhs = fmt.Sprintf("doc ->> ($%d::jsonb #>> '{}')", offset)
		rhs = fmt.Sprintf("(select jsonb_array_elements($%d::jsonb) #>> '{}')", offset+1)
		sym = "IN"
	}

	if c.Val.IsList {
		*params = append(*params, Param{V: c.Val.List})
	} else {
		*params = append(*params, Param{V: c.Val.Scalar})
	}

	*sql = append(*sql, lhs...)
	*sql = append(*sql, ' ')
	*sql = append(*sql, sym...)
	*sql = append(*sql, ' ')
	*sql = append(*sql, rhs...)
	return offset + 2
}

func (f *FullTextSearch) lower(sql *[]byte, offset int, params *Params) int {
	*params = append(*params, Param{V: f.Text})
	*sql = append(*sql, fmt.Sprintf("search @@ websearch_to_tsquery($%d::jsonb #>> '{}')", offset)...)
	return offset + 1
}

func (a *And) lower(sql *[]byte, offset int, params *Params) int {
	*sql = append(*sql, '(')
	offset = a.LHS.lower(sql, offset, params)
	*sql = append(*sql, " AND "...)
	offset = a.RHS.lower(sql, offset, params)
	*sql = append(*sql, ')')
	return offset
}

func (o *Or) lower(sql *[]byte, offset int, params *Params) int {
	*sql = append(*sql, '(')
	offset = o.LHS.lower(sql, offset, params)
	*sql = append(*sql, " OR "...)
	offset = o.RHS.lower(sql, offset, params)
	*sql = append(*sql, ')')
	return offset
}

// Not emits a bare NOT prefix. SQL's NOT binds looser than every comparison
// operator, and And/Or nodes parenthesize themselves, so no extra grouping
// is needed.
func (n *Not) lower(sql *[]byte, offset int, params *Params) int {
	*sql = append(*sql, "NOT "...)
	return n.Child.lower(sql, offset, params)
}
