// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package query implements the log query language: a small boolean expression
// grammar over event fields plus full-text search, compiled to a parameterized
// SQL fragment. Parsing and lowering are pure functions, so concurrent
// requests need no shared parser state.
package query

// parser is a recursive-descent parser with one token of lookahead.
//
// Grammar:
//
//	Expression ::= OrTerm  ( "or"  OrTerm  )*
//	OrTerm     ::= AndTerm ( "and" AndTerm )*
//	AndTerm    ::= "not" Term | Term
//	Term       ::= String | Compare | "(" Expression ")"
//	Compare    ::= Identifier Op Value
//	Value      ::= Scalar | "(" (Scalar ("," Scalar)*)? ")"
//
// "not" binds tightest, then "and", then "or"; both combinators associate
// left. Negated comparison operators desugar to Not around the positive form.
type parser struct {
	lex *lexer
	tok Token
}

// Parse parses a non-empty query expression into its tree form.
func Parse(input string) (Expr, error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokenEOF {
		return nil, &ParseError{Offset: p.tok.Offset}
	}
	return expr, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) unexpected() error {
	return &ParseError{Offset: p.tok.Offset}
}

func (p *parser) parseExpression() (Expr, error) {
	lhs, err := p.parseOrTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokenOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseOrTerm()
		if err != nil {
			return nil, err
		}
		lhs = &Or{LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *parser) parseOrTerm() (Expr, error) {
	lhs, err := p.parseAndTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokenAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAndTerm()
		if err != nil {
			return nil, err
		}
		lhs = &And{LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAndTerm() (Expr, error) {
	if p.tok.Kind == TokenNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		child, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil
	}
	return p.parseTerm()
}

func (p *parser) parseTerm() (Expr, error) {
	switch p.tok.Kind {
	case TokenString:
		text := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &FullTextSearch{Text: text}, nil
	case TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.tok.Kind != TokenRParen {
			return nil, p.unexpected()
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenIdent:
		return p.parseCompare()
	default:
		return nil, p.unexpected()
	}
}

func (p *parser) parseCompare() (Expr, error) {
	identifier := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}

	var op Operator
	negated := false
	switch p.tok.Kind {
	case TokenEq:
		op = OpEq
	case TokenNeq:
		op, negated = OpEq, true
	case TokenLt:
		op = OpLt
	case TokenLe:
		op = OpLe
	case TokenGt:
		op = OpGt
	case TokenGe:
		op = OpGe
	case TokenIn:
		op = OpIn
	case TokenLike:
		op = OpLike
	case TokenNot:
		// Two-token forms "not in" / "not like".
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.tok.Kind {
		case TokenIn:
			op, negated = OpIn, true
		case TokenLike:
			op, negated = OpLike, true
		default:
			return nil, p.unexpected()
		}
	default:
		return nil, p.unexpected()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	val, err := p.parseValue(op)
	if err != nil {
		return nil, err
	}

	var expr Expr = &Comparison{Identifier: identifier, Op: op, Val: val}
	if negated {
		expr = &Not{Child: expr}
	}
	return expr, nil
}

func (p *parser) parseValue(op Operator) (Value, error) {
	if p.tok.Kind == TokenLParen {
		listOffset := p.tok.Offset
		list, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		if op != OpIn {
			return Value{}, &ParseError{Offset: listOffset}
		}
		return Value{List: list, IsList: true}, nil
	}
	scalar, err := p.parseScalar()
	if err != nil {
		return Value{}, err
	}
	return Value{Scalar: scalar}, nil
}

func (p *parser) parseList() ([]any, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	list := []any{}
	if p.tok.Kind == TokenRParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return list, nil
	}
	for {
		scalar, err := p.parseScalar()
		if err != nil {
			return nil, err
		}
		list = append(list, scalar)
		switch p.tok.Kind {
		case TokenComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case TokenRParen:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, p.unexpected()
		}
	}
}

func (p *parser) parseScalar() (any, error) {
	var scalar any
	switch p.tok.Kind {
	case TokenInt:
		scalar = p.tok.Int
	case TokenFloat:
		scalar = p.tok.Float
	case TokenString:
		scalar = p.tok.Text
	default:
		return nil, p.unexpected()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return scalar, nil
}
