// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"strconv"
	"strings"
)

// lexer splits a query expression into tokens. It is a plain scanner over the
// input bytes; the grammar is ASCII apart from string literal contents.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// next returns the next token or a ParseError locating the offending input.
func (l *lexer) next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Offset: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]
	switch {
	case c == '(':
		l.pos++
		return Token{Kind: TokenLParen, Text: "(", Offset: start}, nil
	case c == ')':
		l.pos++
		return Token{Kind: TokenRParen, Text: ")", Offset: start}, nil
	case c == ',':
		l.pos++
		return Token{Kind: TokenComma, Text: ",", Offset: start}, nil
	case c == '=':
		l.pos++
		return Token{Kind: TokenEq, Text: "=", Offset: start}, nil
	case c == '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Kind: TokenNeq, Text: "!=", Offset: start}, nil
		}
		return Token{}, &ParseError{Offset: start}
	case c == '<':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Kind: TokenLe, Text: "<=", Offset: start}, nil
		}
		l.pos++
		return Token{Kind: TokenLt, Text: "<", Offset: start}, nil
	case c == '>':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Kind: TokenGe, Text: ">=", Offset: start}, nil
		}
		l.pos++
		return Token{Kind: TokenGt, Text: ">", Offset: start}, nil
	case c == '"':
		return l.scanString()
	case c >= '0' && c <= '9':
		return l.scanNumber()
	case isIdentHead(c):
		return l.scanIdent()
	default:
		return Token{}, &ParseError{Offset: start}
	}
}

func isIdentHead(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentTail(c byte) bool {
	return isIdentHead(c) || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

// scanIdent consumes a dotted identifier: IdHead ("." IdHead)*. Each segment
// starts with a letter. A bare segment that matches an operator keyword is
// returned as that keyword.
func (l *lexer) scanIdent() (Token, error) {
	start := l.pos
	for {
		if l.pos >= len(l.input) || !isIdentHead(l.input[l.pos]) {
			return Token{}, &ParseError{Offset: l.pos}
		}
		l.pos++
		for l.pos < len(l.input) && isIdentTail(l.input[l.pos]) {
			l.pos++
		}
		if l.pos < len(l.input) && l.input[l.pos] == '.' {
			l.pos++
			continue
		}
		break
	}

	text := l.input[start:l.pos]
	if kind, ok := keywords[strings.ToLower(text)]; ok {
		return Token{Kind: kind, Text: text, Offset: start}, nil
	}
	return Token{Kind: TokenIdent, Text: text, Offset: start}, nil
}

// scanNumber consumes Int ("." [0-9]+)?. Leading zeros are rejected by
// stopping after a lone "0"; the parser then trips over the trailing digits.
func (l *lexer) scanNumber() (Token, error) {
	start := l.pos
	if l.input[l.pos] == '0' {
		l.pos++
	} else {
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
		}
	}

	isFloat := false
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' &&
		l.input[l.pos+1] >= '0' && l.input[l.pos+1] <= '9' {
		isFloat = true
		l.pos++
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
		}
	}

	text := l.input[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, &ParseError{Offset: start}
		}
		return Token{Kind: TokenFloat, Text: text, Float: f, Offset: start}, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, &ParseError{Offset: start}
	}
	return Token{Kind: TokenInt, Text: text, Int: i, Offset: start}, nil
}

// scanString consumes a double-quoted literal with \" \\ \t \n \r escapes.
func (l *lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '"':
			l.pos++
			return Token{Kind: TokenString, Text: b.String(), Offset: start}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return Token{}, &ParseError{Offset: l.pos}
			}
			switch l.input[l.pos+1] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			default:
				return Token{}, &ParseError{Offset: l.pos}
			}
			l.pos += 2
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, &ParseError{Offset: l.pos}
}
