// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package query

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenString
	TokenInt
	TokenFloat
	TokenLParen
	TokenRParen
	TokenComma
	TokenEq
	TokenNeq
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenLike
)

var tokenNames = map[TokenKind]string{
	TokenEOF:    "end of input",
	TokenIdent:  "identifier",
	TokenString: "string",
	TokenInt:    "integer",
	TokenFloat:  "float",
	TokenLParen: "'('",
	TokenRParen: "')'",
	TokenComma:  "','",
	TokenEq:     "'='",
	TokenNeq:    "'!='",
	TokenLt:     "'<'",
	TokenLe:     "'<='",
	TokenGt:     "'>'",
	TokenGe:     "'>='",
	TokenAnd:    "'and'",
	TokenOr:     "'or'",
	TokenNot:    "'not'",
	TokenIn:     "'in'",
	TokenLike:   "'like'",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is a single lexeme with its 0-based character offset in the input.
type Token struct {
	Kind   TokenKind
	Text   string // decoded text for strings, raw text otherwise
	Int    int64
	Float  float64
	Offset int
}

// Operator keywords are matched case-insensitively. Dotted identifiers never
// collide with keywords because keywords contain neither dots nor dashes.
var keywords = map[string]TokenKind{
	"and":  TokenAnd,
	"or":   TokenOr,
	"not":  TokenNot,
	"in":   TokenIn,
	"like": TokenLike,
}
