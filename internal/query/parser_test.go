// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrecedence(t *testing.T) {
	expr, err := Parse(`not "fts"`)
	require.NoError(t, err)
	assert.Equal(t, &Not{Child: &FullTextSearch{Text: "fts"}}, expr)

	expr, err = Parse(`not "fts1" and "fts2"`)
	require.NoError(t, err)
	assert.Equal(t, &And{
		LHS: &Not{Child: &FullTextSearch{Text: "fts1"}},
		RHS: &FullTextSearch{Text: "fts2"},
	}, expr)

	expr, err = Parse(`"fts1" or not "fts2" and "fts3"`)
	require.NoError(t, err)
	assert.Equal(t, &Or{
		LHS: &FullTextSearch{Text: "fts1"},
		RHS: &And{
			LHS: &Not{Child: &FullTextSearch{Text: "fts2"}},
			RHS: &FullTextSearch{Text: "fts3"},
		},
	}, expr)

	expr, err = Parse(`("a" or "b") and "c"`)
	require.NoError(t, err)
	assert.Equal(t, &And{
		LHS: &Or{LHS: &FullTextSearch{Text: "a"}, RHS: &FullTextSearch{Text: "b"}},
		RHS: &FullTextSearch{Text: "c"},
	}, expr)
}

func TestParseLeftAssociativity(t *testing.T) {
	// a or b and c or d  ==  ((a or (b and c)) or d)
	expr, err := Parse(`"a" or "b" and "c" or "d"`)
	require.NoError(t, err)
	assert.Equal(t, &Or{
		LHS: &Or{
			LHS: &FullTextSearch{Text: "a"},
			RHS: &And{LHS: &FullTextSearch{Text: "b"}, RHS: &FullTextSearch{Text: "c"}},
		},
		RHS: &FullTextSearch{Text: "d"},
	}, expr)
}

func TestParseComparisons(t *testing.T) {
	expr, err := Parse(`ident = "value"`)
	require.NoError(t, err)
	assert.Equal(t, &Comparison{
		Identifier: "ident",
		Op:         OpEq,
		Val:        Value{Scalar: "value"},
	}, expr)

	expr, err = Parse(`counter >= 1.5`)
	require.NoError(t, err)
	assert.Equal(t, &Comparison{
		Identifier: "counter",
		Op:         OpGe,
		Val:        Value{Scalar: 1.5},
	}, expr)
}

func TestParseDesugaredNegations(t *testing.T) {
	expr, err := Parse(`id != 1`)
	require.NoError(t, err)
	assert.Equal(t, &Not{Child: &Comparison{
		Identifier: "id",
		Op:         OpEq,
		Val:        Value{Scalar: int64(1)},
	}}, expr)

	expr, err = Parse(`id not in (1, 2)`)
	require.NoError(t, err)
	assert.Equal(t, &Not{Child: &Comparison{
		Identifier: "id",
		Op:         OpIn,
		Val:        Value{List: []any{int64(1), int64(2)}, IsList: true},
	}}, expr)

	expr, err = Parse(`tag NOT LIKE "cron%"`)
	require.NoError(t, err)
	assert.Equal(t, &Not{Child: &Comparison{
		Identifier: "tag",
		Op:         OpLike,
		Val:        Value{Scalar: "cron%"},
	}}, expr)
}

func TestParseLists(t *testing.T) {
	expr, err := Parse(`id in ()`)
	require.NoError(t, err)
	assert.Equal(t, &Comparison{
		Identifier: "id",
		Op:         OpIn,
		Val:        Value{List: []any{}, IsList: true},
	}, expr)

	expr, err = Parse(`id in (1, 2.2, "three")`)
	require.NoError(t, err)
	assert.Equal(t, &Comparison{
		Identifier: "id",
		Op:         OpIn,
		Val:        Value{List: []any{int64(1), 2.2, "three"}, IsList: true},
	}, expr)

	// Trailing comma and list with a non-in operator are both malformed.
	_, err = Parse(`id in (1,)`)
	assert.Error(t, err)
	_, err = Parse(`id = (1, 2)`)
	assert.Error(t, err)
}

func TestParseErrorOffsets(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{`id =`, 4},
		{`id ! 1`, 3},
		{`= 1`, 0},
		{`id = 1 trailing`, 7},
		{`(id = 1`, 7},
		{`id not 5`, 7},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "input %q", tt.input)
		assert.Equal(t, tt.offset, perr.Offset, "input %q", tt.input)
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, input := range []string{"abc", "abc_def-ghi.x123", "vars.request.path"} {
		assert.NoError(t, validIdentifier(input), "input %q", input)
	}
	for _, input := range []string{"", "0asd", ".asd", "-asd", "a b", `"quoted"`} {
		assert.Error(t, validIdentifier(input), "input %q", input)
	}
}
