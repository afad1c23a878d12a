// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package query

import (
	"regexp"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramValues(params Params) []any {
	vals := make([]any, len(params))
	for i, p := range params {
		vals[i] = p.V
	}
	return vals
}

func TestToSQLEmpty(t *testing.T) {
	sql, params, err := ToSQL("", 1)
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, params)
}

func TestToSQLEquality(t *testing.T) {
	sql, params, err := ToSQL(`id = "value"`, 1)
	require.NoError(t, err)
	assert.Equal(t, "doc -> ($1::jsonb #>> '{}') @> $2", sql)
	assert.Equal(t, []any{"id", "value"}, paramValues(params))
}

func TestToSQLIn(t *testing.T) {
	sql, params, err := ToSQL(`id in (1, 2, 3)`, 1)
	require.NoError(t, err)
	assert.Equal(t,
		"doc ->> ($1::jsonb #>> '{}') IN (select jsonb_array_elements($2::jsonb) #>> '{}')",
		sql)
	assert.Equal(t, []any{"id", []any{int64(1), int64(2), int64(3)}}, paramValues(params))
}

func TestToSQLFullText(t *testing.T) {
	sql, params, err := ToSQL(`"needle"`, 1)
	require.NoError(t, err)
	assert.Equal(t, "search @@ websearch_to_tsquery($1::jsonb #>> '{}')", sql)
	assert.Equal(t, []any{"needle"}, paramValues(params))
}

func TestToSQLNumericComparison(t *testing.T) {
	sql, params, err := ToSQL(`pid > 100`, 1)
	require.NoError(t, err)
	assert.Equal(t,
		"to_number_or_null(doc ->> ($1::jsonb #>> '{}')) > ($2::jsonb #>> '{}')::numeric",
		sql)
	assert.Equal(t, []any{"pid", int64(100)}, paramValues(params))
}

func TestToSQLLike(t *testing.T) {
	sql, params, err := ToSQL(`syslogtag like "cron%"`, 1)
	require.NoError(t, err)
	assert.Equal(t, "doc ->> ($1::jsonb #>> '{}') LIKE $2::jsonb #>> '{}'", sql)
	assert.Equal(t, []any{"syslogtag", "cron%"}, paramValues(params))
}

// Negated leaves compile to the positive form behind a bare NOT prefix.
func TestToSQLNegations(t *testing.T) {
	pos, posParams, err := ToSQL(`id = 1`, 1)
	require.NoError(t, err)
	neg, negParams, err := ToSQL(`id != 1`, 1)
	require.NoError(t, err)
	assert.Equal(t, "NOT "+pos, neg)
	assert.Equal(t, paramValues(posParams), paramValues(negParams))

	pos, _, err = ToSQL(`id in (1, 2)`, 1)
	require.NoError(t, err)
	neg, _, err = ToSQL(`id not in (1, 2)`, 1)
	require.NoError(t, err)
	assert.Equal(t, "NOT "+pos, neg)

	pos, _, err = ToSQL(`id like "x%"`, 1)
	require.NoError(t, err)
	neg, _, err = ToSQL(`id not like "x%"`, 1)
	require.NoError(t, err)
	assert.Equal(t, "NOT "+pos, neg)
}

func TestToSQLPrecedenceShape(t *testing.T) {
	sql, params, err := ToSQL(`id = 1 or id = 2 and id2 = 1 or id2 = 2`, 1)
	require.NoError(t, err)
	want := "((doc -> ($1::jsonb #>> '{}') @> $2" +
		" OR (doc -> ($3::jsonb #>> '{}') @> $4" +
		" AND doc -> ($5::jsonb #>> '{}') @> $6))" +
		" OR doc -> ($7::jsonb #>> '{}') @> $8)"
	assert.Equal(t, want, sql)
	assert.Len(t, params, 8)
}

func TestToSQLParamOffset(t *testing.T) {
	sql, params, err := ToSQL(`id = 123`, 5)
	require.NoError(t, err)
	assert.Equal(t, "doc -> ($5::jsonb #>> '{}') @> $6", sql)
	assert.Equal(t, []any{"id", int64(123)}, paramValues(params))

	sql, params, err = ToSQL(`"needle"`, 11)
	require.NoError(t, err)
	assert.Equal(t, "search @@ websearch_to_tsquery($11::jsonb #>> '{}')", sql)
	assert.Len(t, params, 1)
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// Compilation is deterministic and the placeholder range is gapless starting
// at the requested offset.
func TestToSQLPlaceholderInvariants(t *testing.T) {
	inputs := []string{
		`id = 1`,
		`id != "x" and pid >= 2 or not "fts"`,
		`a.b.c in (1, 2.5, "x") and tag not like "%y"`,
		`not (a = 1 or b = 2) and "text search"`,
	}
	for _, input := range inputs {
		for _, offset := range []int{1, 4} {
			sql1, params1, err := ToSQL(input, offset)
			require.NoError(t, err, "input %q", input)
			sql2, params2, err := ToSQL(input, offset)
			require.NoError(t, err)
			assert.Equal(t, sql1, sql2, "input %q not deterministic", input)
			assert.Equal(t, paramValues(params1), paramValues(params2))

			seen := map[int]bool{}
			for _, m := range placeholderRe.FindAllStringSubmatch(sql1, -1) {
				n, err := strconv.Atoi(m[1])
				require.NoError(t, err)
				seen[n] = true
			}
			var ns []int
			for n := range seen {
				ns = append(ns, n)
			}
			sort.Ints(ns)
			require.Len(t, ns, len(params1), "input %q offset %d", input, offset)
			for i, n := range ns {
				assert.Equal(t, offset+i, n, "input %q offset %d has placeholder gap", input, offset)
			}
		}
	}
}

func TestIdentifierGetters(t *testing.T) {
	sql, params, err := IdentifierPrimitive("vars.request.path", 1)
	require.NoError(t, err)
	assert.Equal(t, "doc ->> ($1::jsonb #>> '{}')", sql)
	assert.Equal(t, []any{"vars.request.path"}, paramValues(params))

	sql, params, err = IdentifierJSON("hostname", 3)
	require.NoError(t, err)
	assert.Equal(t, "doc -> ($3::jsonb #>> '{}')", sql)
	assert.Equal(t, []any{"hostname"}, paramValues(params))

	_, _, err = IdentifierPrimitive("0bad", 1)
	assert.Error(t, err)
}

func TestParamJSONEncoding(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{"id", `"id"`},
		{int64(123), `123`},
		{1.5, `1.5`},
		{[]any{int64(1), int64(2), int64(3)}, `[1,2,3]`},
	}
	for _, tt := range tests {
		got, err := Param{V: tt.v}.Value()
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got.([]byte)))
	}
}
