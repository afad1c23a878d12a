// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/elastic/loghaven/internal/interval"
)

var testInterval = interval.CountsInterval{Seconds: 300, Interval: "5 minutes", Truncate: "minute"}

func TestEventsQuery(t *testing.T) {
	got := eventsQuery("logs", "1 = 1", 3, 4, 5)
	assert.Contains(t, got, "select jsonb_agg(doc) as doc from (")
	assert.Contains(t, got,
		"select jsonb_build_object('timestamp', tstamp, 'id', id, 'source', doc) as doc")
	assert.Contains(t, got, "from logs")
	assert.Contains(t, got, "where 1 = 1")
	assert.Contains(t, got, "and tstamp between $4 and $5")
	assert.Contains(t, got, "order by tstamp desc")
	assert.Contains(t, got, "limit $3")
}

func TestFieldsQuery(t *testing.T) {
	got := fieldsQuery("logs", "doc -> ($1::jsonb #>> '{}') @> $2", 3, 4)
	assert.Contains(t, got, "jsonb_each(doc)")
	assert.Contains(t, got, "jsonb_array_elements(")
	assert.Contains(t, got, "when jsonb_typeof(value) = 'array' then value")
	assert.Contains(t, got, "limit 500")
	assert.Contains(t, got, "where row_number <= 5")
	assert.Contains(t, got, "where doc -> ($1::jsonb #>> '{}') @> $2")
	assert.Contains(t, got, "and tstamp between $3 and $4")
}

func TestCountsQuery(t *testing.T) {
	got := countsQuery("logs", "1 = 1", 1, 2, testInterval)
	assert.Contains(t, got, "select jsonb_object_agg(tstamp, count) as doc from (")
	assert.Contains(t, got, "date_trunc('minute', gen_time) as tstamp")
	assert.Contains(t, got, "sum(coalesce(subcount, 0)) as count")
	assert.Contains(t, got, "generate_series($1, $2, '5 minutes'::interval) gen_time")
	assert.Contains(t, got, "on log_time between gen_time - '5 minutes'::interval and gen_time")
	assert.Contains(t, got, "order by tstamp")
}

func TestMetadataQuery(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	got := metadataQuery("logs", start, end, testInterval)
	assert.Contains(t, got,
		"count_estimate('select * from logs where tstamp between ''2026-08-24T10:00:00Z'' and ''2026-08-24T14:00:00Z''')")
	assert.Contains(t, got, "select 'counts_interval_sec' as key, 300 as value")
}

func TestSplitCountsQuery(t *testing.T) {
	getter := "coalesce(doc ->> ($1::jsonb #>> '{}'), '(null)')"
	got := splitCountsQuery("logs", getter, "1 = 1",
		"count(*)", "sum(coalesce(subcount, 0))", 2, 3, 4, testInterval)
	assert.Contains(t, got, "select jsonb_object_agg(tstamp, points) as doc from (")
	assert.Contains(t, got, "select distinct "+getter+" as id")
	assert.Contains(t, got, "limit $4) split")
	assert.Contains(t, got, getter+" as id, count(*) as subcount")
	assert.Contains(t, got, "and series.id = l.id")
	assert.Contains(t, got, "sum(coalesce(subcount, 0)) as count")
	assert.Contains(t, got, "group by log_time, 2")
}
