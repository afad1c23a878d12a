// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"time"

	"github.com/elastic/loghaven/internal/interval"
)

// The sub-query builders produce parameterized SQL whose placeholder numbers
// are chosen by the caller, so the compiled expression's parameters and the
// window parameters can share one flat argument vector. Every builder wraps
// its result in a jsonb aggregate so each statement yields exactly one row
// with a single "doc" column that is embedded verbatim in the response body.

func eventsQuery(table, expr string, limitID, startID, endID int) string {
	return fmt.Sprintf(`select jsonb_agg(doc) as doc from (
    select jsonb_build_object('timestamp', tstamp, 'id', id, 'source', doc) as doc
    from %s
    where %s
    and tstamp between $%d and $%d
    order by tstamp desc
    limit $%d
) e`, table, expr, startID, endID, limitID)
}

// fieldsQuery ranks the top 5 values per key over a sample of the 500 most
// recent matching rows. Array-valued fields contribute each element.
func fieldsQuery(table, expr string, startID, endID int) string {
	return fmt.Sprintf(`select jsonb_object_agg(key, values) as doc from (
    select key::varchar, jsonb_object_agg(coalesce(value::text, ''), count::integer) as values from (
        select row_number() over (
                partition by key
                order by count desc
            ) as row_number, count, key, value
        from (
            select count(*), key, jsonb_array_elements(
                case
                    when jsonb_typeof(value) = 'array' then value
                    else jsonb_build_array(value)
                end) #>> '{}' as value
            from (
                select doc
                from %s
                where %s
                and tstamp between $%d and $%d
                order by tstamp desc
                limit 500
            ) limited_logs, jsonb_each(doc)
            group by key, value
            order by key, count desc
        ) counted
    ) ranked
    where row_number <= 5
    group by key
) f`, table, expr, startID, endID)
}

// countsQuery buckets matching rows onto a generated time series so empty
// buckets show up as zero.
func countsQuery(table, expr string, startID, endID int, iv interval.CountsInterval) string {
	return fmt.Sprintf(`select jsonb_object_agg(tstamp, count) as doc from (
    select date_trunc('%s', gen_time) as tstamp, sum(coalesce(subcount, 0)) as count
    from generate_series($%d, $%d, '%s'::interval) gen_time
    left join (select date_trunc('%s', tstamp) as log_time, count(*) as subcount
        from %s
        where %s
        and tstamp between $%d and $%d
        group by log_time
    ) l
    on log_time between gen_time - '%s'::interval and gen_time
    group by tstamp
    order by tstamp
) c`, iv.Truncate, startID, endID, iv.Interval, iv.Truncate,
		table, expr, startID, endID, iv.Interval)
}

// metadataQuery reports the planner's row estimate for the window plus the
// chosen bucket width. The window is embedded in the estimated statement's
// text because count_estimate takes a query string, not parameters.
func metadataQuery(table string, start, end time.Time, iv interval.CountsInterval) string {
	return fmt.Sprintf(`select jsonb_object_agg(key, value) as doc from (
    select 'event_count' as key, count_estimate('select * from %s where tstamp between ''%s'' and ''%s''') as value
    union
    select 'counts_interval_sec' as key, %d as value
) m`, table, start.Format(time.RFC3339), end.Format(time.RFC3339), iv.Seconds)
}

// splitCountsQuery is the two-level variant: the top max_buckets series by
// total, each bucketed over the generated time series. valueAgg is the
// aggregate applied per bucket (count(*) by default) and outerSum folds the
// joined buckets, optionally coalescing missing values to zero.
func splitCountsQuery(table, getter, expr, valueAgg, outerSum string, startID, endID, maxBucketsID int, iv interval.CountsInterval) string {
	return fmt.Sprintf(`select jsonb_object_agg(tstamp, points) as doc from (
    select tstamp, jsonb_object_agg(id, count) as points from (
        select date_trunc('%s', gen_time) as tstamp, series.id as id, %s as count
        from (select gen_time, id from
                generate_series($%d, $%d, '%s'::interval) gen_time,
                (select distinct %s as id, count(*) as count
                from %s
                where %s
                and tstamp between $%d and $%d
                group by 1
                order by count desc
                limit $%d) split
            ) series
        left join (select date_trunc('%s', tstamp) as log_time, %s as id, %s as subcount
                from %s
                where %s
                and tstamp between $%d and $%d
                group by log_time, 2
            ) l
        on log_time between gen_time - '%s'::interval and gen_time
        and series.id = l.id
        group by tstamp, series.id
        order by tstamp, series.id
    ) p
    group by tstamp
) c`, iv.Truncate, outerSum,
		startID, endID, iv.Interval,
		getter, table, expr, startID, endID, maxBucketsID,
		iv.Truncate, getter, valueAgg, table, expr, startID, endID,
		iv.Interval)
}
