// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestTruncateBounds(t *testing.T) {
	ts := date(2026, time.August, 24, 13, 37, 42)

	tests := []struct {
		unit  Truncate
		lower time.Time
		upper time.Time
	}{
		{Year, date(2026, time.January, 1, 0, 0, 0), date(2027, time.January, 1, 0, 0, 0)},
		{Quarter, date(2026, time.July, 1, 0, 0, 0), date(2026, time.October, 1, 0, 0, 0)},
		{Month, date(2026, time.August, 1, 0, 0, 0), date(2026, time.September, 1, 0, 0, 0)},
		// 2026-08-24 is a Monday.
		{Week, date(2026, time.August, 24, 0, 0, 0), date(2026, time.August, 31, 0, 0, 0)},
		{Day, date(2026, time.August, 24, 0, 0, 0), date(2026, time.August, 25, 0, 0, 0)},
		{Hour, date(2026, time.August, 24, 13, 0, 0), date(2026, time.August, 24, 14, 0, 0)},
		{Minute, date(2026, time.August, 24, 13, 37, 0), date(2026, time.August, 24, 13, 38, 0)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.lower, tt.unit.LowerBound(ts), "%s lower", tt.unit)
		assert.Equal(t, tt.upper, tt.unit.UpperBound(ts), "%s upper", tt.unit)
	}

	// Sunday belongs to the week starting the previous Monday.
	sunday := date(2026, time.August, 23, 10, 0, 0)
	assert.Equal(t, date(2026, time.August, 17, 0, 0, 0), Week.LowerBound(sunday))

	// Month arithmetic must not skip short months.
	endOfJan := date(2026, time.January, 31, 23, 59, 59)
	assert.Equal(t, date(2026, time.February, 1, 0, 0, 0), Month.UpperBound(endOfJan))

	// Year boundary for quarters.
	december := date(2026, time.December, 5, 0, 0, 0)
	assert.Equal(t, date(2027, time.January, 1, 0, 0, 0), Quarter.UpperBound(december))
}

func TestTimeRangeNames(t *testing.T) {
	p := &TimeRange{NameTemplate: "logs_%Y_%m", Interval: Month}
	ts := date(2026, time.August, 24, 13, 37, 42)
	assert.Equal(t, "logs_2026_08", p.TableName(ts))
	assert.Equal(t, "range (tstamp)", p.PartitionBy())
	assert.Equal(t, "from ('2026-08-01') to ('2026-09-01')", p.Bounds(ts))
}

func TestCreateStatements(t *testing.T) {
	chain := []Strategy{
		DefaultRoot("logs"),
		&TimeRange{NameTemplate: "logs_%Y", Interval: Year},
		&TimeRange{NameTemplate: "logs_%Y_%m", Interval: Month},
	}
	ts := date(2026, time.August, 24, 13, 37, 42)

	want := []string{
		"create table if not exists logs (id integer not null default nextval('logs_id'), " +
			"tstamp timestamp with time zone not null, doc jsonb not null, search tsvector)" +
			" partition by range (tstamp)",
		"alter table logs owner to write_logs",
		"create table if not exists logs_2026 partition of logs" +
			" for values from ('2026-01-01') to ('2027-01-01') partition by range (tstamp)",
		"alter table logs_2026 owner to write_logs",
		"create table if not exists logs_2026_08 partition of logs_2026" +
			" for values from ('2026-08-01') to ('2026-09-01')",
		"alter table logs_2026_08 owner to write_logs",
	}
	assert.Equal(t, want, CreateStatements(chain, ts))
}

func TestRootTableName(t *testing.T) {
	root := DefaultRoot("logs")
	assert.Equal(t, "logs", root.TableName(time.Now()))
	assert.Equal(t, "logs", root.TableName(time.Time{}))
}
