// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package partition plans the time-partitioned table hierarchy under the
// logs root table and produces the DDL to create missing partitions on
// demand.
package partition

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
)

// Strategy is one node in the partition chain. The first node is always a
// *Root naming the parent table; every later node derives a child table name
// from the event timestamp. Chain order is leaf-last.
type Strategy interface {
	// TableName returns the table this node maps the timestamp to.
	TableName(ts time.Time) string
	// PartitionBy returns the column expression a parent table is
	// partitioned by when this node is its child.
	PartitionBy() string
	// Bounds returns the "for values" clause for the bucket containing ts.
	Bounds(ts time.Time) string
}

// Root is the chain head: a concrete table with an explicit schema.
type Root struct {
	Table  string
	Schema string
}

// DefaultRoot matches the schema the query side expects: a jsonb document
// plus its tsvector projection, keyed by report time.
func DefaultRoot(table string) *Root {
	return &Root{
		Table: table,
		Schema: fmt.Sprintf("(id integer not null default nextval('%s_id'), "+
			"tstamp timestamp with time zone not null, "+
			"doc jsonb not null, "+
			"search tsvector)", table),
	}
}

func (r *Root) TableName(time.Time) string { return r.Table }
func (r *Root) PartitionBy() string        { return "" }
func (r *Root) Bounds(time.Time) string    { return "" }

// Truncate is a calendar truncation unit.
type Truncate string

const (
	Year    Truncate = "Year"
	Quarter Truncate = "Quarter"
	Month   Truncate = "Month"
	Week    Truncate = "Week"
	Day     Truncate = "Day"
	Hour    Truncate = "Hour"
	Minute  Truncate = "Minute"
)

// Valid reports whether t names a known truncation unit.
func (t Truncate) Valid() bool {
	switch t {
	case Year, Quarter, Month, Week, Day, Hour, Minute:
		return true
	}
	return false
}

// LowerBound returns the start of the unit bucket containing ts.
func (t Truncate) LowerBound(ts time.Time) time.Time {
	loc := ts.Location()
	switch t {
	case Year:
		return time.Date(ts.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case Quarter:
		month := time.January + time.Month((int(ts.Month())-1)/3*3)
		return time.Date(ts.Year(), month, 1, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, loc)
	case Week:
		// Monday of the ISO week.
		days := (int(ts.Weekday()) + 6) % 7
		monday := ts.AddDate(0, 0, -days)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
	case Day:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	case Hour:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, loc)
	case Minute:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), 0, 0, loc)
	}
	return ts
}

// UpperBound returns the start of the next bucket. Calendar units advance
// from the lower bound so month arithmetic never overflows into the bucket
// after next.
func (t Truncate) UpperBound(ts time.Time) time.Time {
	lower := t.LowerBound(ts)
	switch t {
	case Year:
		return lower.AddDate(1, 0, 0)
	case Quarter:
		return lower.AddDate(0, 3, 0)
	case Month:
		return lower.AddDate(0, 1, 0)
	case Week:
		return lower.AddDate(0, 0, 7)
	case Day:
		return lower.AddDate(0, 0, 1)
	case Hour:
		return lower.Add(time.Hour)
	case Minute:
		return lower.Add(time.Minute)
	}
	return lower
}

// TimeRange partitions its parent by calendar ranges of the tstamp column.
type TimeRange struct {
	NameTemplate string
	Interval     Truncate
}

func (p *TimeRange) TableName(ts time.Time) string {
	return strftime.Format(p.NameTemplate, ts)
}

func (p *TimeRange) PartitionBy() string { return "range (tstamp)" }

func (p *TimeRange) Bounds(ts time.Time) string {
	from := p.Interval.LowerBound(ts)
	to := p.Interval.UpperBound(ts)
	return fmt.Sprintf("from ('%s') to ('%s')",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// CreateStatements returns the DDL run after a failed insert: one create and
// one owner statement per chain node, root first. Creates are idempotent so
// racing importers do not conflict.
func CreateStatements(chain []Strategy, ts time.Time) []string {
	var stmts []string
	for i, node := range chain {
		name := node.TableName(ts)

		var stmt string
		if i == 0 {
			if root, ok := node.(*Root); ok {
				stmt = fmt.Sprintf("create table if not exists %s %s", name, root.Schema)
			} else {
				stmt = fmt.Sprintf("create table if not exists %s", name)
			}
		} else {
			parent := chain[i-1].TableName(ts)
			stmt = fmt.Sprintf("create table if not exists %s partition of %s for values %s",
				name, parent, node.Bounds(ts))
		}
		if i < len(chain)-1 {
			stmt += " partition by " + chain[i+1].PartitionBy()
		}

		stmts = append(stmts, stmt, fmt.Sprintf("alter table %s owner to write_logs", name))
	}
	return stmts
}
