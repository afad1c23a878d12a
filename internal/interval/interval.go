// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package interval picks time-series bucket widths for counts queries.
package interval

import "time"

// CountsInterval is a bucket width expressed three ways: raw seconds for
// clients, an interval literal and a date_trunc unit for SQL.
type CountsInterval struct {
	Seconds  int64
	Interval string
	Truncate string
}

type ladderEntry struct {
	seconds  int64
	interval string
	truncate string
}

// The ladder is ordered; From picks the first entry that yields fewer than
// 100 buckets over the requested window.
var ladder = []ladderEntry{
	{1, "1 seconds", "second"},
	{2, "2 seconds", "second"},
	{5, "5 seconds", "second"},
	{10, "10 seconds", "second"},
	{30, "30 seconds", "second"},
	{60, "1 minute", "minute"},
	{2 * 60, "2 minutes", "minute"},
	{5 * 60, "5 minutes", "minute"},
	{10 * 60, "10 minutes", "minute"},
	{30 * 60, "30 minutes", "minute"},
	{3600, "1 hour", "hour"},
	{2 * 3600, "2 hours", "hour"},
	{5 * 3600, "5 hours", "hour"},
	{10 * 3600, "10 hours", "hour"},
	{24 * 3600, "1 day", "day"},
	{2 * 24 * 3600, "2 days", "day"},
	{7 * 24 * 3600, "1 week", "week"},
	{2 * 7 * 24 * 3600, "2 weeks", "week"},
	{30 * 24 * 3600, "1 month", "month"},
	{2 * 30 * 24 * 3600, "2 months", "month"},
	{3 * 30 * 24 * 3600, "3 months", "month"},
	{4 * 30 * 24 * 3600, "4 months", "month"},
	{6 * 30 * 24 * 3600, "6 months", "month"},
	{365 * 24 * 3600, "1 year", "year"},
	{2 * 365 * 24 * 3600, "2 years", "year"},
	{5 * 365 * 24 * 3600, "5 years", "year"},
	{10 * 365 * 24 * 3600, "10 years", "year"},
	{20 * 365 * 24 * 3600, "20 years", "year"},
	{50 * 365 * 24 * 3600, "50 years", "year"},
}

var fallback = CountsInterval{
	Seconds:  100 * 365 * 24 * 3600,
	Interval: "100 years",
	Truncate: "year",
}

// From resolves the bucket width for a query window of duration d. The sign
// of d does not matter.
func From(d time.Duration) CountsInterval {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = -secs
	}
	for _, e := range ladder {
		if secs/e.seconds < 100 {
			return CountsInterval{Seconds: e.seconds, Interval: e.interval, Truncate: e.truncate}
		}
	}
	return fallback
}
