// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type eventsRequest struct {
	Start       time.Time
	End         time.Time
	Query       string
	LimitEvents *int64
}

type countsRequest struct {
	Start              time.Time
	End                time.Time
	Query              string
	SplitBy            string
	MaxBuckets         *int64
	Value              string
	Aggregate          string
	MissingValueIsZero bool
}

var aggregates = map[string]bool{
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
	"count": true,
}

func decodeEventsRequest(values url.Values) (*eventsRequest, error) {
	req := &eventsRequest{Query: values.Get("query")}
	var err error
	if req.Start, err = requireTime(values, "start"); err != nil {
		return nil, err
	}
	if req.End, err = requireTime(values, "end"); err != nil {
		return nil, err
	}
	if req.LimitEvents, err = optionalInt(values, "limit_events"); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeCountsRequest(values url.Values) (*countsRequest, error) {
	req := &countsRequest{
		Query:     values.Get("query"),
		SplitBy:   values.Get("split_by"),
		Value:     values.Get("value"),
		Aggregate: values.Get("aggregate"),
	}
	var err error
	if req.Start, err = requireTime(values, "start"); err != nil {
		return nil, err
	}
	if req.End, err = requireTime(values, "end"); err != nil {
		return nil, err
	}
	if req.MaxBuckets, err = optionalInt(values, "max_buckets"); err != nil {
		return nil, err
	}
	if raw := values.Get("missing_value_is_zero"); raw != "" {
		if req.MissingValueIsZero, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("invalid missing_value_is_zero %q", raw)
		}
	}

	if req.Aggregate == "" {
		req.Aggregate = "count"
	}
	if !aggregates[req.Aggregate] {
		return nil, fmt.Errorf("invalid aggregate %q", req.Aggregate)
	}
	if req.Aggregate != "count" && req.Value == "" {
		return nil, fmt.Errorf("aggregate %q requires a value field", req.Aggregate)
	}
	return req, nil
}

func requireTime(values url.Values, key string) (time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing parameter %q", key)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return ts, nil
}

func optionalInt(values url.Values, key string) (*int64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &n, nil
}
