// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the query side over HTTP: /events streams the
// composite events/fields/counts/metadata document, /counts streams
// time-bucketed counts with optional series splitting.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/elastic/loghaven/internal/interval"
	"github.com/elastic/loghaven/internal/query"
)

// Server handles the query API against one root table.
type Server struct {
	DB     *sql.DB
	Table  string
	Logger *zap.Logger
}

// Handler routes the two endpoints. Anything else is a 404.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /counts", s.handleCounts)
	return mux
}

type docResult struct {
	doc string
	err error
}

// queryDoc runs one single-row sub-query in the background. A NULL doc
// (no matching rows) becomes the JSON literal null.
func (s *Server) queryDoc(ctx context.Context, sqlText string, args []any) <-chan docResult {
	ch := make(chan docResult, 1)
	go func() {
		var doc sql.NullString
		if err := s.DB.QueryRowContext(ctx, sqlText, args...).Scan(&doc); err != nil {
			ch <- docResult{err: err}
			return
		}
		if !doc.Valid {
			ch <- docResult{doc: "null"}
			return
		}
		ch <- docResult{doc: doc.String}
	}()
	return ch
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	req, err := decodeEventsRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	expr, params, err := query.ToSQL(req.Query, 1)
	if err != nil {
		http.Error(w, fmt.Sprintf("malformed query: %v", err), http.StatusBadRequest)
		return
	}

	n := len(params)
	iv := interval.From(req.End.Sub(req.Start))

	ctx := r.Context()
	events := s.queryDoc(ctx,
		eventsQuery(s.Table, expr, n+1, n+2, n+3),
		append(queryArgs(params), req.LimitEvents, req.Start, req.End))
	fields := s.queryDoc(ctx,
		fieldsQuery(s.Table, expr, n+1, n+2),
		append(queryArgs(params), req.Start, req.End))
	counts := s.queryDoc(ctx,
		countsQuery(s.Table, expr, n+1, n+2, iv),
		append(queryArgs(params), req.Start, req.End))
	metadata := s.queryDoc(ctx,
		metadataQuery(s.Table, req.Start, req.End, iv), nil)

	// The first result decides the status code; afterwards errors can only
	// truncate the body.
	first := <-events
	if first.err != nil {
		s.Logger.Error("fetch events", zap.Error(first.err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	stream := newStreamWriter(w)
	stream.write(`{"events":` + first.doc)
	for _, part := range []struct {
		key string
		ch  <-chan docResult
	}{
		{"fields", fields},
		{"counts", counts},
		{"metadata", metadata},
	} {
		res := <-part.ch
		if res.err != nil {
			s.Logger.Error("fetch "+part.key, zap.Error(res.err))
			return
		}
		stream.write(`, "` + part.key + `":` + res.doc)
	}
	stream.write("}")
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCountsRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Placeholder layout: split getter first, then the optional value
	// getter, then the compiled expression, then window and limit.
	offset := 1
	var args []any
	var getter, valueAgg, outerSum string
	split := req.SplitBy != ""
	if split {
		g, gp, err := query.IdentifierPrimitive(req.SplitBy, offset)
		if err != nil {
			http.Error(w, fmt.Sprintf("malformed split_by: %v", err), http.StatusBadRequest)
			return
		}
		getter = fmt.Sprintf("coalesce(%s, '(null)')", g)
		offset++
		args = append(args, queryArgs(gp)...)

		valueAgg = "count(*)"
		outerSum = "sum(coalesce(subcount, 0))"
		if req.Value != "" {
			v, vp, err := query.IdentifierPrimitive(req.Value, offset)
			if err != nil {
				http.Error(w, fmt.Sprintf("malformed value: %v", err), http.StatusBadRequest)
				return
			}
			offset++
			args = append(args, queryArgs(vp)...)
			if req.Aggregate == "count" {
				valueAgg = fmt.Sprintf("count(%s)", v)
			} else {
				valueAgg = fmt.Sprintf("%s(to_number_or_null(%s))", req.Aggregate, v)
			}
			outerSum = "sum(subcount)"
			if req.MissingValueIsZero {
				outerSum = "sum(coalesce(subcount, 0))"
			}
		}
	}

	expr, params, err := query.ToSQL(req.Query, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("malformed query: %v", err), http.StatusBadRequest)
		return
	}
	args = append(args, queryArgs(params)...)
	n := offset - 1 + len(params)
	iv := interval.From(req.End.Sub(req.Start))

	var sqlText string
	if split {
		sqlText = splitCountsQuery(s.Table, getter, expr, valueAgg, outerSum, n+1, n+2, n+3, iv)
		args = append(args, req.Start, req.End, req.MaxBuckets)
	} else {
		sqlText = countsQuery(s.Table, expr, n+1, n+2, iv)
		args = append(args, req.Start, req.End)
	}

	res := <-s.queryDoc(r.Context(), sqlText, args)
	if res.err != nil {
		s.Logger.Error("fetch counts", zap.Error(res.err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	stream := newStreamWriter(w)
	stream.write(fmt.Sprintf(`{"metadata":{"counts_interval_sec": %d},"counts":`, iv.Seconds))
	stream.write(res.doc)
	stream.write("}")
}

func queryArgs(params query.Params) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}
	return args
}

type streamWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// newStreamWriter flushes after every chunk so clients see the body as it is
// assembled.
func newStreamWriter(w http.ResponseWriter) *streamWriter {
	f, _ := w.(http.Flusher)
	return &streamWriter{w: w, f: f}
}

func (s *streamWriter) write(chunk string) {
	if _, err := s.w.Write([]byte(chunk)); err != nil {
		return
	}
	if s.f != nil {
		s.f.Flush()
	}
}
