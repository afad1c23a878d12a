// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package tailview follows the logs table like tail -f: poll for rows newer
// than the last seen id, print them oldest-first, sleep, repeat.
package tailview

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/elastic/loghaven/internal/event"
	"github.com/elastic/loghaven/internal/query"
)

// DefaultFields are printed when the caller names none.
var DefaultFields = []string{"hostname", "syslogtag", "msg"}

// Options controls what the tailer prints and how often it polls.
type Options struct {
	Table        string
	Query        string
	MaxAge       string // postgres interval literal, e.g. "1 hour"
	MaxLines     int64
	PollInterval time.Duration
	Fields       []string
}

// Tailer polls the table and writes formatted lines to Out.
type Tailer struct {
	DB   *sql.DB
	Out  io.Writer
	Opts Options
}

// tailQuery selects the newest matching rows above a floor id. n is the
// number of placeholders the compiled expression already uses.
func tailQuery(table, expr string, n int) string {
	return fmt.Sprintf(`select id, tstamp, doc from %s
where %s
and id > $%d
and tstamp > now() - cast($%d::varchar as interval)
order by id desc
limit $%d`, table, expr, n+1, n+2, n+3)
}

// Run polls until the context is done.
func (t *Tailer) Run(ctx context.Context) error {
	expr, params, err := query.ToSQL(t.Opts.Query, 1)
	if err != nil {
		return fmt.Errorf("compile query: %w", err)
	}
	stmt, err := t.DB.PrepareContext(ctx, tailQuery(t.Opts.Table, expr, len(params)))
	if err != nil {
		return fmt.Errorf("prepare tail query: %w", err)
	}
	defer stmt.Close()

	fields := t.Opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	var lastID int64
	ticker := time.NewTicker(t.Opts.PollInterval)
	defer ticker.Stop()
	for {
		if err := t.poll(ctx, stmt, params, fields, &lastID); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tailer) poll(ctx context.Context, stmt *sql.Stmt, params query.Params, fields []string, lastID *int64) error {
	args := make([]any, 0, len(params)+3)
	for _, p := range params {
		args = append(args, p)
	}
	args = append(args, *lastID, t.Opts.MaxAge, t.Opts.MaxLines)

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	defer rows.Close()

	type entry struct {
		id     int64
		tstamp time.Time
		doc    []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.tstamp, &e.doc); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	// Rows arrive newest-first; print them in time order.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		doc := map[string]any{}
		if err := json.Unmarshal(e.doc, &doc); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		ev := &event.Event{Timestamp: e.tstamp, Doc: doc}
		fmt.Fprintln(t.Out, formatLine(ev, fields))
		if e.id > *lastID {
			*lastID = e.id
		}
	}
	return nil
}

// severityColors maps textual severities to their display color. Severities
// not listed print unstyled.
var severityColors = map[string]*color.Color{
	"emergency": color.New(color.FgRed, color.Bold),
	"alert":     color.New(color.FgRed, color.Bold),
	"critical":  color.New(color.FgRed, color.Bold),
	"error":     color.New(color.FgRed),
	"warning":   color.New(color.FgYellow),
	"notice":    color.New(color.FgCyan),
	"debug":     color.New(color.Faint),
}

func formatLine(ev *event.Event, fields []string) string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, ev.Timestamp.Format("2006-01-02 15:04:05"))
	for _, field := range fields {
		text, ok := ev.Printable(field)
		if !ok {
			text = "None"
		}
		parts = append(parts, text)
	}
	line := strings.Join(parts, " ")

	severity, _ := ev.Doc["syslogseverity"].(string)
	if c, ok := severityColors[severity]; ok {
		return c.Sprint(line)
	}
	return line
}
