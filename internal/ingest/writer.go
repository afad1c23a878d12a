// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/elastic/loghaven/internal/event"
	"github.com/elastic/loghaven/internal/partition"
	"github.com/elastic/loghaven/internal/pgstore"
)

// Execer is the subset of *sql.DB the writer needs for DDL.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TableWriter inserts events into the root table of a partition chain,
// creating missing partitions on demand.
type TableWriter struct {
	DB     Execer
	Cache  *pgstore.StmtCache
	Chain  []partition.Strategy
	Logger *zap.Logger
}

// Insert stores the event. A failed insert usually means the leaf partition
// for this timestamp does not exist yet, so the partition chain is
// materialized and the insert retried exactly once.
func (w *TableWriter) Insert(ctx context.Context, ev *event.Event) error {
	search := ev.SearchString()
	doc, err := json.Marshal(ev.Doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := w.insertOnce(ctx, ev, doc, search); err != nil {
		w.Logger.Info("event insertion failed, creating missing partitions",
			zap.Error(err))
		for _, stmt := range partition.CreateStatements(w.Chain, ev.Timestamp) {
			if _, err := w.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create partition: %w", err)
			}
		}
		if err := w.insertOnce(ctx, ev, doc, search); err != nil {
			return fmt.Errorf("insert after creating partitions: %w", err)
		}
	}
	return nil
}

func (w *TableWriter) insertOnce(ctx context.Context, ev *event.Event, doc []byte, search string) error {
	stmt, err := w.Cache.Insert(ctx, w.Chain[0].TableName(ev.Timestamp))
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, ev.Timestamp, doc, search)
	return err
}
