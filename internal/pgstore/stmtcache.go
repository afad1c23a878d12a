// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Preparer is the subset of *sql.DB the cache needs.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StmtCache keeps one prepared insert statement per root table, evicting the
// least recently used entry when full. It is owned by the single ingest loop
// and therefore does no locking of its own beyond the LRU's.
type StmtCache struct {
	db    Preparer
	cache *lru.Cache[string, *sql.Stmt]
}

// NewStmtCache builds a cache holding at most size statements. Evicted
// statements are closed.
func NewStmtCache(db Preparer, size int) (*StmtCache, error) {
	cache, err := lru.NewWithEvict(size, func(_ string, stmt *sql.Stmt) {
		stmt.Close()
	})
	if err != nil {
		return nil, err
	}
	return &StmtCache{db: db, cache: cache}, nil
}

// Insert returns the prepared insert statement for table, preparing and
// admitting it on a miss.
func (c *StmtCache) Insert(ctx context.Context, table string) (*sql.Stmt, error) {
	if stmt, ok := c.cache.Get(table); ok {
		return stmt, nil
	}
	stmt, err := c.db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (tstamp, doc, search) VALUES ($1, $2, to_tsvector($3))", table))
	if err != nil {
		return nil, fmt.Errorf("prepare insert for %s: %w", table, err)
	}
	c.cache.Add(table, stmt)
	return stmt, nil
}

// Drop evicts the statement for table, closing it.
func (c *StmtCache) Drop(table string) {
	c.cache.Remove(table)
}

// Close evicts everything.
func (c *StmtCache) Close() {
	c.cache.Purge()
}
