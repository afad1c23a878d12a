// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A minimal driver so statement caching can be exercised without a server.
type recordingDriver struct {
	prepared []string
}

type recordingConn struct {
	d *recordingDriver
}

type recordingStmt struct{}

func (d *recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{d: d}, nil }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	c.d.prepared = append(c.d.prepared, query)
	return &recordingStmt{}, nil
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return 3 }
func (s *recordingStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}
func (s *recordingStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("not supported")
}

func openRecording(t *testing.T) (*sql.DB, *recordingDriver) {
	t.Helper()
	d := &recordingDriver{}
	name := "stmtcache-" + t.Name()
	sql.Register(name, d)
	db, err := sql.Open(name, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, d
}

func TestStmtCacheReusesStatements(t *testing.T) {
	db, d := openRecording(t)
	cache, err := NewStmtCache(db, 3)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	first, err := cache.Insert(ctx, "logs")
	require.NoError(t, err)
	second, err := cache.Insert(ctx, "logs")
	require.NoError(t, err)
	assert.Same(t, first, second)
	require.Len(t, d.prepared, 1)
	assert.Equal(t,
		"INSERT INTO logs (tstamp, doc, search) VALUES ($1, $2, to_tsvector($3))",
		d.prepared[0])
}

func TestStmtCacheEvictsLRU(t *testing.T) {
	db, d := openRecording(t)
	cache, err := NewStmtCache(db, 2)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	_, err = cache.Insert(ctx, "logs_a")
	require.NoError(t, err)
	_, err = cache.Insert(ctx, "logs_b")
	require.NoError(t, err)
	_, err = cache.Insert(ctx, "logs_c")
	require.NoError(t, err)
	require.Len(t, d.prepared, 3)

	// logs_a was evicted, so asking again re-prepares.
	_, err = cache.Insert(ctx, "logs_a")
	require.NoError(t, err)
	assert.Len(t, d.prepared, 4)

	// logs_c is still cached.
	_, err = cache.Insert(ctx, "logs_c")
	require.NoError(t, err)
	assert.Len(t, d.prepared, 4)
}

func TestStmtCacheDrop(t *testing.T) {
	db, d := openRecording(t)
	cache, err := NewStmtCache(db, 2)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	_, err = cache.Insert(ctx, "logs")
	require.NoError(t, err)
	cache.Drop("logs")
	_, err = cache.Insert(ctx, "logs")
	require.NoError(t, err)
	assert.Len(t, d.prepared, 2)
}
