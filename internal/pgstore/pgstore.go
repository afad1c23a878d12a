// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package pgstore owns the PostgreSQL connection: pool setup, TLS options on
// the DSN, the server-side helper functions the query paths rely on, and the
// prepared-statement cache used by the ingest loop.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// DefaultPoolSize bounds concurrent connections; callers block on acquire.
const DefaultPoolSize = 3

// TLSSettings selects client-side TLS for the database connection. All
// fields are file paths except the booleans.
type TLSSettings struct {
	PrivateCert            string   `mapstructure:"private_cert" yaml:"private_cert"`
	PrivateKey             string   `mapstructure:"private_key" yaml:"private_key"`
	CACerts                []string `mapstructure:"ca_certs" yaml:"ca_certs"`
	DisableSystemTrust     bool     `mapstructure:"disable_system_trust" yaml:"disable_system_trust"`
	AcceptInvalidHostnames bool     `mapstructure:"accept_invalid_hostnames" yaml:"accept_invalid_hostnames"`
}

// Enabled reports whether any TLS material is configured.
func (s *TLSSettings) Enabled() bool {
	return s.PrivateCert != "" || s.PrivateKey != "" || len(s.CACerts) > 0 ||
		s.DisableSystemTrust || s.AcceptInvalidHostnames
}

// ApplyTLS augments a keyword/value or URL DSN with the ssl options matching
// the settings. A DSN that already carries ssl options wins over settings.
func ApplyTLS(dsn string, settings *TLSSettings) string {
	if settings == nil || !settings.Enabled() {
		return dsn
	}

	opts := map[string]string{}
	if !strings.Contains(dsn, "sslmode") {
		mode := "verify-full"
		if settings.AcceptInvalidHostnames {
			mode = "verify-ca"
		}
		opts["sslmode"] = mode
	}
	if settings.PrivateCert != "" && !strings.Contains(dsn, "sslcert") {
		opts["sslcert"] = settings.PrivateCert
	}
	if settings.PrivateKey != "" && !strings.Contains(dsn, "sslkey") {
		opts["sslkey"] = settings.PrivateKey
	}
	if len(settings.CACerts) > 0 && !strings.Contains(dsn, "sslrootcert") {
		opts["sslrootcert"] = settings.CACerts[0]
	}

	keys := []string{"sslmode", "sslcert", "sslkey", "sslrootcert"}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		for _, key := range keys {
			if value, ok := opts[key]; ok {
				dsn += sep + key + "=" + value
				sep = "&"
			}
		}
		return dsn
	}
	for _, key := range keys {
		if value, ok := opts[key]; ok {
			dsn += fmt.Sprintf(" %s=%s", key, value)
		}
	}
	return dsn
}

// Open connects with a bounded pool and verifies the connection.
func Open(ctx context.Context, dsn string, poolSize int) (*sql.DB, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Helper functions the compiled SQL references. to_number_or_null turns
// non-numeric text into NULL instead of an error; count_estimate reads the
// planner's row estimate so metadata queries stay cheap on large tables.
var helperStatements = []string{
	`create or replace function to_number_or_null(text) returns numeric as $$
begin
    return $1::numeric;
exception when others then
    return null;
end;
$$ language plpgsql immutable`,

	`create or replace function count_estimate(query text) returns bigint as $$
declare
    rec record;
    rows bigint;
begin
    for rec in execute 'explain ' || query loop
        rows := substring(rec."QUERY PLAN" from ' rows=([[:digit:]]+)');
        exit when rows is not null;
    end loop;
    return rows;
end;
$$ language plpgsql strict`,
}

// EnsureHelpers installs the helper functions. Safe to run on every startup.
func EnsureHelpers(ctx context.Context, db *sql.DB) error {
	for _, stmt := range helperStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("install helper function: %w", err)
		}
	}
	return nil
}
