// Package db opens the Postgres connection pool used by the snapshot
// repository and checks that the schema from migrations/ is in place.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/onnwee/poigraph/internal/tracing"
)

// ErrSchemaMissing is returned when a required table does not exist.
var ErrSchemaMissing = errors.New("database schema is missing; apply migrations/")

// RequiredTables are created by migrations/000001_create_graph_snapshots.up.sql.
var RequiredTables = []string{"graph_snapshots", "graph_entities", "graph_edges"}

// TableExistsQuery reports whether a table is visible on the search path.
const TableExistsQuery = "SELECT to_regclass($1) IS NOT NULL"

// PoolConfig bounds the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolConfig suits a single API instance. Snapshot saves hold one
// connection for the length of a transaction.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Open opens a pool for dsn and verifies it with a ping. The pool is closed
// again if the ping fails.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPoolConfig().PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// CheckSchema returns ErrSchemaMissing naming the first absent table.
func CheckSchema(ctx context.Context, db *sql.DB) (err error) {
	ctx, end := tracing.StartDBSpan(ctx, "information_schema", "check_schema")
	defer func() { end(err) }()

	for _, table := range RequiredTables {
		var exists bool
		if err := db.QueryRowContext(ctx, TableExistsQuery, table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("%w: table %s", ErrSchemaMissing, table)
		}
	}
	return nil
}
