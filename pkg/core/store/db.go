// Package store is the Postgres persistence layer: document records, industry
// benchmarks and the generated insight history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps the connection pool. Queries go through database/sql so repositories
// can be exercised with sqlmock.
type DB struct {
	pool *pgxpool.Pool
	sql  *sql.DB
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &DB{pool: pool, sql: stdlib.OpenDBFromPool(pool)}, nil
}

// Wrap uses an existing *sql.DB (for testing).
func Wrap(db *sql.DB) *DB {
	return &DB{sql: db}
}

// SQL returns the database/sql handle.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Close closes the handle and the pool behind it.
func (d *DB) Close() {
	if d.sql != nil {
		d.sql.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}
