package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of pgxpool.Pool the services use. pgxmock's
// PgxPoolIface satisfies it, so unit tests swap the pool for a mock.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type DB struct {
	Pool Pool
}

// RequestSettings carries the acting principal into the storage session. The
// row-level policies installed by the migrations read these through
// current_setting('app.*', true); a connection that never had them bound
// resolves every policy predicate to NULL and exposes no rows.
type RequestSettings struct {
	PrincipalID    string
	Role           string
	VisibilityMode string
}

const bindSettingsSQL = `SELECT set_config('app.principal_id', $1, true), set_config('app.role', $2, true), set_config('app.visibility_mode', $3, true)`

// BeginRequest opens a transaction and binds the request settings to its
// connection. set_config with is_local=true scopes the values to the
// transaction, so the pooled connection carries no principal after commit or
// rollback.
func (db *DB) BeginRequest(ctx context.Context, settings RequestSettings) (pgx.Tx, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(ctx, bindSettingsSQL,
		settings.PrincipalID, settings.Role, settings.VisibilityMode); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("failed to bind request settings: %w", err)
	}
	return tx, nil
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
