// Package xpgx runs squirrel queries on a pgx pool and scans rows into
// structs tagged with `db`.
package xpgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Pool interface {
	Execx(ctx context.Context, query squirrel.Sqlizer) (pgconn.CommandTag, error)
	Queryx(ctx context.Context, query squirrel.Sqlizer) (pgx.Rows, error)
	// WithTx runs fn inside a transaction, committing when fn returns nil.
	// Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(Pool) error) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type conn struct {
	q     querier
	begin func(ctx context.Context) (pgx.Tx, error)
}

func (c *conn) Execx(ctx context.Context, query squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build query: %w", err)
	}
	return c.q.Exec(ctx, sql, args...)
}

func (c *conn) Queryx(ctx context.Context, query squirrel.Sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return c.q.Query(ctx, sql, args...)
}

func (c *conn) WithTx(ctx context.Context, fn func(Pool) error) (err error) {
	if c.begin == nil {
		return fn(c)
	}

	tx, err := c.begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(&conn{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DB is a Pool backed by a pgxpool.
type DB struct {
	conn
	pool *pgxpool.Pool
}

// NewPool connects to dsn and pings the server.
func NewPool(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{conn: conn{q: p, begin: p.Begin}, pool: p}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// Selectx runs query and scans every row into a T by column name.
func Selectx[T any](ctx context.Context, p Pool, query squirrel.Sqlizer) ([]T, error) {
	rows, err := p.Queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// Getx is Selectx for exactly one row; no rows yields pgx.ErrNoRows.
func Getx[T any](ctx context.Context, p Pool, query squirrel.Sqlizer) (T, error) {
	rows, err := p.Queryx(ctx, query)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}
