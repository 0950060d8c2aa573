// Package store provides the data access layer. Queries are built with
// squirrel and run through a *sql.DB that wraps the pgxpool via stdlib, so
// the same code paths can be exercised with go-sqlmock in unit tests.
//
// Every loader reads exactly the rows one decision depends on. Getters
// return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Sentinel errors mapped from Postgres constraint violations.
var (
	// ErrNotFound is returned by writes that reference a missing parent row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key already exists.
	ErrConflict = errors.New("conflict")
)

// Store is the central data access object.
type Store struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

// New creates a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return NewWithDB(stdlib.OpenDBFromPool(pool))
}

// NewWithDB creates a Store over an existing *sql.DB. Used by tests with
// go-sqlmock and by tools that already hold a database handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a database/sql transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// pgErrCode returns the SQLSTATE code of err, or "" if err is not a PgError.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapConstraintErr translates foreign key and unique violations into the
// package sentinels, keeping the original error in the chain.
func mapConstraintErr(err error) error {
	switch pgErrCode(err) {
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case "23505": // unique_violation
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}

// nullString maps blank strings to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
