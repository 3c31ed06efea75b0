package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwill7022/ITSC-3155-Final-Project/internal/config"
	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxRunner runs fn inside a unit of work. Repositories called with the ctx
// handed to fn participate in the same transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

type txKey struct{}

// txState is the transaction bound to a context plus the callbacks queued to
// run once it commits.
type txState struct {
	tx    *sql.Tx
	hooks []func()
}

// Transactor is the *sql.DB backed TxRunner.
type Transactor struct{ db *sql.DB }

func NewTransactor(db *sql.DB) *Transactor { return &Transactor{db: db} }

// RunInTx commits when fn returns nil and rolls back otherwise. Nested calls
// join the outer transaction.
func (t *Transactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	state := &txState{tx: tx}
	if err := fn(context.WithValue(ctx, txKey{}, state)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	for _, hook := range state.hooks {
		hook()
	}
	return nil
}

// AfterCommit runs fn once the transaction bound to ctx commits, or right away
// when ctx carries none. Queued callbacks are dropped on rollback.
func AfterCommit(ctx context.Context, fn func()) {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		state.hooks = append(state.hooks, fn)
		return
	}
	fn()
}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return db
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation
// (SQLSTATE 23505). An empty constraint matches any unique constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsCheckViolation reports whether err is a PostgreSQL check violation (23514).
func IsCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23514"
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503). An empty constraint matches any foreign key.
func IsForeignKeyViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23503" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
