// Package postgres implements repository.Store over database/sql with the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"

	"restaurant-pos/internal/repository"
)

type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

func New(db *sql.DB) *Store { return &Store{db: db} }

type txKey struct{}

// Transact begins a transaction and carries it in the context; nested calls
// join the outer transaction so a service can compose store calls freely.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}
