package postgres

import (
	"context"
	"database/sql"
	"errors"

	"restaurant-pos/internal/repository"
)

func (s *Store) ClaimIdempotencyKey(ctx context.Context, key, operation string) (bool, error) {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, operation, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO NOTHING
	`, key, operation)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// GetIdempotencyRecord locks the key row, which blocks until a concurrent
// claimer commits or rolls back.
func (s *Store) GetIdempotencyRecord(ctx context.Context, key string) (repository.IdempotencyRecord, error) {
	var rec repository.IdempotencyRecord
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT key, operation, result, created_at
		FROM idempotency_keys WHERE key=$1 FOR UPDATE
	`, key).Scan(&rec.Key, &rec.Operation, &rec.Result, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.IdempotencyRecord{}, sql.ErrNoRows
	}
	return rec, err
}

func (s *Store) SaveIdempotencyResult(ctx context.Context, key string, result []byte) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE idempotency_keys SET result=$2 WHERE key=$1`, key, result)
	return err
}
