// Package idempotency deduplicates client retries of money-moving operations.
// The first request under a key runs and stores its result; every later
// request under the same key replays that stored result without re-running
// the side effects.
package idempotency

import (
	"context"
	"encoding/json"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/repository"
)

type Store interface {
	repository.Transactor
	repository.Idempotency
}

type Guard struct {
	store Store
	lg    *logger.Logger
}

func NewGuard(store Store, lg *logger.Logger) *Guard {
	return &Guard{store: store, lg: lg}
}

// Do runs fn at most once per key. The claim, fn's side effects and the
// stored result all commit in one transaction, so a failed fn releases the
// key and the retry runs fresh. Reusing a key with a different operation
// fails rather than replaying an unrelated result.
func (g *Guard) Do(ctx context.Context, key, operation string, fn func(ctx context.Context) (any, error)) (json.RawMessage, bool, error) {
	if key == "" {
		out, err := fn(ctx)
		if err != nil {
			return nil, false, err
		}
		body, err := json.Marshal(out)
		return body, false, err
	}

	var (
		result   json.RawMessage
		replayed bool
	)
	err := g.store.Transact(ctx, func(ctx context.Context) error {
		claimed, err := g.store.ClaimIdempotencyKey(ctx, key, operation)
		if err != nil {
			return err
		}
		if !claimed {
			rec, err := g.store.GetIdempotencyRecord(ctx, key)
			if err != nil {
				return err
			}
			if rec.Operation != operation {
				return domain.E(domain.CodeIdempotencyMismatch, "idempotency key reused for a different operation").
					With("key", key).
					With("stored_operation", rec.Operation).
					With("operation", operation)
			}
			result = rec.Result
			replayed = true
			return nil
		}

		out, err := fn(ctx)
		if err != nil {
			return err
		}
		body, err := json.Marshal(out)
		if err != nil {
			return err
		}
		if err := g.store.SaveIdempotencyResult(ctx, key, body); err != nil {
			return err
		}
		result = body
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if replayed {
		g.lg.Debug("idempotent_replay", map[string]any{"key": key, "operation": operation})
	}
	return result, replayed, nil
}
