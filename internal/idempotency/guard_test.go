package idempotency

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/repository/memory"
)

func newGuard() (*Guard, *memory.Store) {
	store := memory.New()
	return NewGuard(store, logger.New("idempotency-test")), store
}

func TestDoRunsOnceAndReplays(t *testing.T) {
	g, _ := newGuard()
	ctx := context.Background()
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return map[string]any{"payment_id": 42}, nil
	}

	first, replayed, err := g.Do(ctx, "key-1", "payment.record", fn)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 1, calls)

	second, replayed, err := g.Do(ctx, "key-1", "payment.record", fn)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, string(first), string(second))
}

func TestDoRejectsOperationMismatch(t *testing.T) {
	g, _ := newGuard()
	ctx := context.Background()
	_, _, err := g.Do(ctx, "key-1", "payment.record", func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	_, _, err = g.Do(ctx, "key-1", "order.checkout", func(ctx context.Context) (any, error) {
		return "other", nil
	})
	require.True(t, domain.IsCode(err, domain.CodeIdempotencyMismatch))
	assert.Equal(t, "payment.record", domain.MetaOf(err)["stored_operation"])
}

func TestDoReleasesKeyWhenFnFails(t *testing.T) {
	g, _ := newGuard()
	ctx := context.Background()
	boom := domain.E(domain.CodeInvalidAmount, "bad amount")

	_, _, err := g.Do(ctx, "key-1", "payment.record", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.True(t, domain.IsCode(err, domain.CodeInvalidAmount))

	// The failed attempt must not have consumed the key.
	out, replayed, err := g.Do(ctx, "key-1", "payment.record", func(ctx context.Context) (any, error) {
		return "accepted", nil
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	var s string
	require.NoError(t, json.Unmarshal(out, &s))
	assert.Equal(t, "accepted", s)
}

func TestDoWithoutKeyRunsEveryTime(t *testing.T) {
	g, _ := newGuard()
	ctx := context.Background()
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}
	_, replayed, err := g.Do(ctx, "", "payment.record", fn)
	require.NoError(t, err)
	assert.False(t, replayed)
	_, _, err = g.Do(ctx, "", "payment.record", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoSideEffectsShareTransaction(t *testing.T) {
	g, store := newGuard()
	ctx := context.Background()
	sh := store.SeedShift(domainShift())

	// fn mutates the store and then fails; the rollback must undo both the
	// mutation and the key claim.
	_, _, err := g.Do(ctx, "key-tx", "test.op", func(ctx context.Context) (any, error) {
		if err := store.CloseShift(ctx, sh.ID, sh.StartTime, 0, 0, nil); err != nil {
			return nil, err
		}
		return nil, domain.E(domain.CodeUnknown, "forced failure")
	})
	require.Error(t, err)

	got, err := store.GetShift(ctx, sh.ID)
	require.NoError(t, err)
	assert.False(t, got.Closed())
}

func domainShift() domain.Shift {
	return domain.Shift{StaffID: 1, TerminalID: "t-1"}
}
