package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/domain"
)

func TestTransactRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	tbl := store.SeedTable(domain.RestaurantTable{Number: 2})
	boom := errors.New("forced")

	err := store.Transact(ctx, func(ctx context.Context) error {
		o := domain.Order{Type: domain.OrderTypeDineIn, TableID: &tbl.ID, Status: domain.StatusPending}
		if err := store.CreateOrder(ctx, &o); err != nil {
			return err
		}
		if err := store.SetTableStatus(ctx, tbl.ID, domain.TableOccupied); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetTable(ctx, tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableAvailable, got.Status)

	orders, err := store.ListShiftOrders(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestNestedTransactJoinsOuter(t *testing.T) {
	store := New()
	ctx := context.Background()
	tbl := store.SeedTable(domain.RestaurantTable{Number: 3})
	boom := errors.New("forced")

	err := store.Transact(ctx, func(ctx context.Context) error {
		inner := store.Transact(ctx, func(ctx context.Context) error {
			return store.SetTableStatus(ctx, tbl.ID, domain.TableOccupied)
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The inner write rolls back with the outer transaction.
	got, err := store.GetTable(ctx, tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableAvailable, got.Status)
}

func TestClaimIdempotencyKey(t *testing.T) {
	store := New()
	ctx := context.Background()

	claimed, err := store.ClaimIdempotencyKey(ctx, "k", "op")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.ClaimIdempotencyKey(ctx, "k", "op")
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, store.SaveIdempotencyResult(ctx, "k", []byte(`{"ok":true}`)))
	rec, err := store.GetIdempotencyRecord(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "op", rec.Operation)
	assert.JSONEq(t, `{"ok":true}`, string(rec.Result))
}
