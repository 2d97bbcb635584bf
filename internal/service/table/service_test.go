package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/repository/memory"
)

func TestReleaseRequiresTerminalOrder(t *testing.T) {
	store := memory.New()
	svc := New(store, events.Noop{}, logger.New("table-test"))
	ctx := context.Background()

	tbl := store.SeedTable(domain.RestaurantTable{Number: 6})
	o := domain.Order{
		Type: domain.OrderTypeDineIn, TableID: &tbl.ID, Status: domain.StatusPreparing,
	}
	require.NoError(t, store.CreateOrder(ctx, &o))
	require.NoError(t, store.SetTableStatus(ctx, tbl.ID, domain.TableOccupied))

	err := svc.ReleaseTableForOrder(ctx, o.ID)
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotTerminal))

	got, err := store.GetTable(ctx, tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableOccupied, got.Status)
}

func TestReleaseIsNoOpWithoutTable(t *testing.T) {
	store := memory.New()
	svc := New(store, events.Noop{}, logger.New("table-test"))
	ctx := context.Background()

	o := domain.Order{Type: domain.OrderTypeTakeaway, Status: domain.StatusServed}
	require.NoError(t, store.CreateOrder(ctx, &o))
	assert.NoError(t, svc.ReleaseTableForOrder(ctx, o.ID))
}

func TestIsOccupiedUnknownTable(t *testing.T) {
	store := memory.New()
	svc := New(store, events.Noop{}, logger.New("table-test"))
	_, err := svc.IsOccupied(context.Background(), 404)
	assert.True(t, domain.IsCode(err, domain.CodeTableNotFound))
}
