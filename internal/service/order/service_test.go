package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/audit"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/repository/memory"
	"restaurant-pos/internal/service/table"
)

type fixture struct {
	store   *memory.Store
	svc     *Service
	product domain.Product
	table   domain.RestaurantTable
	shift   domain.Shift
}

func newFixture(t *testing.T, taxRateBps int) *fixture {
	t.Helper()
	store := memory.New()
	lg := logger.New("order-test")
	tables := table.New(store, events.Noop{}, lg)
	sink := audit.NewStoreSink(store)
	return &fixture{
		store:   store,
		svc:     New(store, tables, events.Noop{}, sink, lg, taxRateBps),
		product: store.SeedProduct(domain.Product{Name: "Carbonara", Price: 7500, Active: true}),
		table:   store.SeedTable(domain.RestaurantTable{Number: 4}),
		shift:   store.SeedShift(domain.Shift{StaffID: 1, TerminalID: "t-1"}),
	}
}

func (f *fixture) dineIn(t *testing.T, items ...CreateItem) domain.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), CreateInput{
		Type:    domain.OrderTypeDineIn,
		TableID: &f.table.ID,
		ShiftID: f.shift.ID,
		StaffID: 1,
		Items:   items,
	})
	require.NoError(t, err)
	return o
}

func TestCreateDineInOccupiesTable(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 2})
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, int64(15000), o.Subtotal)
	assert.Equal(t, int64(15000), o.Total)

	tbl, err := f.store.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableOccupied, tbl.Status)
	assert.Equal(t, 1, f.store.StatusLogLen())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Type: "delivery", ShiftID: f.shift.ID, StaffID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidOrder))

	_, err = f.svc.Create(ctx, CreateInput{Type: domain.OrderTypeDineIn, ShiftID: f.shift.ID, StaffID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidOrder))

	_, err = f.svc.Create(ctx, CreateInput{
		Type: domain.OrderTypeTakeaway, TableID: &f.table.ID, ShiftID: f.shift.ID, StaffID: 1,
	})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidOrder))
}

func TestCreateWithTax(t *testing.T) {
	f := newFixture(t, 1000) // 10%
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})
	assert.Equal(t, int64(7500), o.Subtotal)
	assert.Equal(t, int64(750), o.Tax)
	assert.Equal(t, int64(8250), o.Total)
}

func TestTaxTruncates(t *testing.T) {
	f := newFixture(t, 825) // 8.25%
	p := f.store.SeedProduct(domain.Product{Name: "Soda", Price: 399, Active: true})
	o := f.dineIn(t, CreateItem{ProductID: p.ID, Quantity: 1})
	// 399 * 825 / 10000 = 32.91, truncated.
	assert.Equal(t, int64(32), o.Tax)
	assert.Equal(t, int64(431), o.Total)
}

func TestItemMutationsRecomputeTotals(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	side := f.store.SeedProduct(domain.Product{Name: "Bread", Price: 1200, Active: true})
	item, err := f.svc.AddItem(ctx, o.ID, side.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2400), item.LineTotal)

	d, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9900), d.Order.Total)

	require.NoError(t, f.svc.UpdateItemQuantity(ctx, o.ID, item.ID, 1))
	d, err = f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8700), d.Order.Total)

	require.NoError(t, f.svc.RemoveItem(ctx, o.ID, item.ID))
	d, err = f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), d.Order.Total)
	assert.Len(t, d.Items, 1)
}

func TestItemPriceIsSnapshot(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	// A later catalog price change must not affect existing lines.
	f.store.SeedProduct(domain.Product{ID: f.product.ID, Name: f.product.Name, Price: 9999, Active: true})

	require.NoError(t, f.svc.UpdateItemQuantity(ctx, o.ID, mustFirstItem(t, f, o.ID).ID, 3))
	d, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(22500), d.Order.Total)
}

func mustFirstItem(t *testing.T, f *fixture, orderID int64) domain.OrderItem {
	t.Helper()
	items, err := f.store.ListOrderItems(context.Background(), orderID)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	return items[0]
}

func TestItemsImmutableAfterReady(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	require.NoError(t, f.svc.SetStatus(ctx, o.ID, domain.StatusPreparing, 1))

	// Still editable while preparing.
	_, err := f.svc.AddItem(ctx, o.ID, f.product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.SetStatus(ctx, o.ID, domain.StatusReady, 1))
	_, err = f.svc.AddItem(ctx, o.ID, f.product.ID, 1)
	assert.True(t, domain.IsCode(err, domain.CodeOrderImmutable))
	err = f.svc.UpdateItemQuantity(ctx, o.ID, mustFirstItem(t, f, o.ID).ID, 5)
	assert.True(t, domain.IsCode(err, domain.CodeOrderImmutable))
}

func TestInvalidTransitionLeavesStatusUnchanged(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	err := f.svc.SetStatus(ctx, o.ID, domain.StatusServed, 1)
	require.True(t, domain.IsCode(err, domain.CodeInvalidTransition))
	meta := domain.MetaOf(err)
	assert.Equal(t, "pending", meta["from"])
	assert.Equal(t, "served", meta["to"])

	d, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, d.Order.Status)
	assert.Equal(t, 1, f.store.StatusLogLen())
}

func TestAddItemRejectsInactiveProductAndBadQuantity(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	dead := f.store.SeedProduct(domain.Product{Name: "Retired", Price: 100, Active: false})
	_, err := f.svc.AddItem(ctx, o.ID, dead.ID, 1)
	assert.True(t, domain.IsCode(err, domain.CodeProductInactive))

	_, err = f.svc.AddItem(ctx, o.ID, f.product.ID, 0)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidQuantity))
}

func TestCancelReleasesTable(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	require.NoError(t, f.svc.Cancel(ctx, o.ID, 1))

	d, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, d.Order.Status)

	tbl, err := f.store.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableAvailable, tbl.Status)
}

func TestCancelKeepsTableForOtherActiveOrder(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	first := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})
	second := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})

	require.NoError(t, f.svc.Cancel(ctx, first.ID, 1))
	tbl, err := f.store.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableOccupied, tbl.Status)

	require.NoError(t, f.svc.Cancel(ctx, second.ID, 1))
	tbl, err = f.store.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableAvailable, tbl.Status)
}

func TestCancelRejectedAfterReady(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	o := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})
	require.NoError(t, f.svc.SetStatus(ctx, o.ID, domain.StatusPreparing, 1))
	require.NoError(t, f.svc.SetStatus(ctx, o.ID, domain.StatusReady, 1))

	err := f.svc.Cancel(ctx, o.ID, 1)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidTransition))
}

func TestListByShiftFiltersStatus(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	a := f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})
	f.dineIn(t, CreateItem{ProductID: f.product.ID, Quantity: 1})
	require.NoError(t, f.svc.SetStatus(ctx, a.ID, domain.StatusPreparing, 1))

	all, err := f.svc.ListByShift(ctx, f.shift.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	preparing, err := f.svc.ListByShift(ctx, f.shift.ID, domain.StatusPreparing)
	require.NoError(t, err)
	require.Len(t, preparing, 1)
	assert.Equal(t, a.ID, preparing[0].ID)
}

func TestCreateFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{
		Type:    domain.OrderTypeDineIn,
		TableID: &f.table.ID,
		ShiftID: f.shift.ID,
		StaffID: 1,
		Items:   []CreateItem{{ProductID: 9999, Quantity: 1}},
	})
	require.True(t, domain.IsCode(err, domain.CodeProductNotFound))

	orders, listErr := f.svc.ListByShift(ctx, f.shift.ID)
	require.NoError(t, listErr)
	assert.Empty(t, orders)

	tbl, tblErr := f.store.GetTable(ctx, f.table.ID)
	require.NoError(t, tblErr)
	assert.Equal(t, domain.TableAvailable, tbl.Status)
}
