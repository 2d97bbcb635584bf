package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/audit"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/repository/memory"
	"restaurant-pos/internal/service/order"
	"restaurant-pos/internal/service/table"
)

type fixture struct {
	store  *memory.Store
	orders *order.Service
	svc    *Service
	table  domain.RestaurantTable
	shift  domain.Shift
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	lg := logger.New("payment-test")
	tables := table.New(store, events.Noop{}, lg)
	sink := audit.NewStoreSink(store)
	return &fixture{
		store:  store,
		orders: order.New(store, tables, events.Noop{}, sink, lg, 0),
		svc:    New(store, tables, events.Noop{}, sink, lg),
		table:  store.SeedTable(domain.RestaurantTable{Number: 7}),
		shift:  store.SeedShift(domain.Shift{StaffID: 1, TerminalID: "t-1"}),
	}
}

// orderWithTotal builds a ready dine-in order whose total is exactly total.
func (f *fixture) orderWithTotal(t *testing.T, total int64) domain.Order {
	t.Helper()
	ctx := context.Background()
	p := f.store.SeedProduct(domain.Product{Name: "Set menu", Price: total, Active: true})
	o, err := f.orders.Create(ctx, order.CreateInput{
		Type:    domain.OrderTypeDineIn,
		TableID: &f.table.ID,
		ShiftID: f.shift.ID,
		StaffID: 1,
		Items:   []order.CreateItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, f.orders.SetStatus(ctx, o.ID, domain.StatusPreparing, 1))
	require.NoError(t, f.orders.SetStatus(ctx, o.ID, domain.StatusReady, 1))
	o.Status = domain.StatusReady
	return o
}

func (f *fixture) pay(t *testing.T, orderID, amount int64, method domain.PaymentMethod) domain.Payment {
	t.Helper()
	p, err := f.svc.RecordPayment(context.Background(), RecordInput{
		OrderID: orderID, Amount: amount, Method: method, ActorID: 1,
	})
	require.NoError(t, err)
	return p
}

func TestPaymentCapNeverExceedsTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 20000)

	f.pay(t, o.ID, 15000, domain.PaymentCash)

	_, err := f.svc.RecordPayment(ctx, RecordInput{
		OrderID: o.ID, Amount: 6000, Method: domain.PaymentCard, ActorID: 1,
	})
	require.True(t, domain.IsCode(err, domain.CodePaymentExceedsTotal))
	meta := domain.MetaOf(err)
	assert.Equal(t, int64(20000), meta["total"])
	assert.Equal(t, int64(15000), meta["current"])
	assert.Equal(t, int64(6000), meta["attempted"])

	// The rejected attempt must not appear in the ledger.
	paid, err := f.svc.TotalPaid(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), paid)

	f.pay(t, o.ID, 5000, domain.PaymentCard)
	full, err := f.svc.IsFullyPaid(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, full)
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 1000)

	_, err := f.svc.RecordPayment(ctx, RecordInput{OrderID: o.ID, Amount: 0, Method: domain.PaymentCash, ActorID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidAmount))

	_, err = f.svc.RecordPayment(ctx, RecordInput{OrderID: o.ID, Amount: -500, Method: domain.PaymentCash, ActorID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidAmount))

	_, err = f.svc.RecordPayment(ctx, RecordInput{OrderID: o.ID, Amount: 100, Method: "crypto", ActorID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidPaymentMethod))

	_, err = f.svc.RecordPayment(ctx, RecordInput{OrderID: 404, Amount: 100, Method: domain.PaymentCash, ActorID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotFound))
}

func TestCancelledOrderAcceptsNoPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.SeedProduct(domain.Product{Name: "Tea", Price: 500, Active: true})
	o, err := f.orders.Create(ctx, order.CreateInput{
		Type: domain.OrderTypeTakeaway, ShiftID: f.shift.ID, StaffID: 1,
		Items: []order.CreateItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, f.orders.Cancel(ctx, o.ID, 1))

	_, err = f.svc.RecordPayment(ctx, RecordInput{OrderID: o.ID, Amount: 500, Method: domain.PaymentCash, ActorID: 1})
	assert.True(t, domain.IsCode(err, domain.CodeOrderCancelled))

	full, err := f.svc.IsFullyPaid(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, full)
}

func TestCheckoutRequiresFullPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 20000)
	f.pay(t, o.ID, 15000, domain.PaymentCash)

	err := f.svc.Checkout(ctx, o.ID, 1)
	require.True(t, domain.IsCode(err, domain.CodeOrderNotFullyPaid))
	meta := domain.MetaOf(err)
	assert.Equal(t, int64(20000), meta["total"])
	assert.Equal(t, int64(15000), meta["paid"])

	f.pay(t, o.ID, 5000, domain.PaymentCash)
	require.NoError(t, f.svc.Checkout(ctx, o.ID, 1))

	got, err := f.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusServed, got.Status)

	tbl, err := f.store.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TableAvailable, tbl.Status)
}

func TestDoubleCheckoutFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 5000)
	f.pay(t, o.ID, 5000, domain.PaymentCard)
	require.NoError(t, f.svc.Checkout(ctx, o.ID, 1))

	err := f.svc.Checkout(ctx, o.ID, 1)
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotReadyForCheckout))
}

func TestCheckoutRejectsPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.SeedProduct(domain.Product{Name: "Pie", Price: 3000, Active: true})
	o, err := f.orders.Create(ctx, order.CreateInput{
		Type: domain.OrderTypeTakeaway, ShiftID: f.shift.ID, StaffID: 1,
		Items: []order.CreateItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	err = f.svc.Checkout(ctx, o.ID, 1)
	require.True(t, domain.IsCode(err, domain.CodeOrderNotReadyForCheckout))
	assert.Equal(t, "pending", domain.MetaOf(err)["status"])
}

func TestRecordOrderPaymentAutoCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 12000)

	p, checkedOut, err := f.svc.RecordOrderPayment(ctx, RecordInput{
		OrderID: o.ID, Amount: 7000, Method: domain.PaymentCash, ActorID: 1,
	})
	require.NoError(t, err)
	assert.False(t, checkedOut)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)

	_, checkedOut, err = f.svc.RecordOrderPayment(ctx, RecordInput{
		OrderID: o.ID, Amount: 5000, Method: domain.PaymentCard, ActorID: 1,
	})
	require.NoError(t, err)
	assert.True(t, checkedOut)

	got, err := f.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusServed, got.Status)

	// Served orders are no longer checkout eligible, so the settle path
	// rejects further payments.
	_, _, err = f.svc.RecordOrderPayment(ctx, RecordInput{
		OrderID: o.ID, Amount: 100, Method: domain.PaymentCash, ActorID: 1,
	})
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotReadyForCheckout))
}

func TestRecordOrderPaymentRejectsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.SeedProduct(domain.Product{Name: "Cake", Price: 4000, Active: true})
	o, err := f.orders.Create(ctx, order.CreateInput{
		Type: domain.OrderTypeTakeaway, ShiftID: f.shift.ID, StaffID: 1,
		Items: []order.CreateItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, _, err = f.svc.RecordOrderPayment(ctx, RecordInput{
		OrderID: o.ID, Amount: 4000, Method: domain.PaymentCash, ActorID: 1,
	})
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotReadyForCheckout))
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 10000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.RecordPayment(ctx, RecordInput{
				OrderID: o.ID, Amount: 3000, Method: domain.PaymentCash, ActorID: 1,
			})
		}()
	}
	wg.Wait()

	paid, err := f.svc.TotalPaid(ctx, o.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, paid, int64(10000))
	// 3 payments of 3000 fit under 10000; the rest must have been refused.
	assert.Equal(t, int64(9000), paid)
}

func TestPaymentsListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.orderWithTotal(t, 9000)
	f.pay(t, o.ID, 4000, domain.PaymentCash)
	f.pay(t, o.ID, 5000, domain.PaymentQR)

	list, err := f.svc.Payments(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.PaymentCash, list[0].Method)
	assert.Equal(t, domain.PaymentQR, list[1].Method)

	_, err = f.svc.Payments(ctx, 404)
	assert.True(t, domain.IsCode(err, domain.CodeOrderNotFound))
}
