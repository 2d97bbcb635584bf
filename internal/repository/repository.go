// Package repository declares the storage interfaces the services depend on.
// Implementations: postgres (production) and memory (tests, dev mode).
package repository

import (
	"context"
	"time"

	"restaurant-pos/internal/domain"
)

// Transactor runs fn inside one transaction; the transaction travels in the
// context, so every store call made by fn joins it. Nested Transact calls
// join the outer transaction.
type Transactor interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
}

type Orders interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	// GetOrderForUpdate locks the order row; it is the serialization point
	// for payment-cap checks, item recomputes, checkout and cancel.
	GetOrderForUpdate(ctx context.Context, id int64) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	UpdateOrderTotals(ctx context.Context, id int64, subtotal, tax, total int64) error
	AppendStatusLog(ctx context.Context, orderID int64, status domain.OrderStatus, actorID int64) error
	ListShiftOrders(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) ([]domain.Order, error)
	CountShiftOrders(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) (int, error)
}

type OrderItems interface {
	ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	GetOrderItem(ctx context.Context, orderID, itemID int64) (domain.OrderItem, error)
	InsertOrderItem(ctx context.Context, item *domain.OrderItem) error
	UpdateOrderItemQuantity(ctx context.Context, itemID int64, quantity int, lineTotal int64) error
	DeleteOrderItem(ctx context.Context, itemID int64) error
}

type Products interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

// Payments is append-only: there is deliberately no update or delete.
type Payments interface {
	InsertPayment(ctx context.Context, p *domain.Payment) error
	ListOrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error)
	// SumPayments counts every payment regardless of status (cap check).
	SumPayments(ctx context.Context, orderID int64) (int64, error)
	// SumCompletedPayments counts completed payments only (paid check).
	SumCompletedPayments(ctx context.Context, orderID int64) (int64, error)
	// ShiftPaymentTotals sums completed payments for the shift by method.
	ShiftPaymentTotals(ctx context.Context, shiftID int64) (map[domain.PaymentMethod]int64, error)
	// ShiftExpectedCash sums completed cash payments on served orders.
	ShiftExpectedCash(ctx context.Context, shiftID int64) (int64, error)
}

type Tables interface {
	GetTable(ctx context.Context, id int64) (domain.RestaurantTable, error)
	SetTableStatus(ctx context.Context, id int64, status domain.TableStatus) error
	// CountOccupyingOrders counts dine-in orders on the table whose status
	// keeps it occupied (pending/preparing/ready).
	CountOccupyingOrders(ctx context.Context, tableID int64) (int, error)
}

type Shifts interface {
	GetShift(ctx context.Context, id int64) (domain.Shift, error)
	GetShiftForUpdate(ctx context.Context, id int64) (domain.Shift, error)
	CountServedOrders(ctx context.Context, shiftID int64) (int, error)
	CloseShift(ctx context.Context, id int64, endTime time.Time, countedCash, variance int64, approvalStaffID *int64) error
	InsertShiftSummary(ctx context.Context, s domain.ShiftFinancialSummary) error
	InsertTerminalCashSummary(ctx context.Context, s domain.TerminalCashSummary) error
}

type IdempotencyRecord struct {
	Key       string
	Operation string
	Result    []byte
	CreatedAt time.Time
}

type Idempotency interface {
	// ClaimIdempotencyKey reserves the key for this transaction; false means
	// another request already committed (or holds) it.
	ClaimIdempotencyKey(ctx context.Context, key, operation string) (bool, error)
	// GetIdempotencyRecord blocks on a concurrently-held claim and returns
	// the committed record.
	GetIdempotencyRecord(ctx context.Context, key string) (IdempotencyRecord, error)
	SaveIdempotencyResult(ctx context.Context, key string, result []byte) error
}

type AuditEntry struct {
	ActorID    int64
	Action     string
	EntityType string
	EntityID   int64
	Before     []byte
	After      []byte
	At         time.Time
}

type Audit interface {
	InsertAuditEntry(ctx context.Context, e AuditEntry) error
}

// Store aggregates everything a fully wired service set needs.
type Store interface {
	Transactor
	Orders
	OrderItems
	Products
	Payments
	Tables
	Shifts
	Idempotency
	Audit
}
