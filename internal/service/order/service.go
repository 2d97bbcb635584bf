// Package order owns the order lifecycle: creation, the status machine, and
// the line-item ledger with its derived totals.
package order

import (
	"context"
	"time"

	"restaurant-pos/internal/audit"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/repository"
	"restaurant-pos/internal/service/table"
)

type Store interface {
	repository.Transactor
	repository.Orders
	repository.OrderItems
	repository.Products
	repository.Payments
	repository.Tables
}

type Service struct {
	store  Store
	tables *table.Service
	events events.Publisher
	audit  audit.Sink
	lg     *logger.Logger

	taxRateBps int
}

func New(store Store, tables *table.Service, pub events.Publisher, sink audit.Sink, lg *logger.Logger, taxRateBps int) *Service {
	return &Service{store: store, tables: tables, events: pub, audit: sink, lg: lg, taxRateBps: taxRateBps}
}

type CreateItem struct {
	ProductID int64
	Quantity  int
}

type CreateInput struct {
	Type    domain.OrderType
	TableID *int64
	ShiftID int64
	StaffID int64
	Items   []CreateItem
}

// Create makes a pending order. Dine-in requires a table and marks it
// occupied; takeaway forbids one.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Order, error) {
	if !in.Type.Valid() {
		return domain.Order{}, domain.E(domain.CodeInvalidOrder, "invalid order type").With("order_type", string(in.Type))
	}
	if in.Type == domain.OrderTypeDineIn && in.TableID == nil {
		return domain.Order{}, domain.E(domain.CodeInvalidOrder, "dine-in orders require a table")
	}
	if in.Type == domain.OrderTypeTakeaway && in.TableID != nil {
		return domain.Order{}, domain.E(domain.CodeInvalidOrder, "takeaway orders cannot reference a table")
	}

	var o domain.Order
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		if in.TableID != nil {
			if _, err := s.store.GetTable(ctx, *in.TableID); err != nil {
				return err
			}
		}
		o = domain.Order{
			Type:             in.Type,
			TableID:          in.TableID,
			ShiftID:          in.ShiftID,
			Status:           domain.StatusPending,
			CreatedByStaffID: in.StaffID,
		}
		if err := s.store.CreateOrder(ctx, &o); err != nil {
			return err
		}
		for _, it := range in.Items {
			if _, err := s.addItemLocked(ctx, o.ID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := s.recomputeTotalsLocked(ctx, &o); err != nil {
			return err
		}
		if err := s.store.AppendStatusLog(ctx, o.ID, domain.StatusPending, in.StaffID); err != nil {
			return err
		}
		if in.TableID != nil {
			if err := s.store.SetTableStatus(ctx, *in.TableID, domain.TableOccupied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.emit(ctx, events.Event{
		Type:      events.TypeOrderCreated,
		OrderID:   o.ID,
		ShiftID:   o.ShiftID,
		NewStatus: string(o.Status),
		ActorID:   in.StaffID,
	})
	s.recordAudit(ctx, audit.Entry{
		ActorID: in.StaffID, Action: "order_created",
		EntityType: "order", EntityID: o.ID, After: o,
	})
	s.lg.Info("order_created", map[string]any{"order_id": o.ID, "order_type": string(o.Type), "total": o.Total})
	return o, nil
}

// SetStatus drives one edge of the lifecycle. It has no side effects beyond
// the status write and its log row; table release and payment checks belong
// to the orchestration layers (checkout, cancel).
func (s *Service) SetStatus(ctx context.Context, orderID int64, next domain.OrderStatus, actorID int64) error {
	var prev domain.OrderStatus
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		prev = o.Status
		if !o.Status.CanTransitionTo(next) {
			return domain.ErrInvalidTransition(o.Status, next)
		}
		if err := s.store.UpdateOrderStatus(ctx, orderID, next); err != nil {
			return err
		}
		return s.store.AppendStatusLog(ctx, orderID, next, actorID)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.Event{
		Type:           events.TypeOrderStatusChanged,
		OrderID:        orderID,
		PreviousStatus: string(prev),
		NewStatus:      string(next),
		ActorID:        actorID,
	})
	s.recordAudit(ctx, audit.Entry{
		ActorID: actorID, Action: "order_status_changed",
		EntityType: "order", EntityID: orderID,
		Before: map[string]any{"status": prev}, After: map[string]any{"status": next},
	})
	return nil
}

// Cancel is the terminal path out of pending/preparing; it releases the
// table in the same transaction.
func (s *Service) Cancel(ctx context.Context, orderID int64, actorID int64) error {
	var prev domain.OrderStatus
	var released bool
	var tableID int64
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		prev = o.Status
		if !o.Status.CanTransitionTo(domain.StatusCancelled) {
			return domain.ErrInvalidTransition(o.Status, domain.StatusCancelled)
		}
		if err := s.store.UpdateOrderStatus(ctx, orderID, domain.StatusCancelled); err != nil {
			return err
		}
		if err := s.store.AppendStatusLog(ctx, orderID, domain.StatusCancelled, actorID); err != nil {
			return err
		}
		o.Status = domain.StatusCancelled
		released, tableID, err = s.tables.ReleaseLocked(ctx, o)
		return err
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.Event{
		Type:           events.TypeOrderStatusChanged,
		OrderID:        orderID,
		PreviousStatus: string(prev),
		NewStatus:      string(domain.StatusCancelled),
		ActorID:        actorID,
	})
	if released {
		s.emit(ctx, events.Event{Type: events.TypeTableReleased, OrderID: orderID, TableID: tableID})
	}
	s.recordAudit(ctx, audit.Entry{
		ActorID: actorID, Action: "order_cancelled",
		EntityType: "order", EntityID: orderID,
		Before: map[string]any{"status": prev}, After: map[string]any{"status": domain.StatusCancelled},
	})
	return nil
}

// AddItem appends a line with the product's current price captured as a
// snapshot; later price changes never touch existing lines.
func (s *Service) AddItem(ctx context.Context, orderID, productID int64, quantity int) (domain.OrderItem, error) {
	var item domain.OrderItem
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.IsEditable() {
			return domain.E(domain.CodeOrderImmutable, "order items can no longer be changed").
				With("order_id", orderID).With("status", string(o.Status))
		}
		item, err = s.addItemLocked(ctx, orderID, productID, quantity)
		if err != nil {
			return err
		}
		return s.recomputeTotalsLocked(ctx, &o)
	})
	return item, err
}

func (s *Service) addItemLocked(ctx context.Context, orderID, productID int64, quantity int) (domain.OrderItem, error) {
	if quantity < 1 {
		return domain.OrderItem{}, domain.E(domain.CodeInvalidQuantity, "quantity must be at least 1").
			With("quantity", quantity)
	}
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if !p.Active {
		return domain.OrderItem{}, domain.E(domain.CodeProductInactive, "product is not active").
			With("product_id", productID)
	}
	item := domain.OrderItem{
		OrderID:     orderID,
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		LineTotal:   p.Price * int64(quantity),
	}
	if err := s.store.InsertOrderItem(ctx, &item); err != nil {
		return domain.OrderItem{}, err
	}
	return item, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, orderID, itemID int64, quantity int) error {
	return s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.IsEditable() {
			return domain.E(domain.CodeOrderImmutable, "order items can no longer be changed").
				With("order_id", orderID).With("status", string(o.Status))
		}
		if quantity < 1 {
			return domain.E(domain.CodeInvalidQuantity, "quantity must be at least 1").
				With("quantity", quantity)
		}
		item, err := s.store.GetOrderItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}
		if err := s.store.UpdateOrderItemQuantity(ctx, itemID, quantity, item.UnitPrice*int64(quantity)); err != nil {
			return err
		}
		return s.recomputeTotalsLocked(ctx, &o)
	})
}

// RemoveItem deletes a line. Removing the last item leaves an order with
// zero totals; it does not auto-cancel.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) error {
	return s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.IsEditable() {
			return domain.E(domain.CodeOrderImmutable, "order items can no longer be changed").
				With("order_id", orderID).With("status", string(o.Status))
		}
		if _, err := s.store.GetOrderItem(ctx, orderID, itemID); err != nil {
			return err
		}
		if err := s.store.DeleteOrderItem(ctx, itemID); err != nil {
			return err
		}
		return s.recomputeTotalsLocked(ctx, &o)
	})
}

// recomputeTotalsLocked rebuilds subtotal/tax/total from the full item set.
// Totals are never patched incrementally; recomputing from scratch removes
// the drift class entirely.
func (s *Service) recomputeTotalsLocked(ctx context.Context, o *domain.Order) error {
	items, err := s.store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return err
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.LineTotal
	}
	tax := subtotal * int64(s.taxRateBps) / 10000
	total := subtotal + tax
	o.Subtotal, o.Tax, o.Total = subtotal, tax, total
	return s.store.UpdateOrderTotals(ctx, o.ID, subtotal, tax, total)
}

type Detail struct {
	Order     domain.Order
	Items     []domain.OrderItem
	TotalPaid int64
}

func (s *Service) Get(ctx context.Context, orderID int64) (Detail, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Detail{}, err
	}
	items, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return Detail{}, err
	}
	paid, err := s.store.SumCompletedPayments(ctx, orderID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Order: o, Items: items, TotalPaid: paid}, nil
}

func (s *Service) ListByShift(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	return s.store.ListShiftOrders(ctx, shiftID, statuses...)
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.lg.Error("event_publish_failed", err, map[string]any{"type": e.Type, "order_id": e.OrderID})
	}
}

func (s *Service) recordAudit(ctx context.Context, e audit.Entry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.lg.Error("audit_write_failed", err, map[string]any{"action": e.Action, "entity_id": e.EntityID})
	}
}
