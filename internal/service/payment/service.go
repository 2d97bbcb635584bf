// Package payment owns the append-only payment ledger and the checkout
// orchestration that closes a fully-paid order.
package payment

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
	repository.Payments
	repository.Tables
}

type Service struct {
	store  Store
	tables *table.Service
	events events.Publisher
	audit  audit.Sink
	lg     *logger.Logger
}

func New(store Store, tables *table.Service, pub events.Publisher, sink audit.Sink, lg *logger.Logger) *Service {
	return &Service{store: store, tables: tables, events: pub, audit: sink, lg: lg}
}

type RecordInput struct {
	OrderID int64
	Amount  int64
	Method  domain.PaymentMethod
	ActorID int64
}

type recordOpts struct {
	// requireCheckoutEligible restricts the order to ready/awaiting_payment.
	requireCheckoutEligible bool
	// autoCheckout closes the order once completed payments reach the total.
	autoCheckout bool
}

// RecordPayment appends a completed payment. It never checks out the order;
// callers decide when to close.
func (s *Service) RecordPayment(ctx context.Context, in RecordInput) (domain.Payment, error) {
	p, _, err := s.record(ctx, in, recordOpts{})
	return p, err
}

// RecordOrderPayment is the settle path for orders already in ready or
// awaiting_payment: same checks as RecordPayment, plus the status guard, and
// it checks out the order automatically once it becomes fully paid.
func (s *Service) RecordOrderPayment(ctx context.Context, in RecordInput) (domain.Payment, bool, error) {
	return s.record(ctx, in, recordOpts{requireCheckoutEligible: true, autoCheckout: true})
}

func (s *Service) record(ctx context.Context, in RecordInput, opts recordOpts) (domain.Payment, bool, error) {
	if in.Amount <= 0 {
		return domain.Payment{}, false, domain.E(domain.CodeInvalidAmount, "payment amount must be positive").
			With("amount", in.Amount)
	}
	if !in.Method.Valid() {
		return domain.Payment{}, false, domain.E(domain.CodeInvalidPaymentMethod, "unknown payment method").
			With("method", string(in.Method))
	}

	var (
		p          domain.Payment
		o          domain.Order
		checkedOut bool
		pending    []events.Event
	)
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.store.GetOrderForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o.Status == domain.StatusCancelled {
			return domain.E(domain.CodeOrderCancelled, "cancelled orders accept no payments").
				With("order_id", in.OrderID)
		}
		if opts.requireCheckoutEligible && !o.Status.CheckoutEligible() {
			return domain.ErrOrderNotReadyForCheckout(o.Status)
		}

		// Cap check and insert share the transaction; the order row lock
		// serializes concurrent payments against the same order.
		current, err := s.store.SumPayments(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if current+in.Amount > o.Total {
			return domain.ErrPaymentExceedsTotal(o.Total, current, in.Amount)
		}

		p = domain.Payment{
			OrderID:           in.OrderID,
			Amount:            in.Amount,
			Method:            in.Method,
			Status:            domain.PaymentStatusCompleted,
			ReceivedByStaffID: in.ActorID,
		}
		if err := s.store.InsertPayment(ctx, &p); err != nil {
			return err
		}

		if opts.autoCheckout {
			paid, err := s.store.SumCompletedPayments(ctx, in.OrderID)
			if err != nil {
				return err
			}
			if paid >= o.Total {
				if err := s.checkoutLocked(ctx, &o, in.ActorID, &pending); err != nil {
					return err
				}
				checkedOut = true
			}
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, false, err
	}

	s.emit(ctx, events.Event{
		Type:    events.TypePaymentRecorded,
		OrderID: in.OrderID,
		ShiftID: o.ShiftID,
		Amount:  p.Amount,
		Method:  string(p.Method),
		ActorID: in.ActorID,
	})
	for _, e := range pending {
		s.emit(ctx, e)
	}
	s.recordAudit(ctx, audit.Entry{
		ActorID: in.ActorID, Action: "payment_recorded",
		EntityType: "payment", EntityID: p.ID, After: p,
	})
	s.lg.Info("payment_recorded", map[string]any{
		"order_id": in.OrderID, "amount": in.Amount, "method": string(in.Method), "checked_out": checkedOut,
	})
	return p, checkedOut, nil
}

// TotalPaid sums completed payments only; pending and failed amounts do not
// count toward "paid".
func (s *Service) TotalPaid(ctx context.Context, orderID int64) (int64, error) {
	if _, err := s.store.GetOrder(ctx, orderID); err != nil {
		return 0, err
	}
	return s.store.SumCompletedPayments(ctx, orderID)
}

// IsFullyPaid is false for cancelled or non-existent orders.
func (s *Service) IsFullyPaid(ctx context.Context, orderID int64) (bool, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if domain.IsCode(err, domain.CodeOrderNotFound) {
			return false, nil
		}
		return false, err
	}
	if o.Status == domain.StatusCancelled {
		return false, nil
	}
	paid, err := s.store.SumCompletedPayments(ctx, orderID)
	if err != nil {
		return false, err
	}
	return paid >= o.Total, nil
}

func (s *Service) Payments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	if _, err := s.store.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.ListOrderPayments(ctx, orderID)
}

// Checkout is the single authoritative way to close an order: status must be
// ready or awaiting_payment and completed payments must cover the total.
// The move to served and the table release commit together; no reader sees
// one without the other.
func (s *Service) Checkout(ctx context.Context, orderID, actorID int64) error {
	var pending []events.Event
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CheckoutEligible() {
			return domain.ErrOrderNotReadyForCheckout(o.Status)
		}
		paid, err := s.store.SumCompletedPayments(ctx, orderID)
		if err != nil {
			return err
		}
		if paid < o.Total {
			return domain.ErrOrderNotFullyPaid(o.Total, paid)
		}
		return s.checkoutLocked(ctx, &o, actorID, &pending)
	})
	if err != nil {
		return err
	}

	for _, e := range pending {
		s.emit(ctx, e)
	}
	s.recordAudit(ctx, audit.Entry{
		ActorID: actorID, Action: "order_checked_out",
		EntityType: "order", EntityID: orderID,
		After: map[string]any{"status": domain.StatusServed},
	})
	s.lg.Info("order_checked_out", map[string]any{"order_id": orderID})
	return nil
}

// checkoutLocked runs inside the order-row transaction: status to served,
// status log, table release. Emissions are queued for after commit.
func (s *Service) checkoutLocked(ctx context.Context, o *domain.Order, actorID int64, pending *[]events.Event) error {
	prev := o.Status
	if err := s.store.UpdateOrderStatus(ctx, o.ID, domain.StatusServed); err != nil {
		return err
	}
	if err := s.store.AppendStatusLog(ctx, o.ID, domain.StatusServed, actorID); err != nil {
		return err
	}
	o.Status = domain.StatusServed

	released, tableID, err := s.tables.ReleaseLocked(ctx, *o)
	if err != nil {
		return err
	}

	*pending = append(*pending, events.Event{
		Type:           events.TypeOrderStatusChanged,
		OrderID:        o.ID,
		ShiftID:        o.ShiftID,
		PreviousStatus: string(prev),
		NewStatus:      string(domain.StatusServed),
		ActorID:        actorID,
	})
	if released {
		*pending = append(*pending, events.Event{
			Type:    events.TypeTableReleased,
			OrderID: o.ID,
			TableID: tableID,
		})
	}
	return nil
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
