// Package table derives occupancy for dine-in tables from active orders and
// releases tables when their order reaches a terminal state.
package table

import (
	"context"
	"time"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/repository"
)

type Store interface {
	repository.Transactor
	repository.Orders
	repository.Tables
}

type Service struct {
	store  Store
	events events.Publisher
	lg     *logger.Logger
}

func New(store Store, pub events.Publisher, lg *logger.Logger) *Service {
	return &Service{store: store, events: pub, lg: lg}
}

// IsOccupied reports whether a dine-in order in pending/preparing/ready
// references the table.
func (s *Service) IsOccupied(ctx context.Context, tableID int64) (bool, error) {
	if _, err := s.store.GetTable(ctx, tableID); err != nil {
		return false, err
	}
	n, err := s.store.CountOccupyingOrders(ctx, tableID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleaseTableForOrder frees the order's table. No-op for orders without a
// table; the order must already be terminal, which guards against a caller
// freeing a table for an order still mid-flight.
func (s *Service) ReleaseTableForOrder(ctx context.Context, orderID int64) error {
	var released bool
	var tableID int64
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		released, tableID, err = s.ReleaseLocked(ctx, o)
		return err
	})
	if err != nil {
		return err
	}
	if released {
		s.emitReleased(ctx, orderID, tableID)
	}
	return nil
}

// ReleaseLocked performs the release inside the caller's transaction; the
// caller must hold the order row lock. The table only flips to available
// when no other occupying order references it.
func (s *Service) ReleaseLocked(ctx context.Context, o domain.Order) (bool, int64, error) {
	if o.TableID == nil {
		return false, 0, nil
	}
	if !o.Status.IsTerminal() {
		return false, 0, domain.E(domain.CodeOrderNotTerminal, "order is not in a terminal status").
			With("order_id", o.ID).With("status", string(o.Status))
	}
	n, err := s.store.CountOccupyingOrders(ctx, *o.TableID)
	if err != nil {
		return false, 0, err
	}
	if n > 0 {
		return false, 0, nil
	}
	if err := s.store.SetTableStatus(ctx, *o.TableID, domain.TableAvailable); err != nil {
		return false, 0, err
	}
	return true, *o.TableID, nil
}

func (s *Service) emitReleased(ctx context.Context, orderID, tableID int64) {
	if err := s.events.Publish(ctx, events.Event{
		Type:       events.TypeTableReleased,
		OrderID:    orderID,
		TableID:    tableID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.lg.Error("event_publish_failed", err, map[string]any{"type": events.TypeTableReleased, "order_id": orderID})
	}
}
