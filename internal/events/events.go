// Package events emits structured domain events for the external real-time
// fan-out layer. Emission is best-effort: a failed publish never rolls back
// or blocks the state change that produced it.
package events

import (
	"context"
	"time"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypePaymentRecorded    = "payment.recorded"
	TypeTableReleased      = "table.released"
	TypeShiftClosed        = "shift.closed"
)

type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	OrderID        int64     `json:"order_id,omitempty"`
	ShiftID        int64     `json:"shift_id,omitempty"`
	TableID        int64     `json:"table_id,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	Amount         int64     `json:"amount,omitempty"`
	Method         string    `json:"method,omitempty"`
	ActorID        int64     `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop discards every event; used in tests and when no broker is wired.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
