// Package display is the kitchen display consumer: it tails the event queue
// and renders order activity for the kitchen screens. Deliveries are acked
// manually; payloads that do not parse are dead-lettered.
package display

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/events"
)

type Subscriber struct {
	client *rabbitmq.Client
	lg     *logger.Logger
}

func New(client *rabbitmq.Client, lg *logger.Logger) *Subscriber {
	return &Subscriber{client: client, lg: lg}
}

// Run consumes until ctx is cancelled. Handled events are acked; malformed
// bodies are nacked without requeue so the dead-letter exchange keeps them.
func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.client.Consume(rabbitmq.DisplayQueue, "kitchen-display", 10)
	if err != nil {
		return err
	}
	s.lg.Info("display_consuming", map[string]any{"queue": rabbitmq.DisplayQueue})
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, open := <-deliveries:
			if !open {
				return nil
			}
			s.handle(d)
		}
	}
}

func (s *Subscriber) handle(d amqp.Delivery) {
	var e events.Event
	if err := json.Unmarshal(d.Body, &e); err != nil || e.Type == "" {
		s.lg.Error("display_bad_payload", err, map[string]any{"message_id": d.MessageId})
		_ = d.Nack(false, false)
		return
	}
	switch e.Type {
	case events.TypeOrderCreated:
		s.lg.Info("display_order_new", map[string]any{
			"order_id": e.OrderID, "table_id": e.TableID,
		})
	case events.TypeOrderStatusChanged:
		s.lg.Info("display_order_status", map[string]any{
			"order_id": e.OrderID, "from": e.PreviousStatus, "to": e.NewStatus,
		})
	case events.TypePaymentRecorded:
		s.lg.Info("display_order_paid", map[string]any{
			"order_id": e.OrderID, "amount": e.Amount, "method": e.Method,
		})
	case events.TypeTableReleased:
		s.lg.Info("display_table_free", map[string]any{"table_id": e.TableID})
	case events.TypeShiftClosed:
		s.lg.Info("display_shift_closed", map[string]any{"shift_id": e.ShiftID})
	default:
		s.lg.Debug("display_event_ignored", map[string]any{"type": e.Type})
	}
	_ = d.Ack(false)
}
