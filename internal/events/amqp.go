package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"restaurant-pos/internal/connections/rabbitmq"
)

// AMQPPublisher routes events into the pos.events topic exchange with the
// event type as routing key.
type AMQPPublisher struct {
	client *rabbitmq.Client
}

func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.client.Publish(pctx, rabbitmq.EventsExchange, e.Type, e.ID, body)
}
