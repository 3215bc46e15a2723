package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"match-service/internal/notify"
)

// Consumer binds a queue to the per-user notification keys and hands every
// event to the local websocket hub.
type Consumer struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queue     string
	deliverer notify.Deliverer
}

// NewConsumer declares the exchange and queue. An empty queue name gets a
// server-named exclusive queue so that every instance sees every event.
func NewConsumer(amqpURL, exchange, queue string, deliverer notify.Deliverer) (*Consumer, error) {
	if amqpURL == "" {
		return nil, errors.New("rabbitmq consumer: empty amqp url")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consumer dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq consumer channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	exclusive := queue == ""
	q, err := ch.QueueDeclare(queue, !exclusive, exclusive, exclusive, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, notify.BindingKey, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	log.Printf("rabbitmq consumer ready exchange=%s queue=%s binding=%s", exchange, q.Name, notify.BindingKey)
	return &Consumer{conn: conn, ch: ch, queue: q.Name, deliverer: deliverer}, nil
}

// Run consumes until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq consumer: delivery channel closed")
			}
			c.handle(d)
		}
	}
}

func (c *Consumer) handle(d amqp.Delivery) {
	ev, err := notify.Decode(d.Body)
	if err != nil {
		log.Printf("rabbitmq consumer dropping message routing_key=%s: %v", d.RoutingKey, err)
		_ = d.Nack(false, false)
		return
	}
	delivered := c.deliverer.DeliverToUser(ev)
	log.Printf("rabbitmq consumer event_id=%s type=%s user_id=%d redelivered=%t conns=%d", ev.ID, ev.Type, ev.UserID, d.Redelivered, delivered)
	_ = d.Ack(false)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
