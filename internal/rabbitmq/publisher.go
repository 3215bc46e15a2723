package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"match-service/internal/notify"
	"match-service/internal/observability"
	"match-service/internal/telemetry"
)

// ErrChannelClosed is returned once the broker has closed the publish channel.
var ErrChannelClosed = errors.New("rabbitmq channel closed")

// Publisher publishes JSON events to a topic exchange. Fan-out events, audit
// records and websocket lifecycle events all share it.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP is disabled.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return newNoop("empty amqp url")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return newNoop(err.Error())
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return newNoop(err.Error())
	}

	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return newNoop(err.Error())
	}

	p := &amqpPublisher{conn: conn, ch: ch, exchange: exchange, closed: make(chan struct{})}
	go p.watch(ch.NotifyClose(make(chan *amqp.Error, 1)))
	log.Printf("rabbitmq connected exchange=%s", exchange)
	return p
}

func newNoop(reason string) noopPublisher {
	log.Printf("rabbitmq disabled, using noop: %s", reason)
	return noopPublisher{reason: reason}
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// buildPublishing encodes event and copies its identifiers into AMQP
// properties so consumers can route and dedup without decoding the body.
func buildPublishing(event any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}
	switch ev := event.(type) {
	case notify.Event:
		msg.MessageId = ev.ID
		msg.Type = string(ev.Type)
	case telemetry.AuditEnvelope:
		msg.Type = ev.EventType
		if ev.RequestID != "" {
			msg.Headers = amqp.Table{"x-request-id": ev.RequestID}
		}
	case observability.EventEnvelope:
		msg.Type = ev.EventName
		msg.Headers = amqp.Table{}
		if ev.RequestID != "" {
			msg.Headers["x-request-id"] = ev.RequestID
		}
		if ev.TraceID != "" {
			msg.Headers["trace_id"] = ev.TraceID
		}
	}
	return msg, nil
}

type amqpPublisher struct {
	// amqp channels are not safe for concurrent publishing.
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	closeOnce sync.Once
	closed    chan struct{}
}

func (p *amqpPublisher) watch(closes <-chan *amqp.Error) {
	if err, ok := <-closes; ok && err != nil {
		log.Printf("rabbitmq channel closed: code=%d reason=%s", err.Code, err.Reason)
	}
	p.closeOnce.Do(func() { close(p.closed) })
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	select {
	case <-p.closed:
		observability.IncAMQPPublishError()
		return ErrChannelClosed
	default:
	}

	msg, err := buildPublishing(event, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		observability.IncAMQPPublishError()
		log.Printf("rabbitmq publish failed routing_key=%s: %v", routingKey, err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	switch envelope := event.(type) {
	case telemetry.AuditEnvelope:
		log.Printf("rabbitmq noop publish routing_key=%s event_type=%s service=%s request_id=%s", routingKey, envelope.EventType, envelope.Service, envelope.RequestID)
	case notify.Event:
		log.Printf("rabbitmq noop publish routing_key=%s event_id=%s type=%s user_id=%d", routingKey, envelope.ID, envelope.Type, envelope.UserID)
	case observability.EventEnvelope:
		log.Printf("rabbitmq noop publish routing_key=%s event=%s request_id=%s", routingKey, envelope.EventName, envelope.RequestID)
	default:
		log.Printf("rabbitmq noop publish routing_key=%s", routingKey)
	}
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher, *noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

func PublisherNoopReason(p Publisher) string {
	switch publisher := p.(type) {
	case noopPublisher:
		return publisher.reason
	case *noopPublisher:
		return publisher.reason
	default:
		return ""
	}
}
