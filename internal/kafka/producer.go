package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"match-service/internal/config"
	"match-service/internal/notify"
)

// Producer publishes fan-out events to a single topic keyed by routing key,
// so every event for one user lands on the same partition in order.
type Producer struct {
	producer *kafka.Producer
	topic    string
}

func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return &Producer{producer: p, topic: cfg.Topic}, nil
}

// Publish waits for the delivery report or ctx, whichever comes first.
func (p *Producer) Publish(ctx context.Context, routingKey string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(routingKey),
		Value:          payload,
		Timestamp:      time.Now(),
	}
	if ev, ok := event.(notify.Event); ok {
		msg.Headers = []kafka.Header{
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "event_type", Value: []byte(ev.Type)},
		}
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("kafka producer failed to enqueue message for topic %s: %w", p.topic, err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("kafka producer: unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka producer: delivery failed for topic %s: %w", p.topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka producer: waiting for delivery report: %w", ctx.Err())
	}
}

// Close flushes outstanding messages for up to 15 seconds.
func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if remaining := p.producer.Flush(15 * 1000); remaining > 0 {
		log.Printf("kafka producer closing with %d messages outstanding", remaining)
	}
	p.producer.Close()
	return nil
}
