package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"match-service/internal/config"
	"match-service/internal/notify"
)

// Consumer reads fan-out events and hands them to the local websocket hub.
// Every gateway instance must see every event, so the group id carries an
// instance suffix.
type Consumer struct {
	consumer  *kafka.Consumer
	topic     string
	groupID   string
	deliverer notify.Deliverer
}

func NewConsumer(cfg config.KafkaConfig, instanceID string, deliverer notify.Deliverer) (*Consumer, error) {
	groupID := cfg.ConsumerGroup
	if instanceID != "" {
		groupID = groupID + "-" + instanceID
	}
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	return &Consumer{consumer: c, topic: cfg.Topic, groupID: groupID, deliverer: deliverer}, nil
}

// Run blocks until ctx is cancelled or a fatal broker error occurs.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.consumer.SubscribeTopics([]string{c.topic}, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s for group %s: %w", c.topic, c.groupID, err)
	}
	log.Printf("kafka consumer started group=%s topic=%s", c.groupID, c.topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		switch e := c.consumer.Poll(1000).(type) {
		case nil:
		case *kafka.Message:
			c.handle(e)
		case kafka.Error:
			log.Printf("kafka consumer error group=%s code=%d fatal=%t: %v", c.groupID, e.Code(), e.IsFatal(), e)
			if e.IsFatal() {
				return e
			}
		}
	}
}

func (c *Consumer) handle(msg *kafka.Message) {
	ev, err := notify.Decode(msg.Value)
	if err != nil {
		log.Printf("kafka consumer dropping message key=%s offset=%v: %v", string(msg.Key), msg.TopicPartition.Offset, err)
	} else {
		delivered := c.deliverer.DeliverToUser(ev)
		log.Printf("kafka consumer event_id=%s type=%s user_id=%d conns=%d", ev.ID, ev.Type, ev.UserID, delivered)
	}
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		log.Printf("kafka consumer commit failed group=%s offset=%v: %v", c.groupID, msg.TopicPartition.Offset, err)
	}
}

func (c *Consumer) Close() error {
	if c.consumer == nil {
		return nil
	}
	return c.consumer.Close()
}
