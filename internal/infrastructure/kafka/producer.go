package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ritual-service/internal/config"
	"ritual-service/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer publishes engine events for downstream collaborators, primarily
// the notification service. Events are JSON-encoded and keyed by user so a
// user's events stay ordered within a partition.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer.
func NewProducer(cfg *config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true, // completion latency must not pay for the broker
	}

	return &Producer{writer: writer}
}

type envelope struct {
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
}

// PublishRitualCompleted publishes a completion event.
func (p *Producer) PublishRitualCompleted(ctx context.Context, event *service.RitualCompletedEvent) error {
	data, err := json.Marshal(envelope{
		EventType: "ritual.completed",
		Payload:   event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     event.UserID,
		"activity_id": event.ActivityID,
	}).Debug("published ritual.completed event")
	return nil
}

// Close closes the Kafka producer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
