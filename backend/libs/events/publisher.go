// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types emitted by the services.
const (
	TypeSessionStarted   = "session.started"
	TypeSessionCompleted = "session.completed"
	TypeSessionCancelled = "session.cancelled"
	TypeCatalogSynced    = "catalog.synced"
)

const defaultWriteTimeout = 5 * time.Second

// Event is a single domain event. Key selects the partition.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Config selects the Kafka cluster and topic. An empty broker list disables publishing.
type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON encoded events to one topic.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// New returns a Kafka backed publisher, or a no-op one when no brokers are configured.
func New(cfg Config, logger *zap.Logger) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info("event publishing disabled")
		return NopPublisher{}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("events: topic must not be empty")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: defaultWriteTimeout,
	}
	return newKafkaPublisher(writer, logger), nil
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish encodes the event and writes it synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write %s: %w", event.Type, err)
	}
	p.logger.Debug("event published", zap.String("type", event.Type), zap.String("key", event.Key))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
