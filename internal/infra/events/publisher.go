// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Config holds Kafka producer configuration. An empty broker list disables publishing.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Writer defines the subset of segmentio kafka.Writer we need.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// Envelope wraps every payload with its type and time.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// KafkaProducer is a thin wrapper around a kafka writer implementing Publisher.
type KafkaProducer struct {
	writer Writer
	log    *slog.Logger
}

// NewKafkaProducer creates a producer writing to cfg.Topic on cfg.Brokers.
func NewKafkaProducer(cfg Config) *KafkaProducer {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &skafka.Writer{
		Addr:                   skafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &skafka.Hash{},
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaProducerWithWriter(w)
}

// NewKafkaProducerWithWriter allows injecting a test writer.
func NewKafkaProducerWithWriter(w Writer) *KafkaProducer {
	return &KafkaProducer{writer: w, log: slog.Default().With("component", "events")}
}

// Publish marshals value to JSON and writes it under key. Envelope values also
// set an "event-type" header.
func (p *KafkaProducer) Publish(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := skafka.Message{Key: []byte(key), Value: b}
	if env, ok := value.(Envelope); ok {
		msg.Headers = []skafka.Header{{Key: "event-type", Value: []byte(env.Type)}}
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("kafka write failed", "key", key, "error", err)
		return fmt.Errorf("write event: %w", err)
	}
	p.log.Debug("event published", "key", key, "bytes", len(b))
	return nil
}

// Close closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// Noop drops every event. Used when Kafka is not configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, key string, value any) error { return nil }

func (Noop) Close() error { return nil }
