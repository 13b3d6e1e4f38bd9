package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prohmpiriya/devops-api/internal/domain"
	"github.com/prohmpiriya/devops-api/pkg/kafka"
	"github.com/prohmpiriya/devops-api/pkg/retry"
)

// EventPublisher publishes authentication audit events
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.AuthEvent) error
	Close() error
}

// MessageProducer is the part of kafka.Producer used for publishing
type MessageProducer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
	Close()
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
	Retry       *retry.Config
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    MessageProducer
	topic       string
	serviceName string
	retrier     *retry.Retrier
}

// NewKafkaEventPublisher connects to Kafka and creates a publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "devops-api-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 500 * time.Millisecond,
		BatchSize:     100,
		LingerMs:      5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewKafkaEventPublisherWithProducer(producer, cfg), nil
}

// NewKafkaEventPublisherWithProducer creates a publisher over an existing producer
func NewKafkaEventPublisherWithProducer(producer MessageProducer, cfg *EventPublisherConfig) *KafkaEventPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = "auth-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "devops-api"
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
		retrier:     retry.New(cfg.Retry),
	}
}

// Publish sends event to the audit topic, retrying transient failures
func (p *KafkaEventPublisher) Publish(ctx context.Context, event *domain.AuthEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: map[string]string{
			"event_type":   string(event.Type),
			"event_id":     event.EventID,
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: event.OccurredAt,
	}

	result := p.retrier.Do(ctx, func(ctx context.Context) error {
		return p.producer.Produce(ctx, msg)
	}, nil)
	if result.Err != nil {
		return fmt.Errorf("failed to publish %s event after %d attempts: %w", event.Type, result.Attempts, result.LastError)
	}

	return nil
}

// Close flushes and closes the producer
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoOpEventPublisher drops events. Used when Kafka is disabled.
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) Publish(ctx context.Context, event *domain.AuthEvent) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
