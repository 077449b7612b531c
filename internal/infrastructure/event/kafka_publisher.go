package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// Envelope is the Kafka message body for a domain event
type Envelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event for publishing
func NewEnvelope(event shared.DomainEvent) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return &Envelope{
		ID:            event.EventID().String(),
		Type:          event.EventType(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt().UTC(),
		Payload:       payload,
	}, nil
}

// KafkaSyncPublisher forwards events from the bus to a Kafka topic
type KafkaSyncPublisher struct {
	producer   sarama.SyncProducer
	topic      string
	eventTypes []string
	logger     *zap.Logger
}

var _ shared.EventHandler = (*KafkaSyncPublisher)(nil)

// NewKafkaSyncPublisher creates a handler that publishes the given event types.
// With no types it forwards catalog.sync_completed only.
func NewKafkaSyncPublisher(producer sarama.SyncProducer, topic string, logger *zap.Logger, eventTypes ...string) *KafkaSyncPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(eventTypes) == 0 {
		eventTypes = []string{catalog.EventTypeSyncCompleted}
	}
	return &KafkaSyncPublisher{
		producer:   producer,
		topic:      topic,
		eventTypes: eventTypes,
		logger:     logger.Named("kafka_publisher"),
	}
}

// NewSyncProducer dials the brokers with acknowledged delivery
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return sarama.NewSyncProducer(brokers, cfg)
}

// EventTypes returns the forwarded event types
func (h *KafkaSyncPublisher) EventTypes() []string {
	return h.eventTypes
}

// Handle sends the event keyed by its aggregate type
func (h *KafkaSyncPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: h.topic,
		Key:   sarama.StringEncoder(event.AggregateType()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType())},
		},
	}

	partition, offset, err := h.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}

	h.logger.Debug("Event published",
		zap.String("event_type", event.EventType()),
		zap.String("topic", h.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close closes the underlying producer
func (h *KafkaSyncPublisher) Close() error {
	return h.producer.Close()
}
