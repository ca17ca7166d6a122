package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
	"github.com/aleixjf/ms-orders-management-sub000/pkg/metrics"
)

// MessageWriter is the slice of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher turns domain events into transport messages. PublishBatch
// preserves emission order and returns only once every event was accepted by
// the transport; a failed publish is surfaced so the orchestrator keeps the
// aggregate's in-memory events authoritative.
type Publisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
	PublishBatch(ctx context.Context, events []domain.DomainEvent) error
}

// DeadLetterPublisher quarantines an unprocessable raw message on the
// dead-letter sibling of its topic.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, topic string, key, raw []byte, cause error) error
}

// KafkaPublisher routes each event to the topic named by its pattern, keyed
// by the order id so saga messages for one order land on one partition.
type KafkaPublisher struct {
	writer  MessageWriter
	metrics *metrics.PipelineMetrics
	logger  *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, m *metrics.PipelineMetrics, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, metrics: m, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Topic: envelope.Pattern,
		Key:   []byte(event.AggregateID()),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("pattern", envelope.Pattern),
			zap.String("message_id", envelope.ID),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", envelope.Pattern, err)
	}

	p.metrics.Published.WithLabelValues(envelope.Pattern).Inc()
	p.logger.Info("Event published",
		zap.String("pattern", envelope.Pattern),
		zap.String("message_id", envelope.ID),
		zap.String("order_id", event.AggregateID().String()))
	return nil
}

// PublishBatch writes the whole batch in one call so events from a single
// aggregate mutation reach their partitions in emission order; a compensation
// request therefore always precedes the cancellation it belongs to.
func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	patterns := make([]string, 0, len(events))
	for _, event := range events {
		envelope, err := NewEnvelope(event)
		if err != nil {
			return err
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: envelope.Pattern,
			Key:   []byte(event.AggregateID()),
			Value: data,
		})
		patterns = append(patterns, envelope.Pattern)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("Failed to publish event batch",
			zap.Strings("patterns", patterns),
			zap.Error(err))
		return fmt.Errorf("publish batch: %w", err)
	}

	for _, pattern := range patterns {
		p.metrics.Published.WithLabelValues(pattern).Inc()
	}
	return nil
}

func (p *KafkaPublisher) PublishDeadLetter(ctx context.Context, topic string, key, raw []byte, cause error) error {
	body, err := json.Marshal(NewDeadLetter(raw, cause))
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	dlqTopic := DeadLetterTopic(topic)
	msg := kafka.Message{
		Topic: dlqTopic,
		Key:   key,
		Value: body,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish dead letter",
			zap.String("topic", dlqTopic),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", dlqTopic, err)
	}

	p.logger.Warn("Message routed to dead letter queue",
		zap.String("topic", dlqTopic),
		zap.String("cause", cause.Error()))
	return nil
}
