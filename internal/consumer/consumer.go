package consumer

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aleixjf/ms-orders-management-sub000/internal/events"
)

// Pause between attempts when the broker keeps failing reads, so a dead
// connection does not spin the loop.
const readErrorBackoff = time.Second

// Reader is the slice of *kafka.Reader the group needs. Fetch and commit are
// split so an offset is only committed once the message was handled or
// quarantined.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderFactory builds a consumer-group reader for one topic.
type ReaderFactory func(topic string) Reader

// Group runs one read loop per inbound topic. Read errors are logged and the
// loop continues; message-level failures are the pipeline's business and end
// up on the DLQ, never crashing the consumer.
type Group struct {
	pipeline  *Pipeline
	newReader ReaderFactory
	logger    *zap.Logger

	mu      sync.Mutex
	readers []Reader
	eg      errgroup.Group
}

func NewGroup(pipeline *Pipeline, newReader ReaderFactory, logger *zap.Logger) *Group {
	return &Group{
		pipeline:  pipeline,
		newReader: newReader,
		logger:    logger,
	}
}

// Start launches a consumer goroutine per inbound topic and returns.
func (g *Group) Start(ctx context.Context) {
	for _, topic := range events.InboundTopics() {
		reader := g.newReader(topic)

		g.mu.Lock()
		g.readers = append(g.readers, reader)
		g.mu.Unlock()

		topic, reader := topic, reader
		g.eg.Go(func() error {
			return g.consume(ctx, topic, reader)
		})
	}
	g.logger.Info("Consumer group started", zap.Int("topics", len(events.InboundTopics())))
}

func (g *Group) consume(ctx context.Context, topic string, reader Reader) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				g.logger.Info("Exiting read loop", zap.String("topic", topic))
				return nil
			}
			g.logger.Error("Error reading from Kafka",
				zap.String("topic", topic),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readErrorBackoff):
			}
			continue
		}

		if err := g.pipeline.Handle(ctx, topic, msg); err != nil {
			// Dead-letter publish failed. The offset stays uncommitted so the
			// broker redelivers the message after a restart or rebalance.
			g.logger.Error("Failed to quarantine message",
				zap.String("topic", topic),
				zap.Error(err))
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			g.logger.Error("Failed to commit offset",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
}

// Close stops the readers and waits for the loops to drain.
func (g *Group) Close() {
	g.mu.Lock()
	readers := g.readers
	g.readers = nil
	g.mu.Unlock()

	for _, reader := range readers {
		if err := reader.Close(); err != nil {
			g.logger.Error("Failed to close reader", zap.Error(err))
		}
	}
	_ = g.eg.Wait()
}
