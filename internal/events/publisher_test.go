package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
	"github.com/aleixjf/ms-orders-management-sub000/pkg/metrics"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) all() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

func newTestPublisher(writer MessageWriter) *KafkaPublisher {
	m := metrics.NewPipelineMetricsWith(prometheus.NewRegistry(), "test")
	return NewKafkaPublisher(writer, m, zap.NewNop())
}

func TestNewEnvelope(t *testing.T) {
	event := domain.OrderConfirmedEvent{ID: "order-1", At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	envelope, err := NewEnvelope(event)
	require.NoError(t, err)

	_, err = uuid.Parse(envelope.ID)
	require.NoError(t, err, "envelope id must be a fresh uuid")
	assert.Equal(t, domain.PatternOrderConfirmed, envelope.Pattern)
	assert.Equal(t, domain.PatternOrderConfirmed, envelope.Headers.EventType)
	assert.Equal(t, "2024-03-01T12:00:00Z", envelope.Timestamp)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "order-1", payload["id"])
}

func TestNewEnvelopeFreshIDPerMessage(t *testing.T) {
	event := domain.OrderShippedEvent{ID: "order-1", At: time.Now()}

	first, err := NewEnvelope(event)
	require.NoError(t, err)
	second, err := NewEnvelope(event)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestPublishRoutesByPattern(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	event := domain.StockReservationRequestedEvent{
		OrderID:  "order-1",
		Products: []domain.ProductLine{{ProductID: "prod-1", Quantity: 2}},
		At:       time.Now(),
	}
	require.NoError(t, publisher.Publish(context.Background(), event))

	msgs := writer.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.PatternStockReservation, msgs[0].Topic)
	assert.Equal(t, "order-1", string(msgs[0].Key), "messages are keyed by order id")
}

func TestPublishBatchDeliversEverything(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	batch := []domain.DomainEvent{
		domain.StockCompensationRequestedEvent{OrderID: "order-1", At: time.Now()},
		domain.OrderCancelledEvent{ID: "order-1", Reason: "cancelled", At: time.Now()},
	}
	require.NoError(t, publisher.PublishBatch(context.Background(), batch))

	msgs := writer.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.PatternStockCompensation, msgs[0].Topic,
		"compensation is requested before the cancellation is announced")
	assert.Equal(t, domain.PatternOrderCancelled, msgs[1].Topic)
	assert.Equal(t, "order-1", string(msgs[0].Key))
	assert.Equal(t, "order-1", string(msgs[1].Key))
}

func TestPublishBatchSurfacesFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	publisher := newTestPublisher(writer)

	err := publisher.PublishBatch(context.Background(), []domain.DomainEvent{
		domain.OrderConfirmedEvent{ID: "order-1", At: time.Now()},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	require.NoError(t, publisher.PublishBatch(context.Background(), nil))
	assert.Empty(t, writer.all())
}

func TestPublishDeadLetter(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	raw := []byte(`{"customerId":"c-1"}`)
	cause := errors.New("missing products")
	require.NoError(t, publisher.PublishDeadLetter(context.Background(), TopicOrdersCreate, []byte("key"), raw, cause))

	msgs := writer.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "orders.create.dlq", msgs[0].Topic)

	var letter DeadLetter
	require.NoError(t, json.Unmarshal(msgs[0].Value, &letter))
	assert.JSONEq(t, string(raw), string(letter.Message))
	assert.Equal(t, "missing products", letter.Error)
}

func TestPublishDeadLetterMalformedPayload(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	raw := []byte("not json at all {")
	require.NoError(t, publisher.PublishDeadLetter(context.Background(), TopicStockReserved, nil, raw, errors.New("malformed message")))

	var letter DeadLetter
	require.NoError(t, json.Unmarshal(writer.all()[0].Value, &letter))

	var preserved string
	require.NoError(t, json.Unmarshal(letter.Message, &preserved))
	assert.Equal(t, "not json at all {", preserved)
}

func TestDeadLetterTopicNaming(t *testing.T) {
	for _, topic := range InboundTopics() {
		assert.Equal(t, topic+".dlq", DeadLetterTopic(topic))
	}
}
