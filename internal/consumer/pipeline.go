package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
	"github.com/aleixjf/ms-orders-management-sub000/internal/events"
	"github.com/aleixjf/ms-orders-management-sub000/pkg/metrics"
)

// Coordinator is the slice of the saga coordinator the pipeline dispatches to.
type Coordinator interface {
	CreateOrder(ctx context.Context, customerID domain.CustomerID, products []domain.Product) (*domain.Order, error)
	ReserveOrder(ctx context.Context, id domain.OrderID) error
	ConfirmOrder(ctx context.Context, id domain.OrderID) error
	CancelOrder(ctx context.Context, id domain.OrderID, reason string) error
	ShipOrder(ctx context.Context, id domain.OrderID) error
	DeliverOrder(ctx context.Context, id domain.OrderID) error
}

// Pipeline decodes, validates and dispatches every inbound message. Any
// failure - malformed payload, schema violation or a coordinator error -
// routes the original raw message to the topic's dead-letter sibling and the
// message counts as handled, so a poison message never blocks the partition.
type Pipeline struct {
	coordinator Coordinator
	deadLetters events.DeadLetterPublisher
	validate    *validator.Validate
	metrics     *metrics.PipelineMetrics
	logger      *zap.Logger
}

func NewPipeline(coordinator Coordinator, deadLetters events.DeadLetterPublisher, m *metrics.PipelineMetrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		coordinator: coordinator,
		deadLetters: deadLetters,
		validate:    validator.New(),
		metrics:     m,
		logger:      logger,
	}
}

// Handle processes one message. The returned error only reports a failed
// dead-letter publish; handler failures are already quarantined.
func (p *Pipeline) Handle(ctx context.Context, topic string, msg kafka.Message) error {
	p.metrics.Consumed.WithLabelValues(topic).Inc()

	if err := p.dispatch(ctx, topic, msg.Value); err != nil {
		p.metrics.DeadLettered.WithLabelValues(topic).Inc()
		p.logger.Warn("Inbound message failed",
			zap.String("topic", topic),
			zap.Error(err))
		return p.deadLetters.PublishDeadLetter(ctx, topic, msg.Key, msg.Value, err)
	}

	p.metrics.Processed.WithLabelValues(topic).Inc()
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, topic string, raw []byte) error {
	payload, err := commandPayload(raw)
	if err != nil {
		return err
	}

	switch topic {
	case events.TopicOrdersCreate:
		var cmd domain.CreateOrderCommand
		if err := p.decode(payload, &cmd); err != nil {
			return err
		}
		customerID, err := domain.ParseCustomerID(cmd.CustomerID)
		if err != nil {
			return err
		}
		products, err := cmd.ToProducts()
		if err != nil {
			return err
		}
		_, err = p.coordinator.CreateOrder(ctx, customerID, products)
		return err

	case events.TopicOrdersConfirm:
		// Confirmation is requested, not granted: the saga first reserves
		// stock and the stock.reserved reply performs the actual confirm.
		var cmd domain.ConfirmOrderCommand
		if err := p.decode(payload, &cmd); err != nil {
			return err
		}
		return p.coordinator.ReserveOrder(ctx, domain.OrderID(cmd.ID))

	case events.TopicOrdersCancel:
		var cmd domain.CancelOrderCommand
		if err := p.decode(payload, &cmd); err != nil {
			return err
		}
		return p.coordinator.CancelOrder(ctx, domain.OrderID(cmd.ID), cmd.Reason)

	case events.TopicOrdersShip:
		var cmd domain.ShipOrderCommand
		if err := p.decode(payload, &cmd); err != nil {
			return err
		}
		return p.coordinator.ShipOrder(ctx, domain.OrderID(cmd.ID))

	case events.TopicOrdersDeliver:
		var cmd domain.DeliverOrderCommand
		if err := p.decode(payload, &cmd); err != nil {
			return err
		}
		return p.coordinator.DeliverOrder(ctx, domain.OrderID(cmd.ID))

	case events.TopicStockReserved:
		var reply domain.StockReservedReply
		if err := p.decode(payload, &reply); err != nil {
			return err
		}
		return p.coordinator.ConfirmOrder(ctx, domain.OrderID(reply.OrderID))

	case events.TopicStockRejected:
		var reply domain.StockRejectedReply
		if err := p.decode(payload, &reply); err != nil {
			return err
		}
		reason := reply.Reason
		if reason == "" {
			reason = "stock reservation rejected"
		}
		return p.coordinator.CancelOrder(ctx, domain.OrderID(reply.OrderID), reason)

	default:
		return fmt.Errorf("no handler registered for topic %q", topic)
	}
}

func (p *Pipeline) decode(payload []byte, cmd any) error {
	if err := json.Unmarshal(payload, cmd); err != nil {
		return fmt.Errorf("%w: malformed command payload: %v", domain.ErrValidation, err)
	}
	if err := p.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// commandPayload unwraps the message envelope when present and falls back to
// the raw value for bare command payloads.
func commandPayload(raw []byte) ([]byte, error) {
	var envelope events.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed message: %v", domain.ErrValidation, err)
	}
	if envelope.Pattern != "" && len(envelope.Payload) > 0 {
		return envelope.Payload, nil
	}
	return raw, nil
}
