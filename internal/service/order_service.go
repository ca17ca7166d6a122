package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
	"github.com/aleixjf/ms-orders-management-sub000/internal/events"
	"github.com/aleixjf/ms-orders-management-sub000/internal/repository"
)

// Orders confirmed through the stock saga are delivered a week after the
// order date.
const deliveryOffsetDays = 7

// OrderService is the saga coordinator. Every command follows the same
// template: load (if applicable) -> mutate the aggregate -> persist ->
// publish the accumulated events -> drain them. A publish failure is
// returned to the caller and the aggregate's in-memory events are kept.
type OrderService struct {
	repo      repository.OrderRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(repo repository.OrderRepository, publisher events.Publisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, customerID domain.CustomerID, products []domain.Product) (*domain.Order, error) {
	orderDate := domain.OrderDateFromTime(s.now().UTC())
	deliveryDate := orderDate.AddDays(deliveryOffsetDays)

	order, err := domain.CreateOrder(customerID, products, orderDate, deliveryDate)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID().String()),
		zap.String("customer_id", customerID.String()),
		zap.Float64("price", order.Price()))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// GetOrders returns the orders matching ids, or every order when ids is empty.
func (s *OrderService) GetOrders(ctx context.Context, ids []domain.OrderID) ([]*domain.Order, error) {
	if len(ids) == 0 {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindByIDs(ctx, ids)
}

// ReserveOrder requests the stock reservation saga step for a pending order.
// The status does not change; confirmation happens when the stock service
// replies on stock.reserved.
func (s *OrderService) ReserveOrder(ctx context.Context, id domain.OrderID) error {
	return s.mutate(ctx, id, func(order *domain.Order) error {
		return order.RequestConfirmation()
	})
}

// ConfirmOrder transitions to CONFIRMED; driven by the stock.reserved reply.
func (s *OrderService) ConfirmOrder(ctx context.Context, id domain.OrderID) error {
	return s.mutate(ctx, id, func(order *domain.Order) error {
		return order.Confirm()
	})
}

func (s *OrderService) CancelOrder(ctx context.Context, id domain.OrderID, reason string) error {
	return s.mutate(ctx, id, func(order *domain.Order) error {
		return order.Cancel(reason)
	})
}

func (s *OrderService) ShipOrder(ctx context.Context, id domain.OrderID) error {
	return s.mutate(ctx, id, func(order *domain.Order) error {
		return order.Ship()
	})
}

func (s *OrderService) DeliverOrder(ctx context.Context, id domain.OrderID) error {
	return s.mutate(ctx, id, func(order *domain.Order) error {
		return order.Deliver()
	})
}

func (s *OrderService) DeleteOrder(ctx context.Context, id domain.OrderID) error {
	return s.repo.Delete(ctx, id)
}

func (s *OrderService) mutate(ctx context.Context, id domain.OrderID, fn func(*domain.Order) error) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(order); err != nil {
		return err
	}
	return s.commit(ctx, order)
}

// commit is the persist+publish half of the template. Save-then-publish is a
// non-atomic dual write: when publish fails after a successful save the
// events stay pending on the aggregate and the error reaches the caller.
func (s *OrderService) commit(ctx context.Context, order *domain.Order) error {
	if err := s.repo.Save(ctx, order); err != nil {
		s.logger.Error("Failed to save order",
			zap.String("order_id", order.ID().String()),
			zap.Error(err))
		return fmt.Errorf("save order: %w", err)
	}

	pending := order.PendingEvents()
	if err := s.publisher.PublishBatch(ctx, pending); err != nil {
		s.logger.Error("Failed to publish events",
			zap.String("order_id", order.ID().String()),
			zap.Int("events", len(pending)),
			zap.Error(err))
		return fmt.Errorf("publish events: %w", err)
	}

	order.ClearEvents()
	return nil
}
