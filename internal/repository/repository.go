package repository

import (
	"context"
	"errors"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
)

// ErrVersionConflict is returned when a conditional save loses against a
// concurrent writer; the caller may reload and retry.
var ErrVersionConflict = errors.New("order version conflict")

// OrderRepository is the persistence port consumed by the saga coordinator.
// Save performs a single upsert of the aggregate and its line items.
type OrderRepository interface {
	FindByID(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	FindByIDs(ctx context.Context, ids []domain.OrderID) ([]*domain.Order, error)
	FindAll(ctx context.Context) ([]*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id domain.OrderID) error
}
