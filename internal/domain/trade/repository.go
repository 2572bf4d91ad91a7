package trade

import (
	"context"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Status     *OrderStatus
	Stage      *ProductionStage
	SellerID   *uuid.UUID
	CustomerID *uuid.UUID
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its schedule and production history
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindAll finds all orders matching the filter
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter OrderFilter) (int64, error)

	// FindPaidBetween finds orders holding at least one installment paid in [from, to)
	FindPaidBetween(ctx context.Context, from, to time.Time) ([]Order, error)

	// Save creates or updates an order. Updates are checked against the
	// stored version and fail with CONCURRENCY_CONFLICT when it moved.
	Save(ctx context.Context, order *Order) error

	// Delete deletes an order
	Delete(ctx context.Context, id uuid.UUID) error

	// GenerateOrderNumber returns the next PED-YYYY-NNNNN number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
