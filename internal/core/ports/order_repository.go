package ports

import (
	"context"
	"time"

	"grubdash/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Status moves go through compare-and-set writes so that concurrently
// redelivered events cannot double-apply a transition.
type OrderRepository interface {
	// Add persists a new order aggregate. It returns false without error
	// when an order with the same ID already exists, which callers treat
	// as a duplicate creation event.
	Add(ctx context.Context, aggregate *order.Order) (bool, error)

	// Get retrieves an order aggregate by its identifier. Returns an
	// errs.ObjectNotFoundError when no such order exists.
	Get(ctx context.Context, id string) (*order.Order, error)

	// UpdateStatus moves the order from one status to another only if it
	// is still in the from status. It returns false without error when the
	// guard did not hold, meaning another worker already applied the move.
	UpdateStatus(ctx context.Context, id string, from, to order.Status, at time.Time) (bool, error)

	// LinkDelivery records the delivery carrying this order without touching
	// its status. Returns false without error when the order does not exist.
	LinkDelivery(ctx context.Context, id, deliveryID string, at time.Time) (bool, error)
}
