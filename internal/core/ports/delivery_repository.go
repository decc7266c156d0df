package ports

import (
	"context"
	"time"

	"grubdash/internal/core/domain/model/delivery"
)

// DeliveryRepository defines the persistence contract for delivery aggregates.
type DeliveryRepository interface {
	// Add persists a new delivery aggregate. It returns false without
	// error when a delivery with the same ID already exists.
	Add(ctx context.Context, aggregate *delivery.Delivery) (bool, error)

	// Get retrieves a delivery aggregate by its identifier. Returns an
	// errs.ObjectNotFoundError when no such delivery exists.
	Get(ctx context.Context, id string) (*delivery.Delivery, error)

	// UpdateStatus moves the delivery from one status to another only if
	// it is still in the from status. It returns false without error when
	// the guard did not hold.
	UpdateStatus(ctx context.Context, id string, from, to delivery.Status, at time.Time) (bool, error)
}
