package ports

import "context"

// BatchBoard is the short-lived coordination store for order batching. Orders
// waiting for a companion are parked per pickup zone; assignment marks keep a
// redelivered batching message from assigning the same order twice.
type BatchBoard interface {
	// IsAssigned reports whether the order already has a trip.
	IsAssigned(ctx context.Context, orderID string) (bool, error)

	// MarkAssigned flags the orders as assigned for the dedup window.
	MarkAssigned(ctx context.Context, orderIDs []string) error

	// Park stores the order's batching payload in its zone's waiting pool.
	Park(ctx context.Context, zone, orderID string, payload []byte) error

	// Pending returns every parked payload in the zone, keyed by order ID.
	Pending(ctx context.Context, zone string) (map[string][]byte, error)

	// Remove drops the orders from the zone's waiting pool.
	Remove(ctx context.Context, zone string, orderIDs ...string) error
}
