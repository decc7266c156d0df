package ports

import (
	"context"
	"time"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/services"
)

// PartnerPresence tracks which delivery partners are online, where they are,
// and how loaded they are. Backed by an expiring store; a partner that stops
// heartbeating falls out of the candidate pool.
type PartnerPresence interface {
	// SetOnline records a partner heartbeat with its current location.
	SetOnline(ctx context.Context, partnerID string, location kernel.GeoPoint, at time.Time) error

	// SetOffline removes the partner from the candidate pool.
	SetOffline(ctx context.Context, partnerID string) error

	// Nearby returns candidates within radiusKm of origin, closest first,
	// with their load and recency fields populated for scoring.
	Nearby(ctx context.Context, origin kernel.GeoPoint, radiusKm float64) ([]services.PartnerCandidate, error)

	// MarkEngaged records that the partner took the given orders, bumping
	// its active order count and last assignment time.
	MarkEngaged(ctx context.Context, partnerID string, orderIDs []string, at time.Time) error

	// SweepStale drops partners whose last heartbeat predates cutoff and
	// returns how many were removed.
	SweepStale(ctx context.Context, cutoff time.Time) (int, error)
}
