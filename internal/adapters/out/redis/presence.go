// Package redis contains the outbound Redis adapters: the delivery-partner
// presence pool and the order-batching coordination board.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/services"
	"grubdash/internal/core/ports"
)

const (
	geoKey         = "active:delivery-partners"
	assignmentsKey = "partner:assignments"

	statusOnline     = "online"
	statusOffline    = "offline"
	statusInDelivery = "in_delivery"
)

func partnerKey(partnerID string) string {
	return "partner:" + partnerID
}

func partnerOrdersKey(partnerID string) string {
	return "partner:" + partnerID + ":orders"
}

// Presence implements ports.PartnerPresence. Partner locations live in one
// GEO set; per-partner hashes carry status, heartbeat time and in-flight
// orders; a sorted set records the last assignment time for scoring.
type Presence struct {
	client *redis.Client
}

// NewPresence creates the presence adapter over an existing client.
func NewPresence(client *redis.Client) *Presence {
	return &Presence{client: client}
}

var _ ports.PartnerPresence = (*Presence)(nil)

// SetOnline records a heartbeat: position in the GEO set, status and
// lastSeen in the partner hash.
func (p *Presence) SetOnline(ctx context.Context, partnerID string, location kernel.GeoPoint, at time.Time) error {
	pipe := p.client.Pipeline()
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      partnerID,
		Latitude:  location.Latitude(),
		Longitude: location.Longitude(),
	})
	pipe.HSet(ctx, partnerKey(partnerID),
		"status", statusOnline,
		"lastSeen", strconv.FormatInt(at.UnixMilli(), 10),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set partner %s online: %w", partnerID, err)
	}
	return nil
}

// SetOffline removes the partner from the GEO set so searches stop finding
// it, and flips the hash status for observers.
func (p *Presence) SetOffline(ctx context.Context, partnerID string) error {
	pipe := p.client.Pipeline()
	pipe.ZRem(ctx, geoKey, partnerID)
	pipe.HSet(ctx, partnerKey(partnerID), "status", statusOffline)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set partner %s offline: %w", partnerID, err)
	}
	return nil
}

// Nearby searches the GEO set around origin and hydrates each hit with its
// load and recency fields. Results come back closest first.
func (p *Presence) Nearby(ctx context.Context, origin kernel.GeoPoint, radiusKm float64) ([]services.PartnerCandidate, error) {
	locations, err := p.client.GeoSearchLocation(ctx, geoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Longitude(),
			Latitude:   origin.Latitude(),
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}

	candidates := make([]services.PartnerCandidate, 0, len(locations))
	for _, location := range locations {
		candidate, err := p.hydrate(ctx, location.Name, location.Dist)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (p *Presence) hydrate(ctx context.Context, partnerID string, distanceKm float64) (services.PartnerCandidate, error) {
	fields, err := p.client.HMGet(ctx, partnerKey(partnerID), "status", "lastSeen").Result()
	if err != nil {
		return services.PartnerCandidate{}, fmt.Errorf("read partner %s: %w", partnerID, err)
	}

	candidate := services.PartnerCandidate{
		ID:         partnerID,
		DistanceKm: distanceKm,
	}
	if status, ok := fields[0].(string); ok {
		candidate.Online = status == statusOnline
	}
	if raw, ok := fields[1].(string); ok {
		if millis, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			candidate.LastSeen = time.UnixMilli(millis)
		}
	}

	activeOrders, err := p.client.HLen(ctx, partnerOrdersKey(partnerID)).Result()
	if err != nil {
		return services.PartnerCandidate{}, fmt.Errorf("count partner %s orders: %w", partnerID, err)
	}
	candidate.ActiveOrders = int(activeOrders)

	lastAssigned, err := p.client.ZScore(ctx, assignmentsKey, partnerID).Result()
	switch {
	case err == nil:
		candidate.LastAssigned = time.UnixMilli(int64(lastAssigned))
	case errors.Is(err, redis.Nil):
		// never assigned
	default:
		return services.PartnerCandidate{}, fmt.Errorf("read partner %s assignment: %w", partnerID, err)
	}

	return candidate, nil
}

// MarkEngaged records the orders against the partner, flips its status to
// in_delivery and stamps the assignment time.
func (p *Presence) MarkEngaged(ctx context.Context, partnerID string, orderIDs []string, at time.Time) error {
	pipe := p.client.Pipeline()
	for _, orderID := range orderIDs {
		pipe.HSet(ctx, partnerOrdersKey(partnerID), orderID, "assigned")
	}
	pipe.HSet(ctx, partnerKey(partnerID), "status", statusInDelivery)
	pipe.ZAdd(ctx, assignmentsKey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: partnerID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("engage partner %s: %w", partnerID, err)
	}
	return nil
}

// SweepStale takes every partner whose heartbeat predates cutoff out of the
// pool. Runs from the cron job; the pool is small enough to scan whole.
func (p *Presence) SweepStale(ctx context.Context, cutoff time.Time) (int, error) {
	partnerIDs, err := p.client.ZRange(ctx, geoKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("list partners: %w", err)
	}

	swept := 0
	for _, partnerID := range partnerIDs {
		raw, err := p.client.HGet(ctx, partnerKey(partnerID), "lastSeen").Result()
		if errors.Is(err, redis.Nil) {
			// no heartbeat recorded at all, treat as stale
			raw = "0"
		} else if err != nil {
			return swept, fmt.Errorf("read partner %s heartbeat: %w", partnerID, err)
		}

		millis, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			millis = 0
		}
		if time.UnixMilli(millis).Before(cutoff) {
			if err := p.SetOffline(ctx, partnerID); err != nil {
				return swept, err
			}
			swept++
		}
	}
	return swept, nil
}
