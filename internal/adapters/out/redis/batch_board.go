package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grubdash/internal/core/ports"
)

const (
	// pendingTTL bounds how long an unmatched order waits on the board.
	// Expiry is the safety net for orders whose attempts ran dry without
	// an assignment.
	pendingTTL = 120 * time.Second

	// assignedTTL is the dedup window within which a redelivered batching
	// message still sees the order as assigned.
	assignedTTL = 300 * time.Second
)

func zoneKey(zone string) string {
	return "pending:zone:" + zone
}

func assignedKey(orderID string) string {
	return "order:" + orderID + ":assigned"
}

// BatchBoard implements ports.BatchBoard. Each pickup zone gets one expiring
// hash of parked batching payloads; assignment marks are plain expiring keys.
type BatchBoard struct {
	client *redis.Client
}

// NewBatchBoard creates the board adapter over an existing client.
func NewBatchBoard(client *redis.Client) *BatchBoard {
	return &BatchBoard{client: client}
}

var _ ports.BatchBoard = (*BatchBoard)(nil)

// IsAssigned reports whether the order was assigned within the dedup window.
func (b *BatchBoard) IsAssigned(ctx context.Context, orderID string) (bool, error) {
	_, err := b.client.Get(ctx, assignedKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check order %s assignment: %w", orderID, err)
	}
	return true, nil
}

// MarkAssigned flags the orders as assigned for the dedup window.
func (b *BatchBoard) MarkAssigned(ctx context.Context, orderIDs []string) error {
	pipe := b.client.Pipeline()
	for _, orderID := range orderIDs {
		pipe.Set(ctx, assignedKey(orderID), "1", assignedTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark orders assigned: %w", err)
	}
	return nil
}

// Park stores the order's payload in its zone hash and refreshes the zone's
// expiry.
func (b *BatchBoard) Park(ctx context.Context, zone, orderID string, payload []byte) error {
	pipe := b.client.Pipeline()
	pipe.HSet(ctx, zoneKey(zone), orderID, payload)
	pipe.Expire(ctx, zoneKey(zone), pendingTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("park order %s in zone %s: %w", orderID, zone, err)
	}
	return nil
}

// Pending returns every parked payload in the zone, keyed by order ID.
func (b *BatchBoard) Pending(ctx context.Context, zone string) (map[string][]byte, error) {
	entries, err := b.client.HGetAll(ctx, zoneKey(zone)).Result()
	if err != nil {
		return nil, fmt.Errorf("list zone %s: %w", zone, err)
	}

	parked := make(map[string][]byte, len(entries))
	for orderID, payload := range entries {
		parked[orderID] = []byte(payload)
	}
	return parked, nil
}

// Remove drops the orders from the zone hash.
func (b *BatchBoard) Remove(ctx context.Context, zone string, orderIDs ...string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	if err := b.client.HDel(ctx, zoneKey(zone), orderIDs...).Err(); err != nil {
		return fmt.Errorf("remove orders from zone %s: %w", zone, err)
	}
	return nil
}
