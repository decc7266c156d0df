// Package batching pairs confirmed orders waiting in the same pickup zone
// onto shared delivery trips and picks a partner for each trip. Orders that
// find no companion are re-enqueued with a bumped attempt counter until the
// attempt ceiling, then assigned solo.
package batching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/services"
	"grubdash/internal/core/ports"
	"grubdash/internal/pkg/errs"
	"grubdash/internal/pkg/jsonutil"
)

const (
	maxAttempts     = 5
	partnerSearchKm = 3.0
	assignedStatus  = "dp_assigned"
)

// pendingOrder is the slice of the batching payload the worker itself needs.
// The full payload is parked and forwarded as-is so producer fields the
// worker never looks at survive the trip.
type pendingOrder struct {
	OrderID            string `json:"order_id"`
	Attempt            int    `json:"attempt"`
	PickupZone         string `json:"pickup_zone"`
	RestaurantLocation struct {
		Latitude  jsonutil.Number `json:"latitude"`
		Longitude jsonutil.Number `json:"longitude"`
	} `json:"restaurant_location"`
	DeliveryLocation struct {
		Latitude  jsonutil.Number `json:"latitude"`
		Longitude jsonutil.Number `json:"longitude"`
	} `json:"delivery_location"`
}

func decodePendingOrder(body []byte) (pendingOrder, error) {
	var pending pendingOrder
	if err := json.Unmarshal(body, &pending); err != nil {
		return pendingOrder{}, fmt.Errorf("decode batching payload: %w", err)
	}
	if pending.OrderID == "" {
		return pendingOrder{}, errs.NewValueIsRequiredError("order_id")
	}
	if pending.PickupZone == "" {
		return pendingOrder{}, errs.NewValueIsRequiredError("pickup_zone")
	}
	if pending.Attempt < 1 {
		pending.Attempt = 1
	}
	return pending, nil
}

func (p pendingOrder) candidate() (services.CandidateOrder, error) {
	pickup, err := kernel.NewGeoPoint(
		p.RestaurantLocation.Latitude.Float64(), p.RestaurantLocation.Longitude.Float64())
	if err != nil {
		return services.CandidateOrder{}, err
	}
	dropoff, err := kernel.NewGeoPoint(
		p.DeliveryLocation.Latitude.Float64(), p.DeliveryLocation.Longitude.Float64())
	if err != nil {
		return services.CandidateOrder{}, err
	}
	return services.CandidateOrder{ID: p.OrderID, Pickup: pickup, Dropoff: dropoff}, nil
}

// assignedEvent is the dp_assigned message sent to the delivery pipeline.
// Orders carries the parked batching payloads untouched.
type assignedEvent struct {
	DeliveryID string            `json:"delivery_id"`
	PartnerID  string            `json:"partner_id"`
	Orders     []json.RawMessage `json:"orders"`
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
}

// Worker consumes the batching queue. One instance per pickup zone is
// guaranteed by the zone group key, so the park-scan-pair sequence needs no
// locking.
type Worker struct {
	board         ports.BatchBoard
	presence      ports.PartnerPresence
	publisher     ports.EventPublisher
	matcher       services.BatchMatcher
	scorer        services.PartnerScorer
	batchingQueue string
	deliveryQueue string
	logger        *slog.Logger
}

// NewWorker creates the batching worker. batchingQueue is its own topic, for
// attempt re-enqueues; deliveryQueue receives dp_assigned events.
func NewWorker(
	board ports.BatchBoard,
	presence ports.PartnerPresence,
	publisher ports.EventPublisher,
	batchingQueue string,
	deliveryQueue string,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		board:         board,
		presence:      presence,
		publisher:     publisher,
		matcher:       services.NewBatchMatcher(),
		scorer:        services.NewPartnerScorer(),
		batchingQueue: batchingQueue,
		deliveryQueue: deliveryQueue,
		logger:        logger.With("component", "batching.Worker"),
	}
}

// Handle processes one dp_pending message: park the order in its zone, try
// to pair it with a parked neighbor, otherwise re-enqueue or assign solo.
func (w *Worker) Handle(ctx context.Context, body []byte, at time.Time) error {
	pending, err := decodePendingOrder(body)
	if err != nil {
		return err
	}
	target, err := pending.candidate()
	if err != nil {
		return fmt.Errorf("invalid batching payload: %w", err)
	}

	logger := w.logger.With("order_id", pending.OrderID, "attempt", pending.Attempt)

	assigned, err := w.board.IsAssigned(ctx, pending.OrderID)
	if err != nil {
		return err
	}
	if assigned {
		logger.InfoContext(ctx, "skipping order, already assigned")
		return nil
	}

	if err := w.board.Park(ctx, pending.PickupZone, pending.OrderID, body); err != nil {
		return err
	}

	parked, err := w.board.Pending(ctx, pending.PickupZone)
	if err != nil {
		return err
	}

	candidates := make([]services.CandidateOrder, 0, len(parked))
	for orderID, payload := range parked {
		neighbor, err := decodePendingOrder(payload)
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable parked order",
				"neighbor_id", orderID, "error", err)
			continue
		}
		candidate, err := neighbor.candidate()
		if err != nil {
			logger.WarnContext(ctx, "skipping parked order with bad location",
				"neighbor_id", orderID, "error", err)
			continue
		}
		candidates = append(candidates, candidate)
	}

	if match, ok := w.matcher.Match(target, candidates); ok {
		logger.InfoContext(ctx, "paired orders for one trip", "companion_id", match.ID)
		if err := w.assign(ctx, target.Pickup,
			[]string{pending.OrderID, match.ID},
			[]json.RawMessage{body, parked[match.ID]}, at); err != nil {
			return err
		}
		return w.board.Remove(ctx, pending.PickupZone, pending.OrderID, match.ID)
	}

	if pending.Attempt < maxAttempts {
		return w.requeue(ctx, body, pending, logger)
	}

	logger.InfoContext(ctx, "attempt ceiling reached, assigning solo")
	if err := w.assign(ctx, target.Pickup,
		[]string{pending.OrderID}, []json.RawMessage{body}, at); err != nil {
		return err
	}
	return w.board.Remove(ctx, pending.PickupZone, pending.OrderID)
}

// requeue sends the order back to the batching queue with the attempt
// counter bumped. The attempt-scoped dedup token makes the bumped message a
// distinct send while an exact redelivery still collapses.
func (w *Worker) requeue(ctx context.Context, body []byte, pending pendingOrder, logger *slog.Logger) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode batching payload for requeue: %w", err)
	}
	payload["attempt"] = pending.Attempt + 1

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode requeue payload: %w", err)
	}

	message := ports.OutboundMessage{
		Queue:    w.batchingQueue,
		Body:     encoded,
		GroupKey: pending.PickupZone,
		DedupKey: fmt.Sprintf("%s|attempt-%d", pending.OrderID, pending.Attempt+1),
	}
	if err := w.publisher.Publish(ctx, message); err != nil {
		return err
	}

	logger.InfoContext(ctx, "no companion found, requeued", "next_attempt", pending.Attempt+1)
	return nil
}

// assign picks a partner near the pickup point, records the engagement, and
// emits the dp_assigned event. When no partner qualifies the orders stay
// unassigned; a later attempt or the board TTL deals with them.
func (w *Worker) assign(ctx context.Context, pickup kernel.GeoPoint, orderIDs []string, payloads []json.RawMessage, at time.Time) error {
	nearby, err := w.presence.Nearby(ctx, pickup, partnerSearchKm)
	if err != nil {
		return err
	}

	partner, err := w.scorer.SelectPartner(nearby, at)
	if err != nil {
		if errors.Is(err, services.ErrPartnerNotFound) {
			w.logger.WarnContext(ctx, "no eligible partner nearby", "orders", orderIDs)
			return nil
		}
		return err
	}

	if err := w.board.MarkAssigned(ctx, orderIDs); err != nil {
		return err
	}
	if err := w.presence.MarkEngaged(ctx, partner.ID, orderIDs, at); err != nil {
		return err
	}

	event := assignedEvent{
		DeliveryID: uuid.NewString(),
		PartnerID:  partner.ID,
		Orders:     payloads,
		Status:     assignedStatus,
		Timestamp:  at.UTC().Format(time.RFC3339Nano),
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode assignment event: %w", err)
	}

	message := ports.OutboundMessage{
		Queue:    w.deliveryQueue,
		Body:     encoded,
		GroupKey: partner.ID,
		DedupKey: fmt.Sprintf("%s|%s", event.DeliveryID, assignedStatus),
	}
	if err := w.publisher.Publish(ctx, message); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "partner assigned",
		"partner_id", partner.ID, "delivery_id", event.DeliveryID, "orders", orderIDs)
	return nil
}
