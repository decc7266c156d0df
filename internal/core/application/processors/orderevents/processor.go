package orderevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"grubdash/internal/core/domain/model/order"
	"grubdash/internal/core/ports"
	"grubdash/internal/pkg/errs"
)

// Processor holds the handlers of the order state machine. One handler per
// event status; the composition root binds them to the queue dispatcher.
//
// Every handler is safe to run twice: create is create-if-absent, advances
// are compare-and-set on the previously read status, and the delivery link
// is a naturally idempotent overwrite.
type Processor struct {
	orders        ports.OrderRepository
	publisher     ports.EventPublisher
	notifier      ports.RestaurantNotifier
	batchingQueue string
	logger        *slog.Logger
}

// NewProcessor creates the order event processor. batchingQueue is the topic
// confirmed orders are handed to for delivery batching.
func NewProcessor(
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	notifier ports.RestaurantNotifier,
	batchingQueue string,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		orders:        orders,
		publisher:     publisher,
		notifier:      notifier,
		batchingQueue: batchingQueue,
		logger:        logger.With("component", "orderevents.Processor"),
	}
}

// HandleCreated persists a new order in payment_pending. A duplicate creation
// event for an existing order id is consumed as a no-op.
func (p *Processor) HandleCreated(ctx context.Context, body []byte, at time.Time) error {
	var payload creationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode creation payload: %w", err)
	}

	aggregate, err := payload.toOrder(at)
	if err != nil {
		return fmt.Errorf("invalid creation payload: %w", err)
	}

	created, err := p.orders.Add(ctx, aggregate)
	if err != nil {
		return err
	}
	if !created {
		p.logger.InfoContext(ctx, "skipping creation, order already exists",
			"order_id", aggregate.ID())
		return nil
	}

	p.logger.InfoContext(ctx, "order created",
		"order_id", aggregate.ID(), "status", order.PaymentPending.String())
	return nil
}

// HandlePaymentConfirmed moves the order to payment_confirmed and notifies
// the restaurant. The notification is best effort.
func (p *Processor) HandlePaymentConfirmed(ctx context.Context, body []byte, at time.Time) error {
	aggregate, applied, err := p.advance(ctx, body, order.PaymentConfirmed, at)
	if err != nil || !applied {
		return err
	}

	items := make([]ports.NotificationItem, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ports.NotificationItem{
			ID:       item.ItemID(),
			Name:     item.Name(),
			Quantity: item.Quantity(),
		})
	}

	if err := p.notifier.NotifyOrderPaid(ctx, aggregate.RestaurantID(), aggregate.ID(), items); err != nil {
		p.logger.WarnContext(ctx, "restaurant notification failed",
			"order_id", aggregate.ID(), "error", err)
	}
	return nil
}

// HandlePaymentFailed moves the order to the payment_failed terminal status.
func (p *Processor) HandlePaymentFailed(ctx context.Context, body []byte, at time.Time) error {
	_, _, err := p.advance(ctx, body, order.PaymentFailed, at)
	return err
}

// HandleConfirmed moves the order to order_confirmed and enqueues it for
// delivery batching, grouped by pickup zone so nearby orders meet on one
// partition. The dedup token is attempt-scoped: an exact retry collapses
// while a deliberately re-enqueued attempt does not.
func (p *Processor) HandleConfirmed(ctx context.Context, body []byte, at time.Time) error {
	aggregate, applied, err := p.advance(ctx, body, order.OrderConfirmed, at)
	if err != nil || !applied {
		return err
	}

	payload := newBatchingPayload(aggregate)
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode batching payload: %w", err)
	}

	message := ports.OutboundMessage{
		Queue:    p.batchingQueue,
		Body:     encoded,
		GroupKey: payload.PickupZone,
		DedupKey: fmt.Sprintf("%s|attempt-%d", aggregate.ID(), payload.Attempt),
	}
	if err := p.publisher.Publish(ctx, message); err != nil {
		p.logger.ErrorContext(ctx, "enqueueing batching message failed",
			"order_id", aggregate.ID(), "pickup_zone", payload.PickupZone, "error", err)
		return nil
	}

	p.logger.InfoContext(ctx, "order queued for batching",
		"order_id", aggregate.ID(), "pickup_zone", payload.PickupZone)
	return nil
}

// HandleCancelled moves the order to the order_cancelled terminal status.
// Cancellation is only reachable before the order leaves the kitchen.
func (p *Processor) HandleCancelled(ctx context.Context, body []byte, at time.Time) error {
	_, _, err := p.advance(ctx, body, order.OrderCancelled, at)
	return err
}

// HandleReadyForDelivery marks the order ready for pickup.
func (p *Processor) HandleReadyForDelivery(ctx context.Context, body []byte, at time.Time) error {
	_, _, err := p.advance(ctx, body, order.ReadyForDelivery, at)
	return err
}

// HandlePickedUp marks the order picked up by its delivery partner.
func (p *Processor) HandlePickedUp(ctx context.Context, body []byte, at time.Time) error {
	_, _, err := p.advance(ctx, body, order.OrderPickedUp, at)
	return err
}

// HandleDelivered marks the order delivered, the happy-path terminal status.
func (p *Processor) HandleDelivered(ctx context.Context, body []byte, at time.Time) error {
	_, _, err := p.advance(ctx, body, order.Delivered, at)
	return err
}

// HandleDeliveryLink is the dp_confirmed side channel: it records which
// delivery carries the order without touching its status. Repeated writes
// are harmless, so there is no guard beyond record existence.
func (p *Processor) HandleDeliveryLink(ctx context.Context, body []byte, at time.Time) error {
	var payload linkPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode delivery link payload: %w", err)
	}
	if err := payload.validate(); err != nil {
		return err
	}

	linked, err := p.orders.LinkDelivery(ctx, payload.OrderID, payload.DeliveryID, at)
	if err != nil {
		return err
	}
	if !linked {
		p.logger.InfoContext(ctx, "skipping delivery link, order not found",
			"order_id", payload.OrderID)
		return nil
	}

	p.logger.InfoContext(ctx, "order linked to delivery",
		"order_id", payload.OrderID, "delivery_id", payload.DeliveryID)
	return nil
}

// advance applies a status transition with the shared guard chain: missing
// record is a skip, an already-reached or unreachable target is a skip, and
// the write itself is compare-and-set so a racing duplicate loses quietly.
// It returns the loaded aggregate and whether this call applied the move.
func (p *Processor) advance(ctx context.Context, body []byte, target order.Status, at time.Time) (*order.Order, bool, error) {
	var payload statusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode status payload: %w", err)
	}
	if err := payload.validate(); err != nil {
		return nil, false, err
	}

	aggregate, err := p.orders.Get(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			p.logger.InfoContext(ctx, "skipping status update, order not found",
				"order_id", payload.OrderID, "target", target.String())
			return nil, false, nil
		}
		return nil, false, err
	}

	if !aggregate.CanAdvanceTo(target) {
		p.logger.InfoContext(ctx, "skipping status update",
			"order_id", aggregate.ID(),
			"status", aggregate.Status().String(),
			"target", target.String())
		return aggregate, false, nil
	}

	applied, err := p.orders.UpdateStatus(ctx, aggregate.ID(), aggregate.Status(), target, at)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		p.logger.InfoContext(ctx, "skipping status update, lost the write race",
			"order_id", aggregate.ID(), "target", target.String())
		return aggregate, false, nil
	}

	p.logger.InfoContext(ctx, "order status updated",
		"order_id", aggregate.ID(), "status", target.String())
	return aggregate, true, nil
}
