package deliveryevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"grubdash/internal/core/domain/model/delivery"
	"grubdash/internal/core/ports"
	"grubdash/internal/pkg/errs"
)

// assignedPayload is the dp_assigned event body.
type assignedPayload struct {
	DeliveryID string `json:"delivery_id"`
	PartnerID  string `json:"partner_id"`
	Orders     []struct {
		OrderID string `json:"order_id"`
	} `json:"orders"`
}

// statusPayload is the body of every later delivery event. The stored record
// is authoritative for the partner and order references, so only the id is
// required on the wire.
type statusPayload struct {
	DeliveryID string `json:"delivery_id"`
}

func (p statusPayload) validate() error {
	if p.DeliveryID == "" {
		return errs.NewValueIsRequiredError("delivery_id")
	}
	return nil
}

// fanoutPayload is the per-order message sent back to the order pipeline.
// DeliveryID rides along only on dp_confirmed, where the order side uses it
// to set its delivery link.
type fanoutPayload struct {
	OrderID    string `json:"order_id"`
	DeliveryID string `json:"delivery_id,omitempty"`
	Status     string `json:"status"`
}

// Processor holds the handlers of the delivery state machine.
//
// Handlers past assignment tolerate a missing record by dropping the event:
// if the dp_assigned event is still in flight, at-least-once redelivery will
// bring the later event back after the record exists.
type Processor struct {
	deliveries  ports.DeliveryRepository
	publisher   ports.EventPublisher
	presence    ports.PartnerPresence
	ordersQueue string
	logger      *slog.Logger
}

// NewProcessor creates the delivery event processor. ordersQueue is the
// order-pipeline topic receiving the per-order fan-out.
func NewProcessor(
	deliveries ports.DeliveryRepository,
	publisher ports.EventPublisher,
	presence ports.PartnerPresence,
	ordersQueue string,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		deliveries:  deliveries,
		publisher:   publisher,
		presence:    presence,
		ordersQueue: ordersQueue,
		logger:      logger.With("component", "deliveryevents.Processor"),
	}
}

// HandleAssigned persists a new delivery in dp_assigned. Create-if-absent:
// a redelivered assignment event is consumed as a no-op.
func (p *Processor) HandleAssigned(ctx context.Context, body []byte, at time.Time) error {
	var payload assignedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode assignment payload: %w", err)
	}

	orderIDs := make([]string, 0, len(payload.Orders))
	for _, ref := range payload.Orders {
		orderIDs = append(orderIDs, ref.OrderID)
	}

	aggregate, err := delivery.NewDelivery(payload.DeliveryID, payload.PartnerID, orderIDs, at)
	if err != nil {
		return fmt.Errorf("invalid assignment payload: %w", err)
	}

	created, err := p.deliveries.Add(ctx, aggregate)
	if err != nil {
		return err
	}
	if !created {
		p.logger.InfoContext(ctx, "skipping assignment, delivery already exists",
			"delivery_id", aggregate.ID())
		return nil
	}

	p.logger.InfoContext(ctx, "delivery created",
		"delivery_id", aggregate.ID(), "partner_id", aggregate.PartnerID(),
		"orders", len(orderIDs))
	return nil
}

// HandleConfirmed moves the delivery to dp_confirmed and tells each carried
// order which delivery it belongs to.
func (p *Processor) HandleConfirmed(ctx context.Context, body []byte, at time.Time) error {
	aggregate, applied, err := p.advance(ctx, body, delivery.Confirmed, at)
	if err != nil || !applied {
		return err
	}

	p.fanOut(ctx, aggregate, delivery.Confirmed.String(), true)
	return nil
}

// HandleOrderReceived moves the delivery to dp_order_received and notifies
// each carried order.
func (p *Processor) HandleOrderReceived(ctx context.Context, body []byte, at time.Time) error {
	aggregate, applied, err := p.advance(ctx, body, delivery.OrderReceived, at)
	if err != nil || !applied {
		return err
	}

	p.fanOut(ctx, aggregate, delivery.OrderReceived.String(), false)
	return nil
}

// HandleDelivered completes the trip: the partner drops out of the presence
// pool and each carried order hears "delivered". The presence write is
// synchronous but its failure never blocks the transition.
func (p *Processor) HandleDelivered(ctx context.Context, body []byte, at time.Time) error {
	aggregate, applied, err := p.advance(ctx, body, delivery.Delivered, at)
	if err != nil || !applied {
		return err
	}

	if err := p.presence.SetOffline(ctx, aggregate.PartnerID()); err != nil {
		p.logger.WarnContext(ctx, "marking partner offline failed",
			"delivery_id", aggregate.ID(), "partner_id", aggregate.PartnerID(), "error", err)
	}

	p.fanOut(ctx, aggregate, "delivered", false)
	return nil
}

// advance is the shared guard chain: missing record drops the event, an
// unreachable target is a skip, and the write is compare-and-set. Fan-out
// only happens when this call applied the move, so a redelivered event
// cannot double the downstream messages.
func (p *Processor) advance(ctx context.Context, body []byte, target delivery.Status, at time.Time) (*delivery.Delivery, bool, error) {
	var payload statusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode status payload: %w", err)
	}
	if err := payload.validate(); err != nil {
		return nil, false, err
	}

	aggregate, err := p.deliveries.Get(ctx, payload.DeliveryID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			p.logger.InfoContext(ctx, "dropping event, delivery not found",
				"delivery_id", payload.DeliveryID, "target", target.String())
			return nil, false, nil
		}
		return nil, false, err
	}

	if !aggregate.CanAdvanceTo(target) {
		p.logger.InfoContext(ctx, "skipping status update",
			"delivery_id", aggregate.ID(),
			"status", aggregate.Status().String(),
			"target", target.String())
		return aggregate, false, nil
	}

	applied, err := p.deliveries.UpdateStatus(ctx, aggregate.ID(), aggregate.Status(), target, at)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		p.logger.InfoContext(ctx, "skipping status update, lost the write race",
			"delivery_id", aggregate.ID(), "target", target.String())
		return aggregate, false, nil
	}

	p.logger.InfoContext(ctx, "delivery status updated",
		"delivery_id", aggregate.ID(), "status", target.String())
	return aggregate, true, nil
}

// fanOut emits one order-pipeline message per carried order. The composite
// group key gives each order's status stream its own ordered partition.
// Failures are logged per order; the delivered siblings stay sent and the
// record mutation stays applied.
func (p *Processor) fanOut(ctx context.Context, aggregate *delivery.Delivery, status string, withDeliveryID bool) {
	for _, orderID := range aggregate.OrderIDs() {
		payload := fanoutPayload{OrderID: orderID, Status: status}
		if withDeliveryID {
			payload.DeliveryID = aggregate.ID()
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			p.logger.ErrorContext(ctx, "encoding fan-out payload failed",
				"order_id", orderID, "status", status, "error", err)
			continue
		}

		groupKey := fmt.Sprintf("%s|%s", orderID, status)
		message := ports.OutboundMessage{
			Queue:    p.ordersQueue,
			Body:     encoded,
			GroupKey: groupKey,
			DedupKey: groupKey,
		}
		if err := p.publisher.Publish(ctx, message); err != nil {
			p.logger.ErrorContext(ctx, "fan-out publish failed",
				"order_id", orderID, "status", status, "error", err)
		}
	}
}
