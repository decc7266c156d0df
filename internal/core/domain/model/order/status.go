package order

import (
	"fmt"

	"grubdash/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// The lifecycle graph:
//
//	payment_pending ──┬──> payment_confirmed ──> order_confirmed ──> ready_for_delivery ──> order_picked_up ──> delivered
//	                  └──> payment_failed (terminal)
//
// order_cancelled is reachable from payment_pending, payment_confirmed and
// order_confirmed only, and is terminal.
//
// Statuses are monotonic: an advance may skip intermediate states (delivery
// fan-out events ride their own queue partitions and can overtake each
// other), but a later state is never overwritten by an earlier one.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// PaymentPending is the initial status assigned at order creation.
	PaymentPending

	// PaymentConfirmed indicates the payment provider accepted the charge.
	PaymentConfirmed

	// PaymentFailed indicates the charge was declined. Terminal.
	PaymentFailed

	// OrderConfirmed indicates the restaurant accepted the order; the order
	// is handed to the batching pipeline at this point.
	OrderConfirmed

	// ReadyForDelivery indicates the restaurant finished preparing the order.
	ReadyForDelivery

	// OrderPickedUp indicates the delivery partner collected the order.
	OrderPickedUp

	// Delivered indicates the order reached the customer. Terminal.
	Delivered

	// OrderCancelled indicates the order was cancelled before fulfillment.
	// Terminal.
	OrderCancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:          "unknown",
		PaymentPending:   "payment_pending",
		PaymentConfirmed: "payment_confirmed",
		PaymentFailed:    "payment_failed",
		OrderConfirmed:   "order_confirmed",
		ReadyForDelivery: "ready_for_delivery",
		OrderPickedUp:    "order_picked_up",
		Delivered:        "delivered",
		OrderCancelled:   "order_cancelled",
	}
}

// statusRanks orders statuses along the main lifecycle path. PaymentConfirmed
// and PaymentFailed share a rank: whichever payment outcome lands first wins
// and the other is rejected as a non-advance.
func statusRanks() map[Status]int {
	return map[Status]int{
		PaymentPending:   1,
		PaymentConfirmed: 2,
		PaymentFailed:    2,
		OrderConfirmed:   3,
		ReadyForDelivery: 4,
		OrderPickedUp:    5,
		Delivered:        6,
	}
}

// ParseStatus converts a wire status string into a Status.
// Returns an error for unknown or empty strings.
func ParseStatus(value string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == value {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status", fmt.Errorf("%q is not a known order status", value))
}

// String returns the wire representation of the status.
// Implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// Validate checks that the Status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause(
			"status", fmt.Errorf("%d is not a valid status", int(s)))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"status", fmt.Errorf("%d is not a valid status", int(s)))
	}
	return nil
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == OrderCancelled || s == PaymentFailed
}

// AtOrPast reports whether s is already at the target status or further
// along the main lifecycle path. Used by handlers as the no-op guard against
// duplicate and out-of-order redelivery.
func (s Status) AtOrPast(target Status) bool {
	ranks := statusRanks()
	current, ok := ranks[s]
	if !ok {
		return false
	}
	targetRank, ok := ranks[target]
	if !ok {
		return false
	}
	return current >= targetRank
}

// CanAdvanceTo reports whether a transition from s to target is a legal
// forward move. Skipping intermediate states is allowed; moving backwards,
// sideways (payment_confirmed <-> payment_failed) or out of a terminal
// status is not. Cancellation has its own rule, see CanCancel.
func (s Status) CanAdvanceTo(target Status) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderCancelled {
		return s.CanCancel()
	}
	ranks := statusRanks()
	current, ok := ranks[s]
	if !ok {
		return false
	}
	targetRank, ok := ranks[target]
	if !ok {
		return false
	}
	return targetRank > current
}

// CanCancel reports whether the order may still be cancelled: only before
// fulfillment starts.
func (s Status) CanCancel() bool {
	return s == PaymentPending || s == PaymentConfirmed || s == OrderConfirmed
}
