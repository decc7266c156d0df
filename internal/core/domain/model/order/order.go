package order

import (
	"errors"
	"fmt"
	"time"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// PaymentRefs carries the payment-provider references attached to an order
// at creation. Both fields are optional; they are opaque to this core and
// only stored for the payment pipeline.
type PaymentRefs struct {
	StripeCustomerID string
	PaymentIntentID  string
}

// Order is the aggregate root for a marketplace order. It is created once by
// the creation event and afterwards mutated only through status-transition
// events; cancellation is a terminal status, never a deletion.
//
// Invariants:
//   - identity, participants, items and amount are fixed at creation
//   - status moves only forward along the lifecycle graph (see Status)
//   - the delivery back-reference is set at most by the delivery pipeline's
//     confirmation event and never cleared
type Order struct {
	id                 string
	customerID         string
	restaurantID       string
	items              []Item
	amount             float64
	deliveryLocation   kernel.GeoPoint
	restaurantLocation kernel.GeoPoint
	paymentRefs        PaymentRefs
	deliveryID         string
	status             Status
	createdAt          time.Time
	lastModified       time.Time

	isConstructed bool
}

// NewOrder creates a new Order in payment_pending status. The creation
// timestamp may be supplied by the producer to preserve order-of-record;
// lastModified starts equal to createdAt.
func NewOrder(
	id string,
	customerID string,
	restaurantID string,
	items []Item,
	amount float64,
	deliveryLocation kernel.GeoPoint,
	restaurantLocation kernel.GeoPoint,
	paymentRefs PaymentRefs,
	createdAt time.Time,
) (*Order, error) {
	order := &Order{
		status:        PaymentPending,
		paymentRefs:   paymentRefs,
		createdAt:     createdAt,
		lastModified:  createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		order.setID(id),
		order.setCustomerID(customerID),
		order.setRestaurantID(restaurantID),
		order.setItems(items),
		order.setAmount(amount),
		order.setDeliveryLocation(deliveryLocation),
		order.setRestaurantLocation(restaurantLocation),
	); err != nil {
		return nil, err
	}

	return order, nil
}

// RestoreOrder reconstructs an Order from persistence with its full state.
func RestoreOrder(
	id string,
	customerID string,
	restaurantID string,
	items []Item,
	amount float64,
	deliveryLocation kernel.GeoPoint,
	restaurantLocation kernel.GeoPoint,
	paymentRefs PaymentRefs,
	deliveryID string,
	status Status,
	createdAt time.Time,
	lastModified time.Time,
) (*Order, error) {
	order, err := NewOrder(
		id, customerID, restaurantID, items, amount,
		deliveryLocation, restaurantLocation, paymentRefs, createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err = status.Validate(); err != nil {
		return nil, err
	}

	order.status = status
	order.deliveryID = deliveryID
	order.lastModified = lastModified
	return order, nil
}

// Validate ensures the Order was created through a factory method.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ID returns the order identifier.
func (o *Order) ID() string {
	return o.id
}

// CustomerID returns the ordering customer's identifier.
func (o *Order) CustomerID() string {
	return o.customerID
}

// RestaurantID returns the restaurant's identifier.
func (o *Order) RestaurantID() string {
	return o.restaurantID
}

// Items returns a copy of the ordered item lines.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// Amount returns the total charged amount, fixed at creation.
func (o *Order) Amount() float64 {
	return o.amount
}

// DeliveryLocation returns the customer's dropoff coordinates.
func (o *Order) DeliveryLocation() kernel.GeoPoint {
	return o.deliveryLocation
}

// RestaurantLocation returns the restaurant's pickup coordinates.
func (o *Order) RestaurantLocation() kernel.GeoPoint {
	return o.restaurantLocation
}

// PaymentRefs returns the payment-provider references.
func (o *Order) PaymentRefs() PaymentRefs {
	return o.paymentRefs
}

// DeliveryID returns the linked delivery identifier, or "" if the order has
// not been assigned to a delivery run yet.
func (o *Order) DeliveryID() string {
	return o.deliveryID
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// CreatedAt returns the creation timestamp.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// LastModified returns the timestamp of the last applied event.
func (o *Order) LastModified() time.Time {
	return o.lastModified
}

// PickupZone returns the geographic batching bucket of the restaurant.
func (o *Order) PickupZone() string {
	return kernel.PickupZone(o.restaurantLocation)
}

// CanAdvanceTo reports whether applying the target status would be a legal
// forward move from the order's current status.
func (o *Order) CanAdvanceTo(target Status) bool {
	return o.status.CanAdvanceTo(target)
}

// AdvanceTo moves the order to the target status and stamps lastModified.
// Returns an error if the transition is not a legal forward move.
func (o *Order) AdvanceTo(target Status, at time.Time) error {
	if !o.status.CanAdvanceTo(target) {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("cannot move order %s from %s to %s", o.id, o.status, target))
	}

	o.status = target
	o.lastModified = at
	return nil
}

// LinkDelivery sets the delivery back-reference and stamps lastModified.
// The write is unconditional: repeated links with the same delivery id are
// harmless, which is the idempotency guarantee this side channel relies on.
func (o *Order) LinkDelivery(deliveryID string, at time.Time) error {
	if deliveryID == "" {
		return errs.NewValueIsRequiredError("delivery id")
	}

	o.deliveryID = deliveryID
	o.lastModified = at
	return nil
}

func (o *Order) setID(id string) error {
	if id == "" {
		return errs.NewValueIsRequiredError("order id")
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(customerID string) error {
	if customerID == "" {
		return errs.NewValueIsRequiredError("customer id")
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setRestaurantID(restaurantID string) error {
	if restaurantID == "" {
		return errs.NewValueIsRequiredError("restaurant id")
	}
	o.restaurantID = restaurantID
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}

func (o *Order) setAmount(amount float64) error {
	if amount < 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"amount", fmt.Errorf("%f is negative", amount))
	}
	o.amount = amount
	return nil
}

func (o *Order) setDeliveryLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	o.deliveryLocation = location
	return nil
}

func (o *Order) setRestaurantLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	o.restaurantLocation = location
	return nil
}
