package delivery

import (
	"errors"
	"time"

	"grubdash/internal/pkg/errs"
)

// ErrDeliveryIsNotConstructed is returned when a Delivery instance was not
// created through its factory methods.
var ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery constructor")

// Delivery is the aggregate tracking a partner trip. A single trip can carry
// several orders when they were batched at assignment time.
type Delivery struct {
	id           string
	partnerID    string
	orderIDs     []string
	status       Status
	createdAt    time.Time
	lastModified time.Time

	isConstructed bool
}

// NewDelivery creates a Delivery in the assigned stage.
func NewDelivery(id, partnerID string, orderIDs []string, createdAt time.Time) (*Delivery, error) {
	delivery := &Delivery{
		status:        Assigned,
		createdAt:     createdAt,
		lastModified:  createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		delivery.setID(id),
		delivery.setPartnerID(partnerID),
		delivery.setOrderIDs(orderIDs),
	); err != nil {
		return nil, err
	}

	return delivery, nil
}

// RestoreDelivery reconstructs a Delivery from persistence with its full state.
func RestoreDelivery(
	id string,
	partnerID string,
	orderIDs []string,
	status Status,
	createdAt time.Time,
	lastModified time.Time,
) (*Delivery, error) {
	delivery, err := NewDelivery(id, partnerID, orderIDs, createdAt)
	if err != nil {
		return nil, err
	}

	if err = status.Validate(); err != nil {
		return nil, err
	}

	delivery.status = status
	delivery.lastModified = lastModified
	return delivery, nil
}

// Validate ensures the Delivery was created through a factory method.
func (d *Delivery) Validate() error {
	if !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

// ID returns the delivery identifier.
func (d *Delivery) ID() string {
	return d.id
}

// PartnerID returns the assigned delivery partner identifier.
func (d *Delivery) PartnerID() string {
	return d.partnerID
}

// OrderIDs returns the orders carried on this trip.
func (d *Delivery) OrderIDs() []string {
	ids := make([]string, len(d.orderIDs))
	copy(ids, d.orderIDs)
	return ids
}

// Status returns the current lifecycle stage.
func (d *Delivery) Status() Status {
	return d.status
}

// CreatedAt returns when the delivery was assigned.
func (d *Delivery) CreatedAt() time.Time {
	return d.createdAt
}

// LastModified returns when the delivery last changed.
func (d *Delivery) LastModified() time.Time {
	return d.lastModified
}

// CanAdvanceTo reports whether the move to target is legal from the current stage.
func (d *Delivery) CanAdvanceTo(target Status) bool {
	return d.status.CanAdvanceTo(target)
}

// AdvanceTo moves the delivery to target, recording the change time.
func (d *Delivery) AdvanceTo(target Status, at time.Time) error {
	if !d.CanAdvanceTo(target) {
		return errs.NewValueIsInvalidErrorWithCause("status",
			errors.New("cannot move delivery from "+d.status.String()+" to "+target.String()))
	}

	d.status = target
	d.lastModified = at
	return nil
}

func (d *Delivery) setID(id string) error {
	if id == "" {
		return errs.NewValueIsRequiredError("id")
	}
	d.id = id
	return nil
}

func (d *Delivery) setPartnerID(partnerID string) error {
	if partnerID == "" {
		return errs.NewValueIsRequiredError("partnerID")
	}
	d.partnerID = partnerID
	return nil
}

func (d *Delivery) setOrderIDs(orderIDs []string) error {
	if len(orderIDs) == 0 {
		return errs.NewValueIsRequiredError("orderIDs")
	}
	for _, orderID := range orderIDs {
		if orderID == "" {
			return errs.NewValueIsRequiredError("orderID")
		}
	}

	d.orderIDs = make([]string, len(orderIDs))
	copy(d.orderIDs, orderIDs)
	return nil
}
