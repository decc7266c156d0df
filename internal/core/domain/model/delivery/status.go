package delivery

import (
	"fmt"

	"grubdash/internal/pkg/errs"
)

const (
	assignedName      = "dp_assigned"
	confirmedName     = "dp_confirmed"
	orderReceivedName = "dp_order_received"
	deliveredName     = "dp_delivered"
)

// Status is the delivery lifecycle stage, driven by delivery partner events.
type Status int

const (
	// Unknown is the zero value and never a valid stage.
	Unknown Status = iota

	// Assigned means a partner was matched to the delivery.
	Assigned

	// Confirmed means the partner accepted the assignment.
	Confirmed

	// OrderReceived means the partner picked the orders up at the restaurant.
	OrderReceived

	// Delivered means every order reached its customer.
	Delivered
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Assigned:      assignedName,
		Confirmed:     confirmedName,
		OrderReceived: orderReceivedName,
		Delivered:     deliveredName,
	}
}

// ParseStatus maps a wire status string onto a Status.
func ParseStatus(value string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == value {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status", fmt.Errorf("unknown delivery status %q", value))
}

func (s Status) String() string {
	if name, ok := getStatusStrings()[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Validate reports whether the Status is one of the defined stages.
func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"status", fmt.Errorf("%d is not a valid delivery status", int(s)))
	}
	return nil
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == Delivered
}

// AtOrPast reports whether the delivery already reached the target stage.
// Stages are strictly ordered, so a later stage implies the earlier ones
// happened even when their events were lost or arrived late.
func (s Status) AtOrPast(target Status) bool {
	return s >= target && target != Unknown && s.Validate() == nil
}

// CanAdvanceTo reports whether the move to target is legal. Forward jumps
// are allowed because partner events can arrive out of order.
func (s Status) CanAdvanceTo(target Status) bool {
	if s.Validate() != nil || target.Validate() != nil {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	return target > s
}
