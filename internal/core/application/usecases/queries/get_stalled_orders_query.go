package queries

import (
	"errors"
	"time"

	"grubdash/internal/core/domain/model/order"
	"grubdash/internal/pkg/guard"
)

var (
	ErrGetStalledOrdersQueryIsNotConstructed = errors.New(
		"GetStalledOrdersQuery must be created via NewGetStalledOrdersQuery constructor",
	)
	ErrStallWindowIsInvalid = errors.New("stall window must be greater than 0")
)

// GetStalledOrdersQuery finds orders that have sat on one status longer than
// a window. Operations uses it to spot orders stuck mid-lifecycle, for
// example confirmed orders no partner ever picked up.
type GetStalledOrdersQuery struct {
	status order.Status
	window time.Duration

	guard guard.ConstructorGuard
}

// NewGetStalledOrdersQuery creates a query for orders stuck on the given
// status for longer than window. Returns an error when the status is not a
// valid lifecycle status or the window is not positive.
func NewGetStalledOrdersQuery(status order.Status, window time.Duration) (GetStalledOrdersQuery, error) {
	if err := status.Validate(); err != nil {
		return GetStalledOrdersQuery{}, err
	}
	if window <= 0 {
		return GetStalledOrdersQuery{}, ErrStallWindowIsInvalid
	}

	return GetStalledOrdersQuery{
		status: status,
		window: window,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Status returns the lifecycle status the query filters on.
func (q GetStalledOrdersQuery) Status() order.Status {
	return q.status
}

// Window returns how long an order must have sat on the status to count as
// stalled.
func (q GetStalledOrdersQuery) Window() time.Duration {
	return q.window
}

// Validate ensures the query was created through the constructor.
func (q GetStalledOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetStalledOrdersQueryIsNotConstructed)
}

// GetStalledOrdersQueryResponse is one stalled order row.
type GetStalledOrdersQueryResponse struct {
	ID           string
	RestaurantID string
	Status       string
	LastModified time.Time
}
