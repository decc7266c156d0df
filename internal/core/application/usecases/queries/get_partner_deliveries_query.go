package queries

import (
	"errors"
	"time"

	"grubdash/internal/pkg/guard"
)

var (
	ErrGetPartnerDeliveriesQueryIsNotConstructed = errors.New(
		"GetPartnerDeliveriesQuery must be created via NewGetPartnerDeliveriesQuery constructor",
	)
	ErrPartnerIDIsRequired = errors.New("partner id is required")
)

// GetPartnerDeliveriesQuery retrieves the deliveries assigned to one
// delivery partner, newest first.
type GetPartnerDeliveriesQuery struct {
	partnerID string

	guard guard.ConstructorGuard
}

// NewGetPartnerDeliveriesQuery creates a query for one partner's deliveries.
// Returns an error when the partner id is empty.
func NewGetPartnerDeliveriesQuery(partnerID string) (GetPartnerDeliveriesQuery, error) {
	if partnerID == "" {
		return GetPartnerDeliveriesQuery{}, ErrPartnerIDIsRequired
	}

	return GetPartnerDeliveriesQuery{
		partnerID: partnerID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// PartnerID returns the partner whose deliveries are requested.
func (q GetPartnerDeliveriesQuery) PartnerID() string {
	return q.partnerID
}

// Validate ensures the query was created through the constructor.
func (q GetPartnerDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetPartnerDeliveriesQueryIsNotConstructed)
}

// GetPartnerDeliveriesQueryResponse is one delivery row with the order ids
// batched into it.
type GetPartnerDeliveriesQueryResponse struct {
	ID        string
	Status    string
	OrderIDs  []string
	CreatedAt time.Time
}
