// Package queries contains read-side handlers that bypass the aggregates and
// read projection rows straight from the database.
package queries

import (
	"errors"
	"time"

	"grubdash/internal/pkg/guard"
)

var (
	ErrGetCustomerOrdersQueryIsNotConstructed = errors.New(
		"GetCustomerOrdersQuery must be created via NewGetCustomerOrdersQuery constructor",
	)
	ErrCustomerIDIsRequired = errors.New("customer id is required")
)

// GetCustomerOrdersQuery retrieves all orders placed by one customer,
// newest first.
//
// Example:
//
//	query, err := NewGetCustomerOrdersQuery("C1")
//	if err != nil {
//	    return err
//	}
//
//	handler := NewGetCustomerOrdersQueryHandler(db)
//	orders, err := handler.Handle(ctx, query)
type GetCustomerOrdersQuery struct {
	customerID string

	guard guard.ConstructorGuard
}

// NewGetCustomerOrdersQuery creates a query for one customer's orders.
// Returns an error when the customer id is empty.
func NewGetCustomerOrdersQuery(customerID string) (GetCustomerOrdersQuery, error) {
	if customerID == "" {
		return GetCustomerOrdersQuery{}, ErrCustomerIDIsRequired
	}

	return GetCustomerOrdersQuery{
		customerID: customerID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// CustomerID returns the customer whose orders are requested.
func (q GetCustomerOrdersQuery) CustomerID() string {
	return q.customerID
}

// Validate ensures the query was created through the constructor.
func (q GetCustomerOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetCustomerOrdersQueryIsNotConstructed)
}

// GetCustomerOrdersQueryResponse is one order row in the customer's history.
type GetCustomerOrdersQueryResponse struct {
	ID         string
	Status     string
	Amount     float64
	DeliveryID string
	CreatedAt  time.Time
}
