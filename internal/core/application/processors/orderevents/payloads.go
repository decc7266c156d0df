package orderevents

import (
	"time"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/model/order"
	"grubdash/internal/pkg/errs"
	"grubdash/internal/pkg/jsonutil"
)

// geoPayload is the wire form of a coordinate pair. Producers are sloppy
// about number encoding, so both fields tolerate quoted numbers.
type geoPayload struct {
	Latitude  jsonutil.Number `json:"latitude"`
	Longitude jsonutil.Number `json:"longitude"`
}

func (g geoPayload) toGeoPoint() (kernel.GeoPoint, error) {
	return kernel.NewGeoPoint(g.Latitude.Float64(), g.Longitude.Float64())
}

type itemPayload struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  jsonutil.Number `json:"quantity"`
	UnitPrice jsonutil.Number `json:"unit_price"`
}

// creationPayload is the full order payload carried by a payment_pending event.
type creationPayload struct {
	OrderID            string          `json:"order_id"`
	CustomerID         string          `json:"customer_id"`
	RestaurantID       string          `json:"restaurant_id"`
	StripeCustomerID   string          `json:"stripe_customer_id"`
	PaymentIntentID    string          `json:"payment_intent_id"`
	Items              []itemPayload   `json:"items"`
	Amount             jsonutil.Number `json:"amount"`
	DeliveryLocation   geoPayload      `json:"delivery_location"`
	RestaurantLocation geoPayload      `json:"restaurant_location"`
	CreatedAt          string          `json:"created_at"`
}

func (p creationPayload) toOrder(at time.Time) (*order.Order, error) {
	items := make([]order.Item, 0, len(p.Items))
	for _, item := range p.Items {
		domainItem, err := order.NewItem(item.ItemID, item.Name, item.Quantity.Int(), item.UnitPrice.Float64())
		if err != nil {
			return nil, err
		}
		items = append(items, domainItem)
	}

	deliveryLocation, err := p.DeliveryLocation.toGeoPoint()
	if err != nil {
		return nil, err
	}
	restaurantLocation, err := p.RestaurantLocation.toGeoPoint()
	if err != nil {
		return nil, err
	}

	// Producers may supply the creation time to preserve order of record;
	// anything unparseable falls back to the processing timestamp.
	createdAt := at
	if p.CreatedAt != "" {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, p.CreatedAt); parseErr == nil {
			createdAt = parsed
		}
	}

	return order.NewOrder(
		p.OrderID, p.CustomerID, p.RestaurantID, items, p.Amount.Float64(),
		deliveryLocation, restaurantLocation,
		order.PaymentRefs{StripeCustomerID: p.StripeCustomerID, PaymentIntentID: p.PaymentIntentID},
		createdAt,
	)
}

// statusPayload is the minimal payload of a status-advance event.
type statusPayload struct {
	OrderID string `json:"order_id"`
}

func (p statusPayload) validate() error {
	if p.OrderID == "" {
		return errs.NewValueIsRequiredError("order_id")
	}
	return nil
}

// linkPayload is the dp_confirmed side-channel payload.
type linkPayload struct {
	OrderID    string `json:"order_id"`
	DeliveryID string `json:"delivery_id"`
}

func (p linkPayload) validate() error {
	if p.OrderID == "" {
		return errs.NewValueIsRequiredError("order_id")
	}
	if p.DeliveryID == "" {
		return errs.NewValueIsRequiredError("delivery_id")
	}
	return nil
}

// batchingPayload is the message emitted to the batching queue when an order
// is confirmed. It carries everything the batching worker needs so the worker
// never reads the order store.
type batchingPayload struct {
	OrderID            string        `json:"order_id"`
	CustomerID         string        `json:"customer_id"`
	RestaurantID       string        `json:"restaurant_id"`
	Items              []itemPayload `json:"items"`
	Amount             float64       `json:"amount"`
	DeliveryLocation   geoPayload    `json:"delivery_location"`
	RestaurantLocation geoPayload    `json:"restaurant_location"`
	PickupZone         string        `json:"pickup_zone"`
	Attempt            int           `json:"attempt"`
	Status             string        `json:"status"`
}

func newBatchingPayload(aggregate *order.Order) batchingPayload {
	items := make([]itemPayload, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, itemPayload{
			ItemID:    item.ItemID(),
			Name:      item.Name(),
			Quantity:  jsonutil.Number(item.Quantity()),
			UnitPrice: jsonutil.Number(item.UnitPrice()),
		})
	}

	return batchingPayload{
		OrderID:      aggregate.ID(),
		CustomerID:   aggregate.CustomerID(),
		RestaurantID: aggregate.RestaurantID(),
		Items:        items,
		Amount:       aggregate.Amount(),
		DeliveryLocation: geoPayload{
			Latitude:  jsonutil.Number(aggregate.DeliveryLocation().Latitude()),
			Longitude: jsonutil.Number(aggregate.DeliveryLocation().Longitude()),
		},
		RestaurantLocation: geoPayload{
			Latitude:  jsonutil.Number(aggregate.RestaurantLocation().Latitude()),
			Longitude: jsonutil.Number(aggregate.RestaurantLocation().Longitude()),
		},
		PickupZone: aggregate.PickupZone(),
		Attempt:    1,
		Status:     "dp_pending",
	}
}
