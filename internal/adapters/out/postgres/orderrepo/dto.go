// Package orderrepo persists order aggregates with GORM. Status moves are
// compare-and-set writes so concurrently redelivered events cannot
// double-apply a transition.
package orderrepo

import (
	"time"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/model/order"
)

// OrderDTO is the database row backing an order aggregate. Status is stored
// by its wire name and indexed together with last_modified for the
// status-and-time-window queries.
type OrderDTO struct {
	ID                 string      `gorm:"primaryKey"`
	CustomerID         string      `gorm:"index"`
	RestaurantID       string      `gorm:"index"`
	Items              []ItemDTO   `gorm:"serializer:json;type:jsonb"`
	Amount             float64
	DeliveryLocation   GeoPointDTO `gorm:"embedded;embeddedPrefix:delivery_"`
	RestaurantLocation GeoPointDTO `gorm:"embedded;embeddedPrefix:restaurant_"`
	StripeCustomerID   string
	PaymentIntentID    string
	DeliveryID         string    `gorm:"index"`
	Status             string    `gorm:"index:idx_orders_status_modified"`
	CreatedAt          time.Time
	LastModified       time.Time `gorm:"index:idx_orders_status_modified"`
}

// TableName overrides GORM's default naming to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one ordered item inside the JSON items column.
type ItemDTO struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// GeoPointDTO is an embedded coordinate pair.
type GeoPointDTO struct {
	Latitude  float64
	Longitude float64
}

func fromDomain(aggregate *order.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			ItemID:    item.ItemID(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	return OrderDTO{
		ID:           aggregate.ID(),
		CustomerID:   aggregate.CustomerID(),
		RestaurantID: aggregate.RestaurantID(),
		Items:        items,
		Amount:       aggregate.Amount(),
		DeliveryLocation: GeoPointDTO{
			Latitude:  aggregate.DeliveryLocation().Latitude(),
			Longitude: aggregate.DeliveryLocation().Longitude(),
		},
		RestaurantLocation: GeoPointDTO{
			Latitude:  aggregate.RestaurantLocation().Latitude(),
			Longitude: aggregate.RestaurantLocation().Longitude(),
		},
		StripeCustomerID: aggregate.PaymentRefs().StripeCustomerID,
		PaymentIntentID:  aggregate.PaymentRefs().PaymentIntentID,
		DeliveryID:       aggregate.DeliveryID(),
		Status:           aggregate.Status().String(),
		CreatedAt:        aggregate.CreatedAt(),
		LastModified:     aggregate.LastModified(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	items := make([]order.Item, 0, len(dto.Items))
	for _, item := range dto.Items {
		domainItem, err := order.NewItem(item.ItemID, item.Name, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, domainItem)
	}

	deliveryLocation, err := kernel.NewGeoPoint(dto.DeliveryLocation.Latitude, dto.DeliveryLocation.Longitude)
	if err != nil {
		return nil, err
	}
	restaurantLocation, err := kernel.NewGeoPoint(dto.RestaurantLocation.Latitude, dto.RestaurantLocation.Longitude)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		dto.ID, dto.CustomerID, dto.RestaurantID, items, dto.Amount,
		deliveryLocation, restaurantLocation,
		order.PaymentRefs{StripeCustomerID: dto.StripeCustomerID, PaymentIntentID: dto.PaymentIntentID},
		dto.DeliveryID, status, dto.CreatedAt, dto.LastModified,
	)
}
