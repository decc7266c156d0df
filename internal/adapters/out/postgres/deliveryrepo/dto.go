// Package deliveryrepo persists delivery aggregates with GORM. Like the
// order repository it uses compare-and-set status writes so redelivered
// partner events cannot double-apply a transition.
package deliveryrepo

import (
	"time"

	"grubdash/internal/core/domain/model/delivery"

	"github.com/lib/pq"
)

// DeliveryDTO is the database row backing a delivery aggregate. Order ids
// are stored as a native text array since a delivery batches at most a
// handful of orders and they are only ever read back whole.
type DeliveryDTO struct {
	ID           string         `gorm:"primaryKey"`
	PartnerID    string         `gorm:"index"`
	OrderIDs     pq.StringArray `gorm:"type:text[]"`
	Status       string         `gorm:"index"`
	CreatedAt    time.Time
	LastModified time.Time
}

// TableName overrides GORM's default naming to use "deliveries".
func (DeliveryDTO) TableName() string {
	return "deliveries"
}

func fromDomain(aggregate *delivery.Delivery) DeliveryDTO {
	return DeliveryDTO{
		ID:           aggregate.ID(),
		PartnerID:    aggregate.PartnerID(),
		OrderIDs:     pq.StringArray(aggregate.OrderIDs()),
		Status:       aggregate.Status().String(),
		CreatedAt:    aggregate.CreatedAt(),
		LastModified: aggregate.LastModified(),
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	status, err := delivery.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return delivery.RestoreDelivery(
		dto.ID, dto.PartnerID, []string(dto.OrderIDs),
		status, dto.CreatedAt, dto.LastModified,
	)
}
