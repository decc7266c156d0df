package deliveryrepo

import (
	"context"
	"errors"
	"time"

	"grubdash/internal/core/domain/model/delivery"
	"grubdash/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements DeliveryRepository using GORM.
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GORM delivery repository.
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// Add inserts the delivery if no row with its id exists yet. It reports
// false when the row was already there.
func (r *GormDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Get retrieves a delivery by ID.
func (r *GormDeliveryRepository) Get(ctx context.Context, id string) (*delivery.Delivery, error) {
	var dto DeliveryDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery_id", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdateStatus advances the delivery's status with a compare-and-set write.
// Zero affected rows means the delivery was not on the expected status.
func (r *GormDeliveryRepository) UpdateStatus(ctx context.Context, id string, from, to delivery.Status, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(map[string]any{"status": to.String(), "last_modified": at})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
