package orderrepo

import (
	"context"
	"errors"
	"time"

	"grubdash/internal/core/domain/model/order"
	"grubdash/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts the order if no row with its id exists yet. It reports false
// when the row was already there, which makes redelivered creation events
// a no-op.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) (bool, error) {
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

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order_id", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdateStatus advances the order's status with a compare-and-set write.
// Zero affected rows means another worker already moved the order off the
// expected status, and the caller should treat the event as applied.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(map[string]any{"status": to.String(), "last_modified": at})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// LinkDelivery records the delivery assigned to the order. It reports false
// without error when the order does not exist.
func (r *GormOrderRepository) LinkDelivery(ctx context.Context, id, deliveryID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", id).
		Updates(map[string]any{"delivery_id": deliveryID, "last_modified": at})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
