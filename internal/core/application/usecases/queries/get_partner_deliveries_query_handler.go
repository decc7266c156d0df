package queries

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GetPartnerDeliveriesQueryHandler reads a partner's delivery assignments
// from the database.
type GetPartnerDeliveriesQueryHandler struct {
	db *gorm.DB
}

// NewGetPartnerDeliveriesQueryHandler creates a handler for partner delivery
// queries.
func NewGetPartnerDeliveriesQueryHandler(db *gorm.DB) GetPartnerDeliveriesQueryHandler {
	return GetPartnerDeliveriesQueryHandler{db: db}
}

// Handle executes the query. Results are sorted newest first.
func (h GetPartnerDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetPartnerDeliveriesQuery,
) ([]GetPartnerDeliveriesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	deliveries := make([]GetPartnerDeliveriesQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			order_ids,
			created_at
		FROM deliveries
		WHERE partner_id = ?
		ORDER BY created_at DESC
	`, query.PartnerID()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var deliveryResp GetPartnerDeliveriesQueryResponse
		var orderIDs pq.StringArray

		if err = rows.Scan(
			&deliveryResp.ID,
			&deliveryResp.Status,
			&orderIDs,
			&deliveryResp.CreatedAt,
		); err != nil {
			return nil, err
		}

		deliveryResp.OrderIDs = []string(orderIDs)
		deliveries = append(deliveries, deliveryResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return deliveries, nil
}
