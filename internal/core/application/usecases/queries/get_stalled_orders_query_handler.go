package queries

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GetStalledOrdersQueryHandler reads stalled orders from the database. The
// WHERE clause matches the composite status and last_modified index on the
// orders table.
type GetStalledOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetStalledOrdersQueryHandler creates a handler for stalled order
// queries.
func NewGetStalledOrdersQueryHandler(db *gorm.DB) GetStalledOrdersQueryHandler {
	return GetStalledOrdersQueryHandler{db: db}
}

// Handle executes the query. Results are sorted oldest first so the most
// stalled orders surface at the top.
func (h GetStalledOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetStalledOrdersQuery,
) ([]GetStalledOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-query.Window())
	orders := make([]GetStalledOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			restaurant_id,
			status,
			last_modified
		FROM orders
		WHERE status = ? AND last_modified < ?
		ORDER BY last_modified
	`, query.Status().String(), cutoff).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var orderResp GetStalledOrdersQueryResponse
		if err = rows.Scan(
			&orderResp.ID,
			&orderResp.RestaurantID,
			&orderResp.Status,
			&orderResp.LastModified,
		); err != nil {
			return nil, err
		}
		orders = append(orders, orderResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
