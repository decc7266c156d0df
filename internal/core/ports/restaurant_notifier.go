package ports

import "context"

// NotificationItem is the normalized item view sent to restaurant sessions.
type NotificationItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// RestaurantNotifier pushes order updates to restaurants. Notification is
// best effort: implementations must not block event processing, and a failed
// or dropped notification is logged, never surfaced as a handler failure.
type RestaurantNotifier interface {
	// NotifyOrderPaid tells the restaurant to start preparing the order.
	NotifyOrderPaid(ctx context.Context, restaurantID, orderID string, items []NotificationItem) error
}
