package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grubdash/internal/core/ports"
)

const (
	notificationBuffer  = 128
	notificationTimeout = 5 * time.Second
)

// ErrNotifierBusy is returned when the notification buffer is full and the
// notification is dropped. Callers log it and move on.
var ErrNotifierBusy = errors.New("notification buffer full")

// notification is the payload pushed to restaurant sessions. Field names
// follow the websocket gateway's contract.
type notification struct {
	RestaurantID string                   `json:"restaurantId"`
	OrderID      string                   `json:"orderId"`
	Items        []ports.NotificationItem `json:"items"`
}

// RestaurantNotifier implements ports.RestaurantNotifier as a bounded
// fire-and-forget pipeline: NotifyOrderPaid only enqueues, a single worker
// goroutine publishes to the notifications topic off the critical path.
type RestaurantNotifier struct {
	publisher ports.EventPublisher
	queue     string
	pending   chan notification
	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewRestaurantNotifier creates the notifier and starts its worker.
func NewRestaurantNotifier(publisher ports.EventPublisher, queue string, logger *slog.Logger) *RestaurantNotifier {
	notifier := &RestaurantNotifier{
		publisher: publisher,
		queue:     queue,
		pending:   make(chan notification, notificationBuffer),
		logger:    logger.With("component", "kafka.RestaurantNotifier"),
	}

	notifier.wg.Add(1)
	go notifier.run()
	return notifier
}

// NotifyOrderPaid enqueues a preparation notice for the restaurant. It never
// blocks: when the buffer is full the notification is dropped and
// ErrNotifierBusy reported so the caller can log the loss.
func (n *RestaurantNotifier) NotifyOrderPaid(_ context.Context, restaurantID, orderID string, items []ports.NotificationItem) error {
	select {
	case n.pending <- notification{RestaurantID: restaurantID, OrderID: orderID, Items: items}:
		return nil
	default:
		return fmt.Errorf("%w: dropping notification for order %s", ErrNotifierBusy, orderID)
	}
}

// Close stops accepting notifications and waits for the worker to drain the
// buffer.
func (n *RestaurantNotifier) Close() {
	n.closeOnce.Do(func() {
		close(n.pending)
	})
	n.wg.Wait()
}

func (n *RestaurantNotifier) run() {
	defer n.wg.Done()

	for item := range n.pending {
		encoded, err := json.Marshal(item)
		if err != nil {
			n.logger.Error("encoding notification", "order_id", item.OrderID, "error", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		err = n.publisher.Publish(ctx, ports.OutboundMessage{
			Queue:    n.queue,
			Body:     encoded,
			GroupKey: item.RestaurantID,
		})
		cancel()
		if err != nil {
			n.logger.Warn("delivering notification failed",
				"order_id", item.OrderID, "restaurant_id", item.RestaurantID, "error", err)
		}
	}
}
