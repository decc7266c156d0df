package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Handler processes a single event body. The at timestamp is when the batch
// began processing; handlers stamp it into the records they touch so a
// redelivered batch produces the same writes it would have the first time.
type Handler func(ctx context.Context, body []byte, at time.Time) error

// Dispatcher routes events to handlers by their status discriminant.
//
// Events whose status is absent or has no registered handler are skipped
// without failure: the status vocabulary grows over time and old consumers
// must tolerate new statuses. A handler error is not swallowed; it stops the
// batch so the queue's redelivery policy governs the failing event.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher with no registered handlers.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger.With("component", "queue.Dispatcher"),
	}
}

// Register binds a handler to a status discriminant, replacing any previous
// binding for the same status.
func (d *Dispatcher) Register(status string, handler Handler) {
	d.handlers[status] = handler
}

// HandleBatch processes bodies sequentially in delivery order. It returns how
// many leading bodies completed, successfully applied or legitimately
// skipped, together with the error that stopped the batch. Callers commit
// exactly the returned prefix so the failing event is redelivered while its
// already-durable siblings are not.
func (d *Dispatcher) HandleBatch(ctx context.Context, bodies [][]byte) (int, error) {
	at := time.Now().UTC()

	for i, body := range bodies {
		status, err := peekStatus(body)
		if err != nil {
			return i, err
		}

		if status == "" {
			d.logger.WarnContext(ctx, "skipping event without status")
			continue
		}

		handler, ok := d.handlers[status]
		if !ok {
			d.logger.InfoContext(ctx, "skipping event with unregistered status",
				"status", status)
			continue
		}

		if err := handler(ctx, body, at); err != nil {
			return i, fmt.Errorf("handle %s event: %w", status, err)
		}
	}

	return len(bodies), nil
}
