package jobs

import (
	"context"
	"log/slog"
	"time"

	"grubdash/internal/core/application/usecases/queries"
	"grubdash/internal/core/domain/model/order"

	"github.com/robfig/cron/v3"
)

// stallWindow is how long a confirmed order may wait for a delivery
// assignment before it is reported as stalled.
const stallWindow = 15 * time.Minute

// StalledOrdersJob periodically reports confirmed orders that never got a
// delivery assignment. It only surfaces them in the log; recovery is a
// manual operations call.
type StalledOrdersJob struct {
	handler queries.GetStalledOrdersQueryHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewStalledOrdersJob creates a job that checks for stalled orders every
// minute.
func NewStalledOrdersJob(handler queries.GetStalledOrdersQueryHandler, logger *slog.Logger) *StalledOrdersJob {
	return &StalledOrdersJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "stalled_orders_job"),
	}
}

// Start begins the stalled orders job.
func (j *StalledOrdersJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", func() {
		ctx := context.Background()

		query, err := queries.NewGetStalledOrdersQuery(order.OrderConfirmed, stallWindow)
		if err != nil {
			j.logger.ErrorContext(ctx, "Stalled orders query is invalid", "error", err)
			return
		}

		stalled, err := j.handler.Handle(ctx, query)
		if err != nil {
			j.logger.ErrorContext(ctx, "Stalled orders check failed", "error", err)
			return
		}

		for _, stalledOrder := range stalled {
			j.logger.WarnContext(ctx, "Order stalled without delivery assignment",
				"order_id", stalledOrder.ID,
				"restaurant_id", stalledOrder.RestaurantID,
				"last_modified", stalledOrder.LastModified,
			)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stalled orders job started (running every minute)")
	return nil
}

// Stop stops the stalled orders job.
func (j *StalledOrdersJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Stalled orders job stopped")
}
