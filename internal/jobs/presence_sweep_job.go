package jobs

import (
	"context"
	"log/slog"
	"time"

	"grubdash/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// staleAfter is how long a partner may go without a heartbeat before the
// sweep marks them offline.
const staleAfter = 2 * time.Minute

// PresenceSweepJob periodically removes delivery partners whose heartbeats
// stopped from the active roster, so the batching pipeline never assigns
// orders to partners that silently disconnected.
type PresenceSweepJob struct {
	presence ports.PartnerPresence
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewPresenceSweepJob creates a job that sweeps stale partner presence
// every 30 seconds.
func NewPresenceSweepJob(presence ports.PartnerPresence, logger *slog.Logger) *PresenceSweepJob {
	return &PresenceSweepJob{
		presence: presence,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "presence_sweep_job"),
	}
}

// Start begins the presence sweep job.
func (j *PresenceSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/30 * * * * *", func() {
		ctx := context.Background()
		cutoff := time.Now().UTC().Add(-staleAfter)

		swept, err := j.presence.SweepStale(ctx, cutoff)
		if err != nil {
			j.logger.ErrorContext(ctx, "Presence sweep failed", "error", err)
			return
		}
		if swept > 0 {
			j.logger.InfoContext(ctx, "Swept stale delivery partners", "count", swept)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Presence sweep job started (running every 30 seconds)")
	return nil
}

// Stop stops the presence sweep job.
func (j *PresenceSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Presence sweep job stopped")
}
