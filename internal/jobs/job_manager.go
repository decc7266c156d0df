package jobs

import (
	"fmt"
	"log/slog"

	"grubdash/internal/core/application/usecases/queries"
	"grubdash/internal/core/ports"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	presenceSweepJob *PresenceSweepJob
	stalledOrdersJob *StalledOrdersJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	presence ports.PartnerPresence,
	stalledOrdersHandler queries.GetStalledOrdersQueryHandler,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		presenceSweepJob: NewPresenceSweepJob(presence, logger),
		stalledOrdersJob: NewStalledOrdersJob(stalledOrdersHandler, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.presenceSweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start presence sweep job: %w", err)
	}

	if err := jm.stalledOrdersJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.presenceSweepJob.Stop()
		return fmt.Errorf("failed to start stalled orders job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.stalledOrdersJob.Stop()
	jm.presenceSweepJob.Stop()
}
