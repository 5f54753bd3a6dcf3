package scheduler

import (
	"context"

	"pfm/internal/log"
)

// Refresher re-runs the Home load of every live session.
type Refresher interface {
	RefreshAll(ctx context.Context) int
}

// HomeRefreshJob periodically refreshes every connected dashboard.
type HomeRefreshJob struct {
	refresher Refresher
	logger    *log.Logger
}

func NewHomeRefreshJob(refresher Refresher, logger *log.Logger) *HomeRefreshJob {
	if logger == nil {
		logger = log.Default(log.ComponentScheduler)
	}
	return &HomeRefreshJob{refresher: refresher, logger: logger.WithComponent(log.ComponentScheduler)}
}

func (j *HomeRefreshJob) Name() string { return "home-refresh" }

func (j *HomeRefreshJob) Run(ctx context.Context) error {
	n := j.refresher.RefreshAll(ctx)
	if n > 0 {
		j.logger.InfoContext(ctx, "Refreshed live sessions", log.FieldOperation, log.OpRefresh, "sessions", n)
	}
	return nil
}
