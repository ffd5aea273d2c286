package videojobs

import (
	"context"
	"time"

	"memoria/internal/domain"
	"memoria/internal/infra"
)

// Reaper periodically fails stranded non-terminal jobs: processing rows left
// by a crash between a provider outcome and the terminal store write, and
// pending rows whose dispatched run was canceled at shutdown before it
// started. MaxAge should comfortably exceed the full poll budget so live
// runs are never swept.
type Reaper struct {
	jobs     domain.VideoJobRepository
	maxAge   time.Duration
	interval time.Duration
	logger   infra.Logger
}

// NewReaper builds a reaper from the poll policy: jobs older than twice the
// policy's wall-clock budget are considered stranded.
func NewReaper(jobs domain.VideoJobRepository, policy RetryPolicy, logger infra.Logger) *Reaper {
	policy = policy.normalized()
	budget := policy.Interval * time.Duration(policy.MaxAttempts)
	return &Reaper{
		jobs:     jobs,
		maxAge:   2 * budget,
		interval: budget,
		logger:   logger,
	}
}

// Run sweeps on a ticker until the context is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := r.jobs.FailStale(ctx, r.maxAge)
			if err != nil {
				r.logger.Error().Err(err).Msg("videojobs: stale sweep failed")
				continue
			}
			if swept > 0 {
				r.logger.Warn().Int64("swept", swept).Msg("videojobs: failed stale jobs")
			}
		}
	}
}
