package videojobs

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds the provider status polling for one job: a fixed
// interval for up to MaxAttempts attempts, a hard wall-clock budget rather
// than open-ended backoff. Jitter spreads attempts across jobs so a burst of
// submissions does not hammer the provider in lockstep.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Jitter      float64 // fraction of Interval added at random, 0 disables
}

// DefaultRetryPolicy polls every 30s for up to 60 attempts (~30 minutes).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Interval: 30 * time.Second, MaxAttempts: 60, Jitter: 0.1}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Interval <= 0 {
		p.Interval = 30 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 60
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// wait sleeps one poll interval, honoring context cancellation.
func (p RetryPolicy) wait(ctx context.Context) error {
	d := p.Interval
	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(p.Interval))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// progressCap keeps attempt-derived progress below 100 so full progress is
// only ever reported together with a completed status.
const progressCap = 95

// attemptProgress derives a progress value from poll attempt accounting,
// preferring the provider's own hint when it is further along.
func attemptProgress(attempt, maxAttempts, providerHint int) int {
	derived := attempt * 100 / maxAttempts
	if derived > progressCap {
		derived = progressCap
	}
	if providerHint > derived {
		derived = providerHint
	}
	if derived > progressCap {
		derived = progressCap
	}
	return derived
}
