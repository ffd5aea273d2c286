package videojobs

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"memoria/internal/infra"
)

// dispatcher runs job processor functions on supervised goroutines, detached
// from the submitting request. Concurrency is bounded by a weighted
// semaphore, panics are recovered and reported instead of silently dropped,
// and an in-flight set guarantees at most one run per job id.
type dispatcher struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	logger  infra.Logger
	onPanic func(ctx context.Context, jobID string, recovered any)

	mu       sync.Mutex
	inflight map[string]struct{}
}

func newDispatcher(maxConcurrent int64, logger infra.Logger, onPanic func(ctx context.Context, jobID string, recovered any)) *dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &dispatcher{
		ctx:      ctx,
		cancel:   cancel,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   logger,
		onPanic:  onPanic,
		inflight: make(map[string]struct{}),
	}
}

// Dispatch schedules exactly one run for the given job id. It returns false
// when a run for that id is already in flight.
func (d *dispatcher) Dispatch(jobID string, run func(ctx context.Context)) bool {
	d.mu.Lock()
	if _, dup := d.inflight[jobID]; dup {
		d.mu.Unlock()
		return false
	}
	d.inflight[jobID] = struct{}{}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.inflight, jobID)
			d.mu.Unlock()
		}()

		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			d.logger.Warn().Err(err).Str("job_id", jobID).Msg("videojobs: dispatch canceled before start")
			return
		}
		defer d.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Str("job_id", jobID).Msg(fmt.Sprintf("videojobs: processor panic: %v", r))
				if d.onPanic != nil {
					d.onPanic(d.ctx, jobID, r)
				}
			}
		}()

		run(d.ctx)
	}()
	return true
}

// Close cancels pending runs and waits for in-flight ones to return.
func (d *dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
