package analyzer

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds how many analyses run at once. Callers wait for a slot
// until their context is done.
type WorkerPool struct {
	workers  int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers: int64(workers),
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// Submit runs job once a slot is free. It returns the context error if the
// context ends first, in which case job never runs.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) error {
	if err := wp.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	wp.inFlight.Add(1)
	defer func() {
		wp.inFlight.Add(-1)
		wp.sem.Release(1)
	}()

	job()
	return nil
}

// Size is the maximum number of concurrent jobs
func (wp *WorkerPool) Size() int {
	return int(wp.workers)
}

// InFlight is the number of jobs currently running
func (wp *WorkerPool) InFlight() int {
	return int(wp.inFlight.Load())
}
