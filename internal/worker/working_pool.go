package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkingPool is a bounded worker pool. Jobs that panic are recovered
// and logged so one bad job never takes a worker down.
type WorkingPool struct {
	NumWorkers int
	jobChan    chan Job
}

func NewWorkingPool(numWorkers int, queueSize int) *WorkingPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &WorkingPool{
		NumWorkers: numWorkers,
		jobChan:    make(chan Job, queueSize),
	}
}

// SubmitJob enqueues a job, giving up when the queue stays full past the
// context deadline.
func (p *WorkingPool) SubmitJob(ctx context.Context, job Job) error {
	select {
	case p.jobChan <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job queue full: %w", ctx.Err())
	}
}

func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup
	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()

	slog.Info("working pool shutdown signaled, closing job channel")
	close(p.jobChan)

	workerWg.Wait()
	slog.Info("all workers stopped")
}

func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	slog.Debug("worker started", "worker_id", id)

	for {
		select {
		case job, ok := <-p.jobChan:
			if !ok {
				slog.Debug("job channel closed, worker exiting", "worker_id", id)
				return
			}
			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			slog.Debug("context canceled, worker exiting", "worker_id", id)
			return
		}
	}
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in job", "worker_id", workerID, "panic", r)
		}
	}()

	if err := job(ctx); err != nil {
		slog.Error("job failed", "worker_id", workerID, "error", err)
	}
}
