package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobScheduler submits its registered jobs to a pool on a fixed
// interval. The digest sweep is the main tenant.
type JobScheduler struct {
	Name   string
	Ticker *time.Ticker
	Pool   Pool

	mu   sync.RWMutex
	jobs []Job
}

func NewJobScheduler(name string, interval time.Duration, pool Pool) *JobScheduler {
	return &JobScheduler{
		Name:   name,
		Ticker: time.NewTicker(interval),
		Pool:   pool,
	}
}

func (s *JobScheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

func (s *JobScheduler) Run(ctx context.Context) {
	slog.Info("scheduler running", "scheduler", s.Name)
	defer s.Ticker.Stop()

	for {
		select {
		case <-s.Ticker.C:
			slog.Info("scheduler tick, submitting jobs", "scheduler", s.Name)
			s.submitJobs(ctx)

		case <-ctx.Done():
			slog.Info("scheduler shutting down", "scheduler", s.Name)
			return
		}
	}
}

func (s *JobScheduler) submitJobs(ctx context.Context) {
	s.mu.RLock()
	jobsToRun := make([]Job, len(s.jobs))
	copy(jobsToRun, s.jobs)
	s.mu.RUnlock()

	for _, job := range jobsToRun {
		submitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.Pool.SubmitJob(submitCtx, job); err != nil {
			slog.Error("failed to submit scheduled job", "scheduler", s.Name, "error", err)
		}
		cancel()
	}
}
