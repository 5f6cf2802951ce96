package worker

import (
	"context"
	"sync"
)

type (
	// Job is one unit of background work.
	Job func(ctx context.Context) error

	// Pool accepts jobs and runs them on a fixed set of workers.
	Pool interface {
		Start(ctx context.Context, managerWg *sync.WaitGroup)
		SubmitJob(ctx context.Context, job Job) error
	}
)
