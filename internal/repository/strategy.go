package repository

import (
	"context"
	"fmt"
	"log/slog"

	"smartharvester/internal/models"
)

// scanPageSize is how many rows a scan stage reads per page while
// paginating to exhaustion.
const scanPageSize = 100

// queryStrategy is one way of resolving a user-scoped query. Strategies
// run in declared order: a stage that errors is logged and skipped, a
// stage that succeeds with rows wins, and a stage that comes back empty
// only counts as a miss after it fully paginated, so the next stage
// still gets its turn.
type queryStrategy[T any] struct {
	name string
	run  func(ctx context.Context) ([]T, error)
}

func runStrategies[T any](ctx context.Context, record string, strategies []queryStrategy[T]) ([]T, error) {
	var lastErr error
	anySucceeded := false
	for _, s := range strategies {
		items, err := s.run(ctx)
		if err != nil {
			slog.Warn("query strategy failed, trying next",
				"record", record, "strategy", s.name, "error", err)
			lastErr = err
			continue
		}
		anySucceeded = true
		if len(items) > 0 {
			return items, nil
		}
	}
	if !anySucceeded && lastErr != nil {
		return nil, fmt.Errorf("%w: all %s query strategies failed: %w", models.ErrStoreUnavailable, record, lastErr)
	}
	return nil, nil
}
