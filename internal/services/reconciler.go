package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartharvester/internal/models"
)

// Reconciler merges a user's plantings from the durable store and the
// session cache into a single de-duplicated view. The durable store is
// authoritative: a cache entry only survives the merge when its
// planting_id is not yet durable. The reconciler never writes to either
// store.
type Reconciler struct {
	store   PlantingStore
	cache   EphemeralCache
	timeout time.Duration
}

// ReconcileResult carries the merged view. Degraded is set when the
// durable query failed and the cache served as the only source, so
// callers can decide whether to retry.
type ReconcileResult struct {
	Plantings []models.Planting
	Degraded  bool
}

func NewReconciler(store PlantingStore, cache EphemeralCache, timeout time.Duration) *Reconciler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Reconciler{store: store, cache: cache, timeout: timeout}
}

// Reconcile returns the merged planting list for a user. The output
// never contains two entries with the same planting_id.
func (r *Reconciler) Reconcile(ctx context.Context, userID, username string) (ReconcileResult, error) {
	storeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	durable, err := r.store.ListByUser(storeCtx, userID, username)
	if err != nil {
		slog.Warn("durable planting query failed, serving session cache only",
			"user_id", userID, "error", err)
		cached, cacheErr := r.cache.ListPlantings(ctx, userID, username)
		if cacheErr != nil {
			return ReconcileResult{}, fmt.Errorf("%w: durable query failed (%w) and cache failed: %w",
				models.ErrStoreUnavailable, err, cacheErr)
		}
		return ReconcileResult{Plantings: cached, Degraded: true}, nil
	}

	merged := make([]models.Planting, 0, len(durable))
	seen := make(map[string]struct{}, len(durable))
	for _, p := range durable {
		if _, dup := seen[p.PlantingID]; dup {
			continue
		}
		seen[p.PlantingID] = struct{}{}
		merged = append(merged, p)
	}

	cached, cacheErr := r.cache.ListPlantings(ctx, userID, username)
	if cacheErr != nil {
		// Cache misses are non-fatal when the durable store answered.
		slog.Warn("session cache read failed during reconcile", "user_id", userID, "error", cacheErr)
		return ReconcileResult{Plantings: merged}, nil
	}
	for _, p := range cached {
		if _, dup := seen[p.PlantingID]; dup {
			continue
		}
		seen[p.PlantingID] = struct{}{}
		merged = append(merged, p)
	}

	return ReconcileResult{Plantings: merged}, nil
}
