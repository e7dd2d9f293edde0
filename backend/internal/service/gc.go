package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/logger"
	"github.com/itchan-dev/anniv/shared/middleware/metrics"
)

// AssetGarbageCollector removes asset directories whose user no longer exists.
// They are left behind when the process dies between writing frames and
// compensating, or when a ban could not remove them.
type AssetGarbageCollector struct {
	storage         GCStorage
	assets          GCAssetStore
	safetyThreshold time.Duration
	now             func() time.Time
	log             *slog.Logger

	mu               sync.Mutex
	lastCleanupStats CleanupStats
}

// CleanupStats tracks metrics from the last garbage collection run.
type CleanupStats struct {
	RunAt        time.Time
	DirsScanned  int
	OrphanedDirs int
	DirsDeleted  int
	DurationMs   int64
	Errors       []string
}

// NewAssetGarbageCollector creates a collector. safetyThreshold is the minimum
// age of a directory before it may be deleted, so a submission still in flight
// (user row not committed yet) keeps its frames.
func NewAssetGarbageCollector(storage GCStorage, assets GCAssetStore, safetyThreshold time.Duration) *AssetGarbageCollector {
	return &AssetGarbageCollector{
		storage:         storage,
		assets:          assets,
		safetyThreshold: safetyThreshold,
		now:             time.Now,
		log:             logger.Named("asset-gc"),
	}
}

// StartBackgroundCleanup runs cleanup every interval until ctx is done.
func (gc *AssetGarbageCollector) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	gc.log.Info("started background cleanup", "interval", interval, "safety_threshold", gc.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.RunCleanup(ctx); err != nil {
					gc.log.Error("cleanup failed", "error", err)
					continue
				}
				stats := gc.LastCleanupStats()
				gc.log.Info("cleanup completed",
					"scanned", stats.DirsScanned,
					"orphans", stats.OrphanedDirs,
					"deleted", stats.DirsDeleted,
					"duration_ms", stats.DurationMs,
					"errors", len(stats.Errors),
				)
			case <-ctx.Done():
				gc.log.Info("shutting down")
				return
			}
		}
	}()
}

// RunCleanup executes a single garbage collection cycle.
func (gc *AssetGarbageCollector) RunCleanup(ctx context.Context) error {
	start := gc.now()
	stats := CleanupStats{RunAt: start, Errors: []string{}}

	// Walk assets before reading users: a directory created after the walk
	// can not be mistaken for an orphan.
	dirs, err := gc.assets.WalkUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to walk assets: %w", err)
	}
	stats.DirsScanned = len(dirs)

	ids, err := gc.storage.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to read user ids: %w", err)
	}
	known := make(map[domain.UserId]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	for _, dir := range dirs {
		if _, ok := known[dir.UserId]; ok {
			continue
		}
		if start.Sub(dir.ModTime) < gc.safetyThreshold {
			// might belong to a submission still in flight
			continue
		}

		stats.OrphanedDirs++
		if err := gc.assets.RemoveUser(ctx, dir.UserId); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("delete error: %d: %s", dir.UserId, err))
			continue
		}
		stats.DirsDeleted++
		metrics.OrphansRemoved.Inc()
	}

	stats.DurationMs = gc.now().Sub(start).Milliseconds()
	gc.mu.Lock()
	gc.lastCleanupStats = stats
	gc.mu.Unlock()
	return nil
}

// LastCleanupStats returns statistics from the last cleanup run.
func (gc *AssetGarbageCollector) LastCleanupStats() CleanupStats {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.lastCleanupStats
}
