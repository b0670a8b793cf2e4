// Package cache stores ranking results per snapshot and mode. Snapshot ids
// are never reused, so entries never need invalidation; they only expire.
package cache

import (
	"context"
	"fmt"

	"github.com/onnwee/poigraph/internal/ranking"
)

// RankingCache caches ranking results keyed by snapshot id and mode.
type RankingCache interface {
	// Get returns the cached results and whether they were present.
	Get(ctx context.Context, snapshotID string, mode ranking.Mode) ([]ranking.Result, bool, error)

	// Set stores results for the snapshot and mode.
	Set(ctx context.Context, snapshotID string, mode ranking.Mode, results []ranking.Result) error
}

// Key formats the cache key for a snapshot and mode.
func Key(snapshotID string, mode ranking.Mode) string {
	return fmt.Sprintf("rank:%s:%s", snapshotID, mode)
}

func cloneResults(results []ranking.Result) []ranking.Result {
	if results == nil {
		return nil
	}
	return append([]ranking.Result(nil), results...)
}
