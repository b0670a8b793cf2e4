package cache

import (
	"context"
	"log/slog"

	"github.com/onnwee/poigraph/internal/ranking"
)

// Tiered reads through a local cache to a shared one and fills the local
// cache on shared hits. Shared-tier errors are logged and treated as misses.
type Tiered struct {
	local  RankingCache
	shared RankingCache
	logger *slog.Logger
}

// NewTiered combines a local and a shared cache.
func NewTiered(local, shared RankingCache, logger *slog.Logger) *Tiered {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tiered{local: local, shared: shared, logger: logger}
}

// Get checks the local tier, then the shared tier.
func (t *Tiered) Get(ctx context.Context, snapshotID string, mode ranking.Mode) ([]ranking.Result, bool, error) {
	if results, ok, err := t.local.Get(ctx, snapshotID, mode); err == nil && ok {
		return results, true, nil
	}

	results, ok, err := t.shared.Get(ctx, snapshotID, mode)
	if err != nil {
		t.logger.Warn("shared ranking cache read failed",
			"snapshot_id", snapshotID,
			"mode", mode,
			"error", err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	_ = t.local.Set(ctx, snapshotID, mode, results)
	return results, true, nil
}

// Set writes both tiers. A shared-tier failure is logged, not returned.
func (t *Tiered) Set(ctx context.Context, snapshotID string, mode ranking.Mode, results []ranking.Result) error {
	if err := t.local.Set(ctx, snapshotID, mode, results); err != nil {
		return err
	}
	if err := t.shared.Set(ctx, snapshotID, mode, results); err != nil {
		t.logger.Warn("shared ranking cache write failed",
			"snapshot_id", snapshotID,
			"mode", mode,
			"error", err)
	}
	return nil
}
