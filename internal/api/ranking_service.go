package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onnwee/poigraph/internal/cache"
	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/ranking"
)

// RankingService ranks the latest snapshot and caches results per
// (snapshot id, mode). Snapshot ids are never reused, so cached results do
// not need invalidation.
type RankingService struct {
	repo    graph.Repository
	weights *ranking.Weights
	cache   cache.RankingCache
	logger  *slog.Logger
}

// NewRankingService creates a service. A nil weights uses the defaults and
// a nil cache disables caching.
func NewRankingService(repo graph.Repository, weights *ranking.Weights, c cache.RankingCache, logger *slog.Logger) *RankingService {
	if weights == nil {
		weights = ranking.DefaultWeights()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RankingService{repo: repo, weights: weights, cache: c, logger: logger}
}

// Weights returns a copy of the active weights.
func (s *RankingService) Weights() *ranking.Weights {
	return s.weights.Clone()
}

// Rankings ranks the latest snapshot under mode and returns the snapshot id
// with the results.
func (s *RankingService) Rankings(ctx context.Context, mode ranking.Mode) (string, []ranking.Result, error) {
	if !mode.Valid() {
		return "", nil, fmt.Errorf("%w: %q", ranking.ErrUnknownMode, mode)
	}
	snap, err := s.repo.Latest(ctx)
	if err != nil {
		return "", nil, err
	}
	results, err := s.rank(ctx, snap, mode)
	return snap.ID, results, err
}

func (s *RankingService) rank(ctx context.Context, snap *graph.Snapshot, mode ranking.Mode) ([]ranking.Result, error) {
	if s.cache != nil {
		results, ok, err := s.cache.Get(ctx, snap.ID, mode)
		if err != nil {
			s.logger.WarnContext(ctx, "ranking cache read failed", "snapshot_id", snap.ID, "mode", mode, "error", err)
		} else if ok {
			return results, nil
		}
	}

	results, err := ranking.Rank(snap.Entities, snap.Edges, mode, s.weights)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snap.ID, mode, results); err != nil {
			s.logger.WarnContext(ctx, "ranking cache write failed", "snapshot_id", snap.ID, "mode", mode, "error", err)
		}
	}
	return results, nil
}

// Warm ranks snap under every mode and stores the results in the cache.
func (s *RankingService) Warm(ctx context.Context, snap *graph.Snapshot) error {
	if s.cache == nil {
		return nil
	}
	var errs []error
	for _, mode := range ranking.Modes() {
		results, err := ranking.Rank(snap.Entities, snap.Edges, mode, s.weights)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.cache.Set(ctx, snap.ID, mode, results); err != nil {
			errs = append(errs, fmt.Errorf("mode %s: %w", mode, err))
		}
	}
	return errors.Join(errs...)
}
