package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/onnwee/poigraph/internal/ranking"
)

// DefaultLRUSize holds every mode for a handful of recent snapshots.
const DefaultLRUSize = 64

// LRU is a process-local ranking cache.
type LRU struct {
	entries *lru.Cache[string, []ranking.Result]
}

// NewLRU creates an LRU cache holding up to size entries.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	entries, err := lru.New[string, []ranking.Result](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: entries}, nil
}

// Get returns a copy of the cached results.
func (c *LRU) Get(_ context.Context, snapshotID string, mode ranking.Mode) ([]ranking.Result, bool, error) {
	results, ok := c.entries.Get(Key(snapshotID, mode))
	if !ok {
		return nil, false, nil
	}
	return cloneResults(results), true, nil
}

// Set stores a copy of results.
func (c *LRU) Set(_ context.Context, snapshotID string, mode ranking.Mode, results []ranking.Result) error {
	c.entries.Add(Key(snapshotID, mode), cloneResults(results))
	return nil
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	return c.entries.Len()
}
