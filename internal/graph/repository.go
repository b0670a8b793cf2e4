package graph

import (
	"context"
	"sync/atomic"
)

// Repository stores derived snapshots. Save replaces the current snapshot
// as a whole; readers see either the old or the new one, never a mix.
type Repository interface {
	// Save stores s as the latest snapshot.
	Save(ctx context.Context, s *Snapshot) error

	// Latest returns the most recently saved snapshot, or ErrSnapshotNotFound.
	Latest(ctx context.Context) (*Snapshot, error)
}

// InMemoryRepository keeps only the latest snapshot. Snapshots are copied
// on the way in and on the way out.
type InMemoryRepository struct {
	current atomic.Pointer[Snapshot]
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save stores a copy of s.
func (r *InMemoryRepository) Save(_ context.Context, s *Snapshot) error {
	r.current.Store(s.Clone())
	return nil
}

// Latest returns a copy of the latest snapshot.
func (r *InMemoryRepository) Latest(_ context.Context) (*Snapshot, error) {
	s := r.current.Load()
	if s == nil {
		return nil, ErrSnapshotNotFound
	}
	return s.Clone(), nil
}
