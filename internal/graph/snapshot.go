package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/poigraph/internal/poi"
)

// Snapshot integrity errors.
var (
	ErrDanglingEdge     = errors.New("edge references unknown entity")
	ErrForbiddenEdge    = errors.New("edge connects classes outside the ontology")
	ErrDuplicateEdge    = errors.New("duplicate edge")
	ErrDuplicateEntity  = errors.New("duplicate entity id")
	ErrDegreeMismatch   = errors.New("entity degree does not match incident edges")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Snapshot is one derivation run: the entity set with degrees populated and
// the edge set. Snapshots are handed out as deep copies; holders may modify
// their copy freely.
type Snapshot struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Entities  []poi.Entity `json:"entities"`
	Edges     []Edge       `json:"edges"`
}

// Stats summarizes a snapshot.
type Stats struct {
	Entities int               `json:"entities"`
	Edges    int               `json:"edges"`
	ByClass  map[poi.Class]int `json:"by_class"`
	ByLabel  map[Label]int     `json:"by_label"`
}

// Build runs classification, entity building, edge generation and
// centrality over records. It has no side effects.
func Build(records []poi.RawRecord, cfg Config) ([]poi.Entity, []Edge) {
	entities := poi.BuildEntities(records)
	edges := GenerateEdges(entities, cfg)
	return ApplyDegrees(entities, edges), edges
}

// Derive builds a new snapshot from records with a fresh id.
func Derive(records []poi.RawRecord, cfg Config) *Snapshot {
	entities, edges := Build(records, cfg)
	return NewSnapshot(entities, edges)
}

// NewSnapshot wraps an entity and edge set in a snapshot with a new id.
func NewSnapshot(entities []poi.Entity, edges []Edge) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Entities:  entities,
		Edges:     edges,
	}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Entities = append([]poi.Entity(nil), s.Entities...)
	out.Edges = append([]Edge(nil), s.Edges...)
	return &out
}

// Entity looks up an entity by id.
func (s *Snapshot) Entity(id string) (poi.Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return poi.Entity{}, false
}

// IncidentEdges returns every edge with id as either endpoint.
func (s *Snapshot) IncidentEdges(id string) []Edge {
	var out []Edge
	for _, e := range s.Edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Stats counts entities per class and edges per label.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		Entities: len(s.Entities),
		Edges:    len(s.Edges),
		ByClass:  make(map[poi.Class]int, 3),
		ByLabel:  make(map[Label]int, 2),
	}
	for _, e := range s.Entities {
		st.ByClass[e.Class]++
	}
	for _, e := range s.Edges {
		st.ByLabel[e.Label]++
	}
	return st
}

// Validate checks the structural invariants of a snapshot: unique entity
// ids, no dangling or duplicate edges, only ontology class pairs, and
// degrees consistent with the edge set. A failure indicates a defect in
// whatever produced the snapshot.
func (s *Snapshot) Validate() error {
	byID := make(map[string]poi.Entity, len(s.Entities))
	for _, e := range s.Entities {
		if _, dup := byID[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
		}
		byID[e.ID] = e
	}

	seen := make(map[edgeKey]struct{}, len(s.Edges))
	for _, e := range s.Edges {
		src, ok := byID[e.Source]
		if !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.Source)
		}
		dst, ok := byID[e.Target]
		if !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.Target)
		}
		if !AllowedPair(e.Label, src.Class, dst.Class) {
			return fmt.Errorf("%w: %s %s→%s", ErrForbiddenEdge, e.Label, src.Class, dst.Class)
		}
		if _, dup := seen[e.key()]; dup {
			return fmt.Errorf("%w: %s→%s %s", ErrDuplicateEdge, e.Source, e.Target, e.Label)
		}
		seen[e.key()] = struct{}{}
	}

	counts := Degrees(s.Edges)
	for _, e := range s.Entities {
		if e.Degree != counts[e.ID] {
			return fmt.Errorf("%w: %s has %d, want %d", ErrDegreeMismatch, e.ID, e.Degree, counts[e.ID])
		}
	}
	return nil
}
