package ranking

import (
	"fmt"
	"sort"

	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/poi"
)

// Counts holds the per-label incident edge counts of one entity.
type Counts struct {
	Transit int `json:"transit"` // t: TRANSIT_ACCESS edges
	Culture int `json:"culture"` // c: WALKABLE_TO edges
}

// Result is one ranked hotel.
type Result struct {
	Entity poi.Entity `json:"entity"`
	Score  float64    `json:"score"`
	Counts Counts     `json:"counts"`
}

// CountAccess tallies incident edges per entity id by label.
func CountAccess(edges []graph.Edge) map[string]Counts {
	counts := make(map[string]Counts)
	bump := func(id string, label graph.Label) {
		c := counts[id]
		switch label {
		case graph.LabelTransitAccess:
			c.Transit++
		case graph.LabelWalkableTo:
			c.Culture++
		}
		counts[id] = c
	}
	for _, e := range edges {
		bump(e.Source, e.Label)
		bump(e.Target, e.Label)
	}
	return counts
}

// Score applies a mode weighting to a hotel's counts.
func Score(c Counts, w ModeWeights) float64 {
	if w.RequireBoth && (c.Transit == 0 || c.Culture == 0) {
		return 0
	}
	return w.Transit*float64(c.Transit) + w.Culture*float64(c.Culture)
}

// Rank scores every hotel in entities under mode and returns those with a
// positive score, highest first, ties by ascending id, capped at w.Limit.
// A nil w uses DefaultWeights. Inputs are not modified.
func Rank(entities []poi.Entity, edges []graph.Edge, mode Mode, w *Weights) ([]Result, error) {
	if w == nil {
		w = DefaultWeights()
	}
	mw, ok := w.Modes[mode]
	if !ok || !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	counts := CountAccess(edges)
	results := make([]Result, 0)
	for _, e := range entities {
		if e.Class != poi.ClassHotel {
			continue
		}
		c := counts[e.ID]
		score := Score(c, mw)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Entity: e, Score: score, Counts: c})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entity.ID < results[j].Entity.ID
	})

	limit := w.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
