package graph

import "github.com/onnwee/poigraph/internal/poi"

// Degrees counts incident edges per entity id. Both endpoints of an edge
// are counted.
func Degrees(edges []Edge) map[string]int {
	counts := make(map[string]int, len(edges))
	for _, e := range edges {
		counts[e.Source]++
		counts[e.Target]++
	}
	return counts
}

// ApplyDegrees returns a copy of entities with Degree set from edges.
// Entities without incident edges get 0. The input slice is not modified.
func ApplyDegrees(entities []poi.Entity, edges []Edge) []poi.Entity {
	counts := Degrees(edges)
	out := make([]poi.Entity, len(entities))
	for i, e := range entities {
		e.Degree = counts[e.ID]
		out[i] = e
	}
	return out
}
