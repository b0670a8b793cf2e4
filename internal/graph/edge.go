package graph

import (
	"sort"

	"github.com/onnwee/poigraph/internal/geo"
	"github.com/onnwee/poigraph/internal/poi"
)

// Label names a relationship rule.
type Label string

// Relationship labels. The set is closed.
const (
	LabelTransitAccess Label = "TRANSIT_ACCESS"
	LabelWalkableTo    Label = "WALKABLE_TO"
)

// Labels returns every relationship label in a stable order.
func Labels() []Label {
	return []Label{LabelTransitAccess, LabelWalkableTo}
}

// Edge is a labeled relationship. Source is always the Hotel. It is stored
// directed but counts toward the degree of both endpoints.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  Label  `json:"label"`
}

type edgeKey struct {
	source, target string
	label          Label
}

func (e Edge) key() edgeKey {
	return edgeKey{e.Source, e.Target, e.Label}
}

// rule is one class-pair proximity rule.
type rule struct {
	from, to  poi.Class
	label     Label
	maxMeters func(Config) float64
}

var rules = []rule{
	{poi.ClassHotel, poi.ClassSubway, LabelTransitAccess, func(c Config) float64 { return c.TransitAccessMeters }},
	{poi.ClassHotel, poi.ClassAttraction, LabelWalkableTo, func(c Config) float64 { return c.WalkableMeters }},
}

// AllowedPair reports whether an edge with the given label may connect the
// given classes.
func AllowedPair(label Label, from, to poi.Class) bool {
	for _, r := range rules {
		if r.label == label && r.from == from && r.to == to {
			return true
		}
	}
	return false
}

// GenerateEdges evaluates every proximity rule over the entity set. A pair is
// linked when its Haversine distance is at most the rule threshold. Each
// (source, target, label) triple appears at most once.
func GenerateEdges(entities []poi.Entity, cfg Config) []Edge {
	byClass := make(map[poi.Class][]poi.Entity, 3)
	for _, e := range entities {
		byClass[e.Class] = append(byClass[e.Class], e)
	}

	seen := make(map[edgeKey]struct{})
	edges := make([]Edge, 0)
	emit := func(e Edge) {
		if _, dup := seen[e.key()]; dup {
			return
		}
		seen[e.key()] = struct{}{}
		edges = append(edges, e)
	}

	for _, r := range rules {
		link(byClass[r.from], byClass[r.to], r.maxMeters(cfg), r.label, cfg, emit)
	}

	return edges
}

func link(from, to []poi.Entity, maxMeters float64, label Label, cfg Config, emit func(Edge)) {
	if len(from) == 0 || len(to) == 0 {
		return
	}

	within := func(a, b poi.Entity) bool {
		return geo.Distance(a.Point(), b.Point(), cfg.EarthRadiusMeters) <= maxMeters
	}

	if cfg.SpatialIndex {
		points := make([]geo.Point, len(to))
		for i, e := range to {
			points[i] = e.Point()
		}
		if idx := geo.NewCellIndex(points, maxMeters, cfg.EarthRadiusMeters); idx != nil {
			for _, a := range from {
				candidates := idx.Candidates(a.Point())
				sort.Ints(candidates)
				for _, i := range candidates {
					if within(a, to[i]) {
						emit(Edge{Source: a.ID, Target: to[i].ID, Label: label})
					}
				}
			}
			return
		}
	}

	for _, a := range from {
		for _, b := range to {
			if within(a, b) {
				emit(Edge{Source: a.ID, Target: b.ID, Label: label})
			}
		}
	}
}
