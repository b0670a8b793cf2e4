package graph

import (
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/onnwee/poigraph/internal/poi"
)

// Component is a connected group of entities.
type Component struct {
	EntityIDs []string          `json:"entity_ids"`
	ByClass   map[poi.Class]int `json:"by_class"`
}

// Size returns the number of entities in the component.
func (c Component) Size() int {
	return len(c.EntityIDs)
}

// Components returns the connected components of the snapshot graph with at
// least minSize members, largest first. Ties order by the smallest member id.
// Entity ids inside a component are sorted.
func Components(s *Snapshot, minSize int) []Component {
	g := simple.NewUndirectedGraph()
	index := make(map[string]int64, len(s.Entities))
	for i, e := range s.Entities {
		index[e.ID] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, e := range s.Edges {
		u, uok := index[e.Source]
		v, vok := index[e.Target]
		if !uok || !vok || u == v {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	}

	var out []Component
	for _, nodes := range topo.ConnectedComponents(g) {
		if len(nodes) < minSize {
			continue
		}
		out = append(out, component(s.Entities, nodes))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Size() != out[j].Size() {
			return out[i].Size() > out[j].Size()
		}
		return out[i].EntityIDs[0] < out[j].EntityIDs[0]
	})
	return out
}

func component(entities []poi.Entity, nodes []gonum.Node) Component {
	c := Component{
		EntityIDs: make([]string, 0, len(nodes)),
		ByClass:   make(map[poi.Class]int, 3),
	}
	for _, n := range nodes {
		e := entities[n.ID()]
		c.EntityIDs = append(c.EntityIDs, e.ID)
		c.ByClass[e.Class]++
	}
	sort.Strings(c.EntityIDs)
	return c
}
