// Package poi turns raw geocoded records into classified, deduplicated
// point-of-interest entities.
//
// Taxonomy (documentation only, entities store the leaf):
//
//	Commercial → Hospitality → Hotel
//	Infrastructure → Transit → Subway
//	Culture → Attraction (museums, theatres, anything else requested upstream)
package poi

import (
	"fmt"

	"github.com/onnwee/poigraph/internal/geo"
)

// Class is a taxonomy leaf.
type Class string

// Taxonomy leaves. The set is closed.
const (
	ClassHotel      Class = "Hotel"
	ClassSubway     Class = "Subway"
	ClassAttraction Class = "Attraction"
)

// Classes returns every taxonomy leaf in a stable order.
func Classes() []Class {
	return []Class{ClassHotel, ClassSubway, ClassAttraction}
}

// Valid reports whether c is one of the taxonomy leaves.
func (c Class) Valid() bool {
	switch c {
	case ClassHotel, ClassSubway, ClassAttraction:
		return true
	}
	return false
}

// Source record kinds. Nodes are point features; ways and relations are
// areal features that usually only carry a centroid.
const (
	KindNode     = "node"
	KindWay      = "way"
	KindRelation = "relation"
)

// RawRecord is one geocoded record as delivered by the ingestion side.
type RawRecord struct {
	Kind     string            `json:"kind"`
	ID       int64             `json:"id"`
	Point    *geo.Point        `json:"point,omitempty"`
	Centroid *geo.Point        `json:"centroid,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Key returns the identity key shared by duplicate deliveries of the same
// upstream feature.
func (r RawRecord) Key() string {
	return EntityID(r.Kind, r.ID)
}

// EntityID formats the stable entity identifier for a source kind and id.
func EntityID(kind string, id int64) string {
	return fmt.Sprintf("%s-%d", kind, id)
}

// Entity is a classified point of interest.
type Entity struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Class  Class   `json:"class"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Degree int     `json:"degree"` // Incident edge count, owned by centrality
}

// Point returns the entity coordinate.
func (e Entity) Point() geo.Point {
	return geo.Point{Lat: e.Lat, Lon: e.Lon}
}
