package graph

import (
	"github.com/onnwee/poigraph/internal/geo"
	"github.com/onnwee/poigraph/internal/poi"
)

func hotel(id string, p geo.Point) poi.Entity {
	return poi.Entity{ID: id, Name: id, Class: poi.ClassHotel, Lat: p.Lat, Lon: p.Lon}
}

func subway(id string, p geo.Point) poi.Entity {
	return poi.Entity{ID: id, Name: id, Class: poi.ClassSubway, Lat: p.Lat, Lon: p.Lon}
}

func attraction(id string, p geo.Point) poi.Entity {
	return poi.Entity{ID: id, Name: id, Class: poi.ClassAttraction, Lat: p.Lat, Lon: p.Lon}
}

var midtown = geo.Point{Lat: 40.7550, Lon: -73.9840}

func offset(p geo.Point, bearing, meters float64) geo.Point {
	return geo.Destination(p, bearing, meters, geo.MeanEarthRadiusMeters)
}

func edgeSet(edges []Edge) map[Edge]bool {
	set := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		set[e] = true
	}
	return set
}
