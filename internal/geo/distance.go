package geo

import (
	"encoding/json"
	"math"

	"github.com/golang/geo/s2"
)

// MeanEarthRadiusMeters is the mean Earth radius used by default configuration.
const MeanEarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are finite and inside WGS84 bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// UnmarshalJSON decodes a point. A missing or null component decodes as NaN
// so that Valid rejects a half coordinate instead of reading it as 0.
func (p *Point) UnmarshalJSON(data []byte) error {
	var wire struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.Lat, p.Lon = math.NaN(), math.NaN()
	if wire.Lat != nil {
		p.Lat = *wire.Lat
	}
	if wire.Lon != nil {
		p.Lon = *wire.Lon
	}
	return nil
}

func (p Point) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// Distance returns the Haversine great-circle distance between a and b in
// meters, on a sphere of the given radius.
func Distance(a, b Point, radiusMeters float64) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * radiusMeters
}

// Destination returns the point reached by travelling distanceMeters from p
// along the initial bearing (degrees clockwise from north).
func Destination(p Point, bearing, distanceMeters, radiusMeters float64) Point {
	ll := p.latLng()
	brng := bearing * math.Pi / 180
	angular := distanceMeters / radiusMeters

	lat1 := ll.Lat.Radians()
	lon1 := ll.Lng.Radians()

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))

	lon := math.Mod(lon2*180/math.Pi+540, 360) - 180
	return Point{Lat: lat2 * 180 / math.Pi, Lon: lon}
}
