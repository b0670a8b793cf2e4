// Package graph derives the typed proximity graph over classified points of
// interest: edge generation, degree centrality, snapshots and their storage.
package graph

import (
	"errors"

	"github.com/onnwee/poigraph/internal/geo"
)

// Default proximity thresholds in meters.
const (
	DefaultTransitAccessMeters = 300.0
	DefaultWalkableMeters      = 500.0
)

// Configuration errors.
var (
	ErrInvalidThreshold   = errors.New("distance thresholds must be positive")
	ErrInvalidEarthRadius = errors.New("earth radius must be positive")
)

// Config holds the derivation parameters. It is passed explicitly to every
// call; there is no package-level configuration state.
type Config struct {
	// TransitAccessMeters is the inclusive Hotel→Subway distance bound.
	TransitAccessMeters float64 `json:"transit_access_meters"`

	// WalkableMeters is the inclusive Hotel→Attraction distance bound.
	WalkableMeters float64 `json:"walkable_meters"`

	// EarthRadiusMeters is the sphere radius used by the Haversine distance.
	EarthRadiusMeters float64 `json:"earth_radius_meters"`

	// SpatialIndex enables S2 cell bucketing of candidate pairs. The edge
	// set is identical either way.
	SpatialIndex bool `json:"spatial_index"`
}

// DefaultConfig returns the reference thresholds with brute-force pairing.
func DefaultConfig() Config {
	return Config{
		TransitAccessMeters: DefaultTransitAccessMeters,
		WalkableMeters:      DefaultWalkableMeters,
		EarthRadiusMeters:   geo.MeanEarthRadiusMeters,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.TransitAccessMeters <= 0 || c.WalkableMeters <= 0 {
		return ErrInvalidThreshold
	}
	if c.EarthRadiusMeters <= 0 {
		return ErrInvalidEarthRadius
	}
	return nil
}
