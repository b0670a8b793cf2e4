// Package overpass fetches raw point-of-interest records from an Overpass
// API endpoint. It performs a single request per fetch; there is no retry
// or rate limiting.
package overpass

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/onnwee/poigraph/internal/poi"
)

// ErrInvalidBBox is returned for an empty or inverted bounding box.
var ErrInvalidBBox = errors.New("invalid bounding box")

// BBox is a south/west/north/east bounding box in decimal degrees.
type BBox struct {
	South float64 `koanf:"south" json:"south"`
	West  float64 `koanf:"west" json:"west"`
	North float64 `koanf:"north" json:"north"`
	East  float64 `koanf:"east" json:"east"`
}

// Validate checks that the box has positive extent inside WGS84 bounds.
func (b BBox) Validate() error {
	if b.South < -90 || b.North > 90 || b.West < -180 || b.East > 180 {
		return fmt.Errorf("%w: out of range", ErrInvalidBBox)
	}
	if b.South >= b.North || b.West >= b.East {
		return fmt.Errorf("%w: south/west must be below north/east", ErrInvalidBBox)
	}
	return nil
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.South, b.West, b.North, b.East)
}

// selector is one tag filter of the upstream query. Hotels, museums and
// theatres are mapped both as nodes and as building outlines.
type selector struct {
	filter string
	areal  bool
}

var selectors = []selector{
	{fmt.Sprintf(`["%s"="%s"]`, poi.TagTourism, poi.ValueHotel), true},
	{fmt.Sprintf(`["%s"="%s"]["%s"="%s"]`, poi.TagRailway, poi.ValueStation, poi.TagStation, poi.ValueSubway), false},
	{fmt.Sprintf(`["%s"="%s"]`, poi.TagTourism, poi.ValueMuseum), true},
	{fmt.Sprintf(`["%s"="%s"]`, poi.TagAmenity, poi.ValueTheatre), true},
}

// BuildQuery renders the Overpass QL query for every classified feature type
// inside bbox. Areal features are returned with their centroid.
func BuildQuery(bbox BBox, timeout time.Duration) string {
	seconds := int(timeout.Seconds())
	if seconds < 1 {
		seconds = 25
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", seconds)
	for _, s := range selectors {
		fmt.Fprintf(&sb, "  node%s(%s);\n", s.filter, bbox)
		if s.areal {
			fmt.Fprintf(&sb, "  way%s(%s);\n", s.filter, bbox)
		}
	}
	sb.WriteString(");\nout center;\n")
	return sb.String()
}
