package geo

import (
	"github.com/golang/geo/s2"
)

// minIndexLevel is the coarsest cell level worth bucketing at. Coarser
// search radii gain nothing over a full scan.
const minIndexLevel = 2

// CellIndex buckets points into S2 cells sized so that every point within
// the search radius of a query point lies in the query point's cell or one
// of its neighbours. Candidates still need an exact distance check.
type CellIndex struct {
	level int
	cells map[s2.CellID][]int
}

// NewCellIndex builds an index over points for neighbourhood queries of
// radiusMeters on a sphere of radius earthRadiusMeters. It returns nil when
// the radius is too large for cell bucketing to prune anything.
func NewCellIndex(points []Point, radiusMeters, earthRadiusMeters float64) *CellIndex {
	if radiusMeters <= 0 || earthRadiusMeters <= 0 {
		return nil
	}

	// One level coarser than the tightest fit keeps cell width at least
	// twice the search radius.
	level := s2.MinWidthMetric.MaxLevel(radiusMeters/earthRadiusMeters) - 1
	if level < minIndexLevel {
		return nil
	}

	idx := &CellIndex{
		level: level,
		cells: make(map[s2.CellID][]int, len(points)),
	}
	for i, p := range points {
		cell := idx.cellOf(p)
		idx.cells[cell] = append(idx.cells[cell], i)
	}
	return idx
}

// Level returns the S2 cell level used for bucketing.
func (idx *CellIndex) Level() int {
	return idx.level
}

// Candidates returns the indices (into the slice given to NewCellIndex) of
// every point that may lie within the search radius of p, in ascending order
// of insertion per cell. Each index appears at most once.
func (idx *CellIndex) Candidates(p Point) []int {
	home := idx.cellOf(p)
	cells := append([]s2.CellID{home}, home.AllNeighbors(idx.level)...)

	seen := make(map[s2.CellID]struct{}, len(cells))
	var out []int
	for _, c := range cells {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, idx.cells[c]...)
	}
	return out
}

func (idx *CellIndex) cellOf(p Point) s2.CellID {
	return s2.CellIDFromLatLng(p.latLng()).Parent(idx.level)
}
