package geo

import (
	"math/rand"
	"testing"
)

func TestNewCellIndex_RejectsUnusableRadius(t *testing.T) {
	points := []Point{{Lat: 1, Lon: 1}}

	if idx := NewCellIndex(points, 0, MeanEarthRadiusMeters); idx != nil {
		t.Error("expected nil index for zero radius")
	}
	if idx := NewCellIndex(points, 300, 0); idx != nil {
		t.Error("expected nil index for zero earth radius")
	}
	if idx := NewCellIndex(points, 5_000_000, MeanEarthRadiusMeters); idx != nil {
		t.Error("expected nil index for continent-sized radius")
	}
}

// Every point within the radius must show up as a candidate.
func TestCellIndex_CandidatesCoverRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	center := Point{Lat: 40.7550, Lon: -73.9840}

	points := make([]Point, 0, 600)
	for i := 0; i < 600; i++ {
		points = append(points, Destination(center, rng.Float64()*360, rng.Float64()*3000, MeanEarthRadiusMeters))
	}

	for _, radius := range []float64{300, 500} {
		idx := NewCellIndex(points, radius, MeanEarthRadiusMeters)
		if idx == nil {
			t.Fatalf("expected index for radius %.0f", radius)
		}

		for qi := 0; qi < 100; qi++ {
			q := points[rng.Intn(len(points))]

			candidates := make(map[int]bool)
			for _, c := range idx.Candidates(q) {
				if candidates[c] {
					t.Fatalf("candidate %d returned twice", c)
				}
				candidates[c] = true
			}

			for i, p := range points {
				if Distance(q, p, MeanEarthRadiusMeters) <= radius && !candidates[i] {
					t.Fatalf("radius %.0f: point %d within range but not a candidate (level %d)", radius, i, idx.Level())
				}
			}
		}
	}
}
