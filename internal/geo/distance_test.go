package geo

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
	}{
		{
			name:     "same point",
			a:        Point{Lat: 40.7550, Lon: -73.9840},
			b:        Point{Lat: 40.7550, Lon: -73.9840},
			expected: 0,
		},
		{
			name:     "one degree of latitude",
			a:        Point{Lat: 0, Lon: 0},
			b:        Point{Lat: 1, Lon: 0},
			expected: MeanEarthRadiusMeters * math.Pi / 180,
		},
		{
			name:     "one degree of longitude on the equator",
			a:        Point{Lat: 0, Lon: 10},
			b:        Point{Lat: 0, Lon: 11},
			expected: MeanEarthRadiusMeters * math.Pi / 180,
		},
		{
			name:     "antipodal points",
			a:        Point{Lat: 0, Lon: 0},
			b:        Point{Lat: 0, Lon: 180},
			expected: MeanEarthRadiusMeters * math.Pi,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b, MeanEarthRadiusMeters)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("Distance() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a := Point{Lat: rng.Float64()*180 - 90, Lon: rng.Float64()*360 - 180}
		b := Point{Lat: rng.Float64()*180 - 90, Lon: rng.Float64()*360 - 180}

		ab := Distance(a, b, MeanEarthRadiusMeters)
		ba := Distance(b, a, MeanEarthRadiusMeters)
		if math.Abs(ab-ba) > 1e-6*math.Max(ab, 1) {
			t.Fatalf("distance not symmetric for %+v, %+v: %f vs %f", a, b, ab, ba)
		}
	}
}

func TestDistance_ScalesWithRadius(t *testing.T) {
	a := Point{Lat: 40.7550, Lon: -73.9840}
	b := Point{Lat: 40.7560, Lon: -73.9830}

	unit := Distance(a, b, 1)
	earth := Distance(a, b, MeanEarthRadiusMeters)
	if math.Abs(unit*MeanEarthRadiusMeters-earth) > 1e-6 {
		t.Errorf("expected distance to scale linearly with radius: %f vs %f", unit*MeanEarthRadiusMeters, earth)
	}
}

func TestDestination_RoundTrip(t *testing.T) {
	origin := Point{Lat: 40.7550, Lon: -73.9840}

	for _, bearing := range []float64{0, 45, 90, 135, 180, 270, 359} {
		for _, meters := range []float64{14, 300, 450, 500, 2500} {
			dest := Destination(origin, bearing, meters, MeanEarthRadiusMeters)
			got := Distance(origin, dest, MeanEarthRadiusMeters)
			if math.Abs(got-meters) > 1e-6 {
				t.Errorf("bearing %.0f, %.0fm: round trip distance %f", bearing, meters, got)
			}
		}
	}
}

func TestPoint_Valid(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		want  bool
	}{
		{"origin", Point{0, 0}, true},
		{"bounds", Point{90, -180}, true},
		{"latitude out of range", Point{90.5, 0}, false},
		{"longitude out of range", Point{0, 181}, false},
		{"nan latitude", Point{math.NaN(), 0}, false},
		{"infinite longitude", Point{0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.point.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPoint_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{"both components", `{"lat":40.755,"lon":-73.984}`, true},
		{"zero is a real coordinate", `{"lat":0,"lon":0}`, true},
		{"lat only", `{"lat":40.755}`, false},
		{"lon only", `{"lon":-73.984}`, false},
		{"null lon", `{"lat":40.755,"lon":null}`, false},
		{"empty object", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point
			if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := p.Valid(); got != tt.wantValid {
				t.Errorf("Valid() = %v, want %v (decoded %+v)", got, tt.wantValid, p)
			}
		})
	}
}
