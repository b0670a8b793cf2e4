package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/poigraph/internal/geo"
	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/poi"
)

var origin = geo.Point{Lat: 40.7550, Lon: -73.9840}

func pointAt(bearing, meters float64) *geo.Point {
	p := geo.Destination(origin, bearing, meters, geo.MeanEarthRadiusMeters)
	return &p
}

// sampleRecords yields a hotel with one subway and one museum in range, a
// second hotel near the museum only, and a far-away theatre.
func sampleRecords() []poi.RawRecord {
	o := origin
	return []poi.RawRecord{
		{Kind: poi.KindNode, ID: 1, Point: &o, Tags: map[string]string{"tourism": "hotel", "name": "Hotel One"}},
		{Kind: poi.KindNode, ID: 2, Point: pointAt(90, 100), Tags: map[string]string{"railway": "station", "station": "subway", "name": "Times Sq"}},
		{Kind: poi.KindWay, ID: 3, Centroid: pointAt(0, 200), Tags: map[string]string{"tourism": "museum", "name": "Museum"}},
		{Kind: poi.KindNode, ID: 4, Point: pointAt(0, 500), Tags: map[string]string{"tourism": "hotel", "name:en": "Hotel Four"}},
		{Kind: poi.KindNode, ID: 5, Point: pointAt(180, 5000), Tags: map[string]string{"amenity": "theatre"}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededRepo(t *testing.T) (*graph.InMemoryRepository, *graph.Snapshot) {
	t.Helper()
	repo := graph.NewInMemoryRepository()
	snap := graph.Derive(sampleRecords(), graph.DefaultConfig())
	if err := snap.Validate(); err != nil {
		t.Fatalf("fixture snapshot invalid: %v", err)
	}
	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return repo, snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func serve(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
