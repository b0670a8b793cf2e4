package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/poigraph/internal/poi"
)

var midtownBox = BBox{South: 40.75, West: -73.99, North: 40.76, East: -73.97}

const fixture = `{
  "version": 0.6,
  "elements": [
    {"type": "node", "id": 1, "lat": 40.7550, "lon": -73.9840, "tags": {"tourism": "hotel", "name": "Hotel One"}},
    {"type": "node", "id": 2, "lat": 40.7551, "lon": -73.9839, "tags": {"railway": "station", "station": "subway"}},
    {"type": "way", "id": 3, "center": {"lat": 40.7560, "lon": -73.9830}, "tags": {"tourism": "museum", "name:en": "Museum"}},
    {"type": "area", "id": 4}
  ]
}`

func TestClient_Fetch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotQuery = r.PostForm.Get("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fixture))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, BBox: midtownBox, Timeout: 5 * time.Second}, nil)
	records, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !strings.Contains(gotQuery, `node["tourism"="hotel"](40.75,-73.99,40.76,-73.97);`) {
		t.Errorf("query missing hotel selector:\n%s", gotQuery)
	}
	if !strings.Contains(gotQuery, "out center;") {
		t.Errorf("query missing out center:\n%s", gotQuery)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Point == nil || records[0].Point.Lat != 40.7550 {
		t.Errorf("expected node point, got %+v", records[0])
	}
	if records[2].Point != nil || records[2].Centroid == nil || records[2].Centroid.Lon != -73.9830 {
		t.Errorf("expected way centroid only, got %+v", records[2])
	}
	if records[2].Kind != poi.KindWay || records[2].ID != 3 {
		t.Errorf("unexpected identity %s/%d", records[2].Kind, records[2].ID)
	}
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusGatewayTimeout, "busy", ErrUpstreamStatus},
		{"rate limited", http.StatusTooManyRequests, "slow down", ErrUpstreamStatus},
		{"malformed json", http.StatusOK, `{"elements": [`, ErrDecode},
		{
			name:    "runtime error remark",
			status:  http.StatusOK,
			body:    `{"elements": [{"type": "node", "id": 1, "lat": 1, "lon": 1}], "remark": "runtime error: Query timed out"}`,
			wantErr: ErrIncompleteResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{Endpoint: server.URL, BBox: midtownBox}, nil)
			records, err := client.Fetch(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if records != nil {
				t.Errorf("expected no records on failure, got %d", len(records))
			}
		})
	}
}

func TestClient_FetchInvalidBBox(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://127.0.0.1:0", BBox: BBox{South: 1, North: 0, West: 0, East: 1}}, nil)
	if _, err := client.Fetch(context.Background()); !errors.Is(err, ErrInvalidBBox) {
		t.Errorf("expected ErrInvalidBBox, got %v", err)
	}
}

func TestClient_FetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(Config{Endpoint: server.URL, BBox: midtownBox}, nil)
	if _, err := client.Fetch(ctx); err == nil {
		t.Error("expected error for cancelled fetch")
	}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(midtownBox, 10*time.Second)

	for _, want := range []string{
		"[out:json][timeout:10];",
		`node["railway"="station"]["station"="subway"](40.75,-73.99,40.76,-73.97);`,
		`way["tourism"="museum"](40.75,-73.99,40.76,-73.97);`,
		`node["amenity"="theatre"](40.75,-73.99,40.76,-73.97);`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	if strings.Contains(q, `way["railway"="station"]`) {
		t.Error("subway stations should only be queried as nodes")
	}
}

func TestBBox_Validate(t *testing.T) {
	tests := []struct {
		name    string
		box     BBox
		wantErr bool
	}{
		{"valid", midtownBox, false},
		{"zero box", BBox{}, true},
		{"inverted latitude", BBox{South: 2, West: 0, North: 1, East: 1}, true},
		{"out of range", BBox{South: -91, West: 0, North: 1, East: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.box.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_StatusURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"", "https://overpass-api.de/api/status"},
		{"https://overpass.example.org/api/interpreter/", "https://overpass.example.org/api/status"},
		{"https://overpass.example.org/query", ""},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			c := NewClient(Config{Endpoint: tt.endpoint}, nil)
			if got := c.StatusURL(); got != tt.want {
				t.Errorf("StatusURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecords_HalfCenterDropped(t *testing.T) {
	input := `[
		{"type":"way","id":9,"center":{"lat":40.7}},
		{"type":"way","id":10,"center":{"lon":-73.9}},
		{"type":"node","id":11,"lat":40.7}
	]`

	var elements []Element
	if err := json.Unmarshal([]byte(input), &elements); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	records := Records(elements)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Point != nil || rec.Centroid != nil {
			t.Errorf("%s-%d: expected no coordinate, got point=%v centroid=%v", rec.Kind, rec.ID, rec.Point, rec.Centroid)
		}
	}
	if got := poi.BuildEntities(records); len(got) != 0 {
		t.Errorf("expected no entities, got %+v", got)
	}
}
