package graph

import (
	"errors"
	"testing"

	"github.com/onnwee/poigraph/internal/geo"
	"github.com/onnwee/poigraph/internal/poi"
)

func scenarioRecords() []poi.RawRecord {
	p := func(lat, lon float64) *geo.Point { return &geo.Point{Lat: lat, Lon: lon} }
	return []poi.RawRecord{
		{Kind: poi.KindNode, ID: 1, Point: p(40.7550, -73.9840), Tags: map[string]string{"tourism": "hotel", "name": "H1"}},
		{Kind: poi.KindNode, ID: 2, Point: p(40.7551, -73.9839), Tags: map[string]string{"railway": "station", "station": "subway", "name": "S1"}},
		{Kind: poi.KindWay, ID: 3, Centroid: p(40.7560, -73.9830), Tags: map[string]string{"tourism": "museum", "name": "A1"}},
		{Kind: poi.KindNode, ID: 1, Point: p(0, 0), Tags: map[string]string{"tourism": "hotel", "name": "dup"}},
		{Kind: poi.KindNode, ID: 4, Tags: map[string]string{"tourism": "hotel"}},
	}
}

func TestDerive(t *testing.T) {
	s := Derive(scenarioRecords(), DefaultConfig())

	if s.ID == "" {
		t.Error("expected snapshot id")
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected creation time")
	}
	if len(s.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(s.Entities))
	}
	if len(s.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(s.Edges))
	}

	h1, ok := s.Entity("node-1")
	if !ok {
		t.Fatal("expected node-1")
	}
	if h1.Degree != 2 {
		t.Errorf("expected H1 degree 2, got %d", h1.Degree)
	}
	if h1.Name != "H1" {
		t.Errorf("expected first occurrence name, got %q", h1.Name)
	}

	if err := s.Validate(); err != nil {
		t.Errorf("derived snapshot failed validation: %v", err)
	}
}

func TestDerive_FreshIDs(t *testing.T) {
	a := Derive(nil, DefaultConfig())
	b := Derive(nil, DefaultConfig())
	if a.ID == b.ID {
		t.Error("expected distinct snapshot ids")
	}
	if len(a.Entities) != 0 || len(a.Edges) != 0 {
		t.Error("expected empty snapshot")
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := Derive(scenarioRecords(), DefaultConfig())
	c := s.Clone()

	c.Entities[0].ID = "mutated"
	c.Entities[0].Degree = 99
	c.Edges[0].Source = "mutated"

	if s.Entities[0].ID == "mutated" || s.Entities[0].Degree == 99 {
		t.Error("clone shares entity storage")
	}
	if s.Edges[0].Source == "mutated" {
		t.Error("clone shares edge storage")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("original corrupted: %v", err)
	}
}

func TestSnapshot_CloneNil(t *testing.T) {
	var s *Snapshot
	if s.Clone() != nil {
		t.Error("expected nil clone of nil snapshot")
	}
}

func TestSnapshot_Validate(t *testing.T) {
	base := func() *Snapshot {
		return Derive(scenarioRecords(), DefaultConfig())
	}

	tests := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr error
	}{
		{"valid", func(*Snapshot) {}, nil},
		{
			name:    "dangling edge",
			mutate:  func(s *Snapshot) { s.Edges[0].Target = "node-404" },
			wantErr: ErrDanglingEdge,
		},
		{
			name: "forbidden class pair",
			mutate: func(s *Snapshot) {
				s.Edges = append(s.Edges, Edge{Source: "node-2", Target: "way-3", Label: LabelWalkableTo})
				s.Entities = ApplyDegrees(s.Entities, s.Edges)
			},
			wantErr: ErrForbiddenEdge,
		},
		{
			name: "duplicate edge",
			mutate: func(s *Snapshot) {
				s.Edges = append(s.Edges, s.Edges[0])
				s.Entities = ApplyDegrees(s.Entities, s.Edges)
			},
			wantErr: ErrDuplicateEdge,
		},
		{
			name:    "duplicate entity",
			mutate:  func(s *Snapshot) { s.Entities = append(s.Entities, s.Entities[0]) },
			wantErr: ErrDuplicateEntity,
		},
		{
			name:    "stale degree",
			mutate:  func(s *Snapshot) { s.Entities[0].Degree++ },
			wantErr: ErrDegreeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSnapshot_StatsAndIncidentEdges(t *testing.T) {
	s := Derive(scenarioRecords(), DefaultConfig())

	st := s.Stats()
	if st.Entities != 3 || st.Edges != 2 {
		t.Errorf("unexpected totals %+v", st)
	}
	if st.ByClass[poi.ClassHotel] != 1 || st.ByClass[poi.ClassSubway] != 1 || st.ByClass[poi.ClassAttraction] != 1 {
		t.Errorf("unexpected class counts %+v", st.ByClass)
	}
	if st.ByLabel[LabelTransitAccess] != 1 || st.ByLabel[LabelWalkableTo] != 1 {
		t.Errorf("unexpected label counts %+v", st.ByLabel)
	}

	if got := len(s.IncidentEdges("node-1")); got != 2 {
		t.Errorf("expected 2 incident edges for hotel, got %d", got)
	}
	if got := len(s.IncidentEdges("node-2")); got != 1 {
		t.Errorf("expected 1 incident edge for subway, got %d", got)
	}
}
