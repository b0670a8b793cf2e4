package graph

import (
	"reflect"
	"testing"

	"github.com/onnwee/poigraph/internal/poi"
)

func TestDegrees(t *testing.T) {
	edges := []Edge{
		{Source: "H1", Target: "S1", Label: LabelTransitAccess},
		{Source: "H1", Target: "A1", Label: LabelWalkableTo},
		{Source: "H2", Target: "A1", Label: LabelWalkableTo},
	}

	want := map[string]int{"H1": 2, "H2": 1, "S1": 1, "A1": 2}
	if got := Degrees(edges); !reflect.DeepEqual(got, want) {
		t.Errorf("Degrees() = %v, want %v", got, want)
	}
}

func TestApplyDegrees(t *testing.T) {
	entities := []poi.Entity{
		hotel("H1", midtown),
		subway("S1", midtown),
		attraction("A9", midtown),
	}
	entities[2].Degree = 7 // stale value must be overwritten
	edges := []Edge{{Source: "H1", Target: "S1", Label: LabelTransitAccess}}

	got := ApplyDegrees(entities, edges)

	want := map[string]int{"H1": 1, "S1": 1, "A9": 0}
	for _, e := range got {
		if e.Degree != want[e.ID] {
			t.Errorf("%s: degree %d, want %d", e.ID, e.Degree, want[e.ID])
		}
	}
	if entities[0].Degree != 0 {
		t.Error("input slice was modified")
	}
}

func TestApplyDegrees_Idempotent(t *testing.T) {
	entities, edges := Build(scenarioRecords(), DefaultConfig())

	once := ApplyDegrees(entities, edges)
	twice := ApplyDegrees(once, edges)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed degrees:\n%+v\n%+v", once, twice)
	}
}

func TestApplyDegrees_ConsistentWithEdges(t *testing.T) {
	entities, edges := Build(scenarioRecords(), DefaultConfig())

	for _, e := range entities {
		count := 0
		for _, edge := range edges {
			if edge.Source == e.ID || edge.Target == e.ID {
				count++
			}
		}
		if e.Degree != count {
			t.Errorf("%s: degree %d, incident edges %d", e.ID, e.Degree, count)
		}
	}
}
