package poi

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want Class
	}{
		{"nil tags", nil, ClassAttraction},
		{"empty tags", map[string]string{}, ClassAttraction},
		{"hotel", map[string]string{"tourism": "hotel"}, ClassHotel},
		{"subway station", map[string]string{"railway": "station", "station": "subway"}, ClassSubway},
		{"rail station without subway", map[string]string{"railway": "station"}, ClassAttraction},
		{"subway tag without station", map[string]string{"station": "subway"}, ClassAttraction},
		{"light rail station", map[string]string{"railway": "station", "station": "light_rail"}, ClassAttraction},
		{"museum", map[string]string{"tourism": "museum"}, ClassAttraction},
		{"theatre", map[string]string{"amenity": "theatre"}, ClassAttraction},
		{
			name: "hotel wins over subway",
			tags: map[string]string{"tourism": "hotel", "railway": "station", "station": "subway"},
			want: ClassHotel,
		},
		{"hostel is not a hotel", map[string]string{"tourism": "hostel"}, ClassAttraction},
		{"value case matters", map[string]string{"tourism": "Hotel"}, ClassAttraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.tags); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.tags, got, tt.want)
			}
		})
	}
}

func TestClassify_Total(t *testing.T) {
	keys := []string{"tourism", "railway", "station", "amenity", "name", ""}
	values := []string{"hotel", "station", "subway", "museum", "theatre", "", "x"}

	for _, k1 := range keys {
		for _, v1 := range values {
			for _, k2 := range keys {
				for _, v2 := range values {
					tags := map[string]string{k1: v1, k2: v2}
					if c := Classify(tags); !c.Valid() {
						t.Fatalf("Classify(%v) returned invalid class %q", tags, c)
					}
				}
			}
		}
	}
}

func TestClass_Valid(t *testing.T) {
	for _, c := range Classes() {
		if !c.Valid() {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if Class("Restaurant").Valid() {
		t.Error("expected unknown class to be invalid")
	}
}
