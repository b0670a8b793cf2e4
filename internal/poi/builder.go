package poi

import (
	"fmt"

	"github.com/onnwee/poigraph/internal/geo"
)

// BuildEntities classifies and deduplicates raw records.
//
// Records without a usable point or centroid never become entities, and a
// point or centroid missing either component is not usable. Of the remaining
// records, the first one for an identity key wins and later ones are dropped.
// Output order follows first occurrence in records. Degree is always zero here.
func BuildEntities(records []RawRecord) []Entity {
	seen := make(map[string]struct{}, len(records))
	entities := make([]Entity, 0, len(records))

	for _, rec := range records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			continue
		}

		coord, ok := ResolveCoordinate(rec)
		if !ok {
			continue
		}
		seen[key] = struct{}{}

		entities = append(entities, Entity{
			ID:    key,
			Name:  ResolveName(rec),
			Class: Classify(rec.Tags),
			Lat:   coord.Lat,
			Lon:   coord.Lon,
		})
	}

	return entities
}

// ResolveCoordinate prefers the direct point and falls back to the centroid.
// Non-finite or out of range coordinates count as absent.
func ResolveCoordinate(rec RawRecord) (geo.Point, bool) {
	if rec.Point != nil && rec.Point.Valid() {
		return *rec.Point, true
	}
	if rec.Centroid != nil && rec.Centroid.Valid() {
		return *rec.Centroid, true
	}
	return geo.Point{}, false
}

// ResolveName returns the primary name, then the English name, then a
// placeholder built from the source id.
func ResolveName(rec RawRecord) string {
	if name := rec.Tags[TagName]; name != "" {
		return name
	}
	if name := rec.Tags[TagNameEn]; name != "" {
		return name
	}
	return fmt.Sprintf("Unnamed #%d", rec.ID)
}
