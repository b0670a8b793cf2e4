package poi

// Tag keys and values the classifier and the upstream query agree on.
const (
	TagTourism = "tourism"
	TagRailway = "railway"
	TagStation = "station"
	TagAmenity = "amenity"
	TagName    = "name"
	TagNameEn  = "name:en"

	ValueHotel   = "hotel"
	ValueStation = "station"
	ValueSubway  = "subway"
	ValueMuseum  = "museum"
	ValueTheatre = "theatre"
)

// Classify maps a tag set to exactly one taxonomy leaf. Rules are checked in
// priority order and the first match wins; anything unmatched, including a
// nil or empty tag set, is an Attraction.
func Classify(tags map[string]string) Class {
	switch {
	case tags[TagTourism] == ValueHotel:
		return ClassHotel
	case tags[TagRailway] == ValueStation && tags[TagStation] == ValueSubway:
		return ClassSubway
	default:
		return ClassAttraction
	}
}
