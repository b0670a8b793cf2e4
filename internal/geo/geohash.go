package geo

import "strings"

// DefaultPrecision is the geohash length attached to entities for display.
// Seven characters is roughly a 150 m cell, close to the walkable threshold.
const DefaultPrecision = 7

const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Geohash encodes p as a geohash of the given length. A precision below 1
// falls back to DefaultPrecision.
func Geohash(p Point, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}

	lat := [2]float64{-90.0, 90.0}
	lon := [2]float64{-180.0, 180.0}

	var sb strings.Builder
	sb.Grow(precision)

	var ch, bit uint
	lonTurn := true
	for sb.Len() < precision {
		rng, v := &lat, p.Lat
		if lonTurn {
			rng, v = &lon, p.Lon
		}
		mid := (rng[0] + rng[1]) / 2
		ch <<= 1
		if v > mid {
			ch |= 1
			rng[0] = mid
		} else {
			rng[1] = mid
		}
		lonTurn = !lonTurn

		bit++
		if bit == 5 {
			sb.WriteByte(base32[ch])
			ch, bit = 0, 0
		}
	}
	return sb.String()
}

// GeohashPrefix truncates a geohash to precision characters after checking it
// only contains geohash alphabet characters. Invalid input yields "".
func GeohashPrefix(hash string, precision int) string {
	if hash == "" || precision < 1 {
		return ""
	}
	lower := strings.ToLower(hash)
	for _, c := range lower {
		if !strings.ContainsRune(base32, c) {
			return ""
		}
	}
	if len(lower) <= precision {
		return lower
	}
	return lower[:precision]
}
