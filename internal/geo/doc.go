// Package geo provides spherical distance, destination and spatial bucketing
// helpers over WGS84 coordinates, plus geohash encoding for display.
//
// All distances are great-circle distances on a sphere whose radius is passed
// in by the caller; nothing in this package hardwires an Earth radius.
package geo
