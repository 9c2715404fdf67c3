// Package geo provides the great-circle distance and service-radius checks
// used by mechanic matching.
package geo

import (
	"math"

	"github.com/skiptow/dispatch/core/model"
)

const (
	earthRadiusMeters = 6371000
	metersPerMile     = 1609.34
)

// Distance returns the great-circle distance between two coordinates in
// meters using the haversine formula.
func Distance(a, b model.Coordinate) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Floating-point error can push h a hair past 1 for antipodal points,
	// which would make the square root of 1-h NaN.
	if h > 1 {
		h = 1
	} else if h < 0 {
		h = 0
	}
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// IsWithinRadius reports whether a distance in meters falls inside a service
// radius given in miles. The boundary is inclusive.
func IsWithinRadius(distanceMeters, radiusMiles float64) bool {
	return distanceMeters <= radiusMiles*metersPerMile
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
