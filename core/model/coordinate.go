package model

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// DecodeCoordinate extracts a coordinate from a raw document field. A nil
// result means the location is unknown, which is a valid state for both
// requests and providers.
func DecodeCoordinate(v any) *Coordinate {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	lat, okLat := toFloat(m["lat"])
	lng, okLng := toFloat(m["lng"])
	if !okLat || !okLng {
		return nil
	}
	return &Coordinate{Lat: lat, Lng: lng}
}
