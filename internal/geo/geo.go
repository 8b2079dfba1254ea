package geo

import "math"

const (
	// earthRadiusMeters is the WGS84 mean sphere radius used for haversine.
	earthRadiusMeters = 6371000.0

	// walkingSpeedMetersPerMinute corresponds to 5 km/h.
	walkingSpeedMetersPerMinute = 83.33
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// WalkMinutes converts a distance in meters to rounded walking minutes at
// 5 km/h. All walking-time derivation in the system goes through here.
func WalkMinutes(meters float64) int {
	return int(math.Round(meters / walkingSpeedMetersPerMinute))
}

// WalkMinutesBetween is a convenience wrapper combining DistanceMeters and
// WalkMinutes.
func WalkMinutesBetween(a, b Coordinate) int {
	return WalkMinutes(DistanceMeters(a, b))
}
