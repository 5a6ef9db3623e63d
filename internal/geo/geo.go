// Package geo provides the route geometry engine for PandalPath: great-circle
// distances, festival walking-time estimates, and proximity-ordered itinerary
// construction. Everything in this package is pure and deterministic.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// walkingSpeedKmh is the assumed walking pace. Deliberately slower than a
// normal adult pace to account for festival crowds.
const walkingSpeedKmh = 3.0

// Coordinate is a WGS84 point in decimal degrees. Ranges are not validated;
// callers must supply valid points.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance returns the haversine great-circle distance between a and b in
// kilometers. The atan2 form is used rather than acos so that degenerate
// inputs (identical points, antipodes) stay NaN-free.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// WalkingMinutes estimates how long it takes to walk the given distance
// through festival crowds, rounded to the nearest whole minute.
func WalkingMinutes(km float64) int {
	return int(math.Round(km / walkingSpeedKmh * 60))
}
