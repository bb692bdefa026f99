// Package pricing holds the distance, duration, fare and surge arithmetic
// shared by ride requests, nearby-ride search and payouts.
package pricing

import "math"

const earthRadiusKm = 6371.0

// DefaultSearchRadiusKm is the radius used for driver and ride discovery.
const DefaultSearchRadiusKm = 5.0

// Haversine returns the great-circle distance in kilometres between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is within [-180, 180].
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// ValidHeading reports whether heading is a compass bearing in [0, 360].
func ValidHeading(heading float64) bool {
	return heading >= 0 && heading <= 360
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
