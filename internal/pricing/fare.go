package pricing

import (
	"math"

	"chovha/internal/domain"
)

// DefaultTrafficFactor inflates free-flow travel time for typical traffic.
const DefaultTrafficFactor = 1.2

// averageSpeedKmh is the free-flow speed used for duration estimates.
const averageSpeedKmh = 30.0

// Rates is the tariff for one ride type.
type Rates struct {
	BaseFare  float64
	PerKm     float64
	PerMinute float64
}

var tariffs = map[domain.RideType]Rates{
	domain.RideTypeStandard: {BaseFare: 5.00, PerKm: 2.50, PerMinute: 0.30},
	domain.RideTypePremium:  {BaseFare: 8.00, PerKm: 3.75, PerMinute: 0.45},
}

var commissionRates = map[domain.RideType]float64{
	domain.RideTypeStandard: 0.15,
	domain.RideTypePremium:  0.20,
}

// RatesFor returns the tariff for rideType, falling back to standard.
func RatesFor(rideType domain.RideType) Rates {
	if r, ok := tariffs[rideType]; ok {
		return r
	}
	return tariffs[domain.RideTypeStandard]
}

// CalculateFare prices a ride from its distance and duration.
func CalculateFare(distanceKm float64, durationMin int, rideType domain.RideType) float64 {
	r := RatesFor(rideType)
	fare := r.BaseFare + distanceKm*r.PerKm + float64(durationMin)*r.PerMinute
	return Round2(fare)
}

// EstimateDuration returns the expected travel time in whole minutes.
// A non-positive trafficFactor uses DefaultTrafficFactor.
func EstimateDuration(distanceKm, trafficFactor float64) int {
	if trafficFactor <= 0 {
		trafficFactor = DefaultTrafficFactor
	}
	return int(math.Round(distanceKm / averageSpeedKmh * 60 * trafficFactor))
}

// CommissionRate is the platform's default cut for rideType.
func CommissionRate(rideType domain.RideType) float64 {
	if rate, ok := commissionRates[rideType]; ok {
		return rate
	}
	return commissionRates[domain.RideTypeStandard]
}
