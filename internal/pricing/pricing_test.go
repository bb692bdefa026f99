package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chovha/internal/domain"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		delta                  float64
	}{
		{name: "same point", lat1: 27.7172, lng1: 85.3240, lat2: 27.7172, lng2: 85.3240, want: 0, delta: 1e-9},
		{name: "one degree of longitude at the equator", lat1: 0, lng1: 0, lat2: 0, lng2: 1, want: 111.195, delta: 0.01},
		{name: "one degree of latitude", lat1: 10, lng1: 20, lat2: 11, lng2: 20, want: 111.195, delta: 0.01},
		{name: "antipodes", lat1: 0, lng1: 0, lat2: 0, lng2: 180, want: 20015.09, delta: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2), tt.delta)
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(27.7172, 85.3240, 27.6710, 85.4298)
	b := Haversine(27.6710, 85.4298, 27.7172, 85.3240)
	assert.InDelta(t, a, b, 1e-9)
}

func TestCalculateFare(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		duration int
		rideType domain.RideType
		want     float64
	}{
		{name: "standard", distance: 10, duration: 24, rideType: domain.RideTypeStandard, want: 37.20},
		{name: "premium", distance: 10, duration: 24, rideType: domain.RideTypePremium, want: 56.30},
		{name: "zero distance charges base fare", distance: 0, duration: 0, rideType: domain.RideTypeStandard, want: 5.00},
		{name: "unknown type prices as standard", distance: 0, duration: 0, rideType: "luxury", want: 5.00},
		{name: "rounded to cents", distance: 1.333, duration: 3, rideType: domain.RideTypeStandard, want: 9.23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateFare(tt.distance, tt.duration, tt.rideType))
		})
	}
}

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, 24, EstimateDuration(10, 1.2))
	assert.Equal(t, 20, EstimateDuration(10, 1.0))
	assert.Equal(t, 24, EstimateDuration(10, 0), "non-positive factor uses the default")
	assert.Equal(t, 0, EstimateDuration(0, 1.2))
}

func TestSurgeMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, SurgeMultiplier(DemandLow))
	assert.Equal(t, 1.2, SurgeMultiplier(DemandMedium))
	assert.Equal(t, 1.5, SurgeMultiplier(DemandHigh))
	assert.Equal(t, 2.0, SurgeMultiplier(DemandVeryHigh))
	assert.Equal(t, 1.0, SurgeMultiplier("unknown"))
}

func TestDemandLevelFor(t *testing.T) {
	cfg := DefaultSurgeConfig()

	tests := []struct {
		name           string
		supply, demand int
		want           DemandLevel
	}{
		{name: "no supply no demand", supply: 0, demand: 0, want: DemandLow},
		{name: "no supply with demand", supply: 0, demand: 1, want: DemandVeryHigh},
		{name: "balanced", supply: 10, demand: 10, want: DemandLow},
		{name: "medium", supply: 10, demand: 12, want: DemandMedium},
		{name: "high", supply: 10, demand: 15, want: DemandHigh},
		{name: "very high", supply: 10, demand: 20, want: DemandVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DemandLevelFor(tt.supply, tt.demand, cfg))
		})
	}
}

func TestCommissionRate(t *testing.T) {
	assert.Equal(t, 0.15, CommissionRate(domain.RideTypeStandard))
	assert.Equal(t, 0.20, CommissionRate(domain.RideTypePremium))
	assert.Equal(t, 0.15, CommissionRate(""))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidLatitude(-90))
	assert.True(t, ValidLatitude(90))
	assert.False(t, ValidLatitude(90.0001))
	assert.True(t, ValidLongitude(-180))
	assert.False(t, ValidLongitude(180.5))
	assert.True(t, ValidHeading(0))
	assert.True(t, ValidHeading(360))
	assert.False(t, ValidHeading(-1))
}
