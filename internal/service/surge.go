package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"chovha/internal/pricing"
	"chovha/internal/redis"
	"chovha/internal/repository"
)

// open requests sampled when measuring demand around a pickup.
const surgeDemandSample = 100

// SurgeService prices demand around a pickup point.
type SurgeService struct {
	locationStore redis.LocationStoreInterface
	rideRepo      repository.RideRepository
	config        pricing.SurgeConfig
	log           logrus.FieldLogger
}

// NewSurgeService creates a new SurgeService.
func NewSurgeService(
	locationStore redis.LocationStoreInterface,
	rideRepo repository.RideRepository,
	log logrus.FieldLogger,
) *SurgeService {
	return &SurgeService{
		locationStore: locationStore,
		rideRepo:      rideRepo,
		config:        pricing.DefaultSurgeConfig(),
		log:           log,
	}
}

// Quote is the demand level and fare multiplier at a point.
type Quote struct {
	Level      pricing.DemandLevel
	Multiplier float64
}

// GetQuote measures supply and demand within the search radius. Lookup
// failures degrade to no surge.
func (s *SurgeService) GetQuote(ctx context.Context, lat, lng float64) Quote {
	supply, ok := s.countDriversInArea(ctx, lat, lng)
	if !ok {
		return Quote{Level: pricing.DemandLow, Multiplier: 1.0}
	}
	demand := s.countOpenRequestsInArea(ctx, lat, lng)

	level := pricing.DemandLevelFor(supply, demand, s.config)
	return Quote{Level: level, Multiplier: pricing.SurgeMultiplier(level)}
}

func (s *SurgeService) countDriversInArea(ctx context.Context, lat, lng float64) (int, bool) {
	drivers, err := s.locationStore.FindNearbyDrivers(ctx, lat, lng, pricing.DefaultSearchRadiusKm)
	if err != nil {
		s.log.WithError(err).Warn("surge supply lookup failed")
		return 0, false
	}
	return len(drivers), true
}

func (s *SurgeService) countOpenRequestsInArea(ctx context.Context, lat, lng float64) int {
	rides, err := s.rideRepo.ListRequested(ctx, surgeDemandSample)
	if err != nil {
		s.log.WithError(err).Warn("surge demand lookup failed")
		return 0
	}

	count := 0
	for _, ride := range rides {
		if pricing.Haversine(lat, lng, ride.Pickup.Latitude, ride.Pickup.Longitude) <= pricing.DefaultSearchRadiusKm {
			count++
		}
	}
	return count
}
