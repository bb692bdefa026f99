package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/events"
	"chovha/internal/pricing"
	"chovha/internal/redis"
	"chovha/internal/repository"
)

// DriverService handles driver operations.
type DriverService struct {
	locationRepo  repository.DriverLocationRepository
	locationStore redis.LocationStoreInterface
	publisher     events.Publisher
	log           logrus.FieldLogger
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	locationRepo repository.DriverLocationRepository,
	locationStore redis.LocationStoreInterface,
	publisher events.Publisher,
	log logrus.FieldLogger,
) *DriverService {
	return &DriverService{
		locationRepo:  locationRepo,
		locationStore: locationStore,
		publisher:     publisher,
		log:           log,
	}
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	DriverID  string
	Latitude  float64
	Longitude float64
	Heading   float64
	IsOnline  bool
}

// LocationEvent is the broker payload for a driver position report.
type LocationEvent struct {
	DriverID  string  `json:"driver_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading"`
	IsOnline  bool    `json:"is_online"`
}

// UpdateLocation stores the driver's position and keeps the geo index of
// online drivers in step with it.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) (*domain.DriverLocation, error) {
	if req.DriverID == "" {
		return nil, ErrNotAuthorized
	}
	if !pricing.ValidLatitude(req.Latitude) || !pricing.ValidLongitude(req.Longitude) || !pricing.ValidHeading(req.Heading) {
		return nil, ErrInvalidLocation
	}

	loc := &domain.DriverLocation{
		DriverID:    req.DriverID,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Heading:     req.Heading,
		IsOnline:    req.IsOnline,
		LastUpdated: time.Now().UTC(),
	}

	if err := s.locationRepo.Upsert(ctx, loc); err != nil {
		return nil, err
	}

	// The table is the source of truth; the index only serves proximity lookups.
	var err error
	if loc.IsOnline {
		err = s.locationStore.UpdateLocation(ctx, loc.DriverID, loc.Latitude, loc.Longitude)
	} else {
		err = s.locationStore.RemoveLocation(ctx, loc.DriverID)
	}
	if err != nil {
		s.log.WithError(err).WithField("driver_id", loc.DriverID).Warn("geo index update failed")
	}

	publish(ctx, s.publisher, s.log, events.DriverLocationUpdated, LocationEvent{
		DriverID:  loc.DriverID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Heading:   loc.Heading,
		IsOnline:  loc.IsOnline,
	})

	return loc, nil
}
