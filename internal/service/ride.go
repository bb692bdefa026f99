package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/events"
	"chovha/internal/metrics"
	"chovha/internal/pricing"
	"chovha/internal/redis"
	"chovha/internal/repository"
	"chovha/internal/socket"
)

const rideHistoryLimit = 50

// RideService handles ride requests and the ride lifecycle.
type RideService struct {
	rideRepo      repository.RideRepository
	userRepo      repository.UserRepository
	locationStore redis.LocationStoreInterface
	surgeService  *SurgeService
	notifier      *NotificationService
	emitter       socket.Emitter
	publisher     events.Publisher
	metrics       *metrics.Metrics
	log           logrus.FieldLogger
}

// RideServiceDeps groups the collaborators of RideService. Optional fields may be nil.
type RideServiceDeps struct {
	RideRepo      repository.RideRepository
	UserRepo      repository.UserRepository
	LocationStore redis.LocationStoreInterface
	SurgeService  *SurgeService
	Notifier      *NotificationService
	Emitter       socket.Emitter
	Publisher     events.Publisher
	Metrics       *metrics.Metrics
	Log           logrus.FieldLogger
}

// NewRideService creates a new RideService.
func NewRideService(deps RideServiceDeps) *RideService {
	return &RideService{
		rideRepo:      deps.RideRepo,
		userRepo:      deps.UserRepo,
		locationStore: deps.LocationStore,
		surgeService:  deps.SurgeService,
		notifier:      deps.Notifier,
		emitter:       deps.Emitter,
		publisher:     deps.Publisher,
		metrics:       deps.Metrics,
		log:           deps.Log,
	}
}

// RequestRideRequest contains the parameters for requesting a ride.
type RequestRideRequest struct {
	PassengerID string
	Pickup      domain.Location
	Destination domain.Location
	RideType    domain.RideType
}

// RequestRideResult is a stored ride and the drivers near its pickup.
type RequestRideResult struct {
	Ride          *domain.Ride
	NearbyDrivers []redis.DriverLocation
}

// RideDetails is a ride with the profiles of its participants.
type RideDetails struct {
	Ride      *domain.Ride
	Passenger *domain.User
	Driver    *domain.User
}

// RideEvent is the broker payload for ride lifecycle events.
type RideEvent struct {
	RideID      string  `json:"ride_id"`
	PassengerID string  `json:"passenger_id"`
	DriverID    string  `json:"driver_id,omitempty"`
	Status      string  `json:"status"`
	FareAmount  float64 `json:"fare_amount"`
}

type locationEvent struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func locationView(l domain.Location) locationEvent {
	return locationEvent{Address: l.Address, Latitude: l.Latitude, Longitude: l.Longitude}
}

func rideEvent(r *domain.Ride) RideEvent {
	return RideEvent{
		RideID:      r.ID,
		PassengerID: r.PassengerID,
		DriverID:    r.DriverID,
		Status:      string(r.Status),
		FareAmount:  r.FareAmount,
	}
}

// RequestRide prices and stores a new ride, then announces it to online drivers.
func (s *RideService) RequestRide(ctx context.Context, req RequestRideRequest) (*RequestRideResult, error) {
	if req.PassengerID == "" {
		return nil, ErrNotAuthorized
	}
	if !validLocation(req.Pickup) {
		return nil, ErrInvalidPickupLocation
	}
	if !validLocation(req.Destination) {
		return nil, ErrInvalidDestinationLocation
	}

	rideType := req.RideType
	if rideType == "" {
		rideType = domain.RideTypeStandard
	}
	if !rideType.IsValid() {
		return nil, ErrInvalidRideType
	}

	distance := pricing.Round2(pricing.Haversine(
		req.Pickup.Latitude, req.Pickup.Longitude,
		req.Destination.Latitude, req.Destination.Longitude,
	))
	duration := pricing.EstimateDuration(distance, pricing.DefaultTrafficFactor)

	surge := 1.0
	if s.surgeService != nil {
		surge = s.surgeService.GetQuote(ctx, req.Pickup.Latitude, req.Pickup.Longitude).Multiplier
	}
	fare := pricing.Round2(pricing.CalculateFare(distance, duration, rideType) * surge)

	ride := &domain.Ride{
		ID:                uuid.New().String(),
		PassengerID:       req.PassengerID,
		Pickup:            req.Pickup,
		Destination:       req.Destination,
		RideType:          rideType,
		FareAmount:        fare,
		DistanceKm:        distance,
		EstimatedDuration: duration,
		SurgeMultiplier:   surge,
		Status:            domain.RideStatusRequested,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	nearby := s.findNearbyDrivers(ctx, ride.Pickup)

	if s.emitter != nil {
		s.emitter.EmitToRoom(socket.OnlineDriversRoom, socket.EventNewRideRequest, socket.NewRideRequestEvent{
			RideID:      ride.ID,
			Pickup:      locationView(ride.Pickup),
			Destination: locationView(ride.Destination),
			Timestamp:   socket.Timestamp(ride.CreatedAt),
		})
	}
	publish(ctx, s.publisher, s.log, events.RideRequested, rideEvent(ride))
	s.metrics.RideEvent("requested")

	s.log.WithFields(logrus.Fields{
		"ride_id":        ride.ID,
		"passenger_id":   ride.PassengerID,
		"fare":           ride.FareAmount,
		"surge":          ride.SurgeMultiplier,
		"nearby_drivers": len(nearby),
	}).Info("ride requested")

	return &RequestRideResult{Ride: ride, NearbyDrivers: nearby}, nil
}

// findNearbyDrivers is advisory; an index failure yields an empty list.
func (s *RideService) findNearbyDrivers(ctx context.Context, at domain.Location) []redis.DriverLocation {
	if s.locationStore == nil {
		return []redis.DriverLocation{}
	}
	drivers, err := s.locationStore.FindNearbyDrivers(ctx, at.Latitude, at.Longitude, pricing.DefaultSearchRadiusKm)
	if err != nil {
		s.log.WithError(err).Warn("nearby driver lookup failed")
		return []redis.DriverLocation{}
	}
	return drivers
}

// GetRide returns a ride the user participates in.
func (s *RideService) GetRide(ctx context.Context, rideID, userID string) (*RideDetails, error) {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsParticipant(userID) {
		return nil, ErrNotAuthorizedToView
	}

	details, err := attachUsers(ctx, s.userRepo, []*domain.Ride{ride})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// UpdateStatusRequest contains the parameters for changing a ride's status.
type UpdateStatusRequest struct {
	RideID string
	UserID string
	Status domain.RideStatus
}

// UpdateStatus overwrites the ride status. Any participant may set any known
// status; the value is asserted by the client.
func (s *RideService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Ride, error) {
	if !req.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	ride, err := s.getRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsParticipant(req.UserID) {
		return nil, ErrNotAuthorizedToUpdate
	}

	updated, err := s.rideRepo.UpdateStatus(ctx, ride.ID, req.Status, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.EmitToRoom(socket.RideRoom(updated.ID), socket.EventRideStatusChanged, socket.RideStatusChangedEvent{
			RideID:    updated.ID,
			Status:    string(updated.Status),
			Timestamp: socket.Timestamp(time.Now()),
		})
	}
	// A ride moved back to requested has lost its driver; they still hear about it.
	notice := *updated
	if notice.DriverID == "" {
		notice.DriverID = ride.DriverID
	}
	s.notifier.NotifyStatusChanged(ctx, &notice, req.UserID)
	publish(ctx, s.publisher, s.log, events.RideStatusChanged, rideEvent(updated))
	s.metrics.RideEvent(string(updated.Status))

	s.log.WithFields(logrus.Fields{
		"ride_id":    updated.ID,
		"status":     updated.Status,
		"changed_by": req.UserID,
	}).Info("ride status updated")

	return updated, nil
}

// History returns the latest rides of userID. Users may only read their own.
func (s *RideService) History(ctx context.Context, requesterID, userID string) ([]*RideDetails, error) {
	if requesterID == "" || requesterID != userID {
		return nil, ErrNotAuthorized
	}

	rides, err := s.rideRepo.ListByUser(ctx, userID, rideHistoryLimit)
	if err != nil {
		return nil, err
	}
	return attachUsers(ctx, s.userRepo, rides)
}

func (s *RideService) getRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrRideNotFound
	}
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

// attachUsers loads passenger and driver profiles with one batch lookup.
func attachUsers(ctx context.Context, users repository.UserRepository, rides []*domain.Ride) ([]*RideDetails, error) {
	details := make([]*RideDetails, 0, len(rides))
	if len(rides) == 0 {
		return details, nil
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(rides)*2)
	for _, r := range rides {
		for _, id := range []string{r.PassengerID, r.DriverID} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	byID, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, r := range rides {
		details = append(details, &RideDetails{
			Ride:      r,
			Passenger: byID[r.PassengerID],
			Driver:    byID[r.DriverID],
		})
	}
	return details, nil
}

func validLocation(l domain.Location) bool {
	return pricing.ValidLatitude(l.Latitude) && pricing.ValidLongitude(l.Longitude)
}
