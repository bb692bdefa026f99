package service

import (
	"context"
	"errors"
	"sort"
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

const (
	nearbyRidesSample = 20
	driverLockTTL     = 10 * time.Second
)

// DispatchService matches drivers with open ride requests.
type DispatchService struct {
	rideRepo     repository.RideRepository
	userRepo     repository.UserRepository
	locationRepo repository.DriverLocationRepository
	lockStore    redis.LockStoreInterface
	notifier     *NotificationService
	emitter      socket.Emitter
	publisher    events.Publisher
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
}

// DispatchServiceDeps groups the collaborators of DispatchService. Optional fields may be nil.
type DispatchServiceDeps struct {
	RideRepo     repository.RideRepository
	UserRepo     repository.UserRepository
	LocationRepo repository.DriverLocationRepository
	LockStore    redis.LockStoreInterface
	Notifier     *NotificationService
	Emitter      socket.Emitter
	Publisher    events.Publisher
	Metrics      *metrics.Metrics
	Log          logrus.FieldLogger
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(deps DispatchServiceDeps) *DispatchService {
	return &DispatchService{
		rideRepo:     deps.RideRepo,
		userRepo:     deps.UserRepo,
		locationRepo: deps.LocationRepo,
		lockStore:    deps.LockStore,
		notifier:     deps.Notifier,
		emitter:      deps.Emitter,
		publisher:    deps.Publisher,
		metrics:      deps.Metrics,
		log:          deps.Log,
	}
}

// NearbyRidesRequest contains the parameters for searching open rides.
type NearbyRidesRequest struct {
	DriverID  string
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// NearbyRide is an open ride and its distance from the searching driver.
type NearbyRide struct {
	Ride       *domain.Ride
	DistanceKm float64
}

// NearbyRidesResult is the outcome of a nearby search. Offline is set when
// the driver is not accepting rides, in which case Rides is empty.
type NearbyRidesResult struct {
	Rides   []NearbyRide
	Offline bool
}

// NearbyRides lists requested rides within the radius, nearest first.
func (s *DispatchService) NearbyRides(ctx context.Context, req NearbyRidesRequest) (*NearbyRidesResult, error) {
	if !pricing.ValidLatitude(req.Latitude) || !pricing.ValidLongitude(req.Longitude) {
		return nil, ErrInvalidLocation
	}
	if req.RadiusKm <= 0 {
		return nil, ErrInvalidRadius
	}

	loc, err := s.locationRepo.GetByDriverID(ctx, req.DriverID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if loc == nil || !loc.IsOnline {
		return &NearbyRidesResult{Rides: []NearbyRide{}, Offline: true}, nil
	}

	rides, err := s.rideRepo.ListRequested(ctx, nearbyRidesSample)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyRide, 0, len(rides))
	for _, ride := range rides {
		d := pricing.Haversine(req.Latitude, req.Longitude, ride.Pickup.Latitude, ride.Pickup.Longitude)
		if d <= req.RadiusKm {
			nearby = append(nearby, NearbyRide{Ride: ride, DistanceKm: pricing.Round2(d)})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return &NearbyRidesResult{Rides: nearby}, nil
}

// AcceptRide assigns a requested ride to the driver. Of several drivers
// racing for one ride exactly one wins; the rest get ErrRideUnavailable.
func (s *DispatchService) AcceptRide(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	if _, err := uuid.Parse(rideID); err != nil {
		return nil, ErrInvalidRideID
	}

	if s.lockStore != nil {
		acquired, err := s.lockStore.AcquireDriverLock(ctx, driverID, driverLockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrDriverBusy
		}
		defer func() {
			if err := s.lockStore.ReleaseDriverLock(context.WithoutCancel(ctx), driverID); err != nil {
				s.log.WithError(err).WithField("driver_id", driverID).Warn("release driver lock failed")
			}
		}()
	}

	busy, err := s.rideRepo.HasActiveForDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrDriverHasActiveRide
	}

	ride, err := s.rideRepo.Assign(ctx, rideID, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RideEvent("accept_conflict")
			return nil, ErrRideUnavailable
		}
		return nil, err
	}

	var driver *domain.User
	if s.userRepo != nil {
		if u, err := s.userRepo.GetByID(ctx, driverID); err == nil {
			driver = u
		}
	}
	s.notifier.NotifyDriverAssigned(ctx, ride, driver)

	if s.emitter != nil {
		s.emitter.EmitToRoom(socket.PassengerRoom(ride.PassengerID), socket.EventDriverAssigned, socket.DriverAssignedEvent{
			RideID:    ride.ID,
			DriverID:  driverID,
			Timestamp: socket.Timestamp(time.Now()),
		})
	}
	publish(ctx, s.publisher, s.log, events.RideAccepted, rideEvent(ride))
	s.metrics.RideEvent("accepted")

	s.log.WithFields(logrus.Fields{
		"ride_id":   ride.ID,
		"driver_id": driverID,
	}).Info("ride accepted")

	return ride, nil
}
