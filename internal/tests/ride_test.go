package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"chovha/internal/domain"
	"chovha/internal/events"
	"chovha/internal/pricing"
	"chovha/internal/redis"
	"chovha/internal/service"
	"chovha/internal/socket"
)

// ──────────────────────────────────────────────
// 2. RIDE REQUESTS AND LIFECYCLE
// ──────────────────────────────────────────────

var (
	thamel     = domain.Location{Address: "Thamel, Kathmandu", Latitude: 27.7154, Longitude: 85.3123}
	patan      = domain.Location{Address: "Patan Durbar Square", Latitude: 27.6727, Longitude: 85.3253}
	nearThamel = domain.Location{Address: "Lazimpat", Latitude: 27.7214, Longitude: 85.3190}
)

type rideFixture struct {
	rides         *MockRideRepository
	users         *MockUserRepository
	locations     *MockLocationStore
	notifications *MockNotificationRepository
	emitter       *MockEmitter
	publisher     *MockPublisher
	service       *service.RideService
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rides:         NewMockRideRepository(),
		users:         NewMockUserRepository(),
		locations:     NewMockLocationStore(),
		notifications: NewMockNotificationRepository(),
		emitter:       NewMockEmitter(),
		publisher:     NewMockPublisher(),
	}
	log := testLogger()
	notifier := service.NewNotificationService(f.notifications, f.users, f.emitter, log)
	f.service = service.NewRideService(service.RideServiceDeps{
		RideRepo:      f.rides,
		UserRepo:      f.users,
		LocationStore: f.locations,
		SurgeService:  service.NewSurgeService(f.locations, f.rides, log),
		Notifier:      notifier,
		Emitter:       f.emitter,
		Publisher:     f.publisher,
		Log:           log,
	})
	return f
}

func expectedFare(pickup, destination domain.Location, rideType domain.RideType, surge float64) float64 {
	distance := pricing.Round2(pricing.Haversine(pickup.Latitude, pickup.Longitude, destination.Latitude, destination.Longitude))
	duration := pricing.EstimateDuration(distance, pricing.DefaultTrafficFactor)
	return pricing.Round2(pricing.CalculateFare(distance, duration, rideType) * surge)
}

func TestRequestRide_PricesStoresAndAnnounces(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.locations.AddDriverLocation(redis.DriverLocation{DriverID: "driver-1", Lat: 27.716, Lng: 85.313, DistanceKm: 0.1})

	result, err := f.service.RequestRide(context.Background(), service.RequestRideRequest{
		PassengerID: "passenger-1",
		Pickup:      thamel,
		Destination: patan,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	ride := result.Ride
	if ride.Status != domain.RideStatusRequested {
		t.Errorf("expected status requested, got %s", ride.Status)
	}
	if ride.RideType != domain.RideTypeStandard {
		t.Errorf("expected default ride type standard, got %s", ride.RideType)
	}
	if ride.SurgeMultiplier != 1.0 {
		t.Errorf("expected no surge, got %.2f", ride.SurgeMultiplier)
	}
	if want := expectedFare(thamel, patan, domain.RideTypeStandard, 1.0); ride.FareAmount != want {
		t.Errorf("expected fare %.2f, got %.2f", want, ride.FareAmount)
	}
	if ride.EstimatedDuration < 1 {
		t.Errorf("expected a positive duration, got %d", ride.EstimatedDuration)
	}
	if len(result.NearbyDrivers) != 1 {
		t.Errorf("expected 1 nearby driver, got %d", len(result.NearbyDrivers))
	}

	stored, err := f.rides.GetByID(context.Background(), ride.ID)
	if err != nil || stored.PassengerID != "passenger-1" {
		t.Fatalf("expected ride to be stored, got %v, %v", stored, err)
	}

	announced := f.emitter.Find(socket.EventNewRideRequest)
	if len(announced) != 1 || announced[0].Room != socket.OnlineDriversRoom {
		t.Errorf("expected one new-ride-request to online drivers, got %+v", announced)
	}
	if n := f.publisher.Count(events.RideRequested); n != 1 {
		t.Errorf("expected 1 ride.requested event, got %d", n)
	}
}

func TestRequestRide_SurgeWhenDemandOutstripsSupply(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.locations.AddDriverLocation(redis.DriverLocation{DriverID: "driver-1", Lat: 27.716, Lng: 85.313})
	for i := 0; i < 3; i++ {
		f.rides.AddRide(&domain.Ride{
			ID:          uuid.New().String(),
			PassengerID: "other",
			Pickup:      nearThamel,
			Status:      domain.RideStatusRequested,
			CreatedAt:   time.Now(),
		})
	}

	result, err := f.service.RequestRide(context.Background(), service.RequestRideRequest{
		PassengerID: "passenger-1",
		Pickup:      thamel,
		Destination: patan,
		RideType:    domain.RideTypePremium,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.Ride.SurgeMultiplier != 2.0 {
		t.Errorf("expected very high surge 2.0, got %.2f", result.Ride.SurgeMultiplier)
	}
	if want := expectedFare(thamel, patan, domain.RideTypePremium, 2.0); result.Ride.FareAmount != want {
		t.Errorf("expected fare %.2f, got %.2f", want, result.Ride.FareAmount)
	}
}

func TestRequestRide_GeoIndexDown_StillSucceeds(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	f.locations.FindNearbyDriversError = errInjected

	result, err := f.service.RequestRide(context.Background(), service.RequestRideRequest{
		PassengerID: "passenger-1",
		Pickup:      thamel,
		Destination: patan,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result.NearbyDrivers) != 0 {
		t.Errorf("expected no nearby drivers, got %d", len(result.NearbyDrivers))
	}
	if result.Ride.SurgeMultiplier != 1.0 {
		t.Errorf("expected surge to degrade to 1.0, got %.2f", result.Ride.SurgeMultiplier)
	}
}

func TestRequestRide_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		req     service.RequestRideRequest
		wantErr error
	}{
		{
			name:    "pickup latitude out of range",
			req:     service.RequestRideRequest{PassengerID: "p", Pickup: domain.Location{Latitude: 91, Longitude: 85}, Destination: patan},
			wantErr: service.ErrInvalidPickupLocation,
		},
		{
			name:    "destination longitude out of range",
			req:     service.RequestRideRequest{PassengerID: "p", Pickup: thamel, Destination: domain.Location{Latitude: 27, Longitude: 181}},
			wantErr: service.ErrInvalidDestinationLocation,
		},
		{
			name:    "unknown ride type",
			req:     service.RequestRideRequest{PassengerID: "p", Pickup: thamel, Destination: patan, RideType: "luxury"},
			wantErr: service.ErrInvalidRideType,
		},
		{
			name:    "zero coordinates are valid",
			req:     service.RequestRideRequest{PassengerID: "p", Pickup: domain.Location{Address: "Null Island"}, Destination: patan},
			wantErr: nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newRideFixture()
			_, err := f.service.RequestRide(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil && f.rides.CreateCallCount != 0 {
				t.Error("expected no ride to be stored")
			}
		})
	}
}

func seedAssignedRide(f *rideFixture) *domain.Ride {
	f.users.AddUser(&domain.User{ID: "passenger-1", FirstName: "Asha", UserType: domain.UserTypePassenger})
	f.users.AddUser(&domain.User{ID: "driver-1", FirstName: "Bikash", UserType: domain.UserTypeDriver})
	ride := &domain.Ride{
		ID:          uuid.New().String(),
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Pickup:      thamel,
		Destination: patan,
		RideType:    domain.RideTypeStandard,
		Status:      domain.RideStatusAccepted,
		CreatedAt:   time.Now(),
	}
	f.rides.AddRide(ride)
	return ride
}

func TestGetRide_ParticipantsOnly(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	ride := seedAssignedRide(f)
	ctx := context.Background()

	details, err := f.service.GetRide(ctx, ride.ID, "passenger-1")
	if err != nil {
		t.Fatalf("expected passenger to read the ride, got %v", err)
	}
	if details.Passenger == nil || details.Passenger.FirstName != "Asha" {
		t.Errorf("expected passenger profile, got %+v", details.Passenger)
	}
	if details.Driver == nil || details.Driver.FirstName != "Bikash" {
		t.Errorf("expected driver profile, got %+v", details.Driver)
	}

	if _, err := f.service.GetRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Errorf("expected driver to read the ride, got %v", err)
	}
	if _, err := f.service.GetRide(ctx, ride.ID, "stranger"); !errors.Is(err, service.ErrNotAuthorizedToView) {
		t.Errorf("expected ErrNotAuthorizedToView, got %v", err)
	}
	if _, err := f.service.GetRide(ctx, uuid.New().String(), "passenger-1"); !errors.Is(err, service.ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
}

func TestUpdateStatus_BroadcastsAndNotifiesOtherParty(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	ride := seedAssignedRide(f)

	updated, err := f.service.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		RideID: ride.ID,
		UserID: "driver-1",
		Status: domain.RideStatusInProgress,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.Status != domain.RideStatusInProgress || updated.StartedAt.IsZero() {
		t.Errorf("expected in_progress with started_at, got %s %v", updated.Status, updated.StartedAt)
	}

	changed := f.emitter.Find(socket.EventRideStatusChanged)
	if len(changed) != 1 || changed[0].Room != socket.RideRoom(ride.ID) {
		t.Errorf("expected one ride-status-changed to the ride room, got %+v", changed)
	}
	if got := f.notifications.ForUser("passenger-1"); len(got) != 1 {
		t.Errorf("expected passenger to be notified once, got %d", len(got))
	}
	if got := f.notifications.ForUser("driver-1"); len(got) != 0 {
		t.Errorf("expected the acting driver not to be notified, got %d", len(got))
	}
	if pushed := f.emitter.Find(socket.EventNotification); len(pushed) != 1 || pushed[0].Room != socket.PassengerRoom("passenger-1") {
		t.Errorf("expected notification pushed to passenger room, got %+v", pushed)
	}
	if n := f.publisher.Count(events.RideStatusChanged); n != 1 {
		t.Errorf("expected 1 ride.status_changed event, got %d", n)
	}
}

func TestUpdateStatus_AnyKnownStatusIsAccepted(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	ride := seedAssignedRide(f)
	ctx := context.Background()

	for _, status := range []domain.RideStatus{domain.RideStatusCompleted, domain.RideStatusRequested} {
		updated, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{RideID: ride.ID, UserID: "passenger-1", Status: status})
		if err != nil {
			t.Fatalf("expected %s to be accepted, got %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("expected %s, got %s", status, updated.Status)
		}
	}
}

func TestUpdateStatus_BackToRequestedReleasesDriver(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	ride := seedAssignedRide(f)
	ctx := context.Background()

	updated, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{RideID: ride.ID, UserID: "passenger-1", Status: domain.RideStatusRequested})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.DriverID != "" {
		t.Errorf("expected driver to be released, got %q", updated.DriverID)
	}
	if got := f.notifications.ForUser("driver-1"); len(got) != 1 {
		t.Errorf("expected the released driver to be notified once, got %d", len(got))
	}

	if _, err := f.rides.Assign(ctx, ride.ID, "driver-2"); err != nil {
		t.Errorf("expected the ride to be assignable again, got %v", err)
	}
}

func TestUpdateStatus_Rejections(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	ride := seedAssignedRide(f)
	ctx := context.Background()

	if _, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{RideID: ride.ID, UserID: "passenger-1", Status: "teleported"}); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{RideID: ride.ID, UserID: "stranger", Status: domain.RideStatusCancelled}); !errors.Is(err, service.ErrNotAuthorizedToUpdate) {
		t.Errorf("expected ErrNotAuthorizedToUpdate, got %v", err)
	}
	if _, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{RideID: "missing", UserID: "passenger-1", Status: domain.RideStatusCancelled}); !errors.Is(err, service.ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
}

func TestHistory_OwnRidesNewestFirst(t *testing.T) {
	t.Parallel()
	f := newRideFixture()
	ctx := context.Background()
	now := time.Now()

	f.rides.AddRide(&domain.Ride{ID: "old", PassengerID: "user-1", Status: domain.RideStatusCompleted, CreatedAt: now.Add(-2 * time.Hour)})
	f.rides.AddRide(&domain.Ride{ID: "new", PassengerID: "other", DriverID: "user-1", Status: domain.RideStatusAccepted, CreatedAt: now})
	f.rides.AddRide(&domain.Ride{ID: "foreign", PassengerID: "other", Status: domain.RideStatusRequested, CreatedAt: now})

	history, err := f.service.History(ctx, "user-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 rides, got %d", len(history))
	}
	if history[0].Ride.ID != "new" || history[1].Ride.ID != "old" {
		t.Errorf("expected newest first, got %s, %s", history[0].Ride.ID, history[1].Ride.ID)
	}

	if _, err := f.service.History(ctx, "user-2", "user-1"); !errors.Is(err, service.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}
