package tests

import (
	"context"
	"errors"
	"testing"

	"chovha/internal/events"
	"chovha/internal/service"
)

// ──────────────────────────────────────────────
// 4. DRIVER LOCATION UPDATES
// ──────────────────────────────────────────────

func newDriverService() (*service.DriverService, *MockDriverLocationRepository, *MockLocationStore, *MockPublisher) {
	repo := NewMockDriverLocationRepository()
	store := NewMockLocationStore()
	pub := NewMockPublisher()
	return service.NewDriverService(repo, store, pub, testLogger()), repo, store, pub
}

func TestUpdateLocation_OnlineDriverIsIndexed(t *testing.T) {
	t.Parallel()
	svc, repo, store, pub := newDriverService()

	loc, err := svc.UpdateLocation(context.Background(), service.UpdateLocationRequest{
		DriverID:  "driver-1",
		Latitude:  27.7154,
		Longitude: 85.3123,
		Heading:   90,
		IsOnline:  true,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if loc.LastUpdated.IsZero() {
		t.Error("expected last_updated to be stamped")
	}

	stored, err := repo.GetByDriverID(context.Background(), "driver-1")
	if err != nil || !stored.IsOnline || stored.Heading != 90 {
		t.Fatalf("expected stored online location, got %+v, %v", stored, err)
	}
	if !store.HasLocation("driver-1") {
		t.Error("expected driver in the geo index")
	}
	if n := pub.Count(events.DriverLocationUpdated); n != 1 {
		t.Errorf("expected 1 driver.location_updated event, got %d", n)
	}
}

func TestUpdateLocation_OfflineDriverLeavesIndex(t *testing.T) {
	t.Parallel()
	svc, _, store, _ := newDriverService()
	ctx := context.Background()

	_, _ = svc.UpdateLocation(ctx, service.UpdateLocationRequest{DriverID: "driver-1", Latitude: 27.7, Longitude: 85.3, IsOnline: true})
	if _, err := svc.UpdateLocation(ctx, service.UpdateLocationRequest{DriverID: "driver-1", Latitude: 27.7, Longitude: 85.3, IsOnline: false}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if store.HasLocation("driver-1") {
		t.Error("expected offline driver to be removed from the geo index")
	}
	if store.RemoveLocationCallCount != 1 {
		t.Errorf("expected 1 RemoveLocation call, got %d", store.RemoveLocationCallCount)
	}
}

func TestUpdateLocation_IndexFailureDoesNotFailUpdate(t *testing.T) {
	t.Parallel()
	svc, repo, store, _ := newDriverService()
	store.UpdateLocationError = errInjected

	if _, err := svc.UpdateLocation(context.Background(), service.UpdateLocationRequest{DriverID: "driver-1", Latitude: 27.7, Longitude: 85.3, IsOnline: true}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if repo.UpsertCallCount != 1 {
		t.Errorf("expected the row to be stored, got %d upserts", repo.UpsertCallCount)
	}
}

func TestUpdateLocation_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		req  service.UpdateLocationRequest
	}{
		{name: "latitude above 90", req: service.UpdateLocationRequest{DriverID: "d", Latitude: 90.1, Longitude: 0}},
		{name: "longitude below -180", req: service.UpdateLocationRequest{DriverID: "d", Latitude: 0, Longitude: -180.5}},
		{name: "heading above 360", req: service.UpdateLocationRequest{DriverID: "d", Latitude: 0, Longitude: 0, Heading: 361}},
		{name: "negative heading", req: service.UpdateLocationRequest{DriverID: "d", Latitude: 0, Longitude: 0, Heading: -1}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, _, _ := newDriverService()
			if _, err := svc.UpdateLocation(context.Background(), tc.req); !errors.Is(err, service.ErrInvalidLocation) {
				t.Errorf("expected ErrInvalidLocation, got %v", err)
			}
			if repo.UpsertCallCount != 0 {
				t.Error("expected nothing to be stored")
			}
		})
	}
}

func TestUpdateLocation_StoreFailure_Propagates(t *testing.T) {
	t.Parallel()
	svc, repo, store, _ := newDriverService()
	repo.UpsertError = errInjected

	if _, err := svc.UpdateLocation(context.Background(), service.UpdateLocationRequest{DriverID: "driver-1", Latitude: 27.7, Longitude: 85.3, IsOnline: true}); !errors.Is(err, errInjected) {
		t.Fatalf("expected store error, got %v", err)
	}
	if store.UpdateLocationCallCount != 0 {
		t.Error("expected geo index untouched when the row was not stored")
	}
}
