package repository

import (
	"context"
	"time"

	"chovha/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListRequested returns up to limit unassigned rides, newest first.
	ListRequested(ctx context.Context, limit int) ([]*domain.Ride, error)

	// ListByUser returns up to limit rides where userID is passenger or driver, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Ride, error)

	// UpdateStatus overwrites the status. in_progress stamps started_at and
	// completed stamps completed_at with at.
	UpdateStatus(ctx context.Context, id string, status domain.RideStatus, at time.Time) (*domain.Ride, error)

	// Assign sets the driver and moves the ride to accepted only if it is
	// still requested. Returns ErrNotFound otherwise.
	Assign(ctx context.Context, rideID, driverID string) (*domain.Ride, error)

	// HasActiveForDriver reports whether the driver holds a ride in an active status.
	HasActiveForDriver(ctx context.Context, driverID string) (bool, error)
}
