package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chovha/internal/domain"
	"chovha/internal/repository"
)

const rideColumns = `id, passenger_id, driver_id,
	pickup_address, pickup_latitude, pickup_longitude,
	destination_address, destination_latitude, destination_longitude,
	ride_type, fare_amount, distance_km, estimated_duration, surge_multiplier,
	status, started_at, completed_at, created_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, passenger_id, driver_id,
			pickup_address, pickup_latitude, pickup_longitude,
			destination_address, destination_latitude, destination_longitude,
			ride_type, fare_amount, distance_km, estimated_duration, surge_multiplier,
			status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	// Default surge to 1.0 if not set
	surgeMultiplier := ride.SurgeMultiplier
	if surgeMultiplier < 1.0 {
		surgeMultiplier = 1.0
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		nullString(ride.DriverID),
		ride.Pickup.Address,
		ride.Pickup.Latitude,
		ride.Pickup.Longitude,
		ride.Destination.Address,
		ride.Destination.Latitude,
		ride.Destination.Longitude,
		ride.RideType,
		ride.FareAmount,
		ride.DistanceKm,
		ride.EstimatedDuration,
		surgeMultiplier,
		ride.Status,
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// ListRequested returns unassigned rides, newest first.
func (r *RideRepository) ListRequested(ctx context.Context, limit int) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides WHERE status = $1
		ORDER BY created_at DESC LIMIT $2
	`
	return r.list(ctx, query, domain.RideStatusRequested, limit)
}

// ListByUser returns the user's rides as passenger or driver, newest first.
func (r *RideRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides WHERE passenger_id = $1 OR driver_id = $1
		ORDER BY created_at DESC LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

// UpdateStatus overwrites the ride status and stamps lifecycle times. Moving
// a ride back to requested releases its driver so it can be accepted again.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, status domain.RideStatus, at time.Time) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $1,
			driver_id = CASE WHEN $1 = 'requested' THEN NULL ELSE driver_id END,
			started_at = CASE WHEN $1 = 'in_progress' THEN $2 ELSE started_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END
		WHERE id = $3
		RETURNING ` + rideColumns

	return r.getOne(ctx, query, status, at, id)
}

// Assign hands a requested ride to driverID in a single conditional write, so
// only one of several concurrent accepts can succeed.
func (r *RideRepository) Assign(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2
		WHERE id = $3 AND status = $4 AND driver_id IS NULL
		RETURNING ` + rideColumns

	return r.getOne(ctx, query, driverID, domain.RideStatusAccepted, rideID, domain.RideStatusRequested)
}

// HasActiveForDriver reports whether the driver is busy with another ride.
func (r *RideRepository) HasActiveForDriver(ctx context.Context, driverID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM rides
			WHERE driver_id = $1 AND status IN ($2, $3, $4, $5)
		)
	`

	var exists bool
	err := r.q.QueryRowContext(ctx, query, driverID,
		domain.RideStatusAccepted,
		domain.RideStatusDriverEnRoute,
		domain.RideStatusArrived,
		domain.RideStatusInProgress,
	).Scan(&exists)
	return exists, err
}

func (r *RideRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Ride, error) {
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func scanRide(s scanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, pickupAddress, destinationAddress sql.NullString
	var startedAt, completedAt sql.NullTime

	if err := s.Scan(
		&ride.ID,
		&ride.PassengerID,
		&driverID,
		&pickupAddress,
		&ride.Pickup.Latitude,
		&ride.Pickup.Longitude,
		&destinationAddress,
		&ride.Destination.Latitude,
		&ride.Destination.Longitude,
		&ride.RideType,
		&ride.FareAmount,
		&ride.DistanceKm,
		&ride.EstimatedDuration,
		&ride.SurgeMultiplier,
		&ride.Status,
		&startedAt,
		&completedAt,
		&ride.CreatedAt,
	); err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.Pickup.Address = pickupAddress.String
	ride.Destination.Address = destinationAddress.String
	if startedAt.Valid {
		ride.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}

	return &ride, nil
}
