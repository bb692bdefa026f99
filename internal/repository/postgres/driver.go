package postgres

import (
	"context"
	"database/sql"
	"errors"

	"chovha/internal/domain"
	"chovha/internal/repository"
)

// DriverLocationRepository is a PostgreSQL implementation of repository.DriverLocationRepository.
type DriverLocationRepository struct {
	q Querier
}

// NewDriverLocationRepository creates a new PostgreSQL driver location repository.
func NewDriverLocationRepository(db *sql.DB) *DriverLocationRepository {
	return &DriverLocationRepository{q: db}
}

// Upsert stores the driver's latest position.
func (r *DriverLocationRepository) Upsert(ctx context.Context, loc *domain.DriverLocation) error {
	query := `
		INSERT INTO driver_locations (driver_id, latitude, longitude, heading, is_online, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (driver_id) DO UPDATE
		SET latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			heading = EXCLUDED.heading,
			is_online = EXCLUDED.is_online,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.q.ExecContext(ctx, query,
		loc.DriverID,
		loc.Latitude,
		loc.Longitude,
		loc.Heading,
		loc.IsOnline,
		loc.LastUpdated,
	)
	return err
}

// GetByDriverID retrieves the last known position of a driver.
func (r *DriverLocationRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	query := `
		SELECT driver_id, latitude, longitude, heading, is_online, last_updated
		FROM driver_locations WHERE driver_id = $1
	`

	var loc domain.DriverLocation
	var heading sql.NullFloat64
	err := r.q.QueryRowContext(ctx, query, driverID).Scan(
		&loc.DriverID,
		&loc.Latitude,
		&loc.Longitude,
		&heading,
		&loc.IsOnline,
		&loc.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	loc.Heading = heading.Float64

	return &loc, nil
}
