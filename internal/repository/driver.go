package repository

import (
	"context"

	"chovha/internal/domain"
)

// DriverLocationRepository defines the persistence operations for driver positions.
type DriverLocationRepository interface {
	// Upsert stores the driver's latest position and availability.
	Upsert(ctx context.Context, loc *domain.DriverLocation) error

	// GetByDriverID retrieves the last known position of a driver.
	GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLocation, error)
}
