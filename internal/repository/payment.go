package repository

import (
	"context"
	"time"

	"chovha/internal/domain"
)

// PaymentTotals aggregates a driver's payments.
type PaymentTotals struct {
	Rides      int
	Earnings   float64
	Commission float64
}

// PaymentRepository defines the persistence operations for driver payments.
type PaymentRepository interface {
	// Create persists a payment. Returns ErrDuplicate if the ride was already paid.
	Create(ctx context.Context, payment *domain.DriverPayment) error

	// ListByDriver returns one page of payments with their rides, newest first,
	// and the total number of payments for the driver.
	ListByDriver(ctx context.Context, driverID string, limit, offset int) ([]*domain.DriverPayment, int, error)

	// TotalsSince aggregates the driver's payments dated at or after since.
	TotalsSince(ctx context.Context, driverID string, since time.Time) (*PaymentTotals, error)
}
