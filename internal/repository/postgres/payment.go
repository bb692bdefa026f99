package postgres

import (
	"context"
	"database/sql"
	"time"

	"chovha/internal/domain"
	"chovha/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// Create persists a payment. The unique ride_id makes a second payment for
// the same ride a no-op that reports ErrDuplicate.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.DriverPayment) error {
	query := `
		INSERT INTO driver_payments (id, driver_id, ride_id, amount, commission_rate, status, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ride_id) DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.DriverID,
		payment.RideID,
		payment.Amount,
		payment.CommissionRate,
		payment.Status,
		payment.PaymentDate,
		payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrDuplicate
	}

	return nil
}

// ListByDriver returns one page of the driver's payments joined with their rides.
func (r *PaymentRepository) ListByDriver(ctx context.Context, driverID string, limit, offset int) ([]*domain.DriverPayment, int, error) {
	var total int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM driver_payments WHERE driver_id = $1`, driverID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.id, p.driver_id, p.ride_id, p.amount, p.commission_rate, p.status, p.payment_date, p.created_at,
			r.pickup_address, r.destination_address, r.distance_km, r.fare_amount, r.created_at
		FROM driver_payments p
		LEFT JOIN rides r ON r.id = p.ride_id
		WHERE p.driver_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments := make([]*domain.DriverPayment, 0, limit)
	for rows.Next() {
		var p domain.DriverPayment
		var paymentDate sql.NullTime
		var pickup, destination sql.NullString
		var distance, fare sql.NullFloat64
		var rideCreatedAt sql.NullTime

		if err := rows.Scan(
			&p.ID,
			&p.DriverID,
			&p.RideID,
			&p.Amount,
			&p.CommissionRate,
			&p.Status,
			&paymentDate,
			&p.CreatedAt,
			&pickup,
			&destination,
			&distance,
			&fare,
			&rideCreatedAt,
		); err != nil {
			return nil, 0, err
		}

		if paymentDate.Valid {
			p.PaymentDate = paymentDate.Time
		}
		if rideCreatedAt.Valid {
			p.Ride = &domain.Ride{
				ID:          p.RideID,
				DriverID:    p.DriverID,
				Pickup:      domain.Location{Address: pickup.String},
				Destination: domain.Location{Address: destination.String},
				DistanceKm:  distance.Float64,
				FareAmount:  fare.Float64,
				CreatedAt:   rideCreatedAt.Time,
			}
		}
		payments = append(payments, &p)
	}

	return payments, total, rows.Err()
}

// TotalsSince aggregates the driver's payments dated at or after since.
func (r *PaymentRepository) TotalsSince(ctx context.Context, driverID string, since time.Time) (*repository.PaymentTotals, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount * commission_rate), 0)
		FROM driver_payments
		WHERE driver_id = $1 AND payment_date >= $2
	`

	var totals repository.PaymentTotals
	if err := r.q.QueryRowContext(ctx, query, driverID, since).Scan(
		&totals.Rides,
		&totals.Earnings,
		&totals.Commission,
	); err != nil {
		return nil, err
	}

	return &totals, nil
}
