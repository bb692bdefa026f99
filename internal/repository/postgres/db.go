package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"chovha/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)

	_ repository.UserRepository           = (*UserRepository)(nil)
	_ repository.RideRepository           = (*RideRepository)(nil)
	_ repository.DriverLocationRepository = (*DriverLocationRepository)(nil)
	_ repository.PaymentRepository        = (*PaymentRepository)(nil)
	_ repository.NotificationRepository   = (*NotificationRepository)(nil)
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
