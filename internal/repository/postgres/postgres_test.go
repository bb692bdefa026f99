package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chovha/internal/domain"
	"chovha/internal/repository"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var rideColumnNames = []string{
	"id", "passenger_id", "driver_id",
	"pickup_address", "pickup_latitude", "pickup_longitude",
	"destination_address", "destination_latitude", "destination_longitude",
	"ride_type", "fare_amount", "distance_km", "estimated_duration", "surge_multiplier",
	"status", "started_at", "completed_at", "created_at",
}

func rideRow(id, driverID string, status domain.RideStatus) *sqlmock.Rows {
	var driver any
	if driverID != "" {
		driver = driverID
	}
	return sqlmock.NewRows(rideColumnNames).AddRow(
		id, "passenger-1", driver,
		"Thamel", 27.7154, 85.3123,
		"Patan", 27.6710, 85.3240,
		"standard", 12.5, 5.2, 12, 1.0,
		string(status), nil, nil, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	)
}

func TestRideRepository_AssignSucceedsWhenRequested(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)

	mock.ExpectQuery(`UPDATE rides\s+SET driver_id = \$1, status = \$2\s+WHERE id = \$3 AND status = \$4 AND driver_id IS NULL`).
		WithArgs("driver-1", "accepted", "ride-1", "requested").
		WillReturnRows(rideRow("ride-1", "driver-1", domain.RideStatusAccepted))

	ride, err := repo.Assign(context.Background(), "ride-1", "driver-1")
	require.NoError(t, err)
	assert.Equal(t, "driver-1", ride.DriverID)
	assert.Equal(t, domain.RideStatusAccepted, ride.Status)
	assert.Equal(t, "Thamel", ride.Pickup.Address)
	assert.True(t, ride.StartedAt.IsZero())
}

func TestRideRepository_AssignAlreadyTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)

	mock.ExpectQuery(`UPDATE rides`).
		WithArgs("driver-2", "accepted", "ride-1", "requested").
		WillReturnRows(sqlmock.NewRows(rideColumnNames))

	_, err := repo.Assign(context.Background(), "ride-1", "driver-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRideRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)

	mock.ExpectQuery(`SELECT .* FROM rides WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRideRepository_ListRequested(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)

	rows := rideRow("ride-1", "", domain.RideStatusRequested)
	rows.AddRow(
		"ride-2", "passenger-2", nil,
		nil, 27.70, 85.30,
		nil, 27.68, 85.31,
		"premium", 20.0, 3.1, 7, 1.2,
		"requested", nil, nil, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	)
	mock.ExpectQuery(`FROM rides WHERE status = \$1\s+ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("requested", 20).
		WillReturnRows(rows)

	rides, err := repo.ListRequested(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Empty(t, rides[0].DriverID)
	assert.Empty(t, rides[1].Pickup.Address)
	assert.Equal(t, domain.RideTypePremium, rides[1].RideType)
}

func TestRideRepository_UpdateStatusStampsTime(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(rideColumnNames).AddRow(
		"ride-1", "passenger-1", "driver-1",
		"Thamel", 27.7154, 85.3123,
		"Patan", 27.6710, 85.3240,
		"standard", 12.5, 5.2, 12, 1.0,
		"in_progress", at, nil, at.Add(-time.Hour),
	)
	mock.ExpectQuery(`UPDATE rides\s+SET status = \$1`).
		WithArgs("in_progress", at, "ride-1").
		WillReturnRows(rows)

	ride, err := repo.UpdateStatus(context.Background(), "ride-1", domain.RideStatusInProgress, at)
	require.NoError(t, err)
	assert.Equal(t, at, ride.StartedAt)
	assert.True(t, ride.CompletedAt.IsZero())
}

func TestRideRepository_UpdateStatusToRequestedClearsDriver(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(rideColumnNames).AddRow(
		"ride-1", "passenger-1", nil,
		"Thamel", 27.7154, 85.3123,
		"Patan", 27.6710, 85.3240,
		"standard", 12.5, 5.2, 12, 1.0,
		"requested", nil, nil, at.Add(-time.Hour),
	)
	mock.ExpectQuery(`UPDATE rides\s+SET status = \$1,\s+driver_id = CASE WHEN \$1 = 'requested' THEN NULL ELSE driver_id END`).
		WithArgs("requested", at, "ride-1").
		WillReturnRows(rows)

	ride, err := repo.UpdateStatus(context.Background(), "ride-1", domain.RideStatusRequested, at)
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusRequested, ride.Status)
	assert.Empty(t, ride.DriverID)
}

func TestRideRepository_HasActiveForDriver(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRideRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("driver-1", "accepted", "driver_en_route", "arrived", "in_progress").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.HasActiveForDriver(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestUserRepository_CreateDuplicatePhone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &domain.User{
		ID:        "user-1",
		Phone:     "9800000000",
		FirstName: "Asha",
		UserType:  domain.UserTypePassenger,
		CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_GetByIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	cols := []string{"id", "phone", "first_name", "last_name", "email", "user_type", "is_verified", "created_at"}
	mock.ExpectQuery(`FROM users WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("user-1", "9800000001", "Asha", "Rai", nil, "passenger", true, time.Now()).
			AddRow("user-2", "9800000002", "Bikash", nil, "b@example.com", "driver", true, time.Now()))

	users, err := repo.GetByIDs(context.Background(), []string{"user-1", "user-2", "user-3"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Asha Rai", users["user-1"].FullName())
	assert.Equal(t, domain.UserTypeDriver, users["user-2"].UserType)
	assert.Equal(t, "b@example.com", users["user-2"].Email)
}

func TestUserRepository_GetByIDsEmpty(t *testing.T) {
	db, _ := newMock(t)
	repo := NewUserRepository(db)

	users, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestPaymentRepository_CreateTwiceIsDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(`INSERT INTO driver_payments .* ON CONFLICT \(ride_id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO driver_payments`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	payment := &domain.DriverPayment{
		ID:             "pay-1",
		DriverID:       "driver-1",
		RideID:         "ride-1",
		Amount:         25,
		CommissionRate: 0.15,
		Status:         domain.PaymentStatusPaid,
		PaymentDate:    time.Now(),
		CreatedAt:      time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), payment))
	assert.ErrorIs(t, repo.Create(context.Background(), payment), repository.ErrDuplicate)
}

func TestPaymentRepository_ListByDriver(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM driver_payments WHERE driver_id = \$1`).
		WithArgs("driver-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`FROM driver_payments p\s+LEFT JOIN rides r`).
		WithArgs("driver-1", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "driver_id", "ride_id", "amount", "commission_rate", "status", "payment_date", "created_at",
			"pickup_address", "destination_address", "distance_km", "fare_amount", "created_at",
		}).AddRow("pay-11", "driver-1", "ride-11", 40.0, 0.15, "paid", now, now,
			"Thamel", "Patan", 5.2, 40.0, now))

	payments, total, err := repo.ListByDriver(context.Background(), "driver-1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, payments, 1)
	require.NotNil(t, payments[0].Ride)
	assert.Equal(t, "Patan", payments[0].Ride.Destination.Address)
	assert.Equal(t, 6.0, payments[0].Commission())
}

func TestPaymentRepository_TotalsSince(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SUM\(amount \* commission_rate\)`).
		WithArgs("driver-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum", "commission"}).AddRow(3, 120.0, 18.0))

	totals, err := repo.TotalsSince(context.Background(), "driver-1", since)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Rides)
	assert.Equal(t, 120.0, totals.Earnings)
	assert.Equal(t, 18.0, totals.Commission)
}

func TestDriverLocationRepository_Upsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDriverLocationRepository(db)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO driver_locations .* ON CONFLICT \(driver_id\) DO UPDATE`).
		WithArgs("driver-1", 27.7, 85.3, 90.0, true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &domain.DriverLocation{
		DriverID:    "driver-1",
		Latitude:    27.7,
		Longitude:   85.3,
		Heading:     90,
		IsOnline:    true,
		LastUpdated: now,
	})
	require.NoError(t, err)
}

func TestDriverLocationRepository_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDriverLocationRepository(db)

	mock.ExpectQuery(`FROM driver_locations WHERE driver_id = \$1`).
		WithArgs("driver-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByDriverID(context.Background(), "driver-9")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotificationRepository_MarkReadForeign(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id = \$1 AND user_id = \$2`).
		WithArgs("note-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkRead(context.Background(), "note-1", "user-2"), repository.ErrNotFound)
}
