package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/events"
	"chovha/internal/pricing"
	"chovha/internal/repository"
)

const (
	defaultEarningsPage  = 1
	defaultEarningsLimit = 10
	maxEarningsLimit     = 100
)

// Summary periods.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// PaymentService handles driver earnings.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	rideRepo    repository.RideRepository
	publisher   events.Publisher
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	rideRepo repository.RideRepository,
	publisher events.Publisher,
	log logrus.FieldLogger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		rideRepo:    rideRepo,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// EarningsSummary totals a set of payments.
type EarningsSummary struct {
	TotalEarnings   float64
	TotalCommission float64
	NetEarnings     float64
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
}

// EarningsPage is one page of a driver's payments.
type EarningsPage struct {
	Payments   []*domain.DriverPayment
	Summary    EarningsSummary
	Pagination Pagination
}

// ListEarnings returns a page of the driver's payments, newest first. Zero
// or negative page and limit fall back to the defaults.
func (s *PaymentService) ListEarnings(ctx context.Context, driverID string, page, limit int) (*EarningsPage, error) {
	if page < 1 {
		page = defaultEarningsPage
	}
	if limit < 1 {
		limit = defaultEarningsLimit
	}
	if limit > maxEarningsLimit {
		limit = maxEarningsLimit
	}

	payments, total, err := s.paymentRepo.ListByDriver(ctx, driverID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	var summary EarningsSummary
	for _, p := range payments {
		summary.TotalEarnings += p.Amount
		summary.TotalCommission += p.Commission()
	}
	summary.TotalEarnings = pricing.Round2(summary.TotalEarnings)
	summary.TotalCommission = pricing.Round2(summary.TotalCommission)
	summary.NetEarnings = pricing.Round2(summary.TotalEarnings - summary.TotalCommission)

	return &EarningsPage{
		Payments: payments,
		Summary:  summary,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// ProcessPaymentRequest contains the parameters for paying a driver.
type ProcessPaymentRequest struct {
	DriverID       string
	RideID         string
	Amount         float64
	CommissionRate *float64
}

// PaymentEvent is the broker payload for a processed payment.
type PaymentEvent struct {
	PaymentID      string  `json:"payment_id"`
	DriverID       string  `json:"driver_id"`
	RideID         string  `json:"ride_id"`
	Amount         float64 `json:"amount"`
	CommissionRate float64 `json:"commission_rate"`
}

// Process records the driver's payment for a completed ride. Each ride is
// paid at most once.
func (s *PaymentService) Process(ctx context.Context, req ProcessPaymentRequest) (*domain.DriverPayment, error) {
	if req.Amount < 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, ErrInvalidPaymentAmount
	}
	if req.CommissionRate != nil && (*req.CommissionRate < 0 || *req.CommissionRate > 1) {
		return nil, ErrInvalidCommissionRate
	}
	if req.RideID == "" {
		return nil, ErrRideNotFound
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.DriverID != req.DriverID {
		return nil, ErrRideNotFound
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	rate := pricing.CommissionRate(ride.RideType)
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}

	now := s.now().UTC()
	payment := &domain.DriverPayment{
		ID:             uuid.New().String(),
		DriverID:       req.DriverID,
		RideID:         ride.ID,
		Amount:         req.Amount,
		CommissionRate: rate,
		Status:         domain.PaymentStatusPaid,
		PaymentDate:    now,
		CreatedAt:      now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPaymentAlreadyProcessed
		}
		return nil, err
	}

	publish(ctx, s.publisher, s.log, events.PaymentProcessed, PaymentEvent{
		PaymentID:      payment.ID,
		DriverID:       payment.DriverID,
		RideID:         payment.RideID,
		Amount:         payment.Amount,
		CommissionRate: payment.CommissionRate,
	})

	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"ride_id":    payment.RideID,
		"driver_id":  payment.DriverID,
		"amount":     payment.Amount,
	}).Info("payment processed")

	return payment, nil
}

// PeriodSummary totals a driver's payments since the start of a period.
type PeriodSummary struct {
	Period          string
	TotalRides      int
	TotalEarnings   float64
	TotalCommission float64
	NetEarnings     float64
}

// Summary aggregates the driver's payments for period. Unknown periods are
// treated as month.
func (s *PaymentService) Summary(ctx context.Context, driverID, period string) (*PeriodSummary, error) {
	since, period := PeriodStart(s.now(), period)

	totals, err := s.paymentRepo.TotalsSince(ctx, driverID, since)
	if err != nil {
		return nil, err
	}

	earnings := pricing.Round2(totals.Earnings)
	commission := pricing.Round2(totals.Commission)
	return &PeriodSummary{
		Period:          period,
		TotalRides:      totals.Rides,
		TotalEarnings:   earnings,
		TotalCommission: commission,
		NetEarnings:     pricing.Round2(earnings - commission),
	}, nil
}

// PeriodStart returns the beginning of the period containing now, in now's
// location, and the period actually applied.
func PeriodStart(now time.Time, period string) (time.Time, string) {
	y, m, d := now.Date()
	loc := now.Location()
	switch period {
	case PeriodDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), PeriodDay
	case PeriodWeek:
		// Weeks start on Sunday.
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc), PeriodWeek
	case PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), PeriodYear
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), PeriodMonth
	}
}
