package domain

import (
	"math"
	"time"
)

// PaymentStatus represents the current status of a driver payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// DriverPayment records what a driver earned for a ride.
type DriverPayment struct {
	ID             string
	DriverID       string
	RideID         string
	Amount         float64
	CommissionRate float64
	Status         PaymentStatus
	PaymentDate    time.Time
	CreatedAt      time.Time

	// Ride is populated by listing queries that join the ride row.
	Ride *Ride
}

// Commission is the platform's share of the payment.
func (p *DriverPayment) Commission() float64 {
	return math.Round(p.Amount*p.CommissionRate*100) / 100
}

// Net is what the driver keeps after commission.
func (p *DriverPayment) Net() float64 {
	return math.Round((p.Amount-p.Commission())*100) / 100
}
