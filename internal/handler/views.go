package handler

import (
	"time"

	"chovha/internal/domain"
	"chovha/internal/redis"
	"chovha/internal/service"
)

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID         string `json:"id"`
	Phone      string `json:"phone"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Email      string `json:"email,omitempty"`
	UserType   string `json:"user_type"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

func toUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:         u.ID,
		Phone:      u.Phone,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		UserType:   string(u.UserType),
		IsVerified: u.IsVerified,
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

// RideResponse is the public view of a ride.
type RideResponse struct {
	ID                 string        `json:"id"`
	PassengerID        string        `json:"passenger_id"`
	DriverID           string        `json:"driver_id,omitempty"`
	PickupAddress      string        `json:"pickup_address"`
	PickupLatitude     float64       `json:"pickup_latitude"`
	PickupLongitude    float64       `json:"pickup_longitude"`
	DestinationAddress string        `json:"destination_address"`
	DestinationLat     float64       `json:"destination_latitude"`
	DestinationLng     float64       `json:"destination_longitude"`
	RideType           string        `json:"ride_type"`
	FareAmount         float64       `json:"fare_amount"`
	DistanceKm         float64       `json:"distance_km"`
	EstimatedDuration  int           `json:"estimated_duration"`
	SurgeMultiplier    float64       `json:"surge_multiplier"`
	Status             string        `json:"status"`
	StartedAt          string        `json:"started_at,omitempty"`
	CompletedAt        string        `json:"completed_at,omitempty"`
	CreatedAt          string        `json:"created_at"`
	Passenger          *UserResponse `json:"passenger,omitempty"`
	Driver             *UserResponse `json:"driver,omitempty"`
}

func toRideResponse(r *domain.Ride) *RideResponse {
	if r == nil {
		return nil
	}
	return &RideResponse{
		ID:                 r.ID,
		PassengerID:        r.PassengerID,
		DriverID:           r.DriverID,
		PickupAddress:      r.Pickup.Address,
		PickupLatitude:     r.Pickup.Latitude,
		PickupLongitude:    r.Pickup.Longitude,
		DestinationAddress: r.Destination.Address,
		DestinationLat:     r.Destination.Latitude,
		DestinationLng:     r.Destination.Longitude,
		RideType:           string(r.RideType),
		FareAmount:         r.FareAmount,
		DistanceKm:         r.DistanceKm,
		EstimatedDuration:  r.EstimatedDuration,
		SurgeMultiplier:    r.SurgeMultiplier,
		Status:             string(r.Status),
		StartedAt:          formatTime(r.StartedAt),
		CompletedAt:        formatTime(r.CompletedAt),
		CreatedAt:          formatTime(r.CreatedAt),
	}
}

func toRideDetailsResponse(d *service.RideDetails) *RideResponse {
	resp := toRideResponse(d.Ride)
	resp.Passenger = toUserResponse(d.Passenger)
	resp.Driver = toUserResponse(d.Driver)
	return resp
}

// NearbyDriverResponse is an online driver near a pickup.
type NearbyDriverResponse struct {
	DriverID   string  `json:"driver_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}

func toNearbyDrivers(drivers []redis.DriverLocation) []NearbyDriverResponse {
	out := make([]NearbyDriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, NearbyDriverResponse{
			DriverID:   d.DriverID,
			Latitude:   d.Lat,
			Longitude:  d.Lng,
			DistanceKm: d.DistanceKm,
		})
	}
	return out
}

// DriverLocationResponse is the stored position of a driver.
type DriverLocationResponse struct {
	DriverID    string  `json:"driver_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Heading     float64 `json:"heading"`
	IsOnline    bool    `json:"is_online"`
	LastUpdated string  `json:"last_updated"`
}

func toDriverLocationResponse(l *domain.DriverLocation) DriverLocationResponse {
	return DriverLocationResponse{
		DriverID:    l.DriverID,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Heading:     l.Heading,
		IsOnline:    l.IsOnline,
		LastUpdated: formatTime(l.LastUpdated),
	}
}

// NearbyRideResponse is an open ride with its distance from the driver.
type NearbyRideResponse struct {
	*RideResponse
	DistanceToPickup float64 `json:"distance_to_pickup_km"`
}

// PaymentResponse is a driver payment.
type PaymentResponse struct {
	ID             string        `json:"id"`
	DriverID       string        `json:"driver_id"`
	RideID         string        `json:"ride_id"`
	Amount         float64       `json:"amount"`
	CommissionRate float64       `json:"commission_rate"`
	Commission     float64       `json:"commission"`
	NetAmount      float64       `json:"net_amount"`
	Status         string        `json:"status"`
	PaymentDate    string        `json:"payment_date,omitempty"`
	CreatedAt      string        `json:"created_at"`
	Ride           *RideResponse `json:"ride,omitempty"`
}

func toPaymentResponse(p *domain.DriverPayment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		DriverID:       p.DriverID,
		RideID:         p.RideID,
		Amount:         p.Amount,
		CommissionRate: p.CommissionRate,
		Commission:     p.Commission(),
		NetAmount:      p.Net(),
		Status:         string(p.Status),
		PaymentDate:    formatTime(p.PaymentDate),
		CreatedAt:      formatTime(p.CreatedAt),
		Ride:           toRideResponse(p.Ride),
	}
}

// NotificationResponse is a user notification.
type NotificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: formatTime(n.CreatedAt),
	}
}
