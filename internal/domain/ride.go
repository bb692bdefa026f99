package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested     RideStatus = "requested"
	RideStatusAccepted      RideStatus = "accepted"
	RideStatusDriverEnRoute RideStatus = "driver_en_route"
	RideStatusArrived       RideStatus = "arrived"
	RideStatusInProgress    RideStatus = "in_progress"
	RideStatusCompleted     RideStatus = "completed"
	RideStatusCancelled     RideStatus = "cancelled"
)

// RideStatuses lists every status a client may assert.
var RideStatuses = []RideStatus{
	RideStatusRequested,
	RideStatusAccepted,
	RideStatusDriverEnRoute,
	RideStatusArrived,
	RideStatusInProgress,
	RideStatusCompleted,
	RideStatusCancelled,
}

// IsValid reports whether s is a known ride status.
func (s RideStatus) IsValid() bool {
	for _, status := range RideStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsActive reports whether a driver holding a ride in this status is busy.
func (s RideStatus) IsActive() bool {
	switch s {
	case RideStatusAccepted, RideStatusDriverEnRoute, RideStatusArrived, RideStatusInProgress:
		return true
	}
	return false
}

// RideType is the service class a passenger booked.
type RideType string

const (
	RideTypeStandard RideType = "standard"
	RideTypePremium  RideType = "premium"
)

// IsValid reports whether t is a known ride type.
func (t RideType) IsValid() bool {
	return t == RideTypeStandard || t == RideTypePremium
}

// Location is a named point on the map.
type Location struct {
	Address   string
	Latitude  float64
	Longitude float64
}

// Ride represents a ride request and its lifecycle.
type Ride struct {
	ID                string
	PassengerID       string
	DriverID          string
	Pickup            Location
	Destination       Location
	RideType          RideType
	FareAmount        float64
	DistanceKm        float64
	EstimatedDuration int    // minutes
	SurgeMultiplier   float64 // 1.0 = no surge
	Status            RideStatus
	StartedAt         time.Time
	CompletedAt       time.Time
	CreatedAt         time.Time
}

// IsParticipant reports whether userID is the ride's passenger or driver.
func (r *Ride) IsParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	return r.PassengerID == userID || r.DriverID == userID
}
