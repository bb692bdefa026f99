package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chovha/internal/domain"
)

// Inbound events.
const (
	EventDriverOnline     = "driver-online"
	EventDriverOffline    = "driver-offline"
	EventRideRequest      = "ride-request"
	EventRideAccepted     = "ride-accepted"
	EventLocationUpdate   = "location-update"
	EventRideStatusUpdate = "ride-status-update"
	EventJoinRide         = "join-ride"
	EventLeaveRide        = "leave-ride"
)

// Outbound events.
const (
	EventDriverAvailable   = "driver-available"
	EventNewRideRequest    = "new-ride-request"
	EventDriverAssigned    = "driver-assigned"
	EventLocationUpdated   = "location-updated"
	EventRideStatusChanged = "ride-status-changed"
	EventNotification      = "notification"
	EventError             = "error"
)

var (
	errUnknownEvent  = errors.New("unknown event")
	errBadPayload    = errors.New("invalid payload")
	errNotDriver     = errors.New("driver access required")
	errIdentityClash = errors.New("payload identity does not match the connection")
)

type errorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

type driverPayload struct {
	DriverID string `json:"driverId"`
}

type rideRequestPayload struct {
	RideID      string          `json:"rideId"`
	Pickup      json.RawMessage `json:"pickup"`
	Destination json.RawMessage `json:"destination"`
}

type rideAcceptedPayload struct {
	RideID      string `json:"rideId"`
	DriverID    string `json:"driverId"`
	PassengerID string `json:"passengerId"`
}

type locationPayload struct {
	UserID    string          `json:"userId"`
	UserType  domain.UserType `json:"userType"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
}

type rideStatusPayload struct {
	RideID string `json:"rideId"`
	Status string `json:"status"`
}

type rideRoomPayload struct {
	RideID string `json:"rideId"`
}

// NewRideRequestEvent is pushed to online drivers.
type NewRideRequestEvent struct {
	RideID      string `json:"rideId"`
	Pickup      any    `json:"pickup"`
	Destination any    `json:"destination"`
	Timestamp   string `json:"timestamp"`
}

// DriverAssignedEvent is pushed to the passenger of an accepted ride.
type DriverAssignedEvent struct {
	RideID    string `json:"rideId"`
	DriverID  string `json:"driverId"`
	Timestamp string `json:"timestamp"`
}

// RideStatusChangedEvent is pushed to a ride room.
type RideStatusChangedEvent struct {
	RideID    string `json:"rideId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type locationUpdatedEvent struct {
	UserID    string  `json:"userId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

type driverAvailableEvent struct {
	DriverID  string `json:"driverId"`
	Timestamp string `json:"timestamp"`
}

// Timestamp formats t the way every event carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// handle applies one inbound frame from c.
func (h *Hub) handle(c *Client, msg Message) error {
	now := Timestamp(time.Now())

	switch msg.Event {
	case EventDriverOnline, EventDriverOffline:
		driverID, err := c.ownDriverID(msg.Data)
		if err != nil {
			return err
		}
		if msg.Event == EventDriverOffline {
			h.Leave(c, DriverRoom(driverID))
			h.Leave(c, OnlineDriversRoom)
			return nil
		}
		h.Join(c, DriverRoom(driverID))
		h.Join(c, OnlineDriversRoom)
		h.BroadcastExcept(c, EventDriverAvailable, driverAvailableEvent{DriverID: driverID, Timestamp: now})
		return nil

	case EventRideRequest:
		var p rideRequestPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.RideID == "" {
			return errBadPayload
		}
		h.EmitToRoom(OnlineDriversRoom, EventNewRideRequest, NewRideRequestEvent{
			RideID:      p.RideID,
			Pickup:      p.Pickup,
			Destination: p.Destination,
			Timestamp:   now,
		})
		return nil

	case EventRideAccepted:
		var p rideAcceptedPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.RideID == "" || p.PassengerID == "" {
			return errBadPayload
		}
		if c.UserType != domain.UserTypeDriver {
			return errNotDriver
		}
		h.EmitToRoom(PassengerRoom(p.PassengerID), EventDriverAssigned, DriverAssignedEvent{
			RideID:    p.RideID,
			DriverID:  c.UserID,
			Timestamp: now,
		})
		return nil

	case EventLocationUpdate:
		var p locationPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.UserID == "" {
			p.UserID = c.UserID
		}
		if p.UserType == "" {
			p.UserType = c.UserType
		}
		if p.UserID != c.UserID || p.UserType != c.UserType {
			return errIdentityClash
		}
		h.EmitToRoom(UserRoom(p.UserType, p.UserID), EventLocationUpdated, locationUpdatedEvent{
			UserID:    p.UserID,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Timestamp: now,
		})
		return nil

	case EventRideStatusUpdate:
		var p rideStatusPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.RideID == "" || !domain.RideStatus(p.Status).IsValid() {
			return errBadPayload
		}
		h.EmitToRoom(RideRoom(p.RideID), EventRideStatusChanged, RideStatusChangedEvent{
			RideID:    p.RideID,
			Status:    p.Status,
			Timestamp: now,
		})
		return nil

	case EventJoinRide, EventLeaveRide:
		var p rideRoomPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.RideID == "" {
			return errBadPayload
		}
		if msg.Event == EventJoinRide {
			h.Join(c, RideRoom(p.RideID))
		} else {
			h.Leave(c, RideRoom(p.RideID))
		}
		return nil
	}

	return fmt.Errorf("%w: %q", errUnknownEvent, msg.Event)
}

// ownDriverID resolves the driver a presence event refers to. Drivers may
// only announce themselves.
func (c *Client) ownDriverID(raw json.RawMessage) (string, error) {
	if c.UserType != domain.UserTypeDriver {
		return "", errNotDriver
	}
	var p driverPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", errBadPayload
		}
	}
	if p.DriverID == "" {
		return c.UserID, nil
	}
	if p.DriverID != c.UserID {
		return "", errIdentityClash
	}
	return p.DriverID, nil
}
