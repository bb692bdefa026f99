// Package events publishes ride domain events to the message broker.
package events

import (
	"context"
	"time"
)

// Routing keys published by the services.
const (
	RideRequested         = "ride.requested"
	RideAccepted          = "ride.accepted"
	RideStatusChanged     = "ride.status_changed"
	DriverLocationUpdated = "driver.location_updated"
	PaymentProcessed      = "payment.processed"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher sends domain events. Publishing is best effort; callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	return nil
}

var _ Publisher = NopPublisher{}
