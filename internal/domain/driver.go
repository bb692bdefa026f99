package domain

import "time"

// DriverLocation is the last reported position of a driver.
type DriverLocation struct {
	DriverID    string
	Latitude    float64
	Longitude   float64
	Heading     float64
	IsOnline    bool
	LastUpdated time.Time
}
