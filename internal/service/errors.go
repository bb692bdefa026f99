package service

import "errors"

var (
	// ErrPhoneRequired is returned when no phone number is supplied.
	ErrPhoneRequired = errors.New("Phone number is required")

	// ErrInvalidPhone is returned when the phone is not 10 to 15 digits.
	ErrInvalidPhone = errors.New("Invalid phone number format")

	// ErrOTPRequired is returned when verify-otp lacks the phone or the code.
	ErrOTPRequired = errors.New("Phone and OTP are required")

	// ErrInvalidOTP is returned for every failed OTP verification.
	ErrInvalidOTP = errors.New("Invalid OTP")

	// ErrUserDataRequired is returned when a new phone verifies without a profile.
	ErrUserDataRequired = errors.New("User data required for new users")

	// ErrInvalidUserType is returned when userType is neither passenger nor driver.
	ErrInvalidUserType = errors.New("Invalid user type")

	// ErrUserExists is returned when the phone is already registered.
	ErrUserExists = errors.New("User with this phone already exists")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("Invalid pickup location")

	// ErrInvalidDestinationLocation is returned when destination coordinates are invalid.
	ErrInvalidDestinationLocation = errors.New("Invalid destination location")

	// ErrInvalidRideType is returned for an unknown ride type.
	ErrInvalidRideType = errors.New("Invalid ride type")

	// ErrRideNotFound is returned when the ride does not exist or is not the caller's.
	ErrRideNotFound = errors.New("Ride not found")

	// ErrNotAuthorizedToView is returned when a non-participant reads a ride.
	ErrNotAuthorizedToView = errors.New("Not authorized to view this ride")

	// ErrNotAuthorizedToUpdate is returned when a non-participant changes a ride.
	ErrNotAuthorizedToUpdate = errors.New("Not authorized to update this ride")

	// ErrNotAuthorized is returned when a user reads someone else's history.
	ErrNotAuthorized = errors.New("Not authorized")

	// ErrInvalidStatus is returned for an unknown ride status.
	ErrInvalidStatus = errors.New("Invalid status")

	// ErrInvalidLocation is returned when driver coordinates or heading are invalid.
	ErrInvalidLocation = errors.New("Invalid location")

	// ErrCoordinatesRequired is returned when nearby-ride search lacks a position.
	ErrCoordinatesRequired = errors.New("Latitude and longitude are required")

	// ErrInvalidRadius is returned for a non-positive search radius.
	ErrInvalidRadius = errors.New("Invalid radius")

	// ErrInvalidRideID is returned when the ride ID is not a UUID.
	ErrInvalidRideID = errors.New("Invalid ride id")

	// ErrRideUnavailable is returned when the ride is missing or already assigned.
	ErrRideUnavailable = errors.New("Ride not found or already taken")

	// ErrDriverHasActiveRide is returned when a busy driver tries to accept.
	ErrDriverHasActiveRide = errors.New("Driver already has an active ride")

	// ErrDriverBusy is returned while another accept by the same driver is in flight.
	ErrDriverBusy = errors.New("Driver is already accepting a ride")

	// ErrInvalidPaymentAmount is returned for a negative amount.
	ErrInvalidPaymentAmount = errors.New("Invalid payment amount")

	// ErrInvalidCommissionRate is returned when the rate is outside 0..1.
	ErrInvalidCommissionRate = errors.New("Invalid commission rate")

	// ErrRideNotCompleted is returned when paying for an unfinished ride.
	ErrRideNotCompleted = errors.New("Ride is not completed")

	// ErrPaymentAlreadyProcessed is returned for a second payment on one ride.
	ErrPaymentAlreadyProcessed = errors.New("Payment already processed for this ride")

	// ErrNotificationNotFound is returned when the notification is missing or foreign.
	ErrNotificationNotFound = errors.New("Notification not found")
)
