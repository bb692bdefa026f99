package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"chovha/internal/logging"
	"chovha/internal/repository"
	"chovha/internal/service"
)

const internalErrorMessage = "Internal server error"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the envelope of every successful API response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Unmapped errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		logging.FromContext(c, logrus.StandardLogger()).WithError(err).Error("unhandled error")
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: internalErrorMessage})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondBadRequest sends a 400 with message.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondJSON sends a success envelope with the given status code.
func respondJSON(c *gin.Context, code int, message string, data any) {
	c.JSON(code, SuccessResponse{Success: true, Message: message, Data: data})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, service.ErrRideUnavailable),
		errors.Is(err, service.ErrNotificationNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrPhoneRequired),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrOTPRequired),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrUserDataRequired),
		errors.Is(err, service.ErrInvalidUserType),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDestinationLocation),
		errors.Is(err, service.ErrInvalidRideType),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrCoordinatesRequired),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.Is(err, service.ErrInvalidCommissionRate),
		errors.Is(err, service.ErrRideNotCompleted),
		errors.Is(err, service.ErrPaymentAlreadyProcessed):
		return http.StatusBadRequest

	// Forbidden errors
	case errors.Is(err, service.ErrNotAuthorizedToView),
		errors.Is(err, service.ErrNotAuthorizedToUpdate),
		errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrDriverHasActiveRide),
		errors.Is(err, service.ErrDriverBusy),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
