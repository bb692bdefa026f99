package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chovha/internal/middleware"
	"chovha/internal/pricing"
	"chovha/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService   *service.DriverService
	dispatchService *service.DispatchService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, dispatchService *service.DispatchService) *DriverHandler {
	return &DriverHandler{
		driverService:   driverService,
		dispatchService: dispatchService,
	}
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Heading   float64  `json:"heading"`
	IsOnline  *bool    `json:"is_online"`
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	RideID string `json:"rideId"`
}

// UpdateLocation handles POST /api/drivers/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondError(c, service.ErrCoordinatesRequired)
		return
	}

	online := true
	if req.IsOnline != nil {
		online = *req.IsOnline
	}

	loc, err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		DriverID:  middleware.UserID(c),
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Heading:   req.Heading,
		IsOnline:  online,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "Location updated successfully", toDriverLocationResponse(loc))
}

// NearbyRides handles GET /api/drivers/nearby-rides
func (h *DriverHandler) NearbyRides(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("longitude"), 64)
	if latErr != nil || lngErr != nil {
		respondError(c, service.ErrCoordinatesRequired)
		return
	}

	radius := pricing.DefaultSearchRadiusKm
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, service.ErrInvalidRadius)
			return
		}
		radius = r
	}

	result, err := h.dispatchService.NearbyRides(c.Request.Context(), service.NearbyRidesRequest{
		DriverID:  middleware.UserID(c),
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radius,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	rides := make([]NearbyRideResponse, 0, len(result.Rides))
	for _, r := range result.Rides {
		rides = append(rides, NearbyRideResponse{
			RideResponse:     toRideResponse(r.Ride),
			DistanceToPickup: r.DistanceKm,
		})
	}

	message := ""
	if result.Offline {
		message = "Driver is offline"
	}
	respondJSON(c, http.StatusOK, message, rides)
}

// AcceptRide handles POST /api/drivers/accept-ride
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.RideID == "" {
		respondBadRequest(c, "Ride ID is required")
		return
	}

	ride, err := h.dispatchService.AcceptRide(c.Request.Context(), middleware.UserID(c), req.RideID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "Ride accepted successfully", toRideResponse(ride))
}
