package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chovha/internal/domain"
	"chovha/internal/middleware"
	"chovha/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// LocationRequest is a named point. Coordinates are pointers so a missing
// value is told apart from zero.
type LocationRequest struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (l *LocationRequest) toDomain() (domain.Location, bool) {
	if l == nil || l.Address == "" || l.Latitude == nil || l.Longitude == nil {
		return domain.Location{}, false
	}
	return domain.Location{Address: l.Address, Latitude: *l.Latitude, Longitude: *l.Longitude}, true
}

// RequestRideRequest is the HTTP request body for requesting a ride.
type RequestRideRequest struct {
	Pickup      *LocationRequest `json:"pickup"`
	Destination *LocationRequest `json:"destination"`
	RideType    string           `json:"rideType"`
}

// RequestRideResponse is the stored ride and the drivers around its pickup.
type RequestRideResponse struct {
	Ride          *RideResponse          `json:"ride"`
	NearbyDrivers []NearbyDriverResponse `json:"nearbyDrivers"`
}

// UpdateStatusRequest is the HTTP request body for changing a ride's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RequestRide handles POST /api/rides/request
func (h *RideHandler) RequestRide(c *gin.Context) {
	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Pickup == nil || req.Destination == nil {
		respondBadRequest(c, "Pickup and destination are required")
		return
	}
	pickup, ok := req.Pickup.toDomain()
	if !ok {
		respondError(c, service.ErrInvalidPickupLocation)
		return
	}
	destination, ok := req.Destination.toDomain()
	if !ok {
		respondError(c, service.ErrInvalidDestinationLocation)
		return
	}

	result, err := h.rideService.RequestRide(c.Request.Context(), service.RequestRideRequest{
		PassengerID: middleware.UserID(c),
		Pickup:      pickup,
		Destination: destination,
		RideType:    domain.RideType(req.RideType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, "Ride requested successfully", RequestRideResponse{
		Ride:          toRideResponse(result.Ride),
		NearbyDrivers: toNearbyDrivers(result.NearbyDrivers),
	})
}

// GetRide handles GET /api/rides/:rideId
func (h *RideHandler) GetRide(c *gin.Context) {
	details, err := h.rideService.GetRide(c.Request.Context(), c.Param("rideId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "", toRideDetailsResponse(details))
}

// UpdateStatus handles PATCH /api/rides/:rideId/status
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(), service.UpdateStatusRequest{
		RideID: c.Param("rideId"),
		UserID: middleware.UserID(c),
		Status: domain.RideStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "Ride status updated", toRideResponse(ride))
}

// History handles GET /api/rides/user/:userId
func (h *RideHandler) History(c *gin.Context) {
	rides, err := h.rideService.History(c.Request.Context(), middleware.UserID(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*RideResponse, 0, len(rides))
	for _, d := range rides {
		response = append(response, toRideDetailsResponse(d))
	}
	respondJSON(c, http.StatusOK, "", response)
}
