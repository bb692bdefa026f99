package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "Chovha Backend API"

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Service:   serviceName,
	})
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Route not found"})
}
