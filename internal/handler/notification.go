package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chovha/internal/middleware"
	"chovha/internal/service"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notificationService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, toNotificationResponse(n))
	}
	respondJSON(c, http.StatusOK, "", response)
}

// MarkRead handles PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, "Notification marked as read", nil)
}
