package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chovha/internal/domain"
	"chovha/internal/service"
)

// AuthHandler handles phone sign-in.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SendOTPRequest is the HTTP request body for requesting a code.
type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// UserDataRequest is the profile supplied by a first-time user.
type UserDataRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	UserType  string `json:"userType"`
}

// VerifyOTPRequest is the HTTP request body for verifying a code.
type VerifyOTPRequest struct {
	Phone    string           `json:"phone"`
	OTP      string           `json:"otp"`
	UserData *UserDataRequest `json:"userData"`
}

// AuthResponse is the signed-in user and their token.
type AuthResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := h.authService.SendOTP(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "OTP sent successfully", gin.H{
		"success": true,
		"message": "OTP sent successfully",
	})
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := service.VerifyOTPRequest{Phone: req.Phone, OTP: req.OTP}
	if req.UserData != nil {
		in.UserData = &service.UserData{
			FirstName: req.UserData.FirstName,
			LastName:  req.UserData.LastName,
			Email:     req.UserData.Email,
			UserType:  domain.UserType(req.UserData.UserType),
		}
	}

	result, err := h.authService.VerifyOTP(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "Authentication successful", AuthResponse{
		User:  toUserResponse(result.User),
		Token: result.Token,
	})
}
