package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chovha/internal/middleware"
	"chovha/internal/service"
)

// PaymentHandler handles HTTP requests for driver payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ProcessPaymentRequest is the HTTP request body for paying a driver.
type ProcessPaymentRequest struct {
	RideID         string   `json:"rideId"`
	Amount         *float64 `json:"amount"`
	CommissionRate *float64 `json:"commissionRate"`
}

// EarningsSummaryResponse totals one page of payments.
type EarningsSummaryResponse struct {
	TotalEarnings   float64 `json:"totalEarnings"`
	TotalCommission float64 `json:"totalCommission"`
	NetEarnings     float64 `json:"netEarnings"`
}

// PaginationResponse describes one page of a listing.
type PaginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// EarningsResponse is one page of a driver's payments.
type EarningsResponse struct {
	Payments   []PaymentResponse       `json:"payments"`
	Summary    EarningsSummaryResponse `json:"summary"`
	Pagination PaginationResponse      `json:"pagination"`
}

// PeriodSummaryResponse totals a driver's payments over a period.
type PeriodSummaryResponse struct {
	Period          string  `json:"period"`
	TotalRides      int     `json:"totalRides"`
	TotalEarnings   float64 `json:"totalEarnings"`
	TotalCommission float64 `json:"totalCommission"`
	NetEarnings     float64 `json:"netEarnings"`
}

// ListEarnings handles GET /api/payments/driver
func (h *PaymentHandler) ListEarnings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.paymentService.ListEarnings(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	payments := make([]PaymentResponse, 0, len(result.Payments))
	for _, p := range result.Payments {
		payments = append(payments, toPaymentResponse(p))
	}

	respondJSON(c, http.StatusOK, "", EarningsResponse{
		Payments: payments,
		Summary: EarningsSummaryResponse{
			TotalEarnings:   result.Summary.TotalEarnings,
			TotalCommission: result.Summary.TotalCommission,
			NetEarnings:     result.Summary.NetEarnings,
		},
		Pagination: PaginationResponse{
			Page:  result.Pagination.Page,
			Limit: result.Pagination.Limit,
			Total: result.Pagination.Total,
			Pages: result.Pagination.Pages,
		},
	})
}

// Process handles POST /api/payments/process
func (h *PaymentHandler) Process(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.RideID == "" || req.Amount == nil {
		respondBadRequest(c, "Ride ID and amount are required")
		return
	}

	payment, err := h.paymentService.Process(c.Request.Context(), service.ProcessPaymentRequest{
		DriverID:       middleware.UserID(c),
		RideID:         req.RideID,
		Amount:         *req.Amount,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, "Payment processed successfully", toPaymentResponse(payment))
}

// Summary handles GET /api/payments/driver/summary
func (h *PaymentHandler) Summary(c *gin.Context) {
	summary, err := h.paymentService.Summary(c.Request.Context(), middleware.UserID(c), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, "", PeriodSummaryResponse{
		Period:          summary.Period,
		TotalRides:      summary.TotalRides,
		TotalEarnings:   summary.TotalEarnings,
		TotalCommission: summary.TotalCommission,
		NetEarnings:     summary.NetEarnings,
	})
}
