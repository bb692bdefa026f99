package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"chovha/internal/auth"
	"chovha/internal/domain"
	"chovha/internal/handler"
	"chovha/internal/metrics"
	"chovha/internal/middleware"
	"chovha/internal/redis"
	"chovha/internal/socket"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler         *handler.AuthHandler
	RideHandler         *handler.RideHandler
	DriverHandler       *handler.DriverHandler
	PaymentHandler      *handler.PaymentHandler
	NotificationHandler *handler.NotificationHandler

	Tokens        *auth.TokenService
	Hub           *socket.Hub
	ResponseCache redis.ResponseCacheInterface
	Metrics       *metrics.Metrics
	NewRelicApp   *newrelic.Application
	Log           logrus.FieldLogger
	CORSOrigins   []string

	APILimiter  *middleware.RateLimiter
	OTPLimiter  *middleware.RateLimiter
	RideLimiter *middleware.RateLimiter
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(middleware.CORS(deps.CORSOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	router.GET("/health", handler.Health)
	router.GET("/socket", deps.Hub.ServeWS(deps.Tokens))
	router.NoRoute(handler.NotFound)

	idempotent := middleware.Idempotency(deps.ResponseCache)

	api := router.Group("/api")
	if deps.APILimiter != nil {
		api.Use(deps.APILimiter.Middleware(middleware.ByClientIP))
	}
	{
		authRoutes := api.Group("/auth")
		{
			sendOTP := []gin.HandlerFunc{deps.AuthHandler.SendOTP}
			if deps.OTPLimiter != nil {
				sendOTP = append([]gin.HandlerFunc{deps.OTPLimiter.Middleware(middleware.ByPhone)}, sendOTP...)
			}
			authRoutes.POST("/send-otp", sendOTP...)
			authRoutes.POST("/verify-otp", deps.AuthHandler.VerifyOTP)
		}

		authed := api.Group("", middleware.Authenticate(deps.Tokens))

		rides := authed.Group("/rides")
		{
			request := []gin.HandlerFunc{idempotent, deps.RideHandler.RequestRide}
			if deps.RideLimiter != nil {
				request = append([]gin.HandlerFunc{deps.RideLimiter.Middleware(middleware.ByUserID)}, request...)
			}
			rides.POST("/request", request...)
			rides.GET("/user/:userId", deps.RideHandler.History)
			rides.GET("/:rideId", deps.RideHandler.GetRide)
			rides.PATCH("/:rideId/status", deps.RideHandler.UpdateStatus)
		}

		drivers := authed.Group("/drivers", middleware.RequireUserType(domain.UserTypeDriver))
		{
			drivers.POST("/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/nearby-rides", deps.DriverHandler.NearbyRides)
			drivers.POST("/accept-ride", deps.DriverHandler.AcceptRide)
		}

		payments := authed.Group("/payments", middleware.RequireUserType(domain.UserTypeDriver))
		{
			payments.GET("/driver", deps.PaymentHandler.ListEarnings)
			payments.GET("/driver/summary", deps.PaymentHandler.Summary)
			payments.POST("/process", idempotent, deps.PaymentHandler.Process)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", deps.NotificationHandler.List)
			notifications.PATCH("/:id/read", deps.NotificationHandler.MarkRead)
		}
	}

	return router
}
