package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"chovha/internal/app"
	"chovha/internal/auth"
	"chovha/internal/config"
	"chovha/internal/events"
	"chovha/internal/handler"
	"chovha/internal/logging"
	"chovha/internal/metrics"
	"chovha/internal/middleware"
	"chovha/internal/otp"
	internalRedis "chovha/internal/redis"
	"chovha/internal/repository/postgres"
	"chovha/internal/service"
	"chovha/internal/socket"
)

const limiterCleanupInterval = 5 * time.Minute

func main() {
	// Load configuration.
	cfg := config.Load()
	log := logging.New(cfg.Log.Level, cfg.Server.IsProduction())

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(startCtx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(startCtx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		rabbit, err := events.NewRabbitPublisher(startCtx, cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.WithError(err).Warn("event publishing disabled")
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	server := wireServer(ctx, db, redisClient, nrApp, publisher, cfg, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server. Background
// workers stop when ctx is done.
func wireServer(
	ctx context.Context,
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher events.Publisher,
	cfg *config.Config,
	log *logrus.Logger,
) *http.Server {
	m := metrics.New()

	hub := socket.NewHub(log, m)
	go hub.Run(ctx)

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	responseCache := internalRedis.NewResponseCache(redisClient)

	var otpStore otp.Store
	if cfg.OTP.Store == "redis" {
		otpStore = internalRedis.NewOTPStore(redisClient, cfg.OTP.TTL, cfg.OTP.MaxAttempts)
	} else {
		memory := otp.NewMemoryStore(cfg.OTP.TTL, cfg.OTP.MaxAttempts)
		memory.StartSweeper(ctx, cfg.OTP.SweepInterval)
		otpStore = memory
	}

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	locationRepo := postgres.NewDriverLocationRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Initialize services.
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub, log)
	authService := service.NewAuthService(userRepo, otpStore, otp.NewLogSender(log), tokens, m, log)
	surgeService := service.NewSurgeService(locationStore, rideRepo, log)
	rideService := service.NewRideService(service.RideServiceDeps{
		RideRepo:      rideRepo,
		UserRepo:      userRepo,
		LocationStore: locationStore,
		SurgeService:  surgeService,
		Notifier:      notificationService,
		Emitter:       hub,
		Publisher:     publisher,
		Metrics:       m,
		Log:           log,
	})
	driverService := service.NewDriverService(locationRepo, locationStore, publisher, log)
	dispatchService := service.NewDispatchService(service.DispatchServiceDeps{
		RideRepo:     rideRepo,
		UserRepo:     userRepo,
		LocationRepo: locationRepo,
		LockStore:    lockStore,
		Notifier:     notificationService,
		Emitter:      hub,
		Publisher:    publisher,
		Metrics:      m,
		Log:          log,
	})
	paymentService := service.NewPaymentService(paymentRepo, rideRepo, publisher, log)

	// Rate limiters.
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow)
	otpLimiter := middleware.NewRateLimiter(cfg.RateLimit.OTPRequests, cfg.RateLimit.OTPWindow)
	rideLimiter := middleware.NewRateLimiter(cfg.RateLimit.RideRequests, cfg.RateLimit.RideWindow)
	for _, l := range []*middleware.RateLimiter{apiLimiter, otpLimiter, rideLimiter} {
		l.StartCleanup(ctx, limiterCleanupInterval)
	}

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:         handler.NewAuthHandler(authService),
		RideHandler:         handler.NewRideHandler(rideService),
		DriverHandler:       handler.NewDriverHandler(driverService, dispatchService),
		PaymentHandler:      handler.NewPaymentHandler(paymentService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		Tokens:              tokens,
		Hub:                 hub,
		ResponseCache:       responseCache,
		Metrics:             m,
		NewRelicApp:         nrApp,
		Log:                 log,
		CORSOrigins:         cfg.Server.CORSOrigins,
		APILimiter:          apiLimiter,
		OTPLimiter:          otpLimiter,
		RideLimiter:         rideLimiter,
	})

	// WriteTimeout does not apply to hijacked websocket connections.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
